// Package bridge exposes a single native inference engine to concurrent
// callers. It is structured into small files by concern:
//
//   - session.go: Session type, constructor, status getters and Close.
//   - config.go: Config, LoadConfig/GenerationConfig and their defaults.
//   - state.go: lifecycle states and admission rules.
//   - errors.go: error types and predicates (IsBusy, IsNotLoaded, ...).
//   - load.go, generate.go, stream.go, stop.go, unload.go, info.go: operations.
//   - subscription.go: the stream event subscription.
//   - events.go, eventpub_memory.go: lifecycle event publishers.
//   - metrics.go: Prometheus collectors.
//
// Every engine call except Engine.Stop runs on the serializer worker, one at a
// time and in admission order. State checks, transitions and admission happen
// under Session.mu; waiting for a job happens outside it.
//
// Build tags:
//
//   - In-process llama: go-llama.cpp engine, enabled with `-tags=llama`.
//     Files: engine_llama.go, llama_cgo.go (linker rpath hints).
//     Without the tag engine_llama_stub.go is compiled and Init fails with a
//     dependency-unavailable error.
package bridge
