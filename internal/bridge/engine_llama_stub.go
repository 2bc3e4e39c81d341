//go:build !llama

package bridge

// Stub engine compiled when the 'llama' build tag is NOT set, keeping default
// builds and CI CGO-free. Init fails, so no other method is ever reached.

// LlamaBuilt reports whether this binary has the native engine.
const LlamaBuilt = false

type llamaEngine struct{}

// NewLlamaEngine returns the go-llama.cpp engine.
func NewLlamaEngine() Engine { return &llamaEngine{} }

func (e *llamaEngine) Init(string, LoadConfig) error {
	return ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

func (e *llamaEngine) Generate(string, GenerationConfig) (Completion, error) {
	return Completion{}, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

func (e *llamaEngine) StreamInit(string, GenerationConfig) error {
	return ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

func (e *llamaEngine) StreamNext() (string, bool, error) { return "", false, nil }
func (e *llamaEngine) StreamEnd()                         {}
func (e *llamaEngine) Info() (NativeInfo, bool)           { return NativeInfo{}, false }
func (e *llamaEngine) Stop()                              {}
func (e *llamaEngine) Free()                              {}
