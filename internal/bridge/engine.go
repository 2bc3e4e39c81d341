package bridge

// Engine is the native inference call surface. Implementations wrap a single
// stateful, non-reentrant engine instance; the Session guarantees that every
// method except Stop is invoked from the serializer worker only, one call at a
// time.
type Engine interface {
	// Init loads the model at path. A previously loaded model must have been
	// released with Free.
	Init(path string, cfg LoadConfig) error
	// Generate runs a blocking completion for prompt.
	Generate(prompt string, cfg GenerationConfig) (Completion, error)
	// StreamInit prepares a pull-based generation for prompt.
	StreamInit(prompt string, cfg GenerationConfig) error
	// StreamNext returns the next token. ok is false once the engine has no
	// more tokens for the current stream.
	StreamNext() (token string, ok bool, err error)
	// StreamEnd releases per-stream resources. It is called after every
	// StreamInit, including after failures.
	StreamEnd()
	// Info reports attributes of the loaded model; ok is false when the engine
	// has nothing to report.
	Info() (info NativeInfo, ok bool)
	// Stop asks an in-flight Generate or stream to finish early. It is the one
	// method that may be called concurrently with the others and must only
	// raise an abort signal.
	Stop()
	// Free releases the loaded model.
	Free()
}

// Completion is the native result of a blocking generation.
type Completion struct {
	Text   string
	Tokens int
}

// NativeInfo is what the engine knows about the loaded model.
type NativeInfo struct {
	ParamCount  int64
	LayerCount  int
	ContextSize int
}
