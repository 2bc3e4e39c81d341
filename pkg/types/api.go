package types

// LoadRequest is the payload of POST /load. Optional fields are pointers so
// that an absent field and an explicit null both select the default.
type LoadRequest struct {
	// Path to a GGUF model file. Either ModelPath or Model is required.
	// example: /home/user/models/tinyllama-1.1b.Q4_K_M.gguf
	ModelPath string `json:"modelPath,omitempty" example:"/home/user/models/tinyllama-1.1b.Q4_K_M.gguf"`
	// Registry model id, resolved against the models directory when ModelPath is empty.
	// example: tinyllama-1.1b.Q4_K_M.gguf
	Model string `json:"model,omitempty" example:"tinyllama-1.1b.Q4_K_M.gguf"`
	// CPU threads used for generation (default 4).
	// example: 4
	Threads *int `json:"nThreads,omitempty" example:"4"`
	// Layers offloaded to the GPU (default 0).
	// example: 0
	GPULayers *int `json:"nGpuLayers,omitempty" example:"0"`
	// Context window in tokens (default 2048).
	// example: 2048
	ContextSize *int `json:"contextSize,omitempty" example:"2048"`
	// Prompt evaluation batch size (default 512).
	// example: 512
	BatchSize *int `json:"batchSize,omitempty" example:"512"`
	// Enable GPU acceleration (default true).
	// example: true
	UseGPU *bool `json:"useGpu,omitempty" example:"true"`
	// Verbose native logging (default false).
	// example: false
	Verbose *bool `json:"verbose,omitempty" example:"false"`
}

// GenerateRequest is the payload of POST /generate and POST /generate/stream.
type GenerateRequest struct {
	// Required prompt text.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Sampling temperature (default 0.8).
	// example: 0.8
	Temperature *float64 `json:"temperature,omitempty" example:"0.8"`
	// Nucleus sampling probability (default 0.95).
	// example: 0.95
	TopP *float64 `json:"topP,omitempty" example:"0.95"`
	// Top-K sampling (default 40).
	// example: 40
	TopK *int `json:"topK,omitempty" example:"40"`
	// Maximum number of new tokens (default 512).
	// example: 512
	MaxTokens *int `json:"maxTokens,omitempty" example:"512"`
	// Repeat penalty (default 1.1).
	// example: 1.1
	RepeatPenalty *float64 `json:"repeatPenalty,omitempty" example:"1.1"`
}

// SuccessResponse acknowledges operations that carry no payload.
type SuccessResponse struct {
	// example: true
	Success bool `json:"success" example:"true"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	// Generated text.
	Text string `json:"text" example:"Waves fold into foam"`
	// Number of tokens produced.
	// example: 12
	TokensGenerated int `json:"tokensGenerated" example:"12"`
	// Wall-clock time including queueing, in milliseconds.
	// example: 850
	GenerationTimeMs int64 `json:"generationTimeMs" example:"850"`
}

// StreamResponse is returned by POST /generate/stream once the stream drained.
type StreamResponse struct {
	// example: true
	Success bool `json:"success" example:"true"`
	// Tokens published to the subscriber.
	// example: 12
	TokensGenerated int `json:"tokensGenerated" example:"12"`
	// Wall-clock time including queueing, in milliseconds.
	// example: 850
	GenerationTimeMs int64 `json:"generationTimeMs" example:"850"`
	// True when the stream ended early because of a stop request.
	// example: false
	Stopped bool `json:"stopped" example:"false"`
}

// StreamEvent is one line of the GET /stream NDJSON body or one WebSocket
// text message. Exactly one of Token, Done or Error is set.
type StreamEvent struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
	// Error kind (e.g. GENERATION_FAILED) accompanying Error.
	Kind string `json:"kind,omitempty"`
}

// ModelInfoResponse is returned by GET /info when a model is loaded.
type ModelInfoResponse struct {
	// example: /home/user/models/tinyllama-1.1b.Q4_K_M.gguf
	ModelPath string `json:"modelPath" example:"/home/user/models/tinyllama-1.1b.Q4_K_M.gguf"`
	// example: 1100048384
	ParamCount int64 `json:"paramCount" example:"1100048384"`
	// example: 22
	LayerCount int `json:"layerCount" example:"22"`
	// example: 2048
	ContextSize int `json:"contextSize" example:"2048"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not loaded
	Error string `json:"error" example:"model not loaded"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
	// Error kind (INVALID_ARGS, MODEL_NOT_FOUND, INIT_FAILED, MODEL_NOT_LOADED,
	// BUSY, GENERATION_FAILED, SERIALIZER_SHUTDOWN, NO_EVENT_SINK).
	// example: MODEL_NOT_LOADED
	Kind string `json:"kind,omitempty" example:"MODEL_NOT_LOADED"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Session state: unloaded, loading, ready or busy.
	// example: ready
	State string `json:"state" example:"ready"`
	// Path of the loaded model, if any.
	ModelPath string `json:"model_path,omitempty"`
	// Whether a stream subscriber is attached.
	// example: false
	Subscribed bool `json:"subscribed" example:"false"`
	// Jobs waiting on the engine worker.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Last error observed by the session (if any).
	LastError string `json:"last_error,omitempty"`
	// Total number of successful model loads.
	// example: 1
	LoadsTotal uint64 `json:"loads_total" example:"1"`
	// Total number of tokens generated across blocking and streaming calls.
	// example: 512
	TokensTotal uint64 `json:"tokens_total" example:"512"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
