package types

// Model represents a discoverable GGUF model on disk.
type Model struct {
	// Stable identifier for the model (the file name).
	// example: tinyllama-1.1b.Q4_K_M.gguf
	ID string `json:"id" example:"tinyllama-1.1b.Q4_K_M.gguf"`
	// Human-friendly name, taken from GGUF general.name when present.
	// example: TinyLlama 1.1B
	Name string `json:"name" example:"TinyLlama 1.1B"`
	// Absolute path to the model file on disk.
	// example: /home/user/models/tinyllama-1.1b.Q4_K_M.gguf
	Path string `json:"path" example:"/home/user/models/tinyllama-1.1b.Q4_K_M.gguf"`
	// Quantization variant parsed from the file name.
	// example: Q4_K_M
	Quant string `json:"quant" example:"Q4_K_M"`
	// Architecture family from GGUF general.architecture (e.g., llama, qwen2, phi3).
	// example: llama
	Family string `json:"family,omitempty" example:"llama"`
	// Size of the model file in bytes.
	// example: 668788096
	SizeBytes int64 `json:"size_bytes,omitempty" example:"668788096"`
}
