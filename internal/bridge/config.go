package bridge

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"llamabridge/internal/serializer"
	"llamabridge/pkg/types"
)

// Load defaults.
const (
	DefaultThreads     = 4
	DefaultGPULayers   = 0
	DefaultContextSize = 2048
	DefaultBatchSize   = 512
	DefaultUseGPU      = true
	DefaultVerbose     = false
)

// Generation defaults.
const (
	DefaultTemperature   = 0.8
	DefaultTopP          = 0.95
	DefaultTopK          = 40
	DefaultMaxTokens     = 512
	DefaultRepeatPenalty = 1.1
)

// LoadConfig holds the engine parameters used for model initialization.
type LoadConfig struct {
	Threads     int
	GPULayers   int
	ContextSize int
	BatchSize   int
	UseGPU      bool
	Verbose     bool
}

// GenerationConfig holds sampling parameters for a single generation.
type GenerationConfig struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	RepeatPenalty float32
}

// DefaultLoadConfig returns the load defaults.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		Threads:     DefaultThreads,
		GPULayers:   DefaultGPULayers,
		ContextSize: DefaultContextSize,
		BatchSize:   DefaultBatchSize,
		UseGPU:      DefaultUseGPU,
		Verbose:     DefaultVerbose,
	}
}

// DefaultGenerationConfig returns the generation defaults.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:   DefaultTemperature,
		TopP:          DefaultTopP,
		TopK:          DefaultTopK,
		MaxTokens:     DefaultMaxTokens,
		RepeatPenalty: DefaultRepeatPenalty,
	}
}

// loadConfigFrom overlays the fields present in req on base.
func loadConfigFrom(base LoadConfig, req types.LoadRequest) LoadConfig {
	cfg := base
	if req.Threads != nil {
		cfg.Threads = *req.Threads
	}
	if req.GPULayers != nil {
		cfg.GPULayers = *req.GPULayers
	}
	if req.ContextSize != nil {
		cfg.ContextSize = *req.ContextSize
	}
	if req.BatchSize != nil {
		cfg.BatchSize = *req.BatchSize
	}
	if req.UseGPU != nil {
		cfg.UseGPU = *req.UseGPU
	}
	if req.Verbose != nil {
		cfg.Verbose = *req.Verbose
	}
	return cfg
}

// generationConfigFrom applies defaults for absent fields. Values are passed
// through unvalidated; ranges are the engine's concern.
func generationConfigFrom(req types.GenerateRequest) GenerationConfig {
	cfg := DefaultGenerationConfig()
	if req.Temperature != nil {
		cfg.Temperature = float32(*req.Temperature)
	}
	if req.TopP != nil {
		cfg.TopP = float32(*req.TopP)
	}
	if req.TopK != nil {
		cfg.TopK = *req.TopK
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = *req.MaxTokens
	}
	if req.RepeatPenalty != nil {
		cfg.RepeatPenalty = float32(*req.RepeatPenalty)
	}
	return cfg
}

func validPrompt(p string) bool { return strings.TrimSpace(p) != "" }

// Config encapsulates all tunables for Session construction.
type Config struct {
	// Engine is the native engine. Required.
	Engine Engine
	// Registry resolves LoadRequest.Model ids to files.
	Registry []types.Model
	// LoadDefaults is the base onto which LoadRequest fields are overlaid.
	// The zero value selects DefaultLoadConfig.
	LoadDefaults *LoadConfig
	// QueueDepth bounds the serializer queue (default serializer.DefaultDepth).
	QueueDepth int
	// Logger receives lifecycle logs. The zero value discards them.
	Logger *zerolog.Logger
	// Publisher receives lifecycle events. Defaults to a no-op publisher.
	Publisher EventPublisher
	// Clock is used for elapsed time measurement (tests).
	Clock func() time.Time
}

func (c Config) withDefaults() Config {
	if c.LoadDefaults == nil {
		d := DefaultLoadConfig()
		c.LoadDefaults = &d
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = serializer.DefaultDepth
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}
