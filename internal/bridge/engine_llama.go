//go:build llama

package bridge

import (
	"errors"
	"sync/atomic"

	llama "github.com/go-skynet/go-llama.cpp"

	"llamabridge/internal/gguf"
)

// LlamaBuilt reports whether this binary has the native engine.
const LlamaBuilt = true

// llamaEngine drives go-llama.cpp. Streaming runs Predict on a helper
// goroutine whose token callback hands tokens over one at a time, so the
// pull-based StreamNext maps onto go-llama.cpp's push callback.
type llamaEngine struct {
	model *llama.LLama
	cfg   LoadConfig
	info  NativeInfo
	// hasInfo is false when the GGUF header could not be read.
	hasInfo bool

	abort atomic.Bool

	tokens    chan string
	quit      chan struct{}
	streamErr error
}

// NewLlamaEngine returns the go-llama.cpp engine.
func NewLlamaEngine() Engine { return &llamaEngine{} }

func (e *llamaEngine) Init(path string, cfg LoadConfig) error {
	if e.model != nil {
		e.Free()
	}
	gpuLayers := cfg.GPULayers
	if !cfg.UseGPU {
		gpuLayers = 0
	}
	mo := []llama.ModelOption{
		llama.SetContext(cfg.ContextSize),
		llama.SetNBatch(cfg.BatchSize),
		llama.SetGPULayers(gpuLayers),
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return err
	}
	e.model = m
	e.cfg = cfg
	e.info, e.hasInfo = NativeInfo{}, false
	if md, err := gguf.ReadFile(path); err == nil {
		e.info = NativeInfo{ParamCount: md.ParamCount, LayerCount: md.BlockCount, ContextSize: cfg.ContextSize}
		e.hasInfo = true
	}
	return nil
}

func (e *llamaEngine) Generate(prompt string, cfg GenerationConfig) (Completion, error) {
	if e.model == nil {
		return Completion{}, errors.New("llama model not initialized")
	}
	e.abort.Store(false)
	n := 0
	e.model.SetTokenCallback(func(string) bool {
		if e.abort.Load() {
			return false
		}
		n++
		return true
	})
	defer e.model.SetTokenCallback(nil)
	text, err := e.model.Predict(prompt, e.predictOptions(cfg)...)
	if err != nil {
		return Completion{}, err
	}
	return Completion{Text: text, Tokens: n}, nil
}

func (e *llamaEngine) StreamInit(prompt string, cfg GenerationConfig) error {
	if e.model == nil {
		return errors.New("llama model not initialized")
	}
	e.abort.Store(false)
	tokens := make(chan string)
	quit := make(chan struct{})
	e.tokens, e.quit, e.streamErr = tokens, quit, nil
	e.model.SetTokenCallback(func(tok string) bool {
		if e.abort.Load() {
			return false
		}
		select {
		case tokens <- tok:
			return true
		case <-quit:
			return false
		}
	})
	opts := e.predictOptions(cfg)
	go func() {
		_, err := e.model.Predict(prompt, opts...)
		e.streamErr = err
		close(tokens)
	}()
	return nil
}

func (e *llamaEngine) StreamNext() (string, bool, error) {
	if e.tokens == nil {
		return "", false, errors.New("no active stream")
	}
	tok, ok := <-e.tokens
	if !ok {
		// streamErr is written before tokens is closed
		return "", false, e.streamErr
	}
	return tok, true, nil
}

func (e *llamaEngine) StreamEnd() {
	if e.tokens == nil {
		return
	}
	close(e.quit)
	for range e.tokens {
	}
	e.model.SetTokenCallback(nil)
	e.tokens, e.quit, e.streamErr = nil, nil, nil
}

func (e *llamaEngine) Info() (NativeInfo, bool) {
	if e.model == nil || !e.hasInfo {
		return NativeInfo{}, false
	}
	return e.info, true
}

// Stop only raises the abort flag; the token callback observes it.
func (e *llamaEngine) Stop() { e.abort.Store(true) }

func (e *llamaEngine) Free() {
	if e.model != nil {
		e.model.Free()
		e.model = nil
	}
	e.info, e.hasInfo = NativeInfo{}, false
}

func (e *llamaEngine) predictOptions(cfg GenerationConfig) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, cfg.MaxTokens)),
		llama.SetThreads(max(1, e.cfg.Threads)),
		llama.SetTopP(cfg.TopP),
		llama.SetTopK(cfg.TopK),
		llama.SetTemperature(cfg.Temperature),
		llama.SetPenalty(cfg.RepeatPenalty),
	}
	if e.cfg.Verbose {
		po = append(po, llama.Debug)
	}
	return po
}
