package bridge

import (
	"context"

	"llamabridge/pkg/types"
)

// Generate runs one blocking completion. The elapsed time covers queueing and
// the native call. Cancelling ctx requests a stop; the engine then returns a
// short completion.
func (s *Session) Generate(ctx context.Context, req types.GenerateRequest) (GenerationResult, error) {
	if !validPrompt(req.Prompt) {
		return GenerationResult{}, s.fail(ErrInvalidArgs("prompt is required"))
	}
	if err := ctx.Err(); err != nil {
		return GenerationResult{}, err
	}
	cfg := generationConfigFrom(req)
	start := s.clock()

	s.mu.Lock()
	if err := admitGenerate(s.state); err != nil {
		s.mu.Unlock()
		return GenerationResult{}, s.fail(err)
	}
	s.cancel.Store(false)
	fut, err := submit(s, "generate", func() (Completion, error) {
		// a stop that arrived while the job was queued
		if s.cancel.Load() {
			return Completion{}, nil
		}
		return s.engine.Generate(req.Prompt, cfg)
	})
	if err != nil {
		s.mu.Unlock()
		return GenerationResult{}, s.fail(err)
	}
	s.setStateLocked(StateBusy)
	path := s.model.path
	s.mu.Unlock()

	stopOnCancel := context.AfterFunc(ctx, s.Stop)
	c, err := fut.Wait()
	stopOnCancel()
	elapsed := s.clock().Sub(start)

	s.mu.Lock()
	// read before Ready so a stop aimed at the next generation is not counted
	stopped := s.cancel.Load()
	s.setStateLocked(StateReady)
	s.mu.Unlock()

	if err = jobErr(err, func(cause error) error { return generationFailedError{cause: cause} }); err != nil {
		s.log.Error().Err(err).Str("model", path).Msg("generation failed")
		return GenerationResult{}, s.fail(err)
	}
	s.tokens.Add(uint64(c.Tokens))
	tokensTotal.WithLabelValues("blocking").Add(float64(c.Tokens))
	generationDuration.WithLabelValues("blocking").Observe(elapsed.Seconds())
	s.log.Debug().Str("model", path).Int("tokens", c.Tokens).Dur("elapsed", elapsed).Msg("generation done")
	s.publish(Event{Name: EventGenerateDone, Model: path, Fields: map[string]any{"tokens": c.Tokens}})
	return GenerationResult{
		Text:            c.Text,
		TokensGenerated: c.Tokens,
		Elapsed:         elapsed,
		Stopped:         stopped,
	}, nil
}
