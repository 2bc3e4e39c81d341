package bridge

import (
	"context"

	"llamabridge/pkg/types"
)

type streamStep struct {
	token string
	ok    bool
}

// GenerateStream runs a pull-based generation and hands every token to the
// current subscription in engine order, followed by a done or error event. It
// returns once the stream has drained. A stop request, an unsubscribe or the
// cancellation of ctx end the stream early without an error.
func (s *Session) GenerateStream(ctx context.Context, req types.GenerateRequest) (GenerationResult, error) {
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
	sub := s.sub
	if sub == nil || !sub.claim() {
		s.mu.Unlock()
		return GenerationResult{}, s.fail(ErrNoSubscriber)
	}
	s.cancel.Store(false)
	initFut, err := submit(s, "stream_init", func() (struct{}, error) {
		return struct{}{}, s.engine.StreamInit(req.Prompt, cfg)
	})
	if err != nil {
		s.mu.Unlock()
		sub.finish()
		return GenerationResult{}, s.fail(err)
	}
	s.setStateLocked(StateBusy)
	path := s.model.path
	s.mu.Unlock()

	s.publish(Event{Name: EventStreamStart, Model: path, Fields: map[string]any{"subscription": sub.ID}})

	_, err = initFut.Wait()
	var res GenerationResult
	if err == nil {
		res, err = s.pump(ctx, sub)
	}
	// stream-end runs after every stream-init, failed ones included
	if _, endErr := call(s, "stream_end", unit(s.engine.StreamEnd)); endErr != nil {
		s.log.Warn().Err(endErr).Msg("stream end failed")
	}
	err = jobErr(err, func(cause error) error { return generationFailedError{cause: cause} })
	res.Elapsed = s.clock().Sub(start)

	// terminal event; the caller's ctx may be gone but the subscriber is not
	final := types.StreamEvent{Done: true}
	if err != nil {
		final = types.StreamEvent{Error: err.Error(), Kind: CodeOf(err)}
	}
	sub.deliver(context.WithoutCancel(ctx), final)

	s.mu.Lock()
	s.setStateLocked(StateReady)
	if s.sub == sub {
		s.sub = nil
	}
	s.mu.Unlock()
	sub.finish()

	s.tokens.Add(uint64(res.TokensGenerated))
	tokensTotal.WithLabelValues("stream").Add(float64(res.TokensGenerated))
	if err != nil {
		s.log.Error().Err(err).Str("model", path).Int("tokens", res.TokensGenerated).Msg("stream failed")
		s.publish(Event{Name: EventStreamDone, Model: path, Fields: map[string]any{"tokens": res.TokensGenerated, "error": err.Error()}})
		return GenerationResult{}, s.fail(err)
	}
	generationDuration.WithLabelValues("stream").Observe(res.Elapsed.Seconds())
	s.log.Debug().Str("model", path).Int("tokens", res.TokensGenerated).Bool("stopped", res.Stopped).
		Dur("elapsed", res.Elapsed).Msg("stream done")
	s.publish(Event{Name: EventStreamDone, Model: path, Fields: map[string]any{"tokens": res.TokensGenerated, "stopped": res.Stopped}})
	return res, nil
}

// pump pulls tokens one job at a time and delivers them. The cancellation flag
// and ctx are checked before every step, so a stop takes effect within one
// token.
func (s *Session) pump(ctx context.Context, sub *Subscription) (GenerationResult, error) {
	var res GenerationResult
	for {
		if s.cancel.Load() || ctx.Err() != nil {
			res.Stopped = true
			return res, nil
		}
		step, err := call(s, "stream_next", func() (streamStep, error) {
			tok, ok, err := s.engine.StreamNext()
			return streamStep{token: tok, ok: ok}, err
		})
		if err != nil {
			return res, err
		}
		if !step.ok {
			return res, nil
		}
		if !sub.deliver(ctx, types.StreamEvent{Token: step.token}) {
			res.Stopped = true
			return res, nil
		}
		res.TokensGenerated++
	}
}
