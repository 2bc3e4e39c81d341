package bridge

import "context"

// Unload frees the loaded model and returns the session to Unloaded.
//   - Unloaded: no-op, no engine call.
//   - Ready: the free job is queued and awaited.
//   - Loading/Busy: requests a stop and waits for the session to settle
//     (bounded by ctx), then unloads.
func (s *Session) Unload(ctx context.Context) error {
	for {
		s.mu.Lock()
		switch s.state {
		case StateUnloaded:
			s.mu.Unlock()
			return nil
		case StateReady:
			path := s.model.path
			fut, err := submit(s, "free", unit(s.engine.Free))
			if err != nil {
				s.mu.Unlock()
				return s.fail(err)
			}
			s.model = nil
			s.setStateLocked(StateUnloaded)
			s.mu.Unlock()

			if _, err := fut.Wait(); err != nil {
				// the handle is gone either way
				s.log.Error().Err(err).Str("model", path).Msg("free failed")
				return s.fail(jobErr(err, func(cause error) error { return cause }))
			}
			s.log.Info().Str("model", path).Msg("model unloaded")
			s.publish(Event{Name: EventUnloadDone, Model: path})
			return nil
		default:
			settled := s.settled
			s.mu.Unlock()
			s.Stop()
			select {
			case <-settled:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
