package bridge

// Stop requests that the in-flight generation finish early. While a
// generation is running it raises the cancellation flag, which the stream
// pump checks before every token, and calls Engine.Stop so a blocking
// Generate aborts too. Idle sessions are left untouched. Idempotent; always
// succeeds.
func (s *Session) Stop() {
	s.mu.Lock()
	// Both happen under the lock so the stop cannot reach a generation
	// admitted after it. Engine.Stop only raises an abort signal.
	busy := s.state == StateBusy
	if busy {
		s.cancel.Store(true)
		s.engine.Stop()
	}
	s.mu.Unlock()
	if busy {
		s.log.Debug().Msg("stop requested")
		s.publish(Event{Name: EventStop})
	}
}
