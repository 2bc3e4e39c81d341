package bridge

import "context"

type infoResult struct {
	info NativeInfo
	ok   bool
}

// Info returns attributes of the loaded model. ok is false when no model is
// loaded or the engine cannot report on it; that is not an error.
func (s *Session) Info(ctx context.Context) (ModelInfo, bool, error) {
	s.mu.Lock()
	if s.state != StateReady && s.state != StateBusy {
		s.mu.Unlock()
		return ModelInfo{}, false, nil
	}
	m := *s.model
	fut, err := submit(s, "info", func() (infoResult, error) {
		ni, ok := s.engine.Info()
		return infoResult{info: ni, ok: ok}, nil
	})
	s.mu.Unlock()
	if err != nil {
		return ModelInfo{}, false, s.fail(err)
	}
	// queued behind a running generation, so honour ctx
	r, err := fut.WaitContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ModelInfo{}, false, err
		}
		s.log.Warn().Err(err).Str("model", m.path).Msg("info query failed")
		return ModelInfo{}, false, nil
	}
	if !r.ok {
		return ModelInfo{}, false, nil
	}
	info := ModelInfo{
		ModelPath:   m.path,
		ParamCount:  r.info.ParamCount,
		LayerCount:  r.info.LayerCount,
		ContextSize: m.cfg.ContextSize,
	}
	if info.ContextSize <= 0 {
		info.ContextSize = r.info.ContextSize
	}
	return info, true, nil
}
