package bridge

import (
	"context"
	"strings"

	"llamabridge/internal/common/fsutil"
	"llamabridge/pkg/types"
)

// Load initializes the engine with the model named by req. Loading while a
// model is Ready replaces it: the init job frees the old model first.
func (s *Session) Load(ctx context.Context, req types.LoadRequest) error {
	if s.engine == nil {
		return s.fail(initFailedError{path: req.ModelPath, cause: errNoEngine})
	}
	// Busy is reported ahead of any request error; admission is decided
	// again below before the transition.
	s.mu.Lock()
	err := admitLoad(s.state)
	s.mu.Unlock()
	if err != nil {
		return s.fail(err)
	}
	path, err := s.resolveModel(req)
	if err != nil {
		return s.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := loadConfigFrom(s.loadDefaults, req)

	s.mu.Lock()
	if err := admitLoad(s.state); err != nil {
		s.mu.Unlock()
		return s.fail(err)
	}
	reload := s.state == StateReady
	fut, err := submit(s, "init", func() (struct{}, error) {
		if reload {
			s.engine.Free()
		}
		return struct{}{}, s.engine.Init(path, cfg)
	})
	if err != nil {
		s.mu.Unlock()
		return s.fail(err)
	}
	s.model = nil
	s.setStateLocked(StateLoading)
	s.mu.Unlock()

	s.publish(Event{Name: EventLoadStart, Model: path, Fields: map[string]any{"reload": reload}})
	s.log.Info().Str("model", path).Int("ctx", cfg.ContextSize).Int("threads", cfg.Threads).
		Int("gpu_layers", cfg.GPULayers).Bool("reload", reload).Msg("loading model")

	_, err = fut.Wait()
	err = jobErr(err, func(cause error) error { return initFailedError{path: path, cause: cause} })

	s.mu.Lock()
	if err != nil {
		s.setStateLocked(StateUnloaded)
	} else {
		s.model = &loadedModel{path: path, cfg: cfg}
		s.setStateLocked(StateReady)
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Str("model", path).Msg("model init failed")
		s.publish(Event{Name: EventLoadFailed, Model: path, Fields: map[string]any{"error": err.Error()}})
		return s.fail(err)
	}
	s.loads.Add(1)
	s.log.Info().Str("model", path).Msg("model ready")
	s.publish(Event{Name: EventLoadDone, Model: path})
	return nil
}

// resolveModel turns req into a readable model file path. It runs before any
// state change.
func (s *Session) resolveModel(req types.LoadRequest) (string, error) {
	ref := strings.TrimSpace(req.ModelPath)
	if ref == "" {
		id := strings.TrimSpace(req.Model)
		if id == "" {
			return "", ErrInvalidArgs("modelPath is required")
		}
		mdl, ok := s.lookupModel(id)
		if !ok {
			return "", ErrModelNotFound(id)
		}
		ref = mdl.Path
	}
	path, err := fsutil.ResolveReadable(ref)
	if err != nil {
		return "", modelNotFoundError{ref: ref, cause: err}
	}
	return path, nil
}

func (s *Session) lookupModel(id string) (types.Model, bool) {
	for _, m := range s.registry {
		if m.ID == id {
			return m, true
		}
	}
	return types.Model{}, false
}
