package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"llamabridge/internal/serializer"
	"llamabridge/pkg/types"
)

// loadedModel is the handle kept for a successfully initialized model.
type loadedModel struct {
	path string
	cfg  LoadConfig
}

// ModelInfo describes the loaded model.
type ModelInfo struct {
	ModelPath   string
	ParamCount  int64
	LayerCount  int
	ContextSize int
}

// GenerationResult is returned by Generate and GenerateStream.
type GenerationResult struct {
	Text            string
	TokensGenerated int
	Elapsed         time.Duration
	// Stopped is set when a stream ended early because of a stop request,
	// an unsubscribe or caller cancellation.
	Stopped bool
}

// Session owns one native engine and serializes every call into it.
type Session struct {
	engine Engine
	queue  *serializer.Queue
	log    zerolog.Logger
	clock  func() time.Time

	registry     []types.Model
	loadDefaults LoadConfig

	// cancel is raised by Stop and Unsubscribe and cleared when a generation starts.
	cancel atomic.Bool

	mu        sync.Mutex
	state     State
	model     *loadedModel
	sub       *Subscription
	settled   chan struct{} // closed when Loading/Busy is left
	lastErr   string
	publisher EventPublisher

	loads     atomic.Uint64
	tokens    atomic.Uint64
	startTime time.Time
}

// New starts the engine worker and returns an Unloaded session. Close must be
// called to release the worker.
func New(cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		engine:       cfg.Engine,
		queue:        serializer.New(cfg.QueueDepth),
		log:          cfg.Logger.With().Str("component", "bridge").Logger(),
		clock:        cfg.Clock,
		registry:     append([]types.Model(nil), cfg.Registry...),
		loadDefaults: *cfg.LoadDefaults,
		state:        StateUnloaded,
		publisher:    cfg.Publisher,
		startTime:    time.Now(),
	}
	sessionState.Set(StateUnloaded.stateValue())
	return s
}

// SetEventPublisher installs a publisher for lifecycle events (nil restores the no-op).
func (s *Session) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.mu.Lock()
	s.publisher = p
	s.mu.Unlock()
}

func (s *Session) publish(e Event) {
	s.mu.Lock()
	p := s.publisher
	s.mu.Unlock()
	p.Publish(e)
}

// setStateLocked moves to next and maintains the settled channel. s.mu must be held.
func (s *Session) setStateLocked(next State) {
	prev := s.state
	s.state = next
	switch {
	case next.settling() && !prev.settling():
		s.settled = make(chan struct{})
	case !next.settling() && prev.settling():
		close(s.settled)
	}
	sessionState.Set(next.stateValue())
}

// fail records err as the last error and counts it.
func (s *Session) fail(err error) error {
	if err == nil {
		return nil
	}
	countError(err)
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	return err
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether a model is loaded.
func (s *Session) Ready() bool {
	st := s.State()
	return st == StateReady || st == StateBusy
}

// ListModels returns the models discovered at startup.
func (s *Session) ListModels() []types.Model {
	out := make([]types.Model, len(s.registry))
	copy(out, s.registry)
	return out
}

// Status builds a detailed status response for /status.
func (s *Session) Status() types.StatusResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := types.StatusResponse{
		State:          string(s.state),
		Subscribed:     s.sub != nil,
		QueueLen:       s.queue.Len(),
		LastError:      s.lastErr,
		LoadsTotal:     s.loads.Load(),
		TokensTotal:    s.tokens.Load(),
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	if s.model != nil {
		resp.ModelPath = s.model.path
	}
	return resp
}

// Close stops any generation, frees a loaded model, detaches the subscriber and
// shuts the worker down. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	var errs error
	if err := s.Unload(ctx); err != nil && !IsSerializerShutdown(err) {
		errs = multierr.Append(errs, err)
	}
	s.Unsubscribe()
	if err := s.queue.Close(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// submit admits fn on the worker and counts it under kind. Callers hold s.mu,
// so admission never waits: a full queue is reported as Busy.
func submit[T any](s *Session, kind string, fn func() (T, error)) (*serializer.Future[T], error) {
	f, err := serializer.TryEnqueue(s.queue, fn)
	if errors.Is(err, serializer.ErrFull) {
		return nil, busyError{state: s.state, queueFull: true}
	}
	return admitted(s, kind, f, err)
}

// call runs fn on the worker and waits for it. It may wait for a free queue
// slot, so s.mu must not be held.
func call[T any](s *Session, kind string, fn func() (T, error)) (T, error) {
	f, err := serializer.Enqueue(s.queue, fn)
	if f, err = admitted(s, kind, f, err); err != nil {
		var zero T
		return zero, err
	}
	return f.Wait()
}

func admitted[T any](s *Session, kind string, f *serializer.Future[T], err error) (*serializer.Future[T], error) {
	if err != nil {
		return nil, queueErr(err)
	}
	jobsTotal.WithLabelValues(kind).Inc()
	queueDepth.Set(float64(s.queue.Len()))
	return f, nil
}

// unit adapts a func with no result to the serializer's result shape.
func unit(fn func()) func() (struct{}, error) {
	return func() (struct{}, error) {
		fn()
		return struct{}{}, nil
	}
}

var errNoEngine = errors.New("bridge: no engine configured")
