package bridge

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"llamabridge/pkg/types"
)

// Subscription receives the events of the next streaming generation. Events
// are handed over one at a time on an unbuffered channel; the channel is
// closed after the final done or error event, or when the subscription is
// cancelled while no stream is using it.
type Subscription struct {
	ID string

	events chan types.StreamEvent
	done   chan struct{}
	s      *Session

	mu        sync.Mutex
	pumping   bool
	finished  bool
	closeDone sync.Once
}

func newSubscription(s *Session) *Subscription {
	return &Subscription{
		ID:     uuid.NewString(),
		events: make(chan types.StreamEvent),
		done:   make(chan struct{}),
		s:      s,
	}
}

// Events yields stream events until it is closed.
func (sub *Subscription) Events() <-chan types.StreamEvent { return sub.events }

// Done is closed when the subscription is cancelled or its stream finished.
func (sub *Subscription) Done() <-chan struct{} { return sub.done }

// Close cancels the subscription. If it is still the session's current
// subscription this is equivalent to Session.Unsubscribe.
func (sub *Subscription) Close() { sub.s.unsubscribe(sub) }

// claim marks the subscription as used by a stream. It fails once the
// subscription was cancelled or already served a stream.
func (sub *Subscription) claim() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.pumping || sub.finished {
		return false
	}
	select {
	case <-sub.done:
		return false
	default:
	}
	sub.pumping = true
	return true
}

func (sub *Subscription) busy() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.pumping
}

// cancel stops delivery. The events channel is closed right away unless a
// stream still owns it, in which case finish closes it.
func (sub *Subscription) cancel() {
	sub.closeDone.Do(func() { close(sub.done) })
	sub.mu.Lock()
	if !sub.pumping {
		sub.closeEventsLocked()
	}
	sub.mu.Unlock()
}

// finish releases the stream's ownership and closes the subscription.
func (sub *Subscription) finish() {
	sub.mu.Lock()
	sub.pumping = false
	sub.closeEventsLocked()
	sub.mu.Unlock()
	sub.closeDone.Do(func() { close(sub.done) })
}

func (sub *Subscription) closeEventsLocked() {
	if !sub.finished {
		sub.finished = true
		close(sub.events)
	}
}

// deliver blocks until the subscriber takes ev. It reports false when the
// subscription was cancelled or ctx ended first.
func (sub *Subscription) deliver(ctx context.Context, ev types.StreamEvent) bool {
	select {
	case <-sub.done:
		return false
	default:
	}
	select {
	case sub.events <- ev:
		return true
	case <-sub.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Subscribe attaches a new subscription for the next stream. An idle previous
// subscription is cancelled and replaced; one that is currently receiving a
// stream is kept and Subscribe fails with a busy error.
func (s *Session) Subscribe() (*Subscription, error) {
	s.mu.Lock()
	prev := s.sub
	if prev != nil && prev.busy() {
		st := s.state
		s.mu.Unlock()
		return nil, s.fail(busyError{state: st})
	}
	sub := newSubscription(s)
	s.sub = sub
	s.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}
	s.publish(Event{Name: EventSubscribe, Fields: map[string]any{"id": sub.ID}})
	return sub, nil
}

// Unsubscribe detaches the current subscription and raises the cancellation
// flag so an active stream ends at its next step. No-op without a subscription.
func (s *Session) Unsubscribe() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub != nil {
		s.unsubscribe(sub)
	}
}

func (s *Session) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	current := s.sub == sub
	if current {
		s.sub = nil
	}
	s.mu.Unlock()
	if !current {
		sub.cancel()
		return
	}
	s.cancel.Store(true)
	sub.cancel()
	s.publish(Event{Name: EventUnsubscribe, Fields: map[string]any{"id": sub.ID}})
}
