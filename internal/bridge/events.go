package bridge

import "github.com/rs/zerolog"

// Event represents a session lifecycle event.
// Minimal and stable: name + model path and optional fields via key/values.
type Event struct {
	Name   string
	Model  string
	Fields map[string]any
}

// Lifecycle event names.
const (
	EventLoadStart    = "load_start"
	EventLoadDone     = "load_done"
	EventLoadFailed   = "load_failed"
	EventUnloadDone   = "unload_done"
	EventGenerateDone = "generate_done"
	EventStreamStart  = "stream_start"
	EventStreamDone   = "stream_done"
	EventStop         = "stop"
	EventSubscribe    = "subscribe"
	EventUnsubscribe  = "unsubscribe"
)

// EventPublisher receives events from the session. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// LogPublisher writes every event as a debug line.
type LogPublisher struct {
	Logger zerolog.Logger
}

func (p LogPublisher) Publish(e Event) {
	ev := p.Logger.Debug().Str("event", e.Name)
	if e.Model != "" {
		ev = ev.Str("model", e.Model)
	}
	if len(e.Fields) > 0 {
		ev = ev.Fields(e.Fields)
	}
	ev.Msg("session event")
}

// multiPublisher fans an event out to several publishers.
type multiPublisher []EventPublisher

func (m multiPublisher) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}

// Publishers combines publishers into one. Nil entries are skipped.
func Publishers(ps ...EventPublisher) EventPublisher {
	out := make(multiPublisher, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return noopPublisher{}
	case 1:
		return out[0]
	}
	return out
}
