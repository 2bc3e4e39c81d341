package httpapi

import "llamabridge/internal/bridge"

// sessionService adapts *bridge.Session to Service.
type sessionService struct {
	*bridge.Session
}

// FromSession exposes a bridge session over HTTP.
func FromSession(s *bridge.Session) Service { return sessionService{s} }

func (s sessionService) Subscribe() (Subscriber, error) {
	sub, err := s.Session.Subscribe()
	if err != nil {
		return nil, err
	}
	return sub, nil
}
