package host

import "sync"

// UserState is the session registry user-state writes are forwarded to.
type UserState interface {
	// SetValue stores value under key and returns the previous value, or nil.
	SetValue(key string, value any) any
	// Value returns the value stored under key.
	Value(key string) (any, bool)
}

// Session is an in-memory UserState that lives for one invocation.
type Session struct {
	mu     sync.Mutex
	values map[string]any
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{values: make(map[string]any)}
}

// SetValue stores value under key and returns the previous value.
func (s *Session) SetValue(key string, value any) any {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.values[key]
	s.values[key] = value
	return prev
}

// Value returns the value stored under key.
func (s *Session) Value(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}
