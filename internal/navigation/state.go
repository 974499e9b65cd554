// Package navigation holds the current sample token and steps it through a
// scene on advance/rewind events, refreshing every registered session after
// each move.
package navigation

import (
	"fmt"
	"sync"
)

// State is the one authoritative current token of a running viewer. Only the
// Controller writes it; sessions may read it from any goroutine.
type State struct {
	mu    sync.RWMutex
	token string
}

// NewState creates a state positioned at token.
func NewState(token string) *State {
	return &State{token: token}
}

// Token returns the current sample token.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *State) set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Event is a navigation request.
type Event int

const (
	EventAdvance Event = iota
	EventRewind
)

func (e Event) String() string {
	switch e {
	case EventAdvance:
		return "advance"
	case EventRewind:
		return "rewind"
	}
	return fmt.Sprintf("event(%d)", int(e))
}
