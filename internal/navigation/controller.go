package navigation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/nuview/internal/monitoring"
	"github.com/banshee-data/nuview/internal/nuscenes"
	"github.com/banshee-data/nuview/internal/timeutil"
)

// Session is a rendering surface bound to the controller's state.
type Session interface {
	Name() string
	Refresh(ctx context.Context, state *State) error
	Close() error
}

// Transition describes the outcome of one event. Moved is false when the
// event hit a scene boundary and the token stayed put.
type Transition struct {
	Event Event
	From  string
	To    string
	Moved bool
	At    time.Time
}

// Recorder receives every transition, moved or not.
type Recorder interface {
	Record(ctx context.Context, t Transition) error
}

// Controller is the single-state navigation machine. Handle runs each event
// to completion, including all session refreshes, before returning.
type Controller struct {
	// Recorder is optional.
	Recorder Recorder
	Clock    timeutil.Clock

	index nuscenes.SampleIndex
	state *State

	mu       sync.Mutex
	sessions []Session
	started  bool
}

// NewController creates a controller positioned at token.
func NewController(index nuscenes.SampleIndex, token string) *Controller {
	return &Controller{
		Clock: timeutil.RealClock{},
		index: index,
		state: NewState(token),
	}
}

// State returns the controller's state.
func (c *Controller) State() *State { return c.state }

// Register adds a session. A session with the same name is closed first
// and replaced, keeping its position in the refresh order. Once Start has
// run, the new session is refreshed at the current token before Register
// returns.
func (c *Controller) Register(ctx context.Context, s Session) error {
	c.mu.Lock()
	replaced := false
	for i, old := range c.sessions {
		if old.Name() != s.Name() {
			continue
		}
		if err := old.Close(); err != nil {
			c.mu.Unlock()
			return fmt.Errorf("close superseded session %s: %w", old.Name(), err)
		}
		c.sessions[i] = s
		replaced = true
		break
	}
	if !replaced {
		c.sessions = append(c.sessions, s)
	}
	started := c.started
	c.mu.Unlock()

	if !started {
		return nil
	}
	if err := s.Refresh(ctx, c.state); err != nil {
		return fmt.Errorf("refresh %s: %w", s.Name(), err)
	}
	return nil
}

// Sessions returns the registered session names in refresh order.
func (c *Controller) Sessions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.sessions))
	for i, s := range c.sessions {
		names[i] = s.Name()
	}
	return names
}

// Start draws the initial token in every session. Sessions registered
// afterwards are drawn as they are added.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return c.refreshAll(ctx)
}

// Advance moves to the next sample.
func (c *Controller) Advance(ctx context.Context) (Transition, error) {
	return c.Handle(ctx, EventAdvance)
}

// Rewind moves to the previous sample.
func (c *Controller) Rewind(ctx context.Context) (Transition, error) {
	return c.Handle(ctx, EventRewind)
}

// Handle applies one event. A lookup failure leaves the state unchanged and
// returns the error. Session refresh failures are joined and returned with
// the transition; the state has already moved by then.
func (c *Controller) Handle(ctx context.Context, ev Event) (Transition, error) {
	from := c.state.Token()
	tr := Transition{Event: ev, From: from, To: from, At: c.Clock.Now()}

	var (
		next string
		ok   bool
		err  error
	)
	switch ev {
	case EventAdvance:
		next, ok, err = c.index.Next(from)
	case EventRewind:
		next, ok, err = c.index.Previous(from)
	default:
		return tr, fmt.Errorf("unknown navigation event %v", ev)
	}
	if err != nil {
		return tr, fmt.Errorf("%s from %s: %w", ev, from, err)
	}

	if !ok {
		monitoring.Logf("[navigation] %s: boundary reached, staying on %s", ev, from)
		c.record(ctx, tr)
		return tr, nil
	}

	c.state.set(next)
	tr.To = next
	tr.Moved = true
	c.record(ctx, tr)
	return tr, c.refreshAll(ctx)
}

func (c *Controller) record(ctx context.Context, tr Transition) {
	if c.Recorder == nil {
		return
	}
	if err := c.Recorder.Record(ctx, tr); err != nil {
		monitoring.Logf("[navigation] failed to record %s: %v", tr.Event, err)
	}
}

func (c *Controller) refreshAll(ctx context.Context) error {
	c.mu.Lock()
	sessions := append([]Session(nil), c.sessions...)
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Refresh(ctx, c.state); err != nil {
			monitoring.Logf("[navigation] refresh %s failed: %v", s.Name(), err)
			errs = append(errs, fmt.Errorf("refresh %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Close closes every session.
func (c *Controller) Close() error {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = nil
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

type sceneLocator interface {
	SceneOf(token string) (int, error)
}

// StartToken resolves the initial token: token when given, else the scene's
// first sample. A given token must belong to the scene when the index can
// tell.
func StartToken(index nuscenes.SampleIndex, scene int, token string) (string, error) {
	if token == "" {
		return index.FirstToken(scene)
	}
	if loc, ok := index.(sceneLocator); ok {
		got, err := loc.SceneOf(token)
		if err != nil {
			return "", err
		}
		if got != scene {
			return "", fmt.Errorf("sample %s is in scene %d, not %d: %w", token, got, scene, nuscenes.ErrNotFound)
		}
	}
	return token, nil
}
