package peckin

import (
	"context"
	"sync"
)

// SessionState is what screens render from.
type SessionState struct {
	User            *UserRef
	Loading         bool
	IsAuthenticated bool
}

// SessionObserver follows the gateway's auth state. Loading is true until
// the first notification arrives.
type SessionObserver struct {
	mu      sync.Mutex
	state   SessionState
	closed  bool
	ready   chan struct{}
	changes chan SessionState

	unsubscribe func()
	closeOnce   sync.Once
}

func NewSessionObserver(g *AuthGateway) *SessionObserver {
	o := &SessionObserver{
		state:   SessionState{Loading: true},
		ready:   make(chan struct{}),
		changes: make(chan SessionState, 1),
	}
	o.unsubscribe = g.Subscribe(o.update)
	return o
}

func (o *SessionObserver) update(u *UserRef) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	if o.state.Loading {
		o.state.Loading = false
		close(o.ready)
	}
	o.state.User = u
	o.state.IsAuthenticated = u != nil

	// keep only the latest state in the buffer
	select {
	case <-o.changes:
	default:
	}
	o.changes <- o.snapshot()
}

func (o *SessionObserver) snapshot() SessionState {
	s := o.state
	s.User = cloneUser(s.User)
	return s
}

func (o *SessionObserver) State() SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot()
}

// Ready is closed once the first notification has been applied.
func (o *SessionObserver) Ready() <-chan struct{} { return o.ready }

// Wait blocks until Ready or ctx is done and returns the state.
func (o *SessionObserver) Wait(ctx context.Context) (SessionState, error) {
	select {
	case <-o.ready:
		return o.State(), nil
	case <-ctx.Done():
		return o.State(), ctx.Err()
	}
}

// Changes delivers the latest state after every update. Intermediate states
// may be dropped when the reader falls behind. Closed by Close.
func (o *SessionObserver) Changes() <-chan SessionState { return o.changes }

// Close unsubscribes. No state update happens after it returns.
func (o *SessionObserver) Close() {
	o.closeOnce.Do(func() {
		o.unsubscribe()
		o.mu.Lock()
		o.closed = true
		close(o.changes)
		o.mu.Unlock()
	})
}
