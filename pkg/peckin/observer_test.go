package peckin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deferredProvider only reports state when fire is called, so tests can
// observe the loading phase.
type deferredProvider struct {
	mu  sync.Mutex
	fns map[int]func(*UserRef)
	n   int
}

func (p *deferredProvider) CreateAccount(ctx context.Context, email, password, displayName string) (*UserRef, error) {
	return nil, nil
}
func (p *deferredProvider) SignIn(ctx context.Context, email, password string) (*UserRef, error) {
	return nil, nil
}
func (p *deferredProvider) SignOut(ctx context.Context) error { return nil }
func (p *deferredProvider) CurrentUser() *UserRef             { return nil }

func (p *deferredProvider) OnAuthStateChanged(fn func(*UserRef)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fns == nil {
		p.fns = map[int]func(*UserRef){}
	}
	id := p.n
	p.n++
	p.fns[id] = fn
	return func() {
		p.mu.Lock()
		delete(p.fns, id)
		p.mu.Unlock()
	}
}

func (p *deferredProvider) fire(u *UserRef) {
	p.mu.Lock()
	fns := make([]func(*UserRef), 0, len(p.fns))
	for _, fn := range p.fns {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

func assertConsistent(t *testing.T, s SessionState) {
	t.Helper()
	assert.Equal(t, s.User != nil, s.IsAuthenticated)
}

func TestSessionObserver_LoadingThenUser(t *testing.T) {
	p := &deferredProvider{}
	o := NewSessionObserver(NewAuthGateway(p))
	defer o.Close()

	s := o.State()
	assert.True(t, s.Loading)
	assert.Nil(t, s.User)
	assertConsistent(t, s)
	select {
	case <-o.Ready():
		t.Fatal("ready before first notification")
	default:
	}

	p.fire(&UserRef{ID: "u1", Email: "ann@example.com"})
	<-o.Ready()
	s = o.State()
	assert.False(t, s.Loading)
	assert.Equal(t, "u1", s.User.ID)
	assertConsistent(t, s)

	p.fire(nil)
	s = o.State()
	assert.False(t, s.Loading, "loading stays false after the first notification")
	assert.Nil(t, s.User)
	assertConsistent(t, s)
}

func TestSessionObserver_CloseStopsUpdates(t *testing.T) {
	p := &deferredProvider{}
	o := NewSessionObserver(NewAuthGateway(p))
	p.fire(&UserRef{ID: "u1"})

	o.Close()
	o.Close()
	p.fire(nil)
	assert.Equal(t, "u1", o.State().User.ID)

	// Changes is closed after draining the last buffered state
	for range o.Changes() {
	}
}

func TestSessionObserver_SignOutReportsNil(t *testing.T) {
	_, cfg := newBackend(t)
	g := NewAuthGateway(NewHTTPProvider(cfg))
	ctx := context.Background()

	o := NewSessionObserver(g)
	defer o.Close()
	s, err := o.Wait(ctx)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated)

	_, err = g.SignUp(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	s = o.State()
	assert.True(t, s.IsAuthenticated)
	assertConsistent(t, s)

	require.NoError(t, g.SignOut(ctx))
	select {
	case s = <-o.Changes():
	case <-time.After(time.Second):
		t.Fatal("no notification after sign-out")
	}
	assert.Nil(t, s.User)
	assertConsistent(t, s)
}
