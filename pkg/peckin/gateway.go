package peckin

import (
	"context"
	"errors"
	"sync"

	"github.com/peckin/peckin/backend/go-services/pkg/logger"
)

// Session is the client's view of authentication state.
type Session struct {
	User    *UserRef
	Loading bool
}

func (s Session) IsAuthenticated() bool { return s.User != nil }

// AuthGateway wraps an AuthProvider behind sign-up, sign-in, sign-out and
// subscribe. Failures are logged and returned as *AuthError.
type AuthGateway struct {
	provider AuthProvider
}

func NewAuthGateway(p AuthProvider) *AuthGateway {
	return &AuthGateway{provider: p}
}

func asAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	return &AuthError{Kind: AuthUnknown, Message: err.Error(), Err: err}
}

func (g *AuthGateway) SignUp(ctx context.Context, email, password string) (Session, error) {
	return g.SignUpWithName(ctx, email, password, "")
}

// SignUpWithName creates an account and sets its display name.
func (g *AuthGateway) SignUpWithName(ctx context.Context, email, password, displayName string) (Session, error) {
	u, err := g.provider.CreateAccount(ctx, email, password, displayName)
	if err != nil {
		ae := asAuthError(err)
		logger.Errorf("Error signing up: %v", ae)
		return Session{}, ae
	}
	return Session{User: u}, nil
}

func (g *AuthGateway) SignIn(ctx context.Context, email, password string) (Session, error) {
	u, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		ae := asAuthError(err)
		logger.Errorf("Error signing in: %v", ae)
		return Session{}, ae
	}
	return Session{User: u}, nil
}

func (g *AuthGateway) SignOut(ctx context.Context) error {
	if err := g.provider.SignOut(ctx); err != nil {
		ae := asAuthError(err)
		logger.Errorf("Error signing out: %v", ae)
		return ae
	}
	return nil
}

func (g *AuthGateway) CurrentUser() *UserRef { return g.provider.CurrentUser() }

func (g *AuthGateway) IsAuthenticated() bool { return g.provider.CurrentUser() != nil }

type subscription struct {
	mu     sync.Mutex
	active bool
	fn     func(*UserRef)
}

func (s *subscription) deliver(u *UserRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.fn(u)
	}
}

// Subscribe registers onChange. It is called once immediately with the
// current user and again after every change. Once the returned function
// returns, onChange will not run again; a call already in progress finishes
// first, so the function must not be called from inside onChange. Calling it
// more than once is a no-op.
//
// onChange may call SignIn, SignUp, SignOut, Subscribe and the synchronous
// reads. Changes made from inside onChange are delivered after it returns,
// so a nested Subscribe sees its first call at that point too.
func (g *AuthGateway) Subscribe(onChange func(*UserRef)) (unsubscribe func()) {
	sub := &subscription{active: true, fn: onChange}
	stop := g.provider.OnAuthStateChanged(sub.deliver)
	var once sync.Once
	return func() {
		once.Do(func() {
			stop()
			sub.mu.Lock()
			sub.active = false
			sub.mu.Unlock()
		})
	}
}
