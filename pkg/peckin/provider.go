package peckin

import "context"

// UserRef identifies the signed-in user.
type UserRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthProvider is the external auth service the gateway wraps.
// OnAuthStateChanged must invoke fn once with the current user before
// returning and again on every later change.
type AuthProvider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (*UserRef, error)
	SignIn(ctx context.Context, email, password string) (*UserRef, error)
	SignOut(ctx context.Context) error
	CurrentUser() *UserRef
	OnAuthStateChanged(fn func(*UserRef)) (unsubscribe func())
}

// TokenSource hands out a valid bearer token for the signed-in user.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

func cloneUser(u *UserRef) *UserRef {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}
