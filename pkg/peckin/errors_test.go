package peckin

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{NewAuthError("auth/email-already-in-use", "x"), "Email is already registered"},
		{NewAuthError("auth/weak-password", "x"), "Password should be at least 6 characters"},
		{NewAuthError("auth/invalid-email", "x"), "Invalid email address"},
		{NewAuthError("auth/user-not-found", "x"), "No account found with this email"},
		{NewAuthError("auth/wrong-password", "x"), "Incorrect password"},
		{NewAuthError("auth/too-many-requests", "Too many attempts"), "Too many attempts"},
		{NewAuthError("auth/internal", ""), "Authentication failed"},
		{fmt.Errorf("wrapped: %w", NewAuthError("auth/wrong-password", "")), "Incorrect password"},
		{errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, AuthMessage(tc.err), tc.err.Error())
	}
}

func TestErrorKindsMatch(t *testing.T) {
	err := fmt.Errorf("ctx: %w", NewAuthError("auth/user-not-found", "no user"))
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrWrongPassword)

	se := &StoreError{Kind: StorePermissionDenied, Op: "get", Err: errors.New("403")}
	assert.ErrorIs(t, se, ErrPermissionDenied)
	assert.NotErrorIs(t, se, ErrNotConnected)
	assert.Equal(t, "NotConnected", StoreNotConnected.String())
	assert.Equal(t, "UserNotFound", AuthUserNotFound.String())
}
