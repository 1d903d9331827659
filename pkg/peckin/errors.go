package peckin

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies auth provider failures.
type AuthErrorKind int

const (
	AuthUnknown AuthErrorKind = iota
	AuthEmailInUse
	AuthWeakPassword
	AuthInvalidEmail
	AuthUserNotFound
	AuthWrongPassword
)

var authCodes = map[string]AuthErrorKind{
	"auth/email-already-in-use": AuthEmailInUse,
	"auth/weak-password":        AuthWeakPassword,
	"auth/invalid-email":        AuthInvalidEmail,
	"auth/user-not-found":       AuthUserNotFound,
	"auth/wrong-password":       AuthWrongPassword,
}

var authMessages = map[AuthErrorKind]string{
	AuthEmailInUse:    "Email is already registered",
	AuthWeakPassword:  "Password should be at least 6 characters",
	AuthInvalidEmail:  "Invalid email address",
	AuthUserNotFound:  "No account found with this email",
	AuthWrongPassword: "Incorrect password",
}

func (k AuthErrorKind) String() string {
	switch k {
	case AuthEmailInUse:
		return "EmailInUse"
	case AuthWeakPassword:
		return "WeakPassword"
	case AuthInvalidEmail:
		return "InvalidEmail"
	case AuthUserNotFound:
		return "UserNotFound"
	case AuthWrongPassword:
		return "WrongPassword"
	}
	return "Unknown"
}

// AuthError is a failure reported by the auth provider. Code is the raw
// provider code, e.g. "auth/wrong-password".
type AuthError struct {
	Kind    AuthErrorKind
	Code    string
	Message string
	Err     error
}

// NewAuthError classifies a provider code. Unrecognized codes map to
// AuthUnknown.
func NewAuthError(code, message string) *AuthError {
	return &AuthError{Kind: authCodes[code], Code: code, Message: message}
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth %s: %v", e.Kind, e.Err)
	}
	if e.Code != "" {
		return fmt.Sprintf("auth %s (%s): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("auth %s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches another *AuthError by kind, so errors.Is(err, ErrUserNotFound)
// works on any wrapped provider error.
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage is the text shown to the user for this failure.
func (e *AuthError) UserMessage() string {
	if m, ok := authMessages[e.Kind]; ok {
		return m
	}
	if e.Message != "" {
		return e.Message
	}
	return "Authentication failed"
}

var (
	ErrEmailInUse    = &AuthError{Kind: AuthEmailInUse}
	ErrWeakPassword  = &AuthError{Kind: AuthWeakPassword}
	ErrInvalidEmail  = &AuthError{Kind: AuthInvalidEmail}
	ErrUserNotFound  = &AuthError{Kind: AuthUserNotFound}
	ErrWrongPassword = &AuthError{Kind: AuthWrongPassword}
)

// AuthMessage returns the user-facing message for any error returned by the
// auth gateway.
func AuthMessage(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return "Authentication failed"
}

// StoreErrorKind classifies document store failures.
type StoreErrorKind int

const (
	StoreUnknown StoreErrorKind = iota
	StoreNotConnected
	StorePermissionDenied
)

func (k StoreErrorKind) String() string {
	switch k {
	case StoreNotConnected:
		return "NotConnected"
	case StorePermissionDenied:
		return "PermissionDenied"
	}
	return "Unknown"
}

// StoreError is a failed document store call.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	var t *StoreError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotConnected     = &StoreError{Kind: StoreNotConnected}
	ErrPermissionDenied = &StoreError{Kind: StorePermissionDenied}
)
