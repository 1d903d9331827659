package accounts

import "errors"

// Provider codes returned to clients. The vocabulary matches what mobile
// clients already switch on.
const (
	CodeEmailInUse    = "auth/email-already-in-use"
	CodeWeakPassword  = "auth/weak-password"
	CodeInvalidEmail  = "auth/invalid-email"
	CodeUserNotFound  = "auth/user-not-found"
	CodeWrongPassword = "auth/wrong-password"
	CodeMissingFields = "auth/missing-fields"
)

// Error is an authentication failure with a stable provider code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// Is matches on code so callers can use errors.Is with the sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrEmailInUse    = &Error{Code: CodeEmailInUse, Message: "The email address is already in use by another account."}
	ErrWeakPassword  = &Error{Code: CodeWeakPassword, Message: "Password should be at least 6 characters."}
	ErrInvalidEmail  = &Error{Code: CodeInvalidEmail, Message: "The email address is badly formatted."}
	ErrUserNotFound  = &Error{Code: CodeUserNotFound, Message: "There is no user record corresponding to this identifier."}
	ErrWrongPassword = &Error{Code: CodeWrongPassword, Message: "The password is invalid."}
	ErrMissingFields = &Error{Code: CodeMissingFields, Message: "Email and password are required."}

	// ErrDuplicateEmail is returned by repositories when the unique email
	// constraint is violated.
	ErrDuplicateEmail = errors.New("duplicate email")
)
