package identity

import (
	"context"
	"errors"
	"net"
	"net/url"
)

// Identity is what a provider knows about an account.
type Identity struct {
	UID   string
	Email string
}

// Provider handles email/password accounts.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	// Delete removes an account; used to roll back a signup whose profile
	// could not be written.
	Delete(ctx context.Context, uid string) error
}

type Code string

const (
	CodeInvalidCredential Code = "auth/invalid-credential"
	CodeInvalidEmail      Code = "auth/invalid-email"
	CodeUserDisabled      Code = "auth/user-disabled"
	CodeEmailAlreadyInUse Code = "auth/email-already-in-use"
	CodeWeakPassword      Code = "auth/weak-password"
	CodeTooManyRequests   Code = "auth/too-many-requests"
	CodeNetworkFailed     Code = "auth/network-request-failed"
	CodeUnknown           Code = "auth/unknown"
)

var messages = map[Code]string{
	CodeInvalidCredential: "Incorrect email or password.",
	CodeUserDisabled:      "This account has been disabled.",
	CodeEmailAlreadyInUse: "An account with this email already exists.",
	CodeInvalidEmail:      "Please enter a valid email address.",
	CodeWeakPassword:      "Password must be at least 6 characters long.",
	CodeTooManyRequests:   "Too many attempts. Please try again later.",
	CodeNetworkFailed:     "Network error. Check your connection and try again.",
}

const defaultMessage = "Something went wrong. Please try again."

// Message returns the user-facing text for a code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return defaultMessage
}

// Error is a provider failure classified into the fixed taxonomy.
type Error struct {
	Code Code
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is safe to show to end users.
func (e *Error) Message() string { return Message(e.Code) }

func newError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// CodeOf classifies any error; non-provider errors are unknown, except
// transport failures which map to network-request-failed.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Code
	}
	if isNetworkError(err) {
		return CodeNetworkFailed
	}
	return CodeUnknown
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
