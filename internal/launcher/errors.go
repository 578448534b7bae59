package launcher

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start when the previously launched
	// process has not exited yet.
	ErrAlreadyRunning = errors.New("previously launched process is still running")
	// ErrUnsupported is returned by the native binding on platforms without
	// terminal services.
	ErrUnsupported = errors.New("cross-session launch is only supported on windows")
)

// AuthorizationError means the caller may not query another session's token.
// Retrying does not help; the caller must already be the privileged identity.
type AuthorizationError struct {
	SessionID uint32
	Err       error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("query user token (session=%d): %v", e.SessionID, e.Err)
}

func (e *AuthorizationError) Unwrap() error { return e.Err }

// SessionResolutionError means there is no active session and no console
// session, usually because nobody is logged in.
type SessionResolutionError struct {
	Err error
}

func (e *SessionResolutionError) Error() string {
	if e.Err == nil {
		return "no active interactive session"
	}
	return fmt.Sprintf("no active interactive session: %v", e.Err)
}

func (e *SessionResolutionError) Unwrap() error { return e.Err }

// TokenError is a token query or duplication failure.
type TokenError struct {
	Op  string
	Err error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// EnvironmentError is an environment block construction failure.
type EnvironmentError struct {
	Err error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("CreateEnvironmentBlock: %v", e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// ProcessCreationError carries the OS error code of a failed creation call.
type ProcessCreationError struct {
	Code uint32
	Err  error
}

func (e *ProcessCreationError) Error() string {
	return fmt.Sprintf("CreateProcessAsUser: code=%d: %v", e.Code, e.Err)
}

func (e *ProcessCreationError) Unwrap() error { return e.Err }
