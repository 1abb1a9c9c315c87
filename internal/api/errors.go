package api

import (
	"errors"
	"fmt"
)

// ValidationError reports input rejected before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AuthError reports a missing, invalid or expired credential. Recovery is a
// manual re-login; nothing refreshes tokens in the background.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string {
	if e.Detail == "" {
		return "authentication required"
	}
	return e.Detail
}

// PermissionError reports an action on a post the session does not own,
// whether refused locally or rejected by the server.
type PermissionError struct {
	Detail string
}

func (e *PermissionError) Error() string {
	if e.Detail == "" {
		return "permission denied"
	}
	return e.Detail
}

// NetworkError wraps a request that could not complete at the transport
// level.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError reports a non-2xx response that is neither an auth nor a
// permission failure. Detail carries the backend's "detail" field when the
// error body had one.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Detail
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

// IsPermission reports whether err is an ownership/permission failure.
func IsPermission(err error) bool {
	var p *PermissionError
	return errors.As(err, &p)
}
