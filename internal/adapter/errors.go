package adapter

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed remote call for retry decisions.
type ErrorKind string

const (
	// KindNetwork is a transport-level failure: no response was
	// received at all. Always retryable.
	KindNetwork ErrorKind = "network"

	// KindServer is a remote-reported failure carrying an HTTP status.
	// Retryable iff the status is >= 500.
	KindServer ErrorKind = "server"

	// KindNotFound signals the target entity does not exist remotely.
	// Not retryable; the delete path treats it as success.
	KindNotFound ErrorKind = "not_found"

	// KindUnauthorized signals re-authentication is required.
	// Not retryable through the sync queue.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindConflict signals the caller must re-fetch before retrying.
	KindConflict ErrorKind = "conflict"

	// KindValidation marks a malformed payload: a local bug, never
	// retried, logged loudly by the caller.
	KindValidation ErrorKind = "validation"
)

// SyncError is the classification attached to a failed remote replay.
// It is consumed immediately by the queue driver to decide retry vs.
// surfacing; never persisted.
type SyncError struct {
	Kind    ErrorKind
	Code    int
	Message string
	cause   error
}

func (e *SyncError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (http %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error { return e.cause }

// Retryable reports whether the failure is transient: network errors
// always, server errors only for 5xx statuses, everything else never.
func (e *SyncError) Retryable() bool {
	switch e.Kind {
	case KindNetwork:
		return true
	case KindServer:
		return e.Code >= 500
	default:
		return false
	}
}

func NetworkError(cause error) *SyncError {
	msg := "no response from server"
	if cause != nil {
		msg = cause.Error()
	}
	return &SyncError{Kind: KindNetwork, Message: msg, cause: cause}
}

func ServerError(code int, message string) *SyncError {
	return &SyncError{Kind: KindServer, Code: code, Message: message}
}

func NotFoundError(message string) *SyncError {
	return &SyncError{Kind: KindNotFound, Code: 404, Message: message}
}

func UnauthorizedError() *SyncError {
	return &SyncError{Kind: KindUnauthorized, Code: 401, Message: "authentication required"}
}

func ConflictError(message string) *SyncError {
	return &SyncError{Kind: KindConflict, Code: 409, Message: message}
}

func ValidationError(message string, cause error) *SyncError {
	return &SyncError{Kind: KindValidation, Message: message, cause: cause}
}

// AsSyncError extracts a *SyncError from err's chain, or wraps err as a
// non-retryable validation-class error when it is something else
// entirely (a local bug rather than a remote failure).
func AsSyncError(err error) *SyncError {
	if err == nil {
		return nil
	}
	var se *SyncError
	if errors.As(err, &se) {
		return se
	}
	return &SyncError{Kind: KindValidation, Message: err.Error(), cause: err}
}

// IsRetryable reports whether err carries a retryable classification.
func IsRetryable(err error) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Retryable()
}

// IsNotFound reports whether err is a 404-class failure.
func IsNotFound(err error) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Kind == KindNotFound
}

// IsUnauthorized reports whether err signals re-authentication.
func IsUnauthorized(err error) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Kind == KindUnauthorized
}
