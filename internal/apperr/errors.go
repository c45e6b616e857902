// Package apperr provides the typed errors the transcription pipeline reports
// to clients. Every fault a request can hit maps to exactly one Kind with a
// stable HTTP status, so handlers never leak unstructured failures.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the unified application error type.
type Error struct {
	// Kind is the machine-readable error kind.
	Kind Kind `json:"kind"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the caller may retry the request.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status code returned for this error.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, if any.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// --- Constructors, one per Kind ---

// UnsupportedFormat reports an upload with an extension outside the supported set.
func UnsupportedFormat(ext string, allowed []string) *Error {
	return &Error{
		Kind:       KindUnsupportedFormat,
		Message:    fmt.Sprintf("unsupported audio format %q, accepted formats: %v", ext, allowed),
		HTTPStatus: http.StatusBadRequest,
	}
}

// PayloadTooLarge reports an upload exceeding the configured maximum.
func PayloadTooLarge(size, limit int64) *Error {
	return &Error{
		Kind:       KindPayloadTooLarge,
		Message:    fmt.Sprintf("file size %d bytes exceeds the %d byte limit", size, limit),
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// InvalidParameter reports a transcription option that failed validation.
// The offending field is always named, never silently clamped.
func InvalidParameter(field, reason string) *Error {
	return &Error{
		Kind:       KindInvalidParameter,
		Message:    fmt.Sprintf("invalid parameter %q: %s", field, reason),
		HTTPStatus: http.StatusBadRequest,
	}
}

// DecodeError reports audio that could not be decoded into samples.
func DecodeError(cause error) *Error {
	return &Error{
		Kind:       KindDecodeError,
		Message:    "audio could not be decoded",
		HTTPStatus: http.StatusUnprocessableEntity,
		Cause:      cause,
	}
}

// InferenceError reports a model failure during transcription.
func InferenceError(cause error) *Error {
	return &Error{
		Kind:       KindInferenceError,
		Message:    "transcription failed",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceOverloaded reports a full wait queue. Callers should back off and retry.
func ServiceOverloaded() *Error {
	return &Error{
		Kind:       KindServiceOverloaded,
		Message:    "service is at capacity, retry with backoff",
		Retryable:  true,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// Timeout reports a job whose deadline elapsed while queued or running.
func Timeout() *Error {
	return &Error{
		Kind:       KindTimeout,
		Message:    "transcription did not complete before the deadline",
		Retryable:  true,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// EngineLoadFailure reports that the model never loaded. The process stays up
// but refuses transcription work.
func EngineLoadFailure(cause error) *Error {
	return &Error{
		Kind:       KindEngineLoadFailure,
		Message:    "transcription engine is not available",
		HTTPStatus: http.StatusServiceUnavailable,
		Cause:      cause,
	}
}

// As extracts an *Error from err, if there is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// From coerces any error into an *Error. Unknown errors become InferenceError
// so no unstructured failure crosses the HTTP boundary.
func From(err error) *Error {
	if e, ok := As(err); ok {
		return e
	}
	return InferenceError(err)
}
