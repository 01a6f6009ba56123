package sdk

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Sentinel errors for common SDK error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrProviderNotFound indicates the requested provider descriptor was
	// not found by a loader or registry lookup.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrModelNotFound indicates the requested model is not registered in
	// the catalog for the given provider.
	ErrModelNotFound = errors.New("model not found")

	// ErrInvalidDescriptor indicates a provider descriptor failed its
	// well-formedness checks.
	ErrInvalidDescriptor = errors.New("invalid provider descriptor")

	// ErrCredentialsInvalid indicates submitted credentials did not satisfy
	// the provider's credential form schema or were rejected by the provider.
	ErrCredentialsInvalid = errors.New("credentials validation failed")

	// ErrInvokeFailed indicates a provider invocation failed.
	// The underlying error should be wrapped for additional context.
	ErrInvokeFailed = errors.New("provider invocation failed")
)

// Error kinds categorize errors by their type. The invoke-side kinds mirror
// how provider APIs fail: transport problems, auth rejections, rate limits,
// and upstream outages each get their own category so callers can decide
// whether to retry.
const (
	// KindNotFound represents errors where a resource was not found.
	KindNotFound = "not_found"

	// KindValidation represents errors related to schema or input validation.
	KindValidation = "validation"

	// KindCredentials represents errors where submitted credentials were
	// rejected before any provider call was made.
	KindCredentials = "credentials"

	// KindConnection represents transport-level failures reaching a provider.
	KindConnection = "connection"

	// KindAuthorization represents provider rejections of the credential
	// material itself (HTTP 401/403).
	KindAuthorization = "authorization"

	// KindRateLimit represents provider rate limiting (HTTP 429).
	KindRateLimit = "rate_limit"

	// KindServerUnavailable represents provider-side outages (HTTP 5xx).
	KindServerUnavailable = "server_unavailable"

	// KindBadRequest represents malformed requests rejected by a provider.
	KindBadRequest = "bad_request"

	// KindTimeout represents errors related to operation timeouts.
	KindTimeout = "timeout"

	// KindInternal represents internal SDK errors.
	KindInternal = "internal"
)

// SDKError is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of error.
//
// SDKError implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &SDKError{
//		Op:   "embedding.Invoke",
//		Kind: KindRateLimit,
//		Err:  ErrInvokeFailed,
//	}
type SDKError struct {
	// Op is the operation that failed (e.g., "provider.Load", "embedding.Invoke").
	Op string

	// Kind categorizes the error (e.g., KindValidation, KindRateLimit).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include provider names, field variables, or HTTP status codes.
	Context map[string]any
}

// Error implements the error interface, returning a formatted error message
// that includes the operation, kind, and underlying error.
func (e *SDKError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sdk: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("sdk: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("sdk: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *SDKError) Unwrap() error {
	return e.Err
}

// Is implements error matching for SDKError, allowing comparison based on
// the underlying error or the SDKError itself.
func (e *SDKError) Is(target error) bool {
	if target == nil {
		return false
	}

	// Check if target is an SDKError with matching Kind
	if t, ok := target.(*SDKError); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	// Delegate to underlying error
	return errors.Is(e.Err, target)
}

// WithContext returns a new SDKError with the provided context added.
// This is useful for attaching provider names or field variables to errors.
func (e *SDKError) WithContext(ctx map[string]any) *SDKError {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewNotFoundError creates a new SDKError with KindNotFound.
func NewNotFoundError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindNotFound, Err: err}
}

// NewValidationError creates a new SDKError with KindValidation.
func NewValidationError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindValidation, Err: err}
}

// NewCredentialsError creates a new SDKError with KindCredentials.
func NewCredentialsError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindCredentials, Err: err}
}

// NewConnectionError creates a new SDKError with KindConnection.
func NewConnectionError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindConnection, Err: err}
}

// NewAuthorizationError creates a new SDKError with KindAuthorization.
func NewAuthorizationError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindAuthorization, Err: err}
}

// NewRateLimitError creates a new SDKError with KindRateLimit.
func NewRateLimitError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindRateLimit, Err: err}
}

// NewServerUnavailableError creates a new SDKError with KindServerUnavailable.
func NewServerUnavailableError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindServerUnavailable, Err: err}
}

// NewBadRequestError creates a new SDKError with KindBadRequest.
func NewBadRequestError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindBadRequest, Err: err}
}

// NewTimeoutError creates a new SDKError with KindTimeout.
func NewTimeoutError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindTimeout, Err: err}
}

// NewInternalError creates a new SDKError with KindInternal.
func NewInternalError(op string, err error) *SDKError {
	return &SDKError{Op: op, Kind: KindInternal, Err: err}
}

// KindForStatus maps a provider HTTP response status to an error kind.
//
// The mapping follows how provider APIs signal failure: 401 and 403 are
// authorization failures, 429 is rate limiting, 5xx is an upstream outage,
// and anything else non-2xx is treated as a bad request.
func KindForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthorization
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServerUnavailable
	default:
		return KindBadRequest
	}
}

// NewInvokeError creates a new SDKError for a failed provider call, choosing
// the kind from the HTTP response status via KindForStatus.
func NewInvokeError(op string, status int, err error) *SDKError {
	return &SDKError{
		Op:   op,
		Kind: KindForStatus(status),
		Err:  err,
		Context: map[string]any{
			"status": status,
		},
	}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed (e.g.,
// "response body", "connection"). If logger is nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
