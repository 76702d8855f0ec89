// Package errors carries the failure taxonomy shared by the model runners and
// the tick orchestrator: authentication failures are never retried, transient
// provider failures are retried with backoff, and everything else surfaces to
// the run record as-is.
package errors

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrBlankCompletion marks a model call that returned empty content. Blank
// completions are retried exactly like transient network errors.
var ErrBlankCompletion = errors.New("model returned blank content")

// TransientError represents an error that can be retried.
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if known
	Message    string // short human-readable summary
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// AuthError represents an authentication/authorization failure from a model
// provider. It is permanent: one attempt, no retry.
type AuthError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("auth error: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NewTransient wraps err as retryable.
func NewTransient(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewAuth wraps err as a fatal authentication failure.
func NewAuth(err error, message string) *AuthError {
	return &AuthError{Err: err, Message: message}
}

// IsAuth reports whether err is an authentication/authorization failure.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if IsAuth(err) {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	if errors.Is(err, ErrBlankCompletion) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	if code := httpStatusCode(err); code > 0 {
		return isTransientHTTPStatus(code)
	}

	return false
}

// Classify wraps a raw provider error into the engine taxonomy. Providers
// surface failures inconsistently (typed errors, wrapped status codes, bare
// message strings), so this inspects all three.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if IsAuth(err) {
		return err
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return err
	}

	code := httpStatusCode(err)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &AuthError{Err: err, StatusCode: code, Message: "authentication failed, check the provider API key"}
	case code > 0 && isTransientHTTPStatus(code):
		return &TransientError{Err: err, StatusCode: code}
	case code > 0:
		return err
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "unauthorized") || strings.Contains(lower, "forbidden") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication"):
		return &AuthError{Err: err, Message: "authentication failed, check the provider API key"}
	case strings.Contains(lower, "rate limit"),
		strings.Contains(lower, "overloaded"),
		strings.Contains(lower, "timeout"),
		strings.Contains(lower, "deadline exceeded"),
		strings.Contains(lower, "connection refused"),
		strings.Contains(lower, "connection reset"),
		strings.Contains(lower, "broken pipe"),
		strings.Contains(lower, "service unavailable"),
		strings.Contains(lower, "internal server error"),
		strings.Contains(lower, "bad gateway"):
		return &TransientError{Err: err}
	case isNetworkError(err):
		return &TransientError{Err: err}
	}

	return err
}

// Summary returns a short error string suitable for a run record.
func Summary(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if len(s) > 500 {
		s = s[:500]
	}
	return s
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isTransientHTTPStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// httpStatusCode extracts an HTTP status embedded in an error chain or its
// message. Provider SDKs frequently report "429", "status 503", etc. as text.
func httpStatusCode(err error) int {
	var transientErr *TransientError
	if errors.As(err, &transientErr) && transientErr.StatusCode > 0 {
		return transientErr.StatusCode
	}
	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.StatusCode > 0 {
		return authErr.StatusCode
	}

	msg := err.Error()
	for _, code := range []int{429, 500, 502, 503, 504, 401, 403, 404, 400} {
		if strings.Contains(msg, fmt.Sprintf("status %d", code)) ||
			strings.Contains(msg, fmt.Sprintf("HTTP %d", code)) ||
			strings.Contains(msg, fmt.Sprintf(" %d ", code)) ||
			strings.HasSuffix(msg, fmt.Sprintf(" %d", code)) {
			return code
		}
	}
	return 0
}
