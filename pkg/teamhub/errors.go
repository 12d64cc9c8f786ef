package teamhub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Error codes carried by *Error. These are stable API; callers may switch on
// them or use the Is* predicates below.
const (
	CodeUsage      = "usage"
	CodeAuth       = "auth_required"
	CodeForbidden  = "forbidden"
	CodeNotFound   = "not_found"
	CodeValidation = "validation"
	CodeRateLimit  = "rate_limit"
	CodeAPI        = "api_error"
	CodeNetwork    = "network"
	CodeAmbiguous  = "ambiguous"
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrBaseURLRequired       = errors.New("base URL is required")
	ErrConflictingAuth       = errors.New("supply either a token provider or an auth strategy, not both")
	ErrNoAuthConfigured      = errors.New("no token provider or auth strategy configured")
	ErrStaticTokenNoRefresh  = errors.New("static token cannot be refreshed")
	ErrIteratorExhausted     = errors.New("no more items")
	ErrCircuitOpen           = errors.New("circuit breaker is open")
	ErrBulkheadFull          = errors.New("bulkhead is full")
	ErrRateLimited           = errors.New("client-side rate limit exceeded")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrCacheKeyNotFound      = errors.New("key not found")
	ErrCacheEntryExpired     = errors.New("entry expired")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrPaginationCrossOrigin = errors.New("pagination Link header points to a different origin")
)

// Error is the typed error returned for every failed API operation.
type Error struct {
	// Code is one of the Code* constants.
	Code string
	// Message is a human-readable description of the failure.
	Message string
	// Hint optionally suggests a remediation ("Re-authenticate with full scope").
	Hint string
	// HTTPStatus is the status code that produced this error, 0 for
	// transport-level failures.
	HTTPStatus int
	// RequestID is the server's request correlation ID when available.
	RequestID string
	// RetryAfter is the server-requested delay for rate-limited responses.
	RetryAfter time.Duration
	// Retryable reports whether the transport layer may retry this failure.
	Retryable bool
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Hint != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Hint)
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Error constructors. The transport layer uses these; they are exported so
// custom auth strategies and hooks can produce consistent errors.

// NewUsageError creates a client-configuration error.
func NewUsageError(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

// NewAuthError creates an authentication error (HTTP 401).
func NewAuthError(msg string) *Error {
	return &Error{Code: CodeAuth, Message: msg, HTTPStatus: http.StatusUnauthorized}
}

// NewNetworkError creates a transport-level error (DNS, timeout, connection).
func NewNetworkError(cause error) *Error {
	return &Error{
		Code:      CodeNetwork,
		Message:   "network error",
		Hint:      cause.Error(),
		Retryable: true,
		Cause:     cause,
	}
}

// errorBody is the wire shape of TeamHub API error responses.
type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// MapResponseError converts an HTTP status, response headers, and body into a
// typed *Error. It is a pure function: parse failures of the body degrade to a
// status-line message, never to a secondary error.
//
//nolint:cyclop // The mapping table is a single flat switch by design.
func MapResponseError(status int, header http.Header, body []byte) *Error {
	msg, hint := parseErrorBody(body)
	requestID := header.Get("X-Request-Id")

	switch {
	case status == http.StatusUnauthorized:
		return &Error{
			Code:       CodeAuth,
			Message:    orDefault(msg, "authentication failed"),
			Hint:       orDefault(hint, "check that the access token is valid"),
			HTTPStatus: status,
			RequestID:  requestID,
		}

	case status == http.StatusForbidden:
		e := &Error{
			Code:       CodeForbidden,
			Message:    orDefault(msg, "access denied"),
			Hint:       hint,
			HTTPStatus: status,
			RequestID:  requestID,
		}
		if strings.Contains(strings.ToLower(msg+" "+hint), "scope") {
			e.Message = "access denied: insufficient scope"
			e.Hint = "re-authenticate with full scope"
		}

		return e

	case status == http.StatusNotFound:
		return &Error{
			Code:       CodeNotFound,
			Message:    orDefault(msg, "resource not found"),
			Hint:       hint,
			HTTPStatus: status,
			RequestID:  requestID,
		}

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &Error{
			Code:       CodeValidation,
			Message:    orDefault(msg, fmt.Sprintf("request rejected (HTTP %d)", status)),
			Hint:       hint,
			HTTPStatus: status,
			RequestID:  requestID,
		}

	case status == http.StatusTooManyRequests:
		retryAfter := ParseRetryAfter(header.Get("Retry-After"))
		h := "try again later"
		if retryAfter > 0 {
			h = fmt.Sprintf("try again in %s", retryAfter)
		}

		return &Error{
			Code:       CodeRateLimit,
			Message:    "rate limited",
			Hint:       h,
			HTTPStatus: status,
			RequestID:  requestID,
			RetryAfter: retryAfter,
			Retryable:  true,
		}

	case status >= 500:
		return &Error{
			Code:       CodeAPI,
			Message:    orDefault(msg, fmt.Sprintf("server error (HTTP %d)", status)),
			Hint:       hint,
			HTTPStatus: status,
			RequestID:  requestID,
			Retryable:  status == http.StatusBadGateway || status == http.StatusServiceUnavailable || status == http.StatusGatewayTimeout,
		}

	default:
		return &Error{
			Code:       CodeAPI,
			Message:    orDefault(msg, fmt.Sprintf("request failed (HTTP %d)", status)),
			Hint:       hint,
			HTTPStatus: status,
			RequestID:  requestID,
		}
	}
}

// parseErrorBody best-effort extracts error/error_description from a JSON
// error body. Returns empty strings when the body is not parseable.
func parseErrorBody(body []byte) (msg, hint string) {
	if len(body) == 0 {
		return "", ""
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ""
	}

	return parsed.Error, parsed.Description
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}

// ParseRetryAfter parses a Retry-After header value, accepting both the
// integer-seconds form and the RFC 1123 HTTP-date form. Unparseable or
// non-positive values yield zero.
func ParseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds > 0 {
			return time.Duration(seconds) * time.Second
		}

		return 0
	}

	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d.Round(time.Second)
		}
	}

	return 0
}

// Predicates

// IsAuth reports whether err is an authentication error.
func IsAuth(err error) bool { return hasCode(err, CodeAuth) }

// IsForbidden reports whether err is an authorization error.
func IsForbidden(err error) bool { return hasCode(err, CodeForbidden) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsValidation reports whether err is a validation error (HTTP 400/422).
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsRateLimit reports whether err is a rate-limit error.
func IsRateLimit(err error) bool { return hasCode(err, CodeRateLimit) }

// IsNetwork reports whether err is a transport-level error.
func IsNetwork(err error) bool { return hasCode(err, CodeNetwork) }

// IsRetryable reports whether the transport layer considers err retryable.
func IsRetryable(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}

	return false
}

func hasCode(err error, code string) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}

	return false
}
