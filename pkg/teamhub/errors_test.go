package teamhub

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	t.Parallel()

	err := &Error{
		Code:       CodeNotFound,
		Message:    "resource not found",
		HTTPStatus: 404,
	}

	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "resource not found")
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewNetworkError(cause)

	assert.ErrorIs(t, err, cause)
}

//nolint:funlen // Mapping table tests enumerate all the statuses
func TestMapResponseError(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error":"oops","error_description":"something happened"}`)

	tests := []struct {
		name      string
		status    int
		header    http.Header
		body      []byte
		code      string
		retryable bool
	}{
		{
			name:   "401 maps to auth",
			status: 401, header: http.Header{}, body: body,
			code: CodeAuth, retryable: false,
		},
		{
			name:   "403 maps to forbidden",
			status: 403, header: http.Header{}, body: body,
			code: CodeForbidden, retryable: false,
		},
		{
			name:   "404 maps to not found",
			status: 404, header: http.Header{}, body: body,
			code: CodeNotFound, retryable: false,
		},
		{
			name:   "400 maps to validation",
			status: 400, header: http.Header{}, body: body,
			code: CodeValidation, retryable: false,
		},
		{
			name:   "422 maps to validation",
			status: 422, header: http.Header{}, body: body,
			code: CodeValidation, retryable: false,
		},
		{
			name:   "429 maps to retryable rate limit",
			status: 429, header: http.Header{}, body: body,
			code: CodeRateLimit, retryable: true,
		},
		{
			name:   "500 maps to non-retryable API error",
			status: 500, header: http.Header{}, body: body,
			code: CodeAPI, retryable: false,
		},
		{
			name:   "502 maps to retryable API error",
			status: 502, header: http.Header{}, body: body,
			code: CodeAPI, retryable: true,
		},
		{
			name:   "503 maps to retryable API error",
			status: 503, header: http.Header{}, body: body,
			code: CodeAPI, retryable: true,
		},
		{
			name:   "504 maps to retryable API error",
			status: 504, header: http.Header{}, body: body,
			code: CodeAPI, retryable: true,
		},
		{
			name:   "unparseable body degrades to status message",
			status: 404, header: http.Header{}, body: []byte("<html>gateway</html>"),
			code: CodeNotFound, retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := MapResponseError(tt.status, tt.header, tt.body)
			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.status, err.HTTPStatus)
			assert.Equal(t, tt.retryable, err.Retryable)
		})
	}
}

func TestMapResponseError_RequestID(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set("X-Request-Id", "req-abc-123")

	err := MapResponseError(500, header, nil)
	assert.Equal(t, "req-abc-123", err.RequestID)
}

func TestMapResponseError_ScopeHint(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error":"forbidden","error_description":"token lacks required scope"}`)

	err := MapResponseError(403, http.Header{}, body)
	assert.Contains(t, err.Message, "insufficient scope")
	assert.Contains(t, err.Hint, "re-authenticate")
}

func TestMapResponseError_RetryAfter(t *testing.T) {
	t.Parallel()

	header := http.Header{}
	header.Set("Retry-After", "5")

	err := MapResponseError(429, header, nil)
	assert.Equal(t, 5*time.Second, err.RetryAfter)
	assert.True(t, err.Retryable)
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	t.Run("integer seconds", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 5*time.Second, ParseRetryAfter("5"))
	})

	t.Run("http date", func(t *testing.T) {
		t.Parallel()

		future := time.Now().Add(10 * time.Second).UTC().Format(http.TimeFormat)
		parsed := ParseRetryAfter(future)
		assert.InDelta(t, 10, parsed.Seconds(), 2)
	})

	t.Run("past date yields zero", func(t *testing.T) {
		t.Parallel()

		past := time.Now().Add(-time.Minute).UTC().Format(http.TimeFormat)
		assert.Zero(t, ParseRetryAfter(past))
	})

	t.Run("garbage yields zero", func(t *testing.T) {
		t.Parallel()
		assert.Zero(t, ParseRetryAfter("soon"))
		assert.Zero(t, ParseRetryAfter(""))
		assert.Zero(t, ParseRetryAfter("-3"))
	})
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	notFound := MapResponseError(404, http.Header{}, nil)
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsAuth(notFound))

	wrapped := fmt.Errorf("getting project: %w", notFound)
	assert.True(t, IsNotFound(wrapped))

	assert.True(t, IsAuth(MapResponseError(401, http.Header{}, nil)))
	assert.True(t, IsForbidden(MapResponseError(403, http.Header{}, nil)))
	assert.True(t, IsValidation(MapResponseError(422, http.Header{}, nil)))
	assert.True(t, IsRateLimit(MapResponseError(429, http.Header{}, nil)))
	assert.True(t, IsNetwork(NewNetworkError(errors.New("dial tcp: timeout"))))

	assert.True(t, IsRetryable(MapResponseError(503, http.Header{}, nil)))
	assert.False(t, IsRetryable(MapResponseError(500, http.Header{}, nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
}
