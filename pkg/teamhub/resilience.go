package teamhub

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ResilienceConfig tunes the optional client-side protections applied around
// outbound operations. Zero values disable the corresponding protection.
type ResilienceConfig struct {
	// CircuitBreakerEnabled turns the circuit breaker on.
	CircuitBreakerEnabled bool
	// CircuitBreakerFailures is the consecutive-failure count that trips the
	// breaker. Defaults to 5 when the breaker is enabled.
	CircuitBreakerFailures uint32
	// CircuitBreakerTimeout is how long the breaker stays open before probing.
	// Defaults to 30 seconds when the breaker is enabled.
	CircuitBreakerTimeout time.Duration
	// RequestsPerSecond caps outbound request rate. Zero disables limiting.
	RequestsPerSecond float64
	// Burst is the rate limiter burst size. Defaults to 1 when limiting is on.
	Burst int
	// MaxConcurrent bounds in-flight operations. Zero disables the bulkhead.
	MaxConcurrent int64
}

// ResilienceHooks gates operations through a circuit breaker, a token-bucket
// rate limiter and a concurrency bulkhead. It implements GatingHooks and is
// otherwise a no-op for the observation callbacks.
type ResilienceHooks struct {
	NoopHooks

	breaker  *gobreaker.TwoStepCircuitBreaker[struct{}]
	limiter  *rate.Limiter
	bulkhead *semaphore.Weighted
}

// NewResilienceHooks builds hooks from cfg. A zero cfg yields hooks that gate
// nothing.
func NewResilienceHooks(name string, cfg ResilienceConfig) *ResilienceHooks {
	hooks := &ResilienceHooks{}

	if cfg.CircuitBreakerEnabled {
		failures := cfg.CircuitBreakerFailures
		if failures == 0 {
			failures = 5
		}

		timeout := cfg.CircuitBreakerTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}

		hooks.breaker = gobreaker.NewTwoStepCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    name,
			Timeout: timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
		})
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst == 0 {
			burst = 1
		}

		hooks.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if cfg.MaxConcurrent > 0 {
		hooks.bulkhead = semaphore.NewWeighted(cfg.MaxConcurrent)
	}

	return hooks
}

// GateOperation acquires the bulkhead, waits on the rate limiter and checks
// the circuit breaker, in that order. On success it returns a release
// function that must be called exactly once with the operation's outcome.
func (h *ResilienceHooks) GateOperation(ctx context.Context, info OperationInfo) (func(err error), error) {
	_ = info

	if h.bulkhead != nil {
		if !h.bulkhead.TryAcquire(1) {
			return nil, ErrBulkheadFull
		}
	}

	releaseBulkhead := func() {
		if h.bulkhead != nil {
			h.bulkhead.Release(1)
		}
	}

	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			releaseBulkhead()

			return nil, fmt.Errorf("%w: %w", ErrRateLimited, err)
		}
	}

	if h.breaker != nil {
		done, err := h.breaker.Allow()
		if err != nil {
			releaseBulkhead()

			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}

		return func(opErr error) {
			done(opErr == nil || !IsRetryable(opErr))
			releaseBulkhead()
		}, nil
	}

	return func(error) {
		releaseBulkhead()
	}, nil
}
