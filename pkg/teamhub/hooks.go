package teamhub

import (
	"context"
	"time"
)

// OperationInfo describes one logical API operation as seen by hooks.
// It is immutable for the duration of the call.
type OperationInfo struct {
	// Method is the HTTP method.
	Method string
	// Path is the request path or, for pagination fetches, the page URL.
	Path string
	// Service is the logical service name when known (e.g. "Projects").
	Service string
	// Operation is the service method when known (e.g. "Complete").
	Operation string
	// Mutation indicates the operation modifies server state.
	Mutation bool
	// Idempotent indicates the operation was marked safe to replay.
	Idempotent bool
	// AccountID is the account the operation is scoped to, if any.
	AccountID string
}

// OperationResult describes the outcome of one logical API operation.
type OperationResult struct {
	// StatusCode is the final HTTP status (0 if no response was received).
	StatusCode int
	// Attempts is the total number of attempts made, including the first.
	Attempts int
	// Duration is the wall time of the whole logical call, retries included.
	Duration time.Duration
	// FromCache indicates the response was served via a 304 from the cache.
	FromCache bool
	// Err is the mapped error, nil on success.
	Err error
}

// Hooks receives observability callbacks around request lifecycle events.
// Implementations must be safe for concurrent use. A panic inside any hook is
// recovered and logged by the client; hooks can never change the outcome of
// the operation they observe.
type Hooks interface {
	// OnRequestStart fires once per logical operation, before the first
	// attempt. The returned context is used for the operation and passed to
	// the remaining callbacks, allowing span or timing propagation.
	OnRequestStart(ctx context.Context, info OperationInfo) context.Context

	// OnRequestEnd fires exactly once per logical operation, after it reached
	// a terminal state.
	OnRequestEnd(ctx context.Context, info OperationInfo, result OperationResult)

	// OnRetry fires before each backoff sleep, with the upcoming attempt
	// number (2 for the first retry), the error that triggered the retry, and
	// the delay about to be applied.
	OnRetry(ctx context.Context, info OperationInfo, attempt int, err error, delay time.Duration)

	// OnPage fires before each pagination fetch with the page URL and the
	// 1-based page index.
	OnPage(ctx context.Context, pageURL string, page int)
}

// GatingHooks extends Hooks with admission control. GateOperation runs before
// OnRequestStart; returning an error rejects the operation without any HTTP
// traffic. The returned release function, if non-nil, is called when the
// operation ends (use it to free bulkhead slots).
type GatingHooks interface {
	Hooks
	GateOperation(ctx context.Context, info OperationInfo) (release func(err error), gateErr error)
}

// NoopHooks is the default Hooks implementation. Every client gets its own
// value at construction; there is no shared global.
type NoopHooks struct{}

var _ Hooks = NoopHooks{}

// OnRequestStart returns the context unchanged.
func (NoopHooks) OnRequestStart(ctx context.Context, _ OperationInfo) context.Context { return ctx }

// OnRequestEnd does nothing.
func (NoopHooks) OnRequestEnd(context.Context, OperationInfo, OperationResult) {}

// OnRetry does nothing.
func (NoopHooks) OnRetry(context.Context, OperationInfo, int, error, time.Duration) {}

// OnPage does nothing.
func (NoopHooks) OnPage(context.Context, string, int) {}

// chainHooks fans callbacks out to multiple Hooks. Start events run in order,
// end events in reverse order, so nested spans close correctly.
type chainHooks struct {
	hooks []Hooks
}

// ChainHooks combines multiple Hooks into one. Nil and NoopHooks entries are
// dropped; an empty result collapses to NoopHooks.
func ChainHooks(hooks ...Hooks) Hooks {
	filtered := make([]Hooks, 0, len(hooks))

	for _, h := range hooks {
		if h == nil {
			continue
		}

		if _, isNoop := h.(NoopHooks); isNoop {
			continue
		}

		filtered = append(filtered, h)
	}

	switch len(filtered) {
	case 0:
		return NoopHooks{}
	case 1:
		return filtered[0]
	default:
		return &chainHooks{hooks: filtered}
	}
}

func (c *chainHooks) OnRequestStart(ctx context.Context, info OperationInfo) context.Context {
	for _, h := range c.hooks {
		ctx = h.OnRequestStart(ctx, info)
	}

	return ctx
}

func (c *chainHooks) OnRequestEnd(ctx context.Context, info OperationInfo, result OperationResult) {
	for i := len(c.hooks) - 1; i >= 0; i-- {
		c.hooks[i].OnRequestEnd(ctx, info, result)
	}
}

func (c *chainHooks) OnRetry(ctx context.Context, info OperationInfo, attempt int, err error, delay time.Duration) {
	for _, h := range c.hooks {
		h.OnRetry(ctx, info, attempt, err, delay)
	}
}

func (c *chainHooks) OnPage(ctx context.Context, pageURL string, page int) {
	for _, h := range c.hooks {
		h.OnPage(ctx, pageURL, page)
	}
}

// GateOperation delegates to the first gating implementation in the chain.
// A chain is expected to carry at most one gater.
func (c *chainHooks) GateOperation(ctx context.Context, info OperationInfo) (func(error), error) {
	for _, h := range c.hooks {
		if gater, ok := h.(GatingHooks); ok {
			return gater.GateOperation(ctx, info)
		}
	}

	return nil, nil
}
