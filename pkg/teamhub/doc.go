// Package teamhub provides the public API surface of the TeamHub client SDK:
// configuration, typed errors, observability hooks, response caching, and the
// pagination iterator.
//
// Most applications should construct a client through
// github.com/fivetwenty-io/teamhub/pkg/thclient and use the resource services
// it exposes. The types in this package are what those services accept and
// return, and what callers implement to customize behavior (Logger, Hooks,
// AuthStrategy, TokenProvider, Cache).
//
// # Errors
//
// Every failure surfaced by the SDK is an *Error carrying a stable Code, a
// human message, an optional remediation hint, and, when the server provided
// one, the request ID for support correlation. Use the Is* predicates or
// errors.As to branch on error kinds:
//
//	_, err := account.Projects().Get(ctx, projectID)
//	if teamhub.IsNotFound(err) {
//		// handle missing project
//	}
//
// # Concurrency
//
// A client and everything it hands out is safe for concurrent use. The only
// shared mutable state is the token cache inside a refreshing TokenProvider,
// the per-account service memoization, and the response cache; each is guarded
// by its own mutex. A PageIterator is the exception: it is single-consumer,
// and iterating one instance from multiple goroutines is undefined.
package teamhub
