// Package constants centralizes shared limits and defaults.
package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600

	// CredentialFilePerm is the permission for the fallback credential file.
	CredentialFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// TokenHTTPTimeout is the timeout for token endpoint requests.
	TokenHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 3

	// TokenRetryMax is the retry budget for token endpoint requests.
	TokenRetryMax = 2

	// DefaultBaseDelay is the first retry backoff delay.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxJitter is the upper bound for random backoff jitter.
	DefaultMaxJitter = 100 * time.Millisecond

	// DefaultRetryWaitMax caps a single backoff sleep, including waits the
	// server requests through Retry-After.
	DefaultRetryWaitMax = 30 * time.Second
)

// Body size limits. Responses beyond these bounds are truncated rather than
// read fully into memory.
const (
	// MaxResponseBodyBytes bounds a successful response body read.
	MaxResponseBodyBytes = 10 << 20

	// MaxErrorBodyBytes bounds an error response body read.
	MaxErrorBodyBytes = 64 << 10
)

// Pagination limits.
const (
	// DefaultMaxPages caps how many pages an iterator will follow.
	DefaultMaxPages = 10000
)

// TokenExpirySkew is subtracted from a token's lifetime so refresh happens
// before the server-side expiry.
const TokenExpirySkew = 30 * time.Second
