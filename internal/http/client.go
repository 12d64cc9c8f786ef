// Package http provides the HTTP transport used by the TeamHub client,
// including request signing, retries with backoff, conditional caching and
// Link-header pagination.
package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/teamhub/internal/constants"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// TokenManager provides access tokens for request signing.
type TokenManager interface {
	// GetToken returns a valid access token, refreshing if necessary.
	GetToken(ctx context.Context) (string, error)

	// RefreshToken forces a token refresh.
	RefreshToken(ctx context.Context) error
}

// Request represents an API request before transport concerns are applied.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-marshaled when RawBody is nil.
	Body interface{}
	// RawBody is sent verbatim with ContentType.
	RawBody     []byte
	ContentType string
	Headers     map[string]string
	// Idempotent marks a mutating request as safe to retry. GET and HEAD
	// requests are always treated as idempotent.
	Idempotent bool
	// Service and Operation annotate hook callbacks.
	Service   string
	Operation string
}

// Response represents an API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	// FromCache indicates the body was served from the conditional cache
	// after a 304 Not Modified.
	FromCache bool
	// Attempts is the number of HTTP attempts made, including the final one.
	Attempts  int
	Duration  time.Duration
	RequestID string
}

// RetryConfig tunes the retry loop.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxJitter  time.Duration
	// WaitMax caps a single backoff sleep, including server-requested
	// Retry-After waits.
	WaitMax time.Duration
}

// Client is the HTTP transport client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokenManager TokenManager
	authStrategy teamhub.AuthStrategy
	userAgent    string
	accountID    string
	logger       teamhub.Logger
	debug        bool
	hooks        teamhub.Hooks
	cache        teamhub.Cache
	retry        RetryConfig
	maxPages     int
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAccountID annotates hook callbacks with the account the client is
// scoped to.
func WithAccountID(accountID string) Option {
	return func(c *Client) {
		c.accountID = accountID
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(logger teamhub.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithHooks sets the observation hooks.
func WithHooks(hooks teamhub.Hooks) Option {
	return func(c *Client) {
		if hooks != nil {
			c.hooks = hooks
		}
	}
}

// WithAuthStrategy replaces Bearer signing with a custom strategy (cookies,
// API keys). When set, the token manager is not consulted for signing.
func WithAuthStrategy(strategy teamhub.AuthStrategy) Option {
	return func(c *Client) {
		c.authStrategy = strategy
	}
}

// WithCache enables conditional response caching.
func WithCache(cache teamhub.Cache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithRetryConfig overrides the retry settings.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithMaxPages caps how many pages pagination will follow.
func WithMaxPages(maxPages int) Option {
	return func(c *Client) {
		if maxPages > 0 {
			c.maxPages = maxPages
		}
	}
}

// NewClient creates a transport client for the given API endpoint.
// tokenManager may be nil for unauthenticated requests.
func NewClient(baseURL string, tokenManager TokenManager, opts ...Option) *Client {
	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokenManager: tokenManager,
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		},
		userAgent: teamhub.DefaultUserAgent,
		hooks:     teamhub.NoopHooks{},
		retry: RetryConfig{
			MaxRetries: constants.DefaultRetryMax,
			BaseDelay:  constants.DefaultBaseDelay,
			MaxJitter:  constants.DefaultMaxJitter,
			WaitMax:    constants.DefaultRetryWaitMax,
		},
		maxPages: constants.DefaultMaxPages,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// ForAccount returns a copy of the client whose hook callbacks are annotated
// with the account ID. The copy shares the HTTP client, cache and hooks.
func (c *Client) ForAccount(accountID string) *Client {
	scoped := *c
	scoped.accountID = accountID

	return &scoped
}

// MaxPages returns the configured pagination cap.
func (c *Client) MaxPages() int {
	return c.maxPages
}

// Hooks returns the configured hooks.
func (c *Client) Hooks() teamhub.Hooks {
	return c.hooks
}

// Do executes a request, applying signing, conditional caching, retries and
// hook callbacks. Exactly one OnRequestEnd callback fires per call,
// regardless of how many attempts were made.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	info := c.operationInfo(req)
	ctx = c.safeRequestStart(ctx, info)

	var release func(error)

	if gating, ok := c.hooks.(teamhub.GatingHooks); ok {
		rel, gateErr := gating.GateOperation(ctx, info)
		if gateErr != nil {
			c.safeRequestEnd(ctx, info, teamhub.OperationResult{Err: gateErr})

			return nil, gateErr
		}

		release = rel
	}

	start := time.Now()
	resp, err := c.attemptLoop(ctx, req, info)
	duration := time.Since(start)

	result := teamhub.OperationResult{
		Duration: duration,
		Err:      err,
	}
	if resp != nil {
		resp.Duration = duration
		result.StatusCode = resp.StatusCode
		result.Attempts = resp.Attempts
		result.FromCache = resp.FromCache
	} else {
		var apiErr *teamhub.Error
		if errors.As(err, &apiErr) {
			result.StatusCode = apiErr.HTTPStatus
		}
	}

	if release != nil {
		release(err)
	}

	c.safeRequestEnd(ctx, info, result)

	return resp, err
}

// attemptLoop runs the build, sign, send and retry cycle for one logical
// request. A request with MaxRetries=N makes at most N+1 attempts.
//
//nolint:funlen,gocognit // The retry state machine reads best in one piece.
func (c *Client) attemptLoop(ctx context.Context, req *Request, info teamhub.OperationInfo) (*Response, error) {
	body, contentType, err := c.marshalBody(req)
	if err != nil {
		return nil, err
	}

	fullURL, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	attempts := 0
	refreshed := false

	for {
		attempts++

		httpReq, token, reqErr := c.buildHTTPRequest(ctx, req, fullURL, body, contentType)
		if reqErr != nil {
			return nil, reqErr
		}

		cacheKey, cached := c.lookupCache(ctx, req, fullURL, token)
		if cached != nil && cached.ETag != "" {
			httpReq.Header.Set("If-None-Match", cached.ETag)
		}

		if c.debug && c.logger != nil {
			c.logger.Debug("sending request", map[string]interface{}{
				"method":  req.Method,
				"url":     fullURL,
				"attempt": attempts,
			})
		}

		httpResp, sendErr := c.httpClient.Do(httpReq)
		if sendErr != nil {
			netErr := teamhub.NewNetworkError(fmt.Errorf("sending request: %w", sendErr))
			if !c.shouldRetry(req, attempts, netErr) {
				return nil, netErr
			}

			if waitErr := c.waitBeforeRetry(ctx, info, attempts, netErr); waitErr != nil {
				return nil, waitErr
			}

			continue
		}

		resp, respErr := c.readResponse(httpResp, attempts)
		if respErr != nil {
			return nil, respErr
		}

		if resp.StatusCode == http.StatusNotModified && cached != nil {
			return c.cachedResponse(cached, attempts, resp), nil
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.storeCache(ctx, req, cacheKey, resp)

			return resp, nil
		}

		if resp.StatusCode == http.StatusUnauthorized && !refreshed && c.tokenManager != nil {
			refreshed = true
			if refreshErr := c.tokenManager.RefreshToken(ctx); refreshErr == nil {
				continue
			}
		}

		apiErr := teamhub.MapResponseError(resp.StatusCode, resp.Headers, resp.Body)
		if !c.shouldRetry(req, attempts, apiErr) {
			return nil, apiErr
		}

		if waitErr := c.waitBeforeRetry(ctx, info, attempts, apiErr); waitErr != nil {
			return nil, waitErr
		}
	}
}

func (c *Client) marshalBody(req *Request) ([]byte, string, error) {
	if req.RawBody != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		return req.RawBody, contentType, nil
	}

	if req.Body == nil {
		return nil, "", nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request body: %w", err)
	}

	return data, "application/json", nil
}

// buildURL resolves the request target. Path may be an absolute URL, as with
// pagination next links; otherwise it is joined to the base URL.
func (c *Client) buildURL(req *Request) (string, error) {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + req.Path
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", teamhub.NewUsageError(fmt.Sprintf("invalid request path %q", req.Path), err.Error())
	}

	if len(req.Query) > 0 {
		query := parsed.Query()
		for key, values := range req.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

func (c *Client) buildHTTPRequest(ctx context.Context, req *Request, fullURL string, body []byte, contentType string) (*http.Request, string, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, reader)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	switch {
	case c.authStrategy != nil:
		if err := c.authStrategy.Authenticate(ctx, httpReq); err != nil {
			authErr := teamhub.NewAuthError("signing request failed")
			authErr.Cause = err

			return nil, "", authErr
		}

	case c.tokenManager != nil:
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			authErr := teamhub.NewAuthError("obtaining access token failed")
			authErr.Cause = err

			return nil, "", authErr
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	// Cache entries are keyed by the credential actually sent, so different
	// identities never share cached bodies.
	return httpReq, httpReq.Header.Get("Authorization"), nil
}

func (c *Client) readResponse(httpResp *http.Response, attempts int) (*Response, error) {
	defer func() { _ = httpResp.Body.Close() }()

	limit := int64(constants.MaxResponseBodyBytes)
	if httpResp.StatusCode >= 400 {
		limit = constants.MaxErrorBodyBytes
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, limit))
	if err != nil {
		return nil, teamhub.NewNetworkError(fmt.Errorf("reading response body: %w", err))
	}

	// Normalize empty success bodies so callers can always unmarshal.
	if httpResp.StatusCode == http.StatusNoContent || (len(body) == 0 && httpResp.StatusCode < 300) {
		body = []byte("null")
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Attempts:   attempts,
		RequestID:  httpResp.Header.Get("X-Request-Id"),
	}, nil
}

// shouldRetry reports whether another attempt is allowed: the retry budget
// must not be exhausted, the failure must be retryable, and the request must
// be idempotent.
func (c *Client) shouldRetry(req *Request, attempts int, err error) bool {
	if attempts > c.retry.MaxRetries {
		return false
	}

	if !teamhub.IsRetryable(err) {
		return false
	}

	return req.Method == http.MethodGet || req.Method == http.MethodHead || req.Idempotent
}

// waitBeforeRetry computes the backoff delay, fires the retry hook and
// sleeps. attempts is the number of attempts already made.
func (c *Client) waitBeforeRetry(ctx context.Context, info teamhub.OperationInfo, attempts int, cause error) error {
	delay := c.backoffDelay(attempts, cause)

	// The hook receives the attempt about to be made, so the first retry
	// reports attempt 2.
	c.safeRetry(ctx, info, attempts+1, cause, delay)

	if c.debug && c.logger != nil {
		c.logger.Debug("retrying request", map[string]interface{}{
			"attempt": attempts + 1,
			"delay":   delay.String(),
			"error":   cause.Error(),
		})
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return teamhub.NewNetworkError(ctx.Err())
	case <-timer.C:
		return nil
	}
}

// backoffDelay computes the sleep before the next attempt. A server-requested
// Retry-After wait takes precedence over exponential backoff; both are capped
// at WaitMax.
func (c *Client) backoffDelay(attempts int, cause error) time.Duration {
	var apiErr *teamhub.Error
	if errors.As(cause, &apiErr) && apiErr.RetryAfter > 0 {
		return minDuration(apiErr.RetryAfter, c.retry.WaitMax)
	}

	delay := c.retry.BaseDelay << (attempts - 1)
	if c.retry.MaxJitter > 0 {
		delay += rand.N(c.retry.MaxJitter)
	}

	return minDuration(delay, c.retry.WaitMax)
}

func minDuration(a, b time.Duration) time.Duration {
	if b > 0 && a > b {
		return b
	}

	return a
}

// cacheKey derives the conditional-cache key from the request URL and a hash
// of the signing credential, so entries are never shared across identities.
func cacheKey(fullURL, token string) string {
	sum := sha256.Sum256([]byte(token))

	return fullURL + "|" + hex.EncodeToString(sum[:8])
}

func (c *Client) lookupCache(ctx context.Context, req *Request, fullURL, token string) (string, *teamhub.CacheEntry) {
	if c.cache == nil || req.Method != http.MethodGet {
		return "", nil
	}

	key := cacheKey(fullURL, token)

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return key, nil
	}

	return key, entry
}

func (c *Client) storeCache(ctx context.Context, req *Request, key string, resp *Response) {
	if c.cache == nil || key == "" || req.Method != http.MethodGet || resp.StatusCode != http.StatusOK {
		return
	}

	etag := resp.Headers.Get("ETag")
	if etag == "" {
		return
	}

	entry := &teamhub.CacheEntry{
		Data:    resp.Body,
		Headers: resp.Headers.Clone(),
		ETag:    etag,
	}

	if err := c.cache.Set(ctx, key, entry); err != nil && c.logger != nil {
		c.logger.Warn("storing cache entry failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *Client) cachedResponse(entry *teamhub.CacheEntry, attempts int, notModified *Response) *Response {
	headers := entry.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    headers,
		Body:       entry.Data,
		FromCache:  true,
		Attempts:   attempts,
		RequestID:  notModified.RequestID,
	}
}

func (c *Client) operationInfo(req *Request) teamhub.OperationInfo {
	return teamhub.OperationInfo{
		Method:     req.Method,
		Path:       req.Path,
		Service:    req.Service,
		Operation:  req.Operation,
		Mutation:   req.Method != http.MethodGet && req.Method != http.MethodHead,
		Idempotent: req.Method == http.MethodGet || req.Method == http.MethodHead || req.Idempotent,
		AccountID:  c.accountID,
	}
}

// Hook callbacks must never affect the request outcome, so panics inside
// them are swallowed.

func (c *Client) safeRequestStart(ctx context.Context, info teamhub.OperationInfo) (out context.Context) {
	// Keep the caller's context when the hook panics mid-call.
	out = ctx

	defer c.recoverHookPanic("request start")

	return c.hooks.OnRequestStart(ctx, info)
}

func (c *Client) safeRequestEnd(ctx context.Context, info teamhub.OperationInfo, result teamhub.OperationResult) {
	defer c.recoverHookPanic("request end")

	c.hooks.OnRequestEnd(ctx, info, result)
}

func (c *Client) safeRetry(ctx context.Context, info teamhub.OperationInfo, attempt int, err error, delay time.Duration) {
	defer c.recoverHookPanic("retry")

	c.hooks.OnRetry(ctx, info, attempt, err, delay)
}

func (c *Client) recoverHookPanic(name string) {
	if r := recover(); r != nil && c.logger != nil {
		c.logger.Warn("hook panicked", map[string]interface{}{
			"hook":  name,
			"panic": fmt.Sprintf("%v", r),
		})
	}
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}
