// Package client implements the teamhub.Client interface on top of the
// internal transport.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"

	"github.com/fivetwenty-io/teamhub/internal/auth"
	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// Static errors for err113 compliance.
var (
	ErrBaseURLRequired = errors.New("base URL is required")
)

var accountIDPattern = regexp.MustCompile(`^[0-9]+$`)

// Client implements teamhub.Client.
type Client struct {
	httpClient   *internalhttp.Client
	tokenManager internalhttp.TokenManager
	config       *teamhub.Config
	logger       teamhub.Logger

	extraHTTPOptions []internalhttp.Option

	mu       sync.Mutex
	accounts map[string]*AccountClient
}

// New creates a client from a normalized, validated config. The caller is
// expected to have run Config.Normalize and Config.Validate; the facade in
// pkg/thclient does both.
func New(config *teamhub.Config, options ...Option) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	client := &Client{
		config:   config,
		accounts: make(map[string]*AccountClient),
	}

	for _, opt := range options {
		opt(client)
	}

	if client.tokenManager == nil {
		client.tokenManager = createTokenManager(config)
	}

	httpOpts := []internalhttp.Option{
		internalhttp.WithUserAgent(config.UserAgent),
		internalhttp.WithRetryConfig(internalhttp.RetryConfig{
			MaxRetries: config.MaxRetries,
			BaseDelay:  config.BaseDelay,
			MaxJitter:  config.MaxJitter,
			WaitMax:    config.RetryWaitMax,
		}),
		internalhttp.WithMaxPages(config.MaxPages),
		internalhttp.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(config.Logger))
		client.logger = config.Logger
	}

	if config.Debug {
		httpOpts = append(httpOpts, internalhttp.WithDebug(true))
	}

	httpOpts = append(httpOpts, client.extraHTTPOptions...)

	client.httpClient = internalhttp.NewClient(config.BaseURL, client.tokenManager, httpOpts...)

	return client, nil
}

// Option configures the client beyond what Config carries.
type Option func(*Client)

// WithTokenManager overrides the token manager derived from config.
func WithTokenManager(manager internalhttp.TokenManager) Option {
	return func(c *Client) {
		c.tokenManager = manager
	}
}

// WithHTTPOptions forwards extra options to the transport client.
func WithHTTPOptions(opts ...internalhttp.Option) Option {
	return func(c *Client) {
		c.extraHTTPOptions = append(c.extraHTTPOptions, opts...)
	}
}

// createTokenManager picks a token manager from the config: an explicit
// access token wins when no refresh credentials accompany it, otherwise the
// OAuth2 refreshing manager takes over.
func createTokenManager(config *teamhub.Config) internalhttp.TokenManager {
	hasRefresh := config.RefreshToken != "" || (config.ClientID != "" && config.ClientSecret != "")

	if config.AccessToken != "" && !hasRefresh {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.AccessToken == "" && !hasRefresh {
		return nil
	}

	return auth.NewOAuth2TokenManager(&auth.OAuth2Config{
		TokenURL:     config.TokenURL,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RefreshToken: config.RefreshToken,
		AccessToken:  config.AccessToken,
	})
}

// Identity returns the authenticated user and their accounts.
func (c *Client) Identity(ctx context.Context) (*teamhub.Identity, error) {
	resp, err := c.httpClient.Get(ctx, "/authorization", nil)
	if err != nil {
		return nil, fmt.Errorf("getting identity: %w", err)
	}

	var identity teamhub.Identity

	err = json.Unmarshal(resp.Body, &identity)
	if err != nil {
		return nil, fmt.Errorf("parsing identity: %w", err)
	}

	return &identity, nil
}

// ForAccount returns the memoized account-scoped client for accountID.
func (c *Client) ForAccount(accountID string) (teamhub.AccountClient, error) {
	if !accountIDPattern.MatchString(accountID) {
		return nil, teamhub.NewUsageError(
			fmt.Sprintf("invalid account ID %q", accountID),
			"account IDs are numeric",
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if account, ok := c.accounts[accountID]; ok {
		return account, nil
	}

	account := newAccountClient(c.httpClient.ForAccount(accountID), accountID)
	c.accounts[accountID] = account

	return account, nil
}

// HTTPClient exposes the transport for advanced use.
func (c *Client) HTTPClient() *internalhttp.Client {
	return c.httpClient
}
