package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/teamhub/internal/constants"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// Static errors for err113 compliance.
var (
	ErrNoRefreshMethod = errors.New("no refresh credentials configured")
	ErrTokenEndpoint   = errors.New("token endpoint request failed")
)

// OAuth2Config configures the OAuth2 token manager.
type OAuth2Config struct {
	// TokenURL is the token endpoint.
	TokenURL string
	// ClientID and ClientSecret enable the client_credentials grant.
	ClientID     string
	ClientSecret string
	// RefreshToken enables the refresh_token grant.
	RefreshToken string
	// AccessToken seeds the store with an already-issued token.
	AccessToken string
	// ExpiresAt is the seeded token's expiry; zero means unknown.
	ExpiresAt time.Time
	// HTTPClient overrides the token endpoint HTTP client.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains and refreshes tokens from an OAuth2 token
// endpoint. Refreshes are serialized: when several goroutines hit a stale
// token at once, one performs the endpoint call and the rest reuse its
// result.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	client *retryablehttp.Client

	refreshMu  sync.Mutex
	generation atomic.Int64
}

// NewOAuth2TokenManager creates a token manager. The token endpoint client
// retries transient failures on its own, independent of the API retry
// policy.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	client := retryablehttp.NewClient()
	client.RetryMax = constants.TokenRetryMax
	client.Logger = nil

	if config.HTTPClient != nil {
		client.HTTPClient = config.HTTPClient
	} else {
		client.HTTPClient.Timeout = constants.TokenHTTPTimeout
	}

	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
		client: client,
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			ExpiresAt:    config.ExpiresAt,
		})
	}

	return manager
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	if token := m.store.Get(); token.Valid() {
		return token.AccessToken, nil
	}

	if err := m.RefreshToken(ctx); err != nil {
		return "", err
	}

	token := m.store.Get()
	if !token.Valid() {
		return "", fmt.Errorf("%w: token endpoint returned an unusable token", ErrTokenEndpoint)
	}

	return token.AccessToken, nil
}

// RefreshToken forces a token refresh. Concurrent calls coalesce into a
// single token endpoint request.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	observed := m.generation.Load()

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	// Another caller refreshed while we waited for the lock.
	if m.generation.Load() != observed {
		return nil
	}

	return m.refreshLocked(ctx)
}

// SetToken installs an externally obtained token.
func (m *OAuth2TokenManager) SetToken(accessToken string, expiresAt time.Time) {
	current := m.store.Get()

	token := &Token{AccessToken: accessToken, ExpiresAt: expiresAt}
	if current != nil {
		token.RefreshToken = current.RefreshToken
	}

	m.store.Set(token)
	m.generation.Add(1)
}

func (m *OAuth2TokenManager) refreshLocked(ctx context.Context) error {
	form := url.Values{}
	useBasicAuth := false

	current := m.store.Get()
	refreshToken := m.config.RefreshToken

	if current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	switch {
	case refreshToken != "":
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", refreshToken)

		if m.config.ClientID != "" {
			form.Set("client_id", m.config.ClientID)
			form.Set("client_secret", m.config.ClientSecret)
		}

	case m.config.ClientID != "" && m.config.ClientSecret != "":
		form.Set("grant_type", "client_credentials")

		useBasicAuth = true

	default:
		return ErrNoRefreshMethod
	}

	token, err := m.requestToken(ctx, form, useBasicAuth)
	if err != nil {
		return err
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}

	m.store.Set(token)
	m.generation.Add(1)

	return nil
}

func (m *OAuth2TokenManager) requestToken(ctx context.Context, form url.Values, useBasicAuth bool) (*Token, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, m.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	if useBasicAuth {
		req.SetBasicAuth(m.config.ClientID, m.config.ClientSecret)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, teamhub.NewNetworkError(fmt.Errorf("requesting token: %w", err))
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
	if err != nil {
		return nil, teamhub.NewNetworkError(fmt.Errorf("reading token response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrTokenEndpoint, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrTokenEndpoint, err)
	}

	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	}

	return &token, nil
}
