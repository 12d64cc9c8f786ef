package thclient

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/teamhub/internal/auth"
	"github.com/fivetwenty-io/teamhub/internal/client"
	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// Option customizes client construction beyond what Config carries.
type Option func(*options)

type options struct {
	tokenProvider  teamhub.TokenProvider
	authStrategy   teamhub.AuthStrategy
	hooks          teamhub.Hooks
	cache          teamhub.Cache
	persistService string
	persistAccount string
}

// WithTokenProvider authenticates requests with tokens from provider. A
// RefreshableTokenProvider additionally enables the automatic 401
// refresh-and-retry.
func WithTokenProvider(provider teamhub.TokenProvider) Option {
	return func(o *options) {
		o.tokenProvider = provider
	}
}

// WithAuthStrategy signs requests with a custom strategy instead of Bearer
// tokens.
func WithAuthStrategy(strategy teamhub.AuthStrategy) Option {
	return func(o *options) {
		o.authStrategy = strategy
	}
}

// WithHooks observes requests, retries and pagination. Compose several with
// teamhub.ChainHooks; gate traffic with teamhub.NewResilienceHooks.
func WithHooks(hooks teamhub.Hooks) Option {
	return func(o *options) {
		o.hooks = hooks
	}
}

// WithCache enables conditional (ETag) response caching.
func WithCache(cache teamhub.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithPersistedCredentials stores OAuth tokens in the OS keyring (with a
// restricted-file fallback) under service, keyed by account. Previously
// stored credentials seed the client, so a fresh process resumes the session
// without re-authenticating, and refreshed tokens are written back.
func WithPersistedCredentials(service, account string) Option {
	return func(o *options) {
		o.persistService = service
		o.persistAccount = account
	}
}

// New creates a TeamHub client. The config is normalized (defaults applied,
// scheme added) and then validated; validation failures are returned, never
// silently corrected.
func New(config *teamhub.Config, opts ...Option) (teamhub.Client, error) {
	if config == nil {
		return nil, teamhub.ErrConfigRequired
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := checkAuthSources(config, &o); err != nil {
		return nil, err
	}

	clientOpts := []client.Option{}

	if o.tokenProvider != nil {
		clientOpts = append(clientOpts, client.WithTokenManager(&providerTokenManager{provider: o.tokenProvider}))
	}

	if o.persistService != "" {
		store := auth.NewCredentialStore(o.persistService, "")
		manager := auth.NewPersistentTokenManager(&auth.OAuth2Config{
			TokenURL:     config.TokenURL,
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RefreshToken: config.RefreshToken,
			AccessToken:  config.AccessToken,
		}, store, o.persistAccount)
		clientOpts = append(clientOpts, client.WithTokenManager(manager))
	}

	httpOpts := []internalhttp.Option{}

	if o.authStrategy != nil {
		httpOpts = append(httpOpts, internalhttp.WithAuthStrategy(o.authStrategy))
	}

	if o.hooks != nil {
		httpOpts = append(httpOpts, internalhttp.WithHooks(o.hooks))
	}

	if o.cache != nil {
		httpOpts = append(httpOpts, internalhttp.WithCache(o.cache))
	}

	if len(httpOpts) > 0 {
		clientOpts = append(clientOpts, client.WithHTTPOptions(httpOpts...))
	}

	c, err := client.New(config, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return c, nil
}

// NewWithToken creates a client that signs with a pre-issued access token.
func NewWithToken(baseURL, token string) (teamhub.Client, error) {
	return New(&teamhub.Config{BaseURL: baseURL, AccessToken: token})
}

// NewWithClientCredentials creates a client that obtains tokens via the
// OAuth2 client_credentials grant.
func NewWithClientCredentials(baseURL, clientID, clientSecret string) (teamhub.Client, error) {
	return New(&teamhub.Config{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// checkAuthSources enforces exactly one source of authentication. Persisted
// credentials compose with config-carried OAuth settings and count as the
// same source.
func checkAuthSources(config *teamhub.Config, o *options) error {
	sources := 0

	if config.AccessToken != "" || config.RefreshToken != "" || config.ClientID != "" || o.persistService != "" {
		sources++
	}

	if o.tokenProvider != nil {
		sources++
	}

	if o.authStrategy != nil {
		sources++
	}

	switch {
	case sources == 0:
		return teamhub.ErrNoAuthConfigured
	case sources > 1:
		return teamhub.ErrConflictingAuth
	default:
		return nil
	}
}

// providerTokenManager adapts the public TokenProvider contract to the
// transport's token manager.
type providerTokenManager struct {
	provider teamhub.TokenProvider
}

func (m *providerTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.provider.AccessToken(ctx)
}

func (m *providerTokenManager) RefreshToken(ctx context.Context) error {
	if refreshable, ok := m.provider.(teamhub.RefreshableTokenProvider); ok {
		return refreshable.Refresh(ctx)
	}

	return teamhub.ErrStaticTokenNoRefresh
}
