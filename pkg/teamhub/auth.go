package teamhub

import (
	"context"
	"net/http"
)

// TokenProvider supplies access tokens to the default Bearer auth strategy.
// AccessToken may perform I/O (a refreshing provider calls the OAuth token
// endpoint when its cached token expired); implementations must serialize
// refreshes so concurrent callers observe a single refresh.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// RefreshableTokenProvider is implemented by providers that can force a token
// refresh. The transport uses it once per logical call when a 401 is observed.
type RefreshableTokenProvider interface {
	TokenProvider
	Refresh(ctx context.Context) error
}

// AuthStrategy controls how authentication is applied to outbound requests.
// Authenticate mutates the request's headers and must not perform I/O beyond
// what its TokenProvider does. The default strategy is BearerAuth; custom
// strategies can set arbitrary headers (cookies, API keys).
type AuthStrategy interface {
	Authenticate(ctx context.Context, req *http.Request) error
}

// BearerAuth is the default AuthStrategy: it sets the Authorization header to
// "Bearer <token>" using the configured TokenProvider.
type BearerAuth struct {
	TokenProvider TokenProvider
}

// Authenticate implements AuthStrategy.
func (b *BearerAuth) Authenticate(ctx context.Context, req *http.Request) error {
	token, err := b.TokenProvider.AccessToken(ctx)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)

	return nil
}

// StaticTokenProvider provides a fixed token, e.g. from TEAMHUB_ACCESS_TOKEN.
type StaticTokenProvider struct {
	Token string
}

// AccessToken implements TokenProvider.
func (p *StaticTokenProvider) AccessToken(context.Context) (string, error) {
	return p.Token, nil
}
