package auth

import (
	"context"
	"sync"
	"time"
)

// PersistentTokenManager wraps OAuth2TokenManager and writes refreshed
// tokens through to a credential store, so a later process can resume the
// session without re-authenticating.
type PersistentTokenManager struct {
	oauth2Manager *OAuth2TokenManager
	store         *CredentialStore
	accountID     string

	mu        sync.Mutex
	lastSaved string
}

// NewPersistentTokenManager creates a token manager that persists through
// store under accountID. Stored credentials, when present, seed the token
// state so a fresh process starts signed in.
func NewPersistentTokenManager(config *OAuth2Config, store *CredentialStore, accountID string) *PersistentTokenManager {
	if creds, err := store.Load(accountID); err == nil {
		if config.AccessToken == "" {
			config.AccessToken = creds.AccessToken
			config.ExpiresAt = creds.ExpiresAt
		}

		if config.RefreshToken == "" {
			config.RefreshToken = creds.RefreshToken
		}
	}

	return &PersistentTokenManager{
		oauth2Manager: NewOAuth2TokenManager(config),
		store:         store,
		accountID:     accountID,
	}
}

// GetToken returns a valid access token, persisting it when refresh produced
// a new one.
func (m *PersistentTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persistIfChanged()

	return token, nil
}

// RefreshToken forces a refresh and persists the result.
func (m *PersistentTokenManager) RefreshToken(ctx context.Context) error {
	if err := m.oauth2Manager.RefreshToken(ctx); err != nil {
		return err
	}

	m.persistIfChanged()

	return nil
}

// SetToken installs an externally obtained token and persists it.
func (m *PersistentTokenManager) SetToken(accessToken string, expiresAt time.Time) {
	m.oauth2Manager.SetToken(accessToken, expiresAt)
	m.persistIfChanged()
}

// persistIfChanged saves the current token when it differs from the last
// persisted one. Persistence failures are ignored: the in-memory session
// keeps working without a credential store.
func (m *PersistentTokenManager) persistIfChanged() {
	token := m.oauth2Manager.store.Get()
	if token == nil || token.AccessToken == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if token.AccessToken == m.lastSaved {
		return
	}

	creds := &Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}

	if err := m.store.Save(m.accountID, creds); err == nil {
		m.lastSaved = token.AccessToken
	}
}
