package auth

import (
	"context"

	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// StaticTokenManager serves a fixed access token. It cannot refresh, so a
// rejected token surfaces as a permanent authentication failure.
type StaticTokenManager struct {
	token string
}

// NewStaticTokenManager creates a manager for a pre-issued token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	return &StaticTokenManager{token: token}
}

// GetToken returns the fixed token.
func (m *StaticTokenManager) GetToken(context.Context) (string, error) {
	return m.token, nil
}

// RefreshToken always fails: static tokens have no refresh flow.
func (m *StaticTokenManager) RefreshToken(context.Context) error {
	return teamhub.ErrStaticTokenNoRefresh
}
