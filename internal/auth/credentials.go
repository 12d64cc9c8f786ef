package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/fivetwenty-io/teamhub/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrCredentialsNotFound = errors.New("no stored credentials")
)

// Credentials is the persisted authentication state for one account.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// CredentialStore persists credentials in the OS keyring, falling back to a
// restricted file when no keyring service is available (headless hosts, CI).
type CredentialStore struct {
	service     string
	fallbackDir string
}

// NewCredentialStore creates a store namespaced under service. fallbackDir
// defaults to ~/.teamhub when empty.
func NewCredentialStore(service, fallbackDir string) *CredentialStore {
	if fallbackDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			fallbackDir = filepath.Join(home, ".teamhub")
		}
	}

	return &CredentialStore{service: service, fallbackDir: fallbackDir}
}

// Save persists credentials for an account.
func (s *CredentialStore) Save(accountID string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := keyring.Set(s.service, accountID, string(data)); err == nil {
		return nil
	}

	return s.saveFile(accountID, data)
}

// Load retrieves credentials for an account. It returns
// ErrCredentialsNotFound when neither the keyring nor the fallback file has
// an entry.
func (s *CredentialStore) Load(accountID string) (*Credentials, error) {
	if data, err := keyring.Get(s.service, accountID); err == nil {
		return decodeCredentials([]byte(data))
	}

	data, err := os.ReadFile(s.filePath(accountID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCredentialsNotFound
		}

		return nil, fmt.Errorf("reading credential file: %w", err)
	}

	return decodeCredentials(data)
}

// Delete removes an account's credentials from both backends.
func (s *CredentialStore) Delete(accountID string) error {
	keyringErr := keyring.Delete(s.service, accountID)
	if errors.Is(keyringErr, keyring.ErrNotFound) {
		keyringErr = nil
	}

	fileErr := os.Remove(s.filePath(accountID))
	if os.IsNotExist(fileErr) {
		fileErr = nil
	}

	if keyringErr != nil && fileErr != nil {
		return fmt.Errorf("deleting credentials: %w", keyringErr)
	}

	return nil
}

func (s *CredentialStore) saveFile(accountID string, data []byte) error {
	if s.fallbackDir == "" {
		return fmt.Errorf("saving credentials: %w", ErrCredentialsNotFound)
	}

	if err := os.MkdirAll(s.fallbackDir, constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("creating credential directory: %w", err)
	}

	if err := os.WriteFile(s.filePath(accountID), data, constants.CredentialFilePerm); err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}

	return nil
}

func (s *CredentialStore) filePath(accountID string) string {
	return filepath.Join(s.fallbackDir, fmt.Sprintf("credentials-%s-%s.json", s.service, accountID))
}

func decodeCredentials(data []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decoding credentials: %w", err)
	}

	return &creds, nil
}
