package teamhub

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied by Config.Normalize when the corresponding field is zero.
const (
	DefaultBaseURL      = "https://api.teamhub.com"
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultBaseDelay    = 1 * time.Second
	DefaultMaxJitter    = 100 * time.Millisecond
	DefaultRetryWaitMax = 30 * time.Second
	DefaultMaxPages     = 10000
	DefaultUserAgent    = "teamhub-go/" + Version
)

// Version is the SDK version reported in the default User-Agent.
const Version = "1.0.0"

var accountIDPattern = regexp.MustCompile(`^[0-9]+$`)

// Config represents client configuration for building a teamhub client.
//
// # Authentication precedence
//
//  1. AccessToken: used directly as a static Bearer token.
//  2. ClientID/ClientSecret (+ optional RefreshToken): OAuth2 token manager
//     that refreshes expired tokens against TokenURL.
//  3. Neither: construction fails unless a custom AuthStrategy or
//     TokenProvider is supplied via a client option.
//
// Supplying both a token source here and a custom AuthStrategy option is a
// configuration error reported at construction.
//
// Config is a value object: validate once, then treat as immutable. The client
// copies it at construction, so later mutation has no effect.
type Config struct {
	// BaseURL is the API base URL (e.g. "https://api.teamhub.com"). HTTPS is
	// required except for localhost, which tests use.
	BaseURL string `mapstructure:"base_url"`

	// AccountID is the default account every service path is scoped to.
	// Must match ^[0-9]+$ when set.
	AccountID string `mapstructure:"account_id"`

	// AccessToken, when set, is used directly as a static Bearer token.
	AccessToken string `mapstructure:"access_token"`
	// ClientID and ClientSecret select the OAuth2 refreshing token manager.
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	// RefreshToken optionally seeds the OAuth2 manager.
	RefreshToken string `mapstructure:"refresh_token"`
	// TokenURL is the OAuth2 token endpoint. Defaults to BaseURL+"/oauth/token".
	TokenURL string `mapstructure:"token_url"`

	// Timeout is the per-request timeout. Must be positive.
	Timeout time.Duration `mapstructure:"timeout"`
	// MaxRetries is the number of retries after the initial attempt. Must be
	// >= 0; the zero value selects the default. Disable retries with a
	// transport retry option.
	MaxRetries int `mapstructure:"max_retries"`
	// BaseDelay is the initial backoff delay.
	BaseDelay time.Duration `mapstructure:"base_delay"`
	// MaxJitter is the upper bound of the uniform random jitter added to each delay.
	MaxJitter time.Duration `mapstructure:"max_jitter"`
	// RetryWaitMax caps the computed backoff delay.
	RetryWaitMax time.Duration `mapstructure:"retry_wait_max"`
	// MaxPages bounds pagination. Must be > 0.
	MaxPages int `mapstructure:"max_pages"`

	// UserAgent overrides the default User-Agent header. The effective value
	// is never empty; the API requires an identifying User-Agent.
	UserAgent string `mapstructure:"user_agent"`

	// Debug enables verbose HTTP request/response logging through Logger.
	Debug bool `mapstructure:"debug"`
	// Logger receives structured log output. Nil means silent.
	Logger Logger `mapstructure:"-"`
}

// Normalize fills zero-valued tuning fields with defaults and canonicalizes
// BaseURL (scheme added, trailing slash stripped). It never touches fields the
// caller set explicitly, so an invalid explicit value still fails Validate.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	if !strings.Contains(c.BaseURL, "://") {
		c.BaseURL = "https://" + c.BaseURL
	}

	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")

	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	if c.BaseDelay == 0 {
		c.BaseDelay = DefaultBaseDelay
	}

	if c.MaxJitter == 0 {
		c.MaxJitter = DefaultMaxJitter
	}

	if c.RetryWaitMax == 0 {
		c.RetryWaitMax = DefaultRetryWaitMax
	}

	if c.MaxPages == 0 {
		c.MaxPages = DefaultMaxPages
	}

	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	if c.TokenURL == "" {
		c.TokenURL = c.BaseURL + "/oauth/token"
	}
}

// Validate reports the first construction-time configuration error. Invalid
// values fail here; they are never silently clamped.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return NewUsageError("base URL is required", "set Config.BaseURL or TEAMHUB_BASE_URL")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return NewUsageError(fmt.Sprintf("invalid base URL %q", c.BaseURL), err.Error())
	}

	if parsed.Scheme != "https" && !isLocalhost(parsed.Hostname()) {
		return NewUsageError(
			fmt.Sprintf("base URL must use HTTPS, got %q", c.BaseURL),
			"plain HTTP is only allowed for localhost",
		)
	}

	if c.AccountID != "" && !accountIDPattern.MatchString(c.AccountID) {
		return NewUsageError(
			fmt.Sprintf("account ID must be numeric, got %q", c.AccountID),
			"the account ID is the number in your TeamHub URL",
		)
	}

	if c.Timeout <= 0 {
		return NewUsageError(fmt.Sprintf("timeout must be positive, got %s", c.Timeout), "")
	}

	if c.MaxRetries < 0 {
		return NewUsageError(fmt.Sprintf("max retries must be non-negative, got %d", c.MaxRetries), "")
	}

	if c.BaseDelay < 0 {
		return NewUsageError(fmt.Sprintf("base delay must be non-negative, got %s", c.BaseDelay), "")
	}

	if c.MaxJitter < 0 {
		return NewUsageError(fmt.Sprintf("max jitter must be non-negative, got %s", c.MaxJitter), "")
	}

	if c.MaxPages <= 0 {
		return NewUsageError(fmt.Sprintf("max pages must be positive, got %d", c.MaxPages), "")
	}

	return nil
}

func isLocalhost(host string) bool {
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

// envBindings maps viper keys to TEAMHUB_* environment variables.
var envBindings = map[string]string{
	"base_url":       "TEAMHUB_BASE_URL",
	"account_id":     "TEAMHUB_ACCOUNT_ID",
	"access_token":   "TEAMHUB_ACCESS_TOKEN",
	"client_id":      "TEAMHUB_CLIENT_ID",
	"client_secret":  "TEAMHUB_CLIENT_SECRET",
	"refresh_token":  "TEAMHUB_REFRESH_TOKEN",
	"token_url":      "TEAMHUB_TOKEN_URL",
	"timeout":        "TEAMHUB_TIMEOUT",
	"max_retries":    "TEAMHUB_MAX_RETRIES",
	"base_delay":     "TEAMHUB_BASE_DELAY",
	"max_jitter":     "TEAMHUB_MAX_JITTER",
	"retry_wait_max": "TEAMHUB_RETRY_WAIT_MAX",
	"max_pages":      "TEAMHUB_MAX_PAGES",
	"user_agent":     "TEAMHUB_USER_AGENT",
	"debug":          "TEAMHUB_DEBUG",
}

// LoadConfigFromEnv overlays TEAMHUB_* environment variables onto c. Only
// variables that are actually set override existing values, so a Config built
// from explicit values and one overridden via the environment differ exactly
// in the overridden fields. Durations accept Go duration strings ("15s").
func (c *Config) LoadConfigFromEnv() error {
	v := viper.New()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	setDuration := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}

	setString("base_url", &c.BaseURL)
	setString("account_id", &c.AccountID)
	setString("access_token", &c.AccessToken)
	setString("client_id", &c.ClientID)
	setString("client_secret", &c.ClientSecret)
	setString("refresh_token", &c.RefreshToken)
	setString("token_url", &c.TokenURL)
	setString("user_agent", &c.UserAgent)

	setDuration("timeout", &c.Timeout)
	setDuration("base_delay", &c.BaseDelay)
	setDuration("max_jitter", &c.MaxJitter)
	setDuration("retry_wait_max", &c.RetryWaitMax)

	if v.IsSet("max_retries") {
		c.MaxRetries = v.GetInt("max_retries")
	}

	if v.IsSet("max_pages") {
		c.MaxPages = v.GetInt("max_pages")
	}

	if v.IsSet("debug") {
		c.Debug = v.GetBool("debug")
	}

	return nil
}
