package client

import (
	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// NewTestClient creates a client against baseURL with no authentication and
// default settings, for use in tests.
func NewTestClient(baseURL string, opts ...internalhttp.Option) *Client {
	return &Client{
		config:     &teamhub.Config{BaseURL: baseURL},
		httpClient: internalhttp.NewClient(baseURL, nil, opts...),
		accounts:   make(map[string]*AccountClient),
	}
}
