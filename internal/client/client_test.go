package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/teamhub/internal/client"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

func TestClient_Identity(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/authorization", request.URL.Path)
		_, _ = writer.Write([]byte(`{
			"id": "42",
			"name": "Frankie",
			"email_address": "frankie@example.com",
			"accounts": [{"id": "1234", "name": "Example Co"}]
		}`))
	}))
	defer server.Close()

	c := client.NewTestClient(server.URL)

	identity, err := c.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Frankie", identity.Name)
	require.Len(t, identity.Accounts, 1)
	assert.Equal(t, "1234", identity.Accounts[0].ID)
}

func TestClient_ForAccount(t *testing.T) {
	t.Parallel()

	t.Run("numeric account IDs accepted", func(t *testing.T) {
		t.Parallel()

		c := client.NewTestClient("https://api.example.com")

		account, err := c.ForAccount("1234")
		require.NoError(t, err)
		assert.Equal(t, "1234", account.AccountID())
	})

	t.Run("same ID returns the same instance", func(t *testing.T) {
		t.Parallel()

		c := client.NewTestClient("https://api.example.com")

		first, err := c.ForAccount("1234")
		require.NoError(t, err)

		second, err := c.ForAccount("1234")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("non-numeric account IDs rejected", func(t *testing.T) {
		t.Parallel()

		c := client.NewTestClient("https://api.example.com")

		for _, id := range []string{"", "abc", "12a4", "12 34", "-1"} {
			_, err := c.ForAccount(id)
			require.Error(t, err, "account ID %q", id)

			var usageErr *teamhub.Error

			require.ErrorAs(t, err, &usageErr)
			assert.Equal(t, teamhub.CodeUsage, usageErr.Code)
		}
	})

	t.Run("services are memoized", func(t *testing.T) {
		t.Parallel()

		c := client.NewTestClient("https://api.example.com")

		account, err := c.ForAccount("1234")
		require.NoError(t, err)

		assert.Same(t, account.Projects(), account.Projects())
		assert.Same(t, account.Todos(), account.Todos())
		assert.Same(t, account.Messages(), account.Messages())
	})
}
