package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

func TestMessagesService_Pin(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "POST", request.Method)
		assert.Equal(t, "/1234/projects/7/messages/55/pin", request.URL.Path)
		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := accountServices(t, server.URL).Messages().Pin(context.Background(), "7", "55")
	require.NoError(t, err)
}

func TestMessagesService_Unpin(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "DELETE", request.Method)
		assert.Equal(t, "/1234/projects/7/messages/55/pin", request.URL.Path)
		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := accountServices(t, server.URL).Messages().Unpin(context.Background(), "7", "55")
	require.NoError(t, err)
}

func TestMessagesService_Create(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/1234/projects/7/messages", request.URL.Path)

		var payload teamhub.MessageCreate

		require.NoError(t, json.NewDecoder(request.Body).Decode(&payload))
		assert.Equal(t, "Kickoff", payload.Subject)

		writer.WriteHeader(http.StatusCreated)
		_, _ = writer.Write([]byte(`{"id":"55","subject":"Kickoff","pinned":false}`))
	}))
	defer server.Close()

	message, err := accountServices(t, server.URL).Messages().Create(context.Background(), "7", &teamhub.MessageCreate{Subject: "Kickoff"})
	require.NoError(t, err)
	assert.Equal(t, "55", message.ID)
}

func TestMessagesService_Get(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/1234/projects/7/messages/55", request.URL.Path)
		_, _ = writer.Write([]byte(`{"id":"55","subject":"Kickoff","pinned":true}`))
	}))
	defer server.Close()

	message, err := accountServices(t, server.URL).Messages().Get(context.Background(), "7", "55")
	require.NoError(t, err)
	assert.True(t, message.Pinned)
}
