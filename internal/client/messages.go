package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// MessagesService implements teamhub.MessagesService.
type MessagesService struct {
	httpClient *internalhttp.Client
	basePath   string
}

// NewMessagesService creates a messages service under basePath.
func NewMessagesService(httpClient *internalhttp.Client, basePath string) *MessagesService {
	return &MessagesService{httpClient: httpClient, basePath: basePath}
}

func (s *MessagesService) messagePath(projectID, messageID string) string {
	return s.basePath + "/projects/" + projectID + "/messages/" + messageID
}

// Get implements teamhub.MessagesService.Get.
func (s *MessagesService) Get(ctx context.Context, projectID, messageID string) (*teamhub.Message, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodGet,
		Path:      s.messagePath(projectID, messageID),
		Service:   "messages",
		Operation: "get",
	})
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}

	var message teamhub.Message

	err = json.Unmarshal(resp.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	return &message, nil
}

// List implements teamhub.MessagesService.List.
func (s *MessagesService) List(ctx context.Context, projectID string, params *teamhub.QueryParams) *teamhub.PageIterator[teamhub.Message] {
	return teamhub.NewPageIterator[teamhub.Message](
		ctx,
		s.httpClient,
		listPath(s.basePath+"/projects/"+projectID+"/messages", params),
		s.httpClient.MaxPages(),
		s.httpClient.Hooks(),
	)
}

// ListAll implements teamhub.MessagesService.ListAll.
func (s *MessagesService) ListAll(ctx context.Context, projectID string, params *teamhub.QueryParams) ([]teamhub.Message, error) {
	return s.List(ctx, projectID, params).All()
}

// Create implements teamhub.MessagesService.Create.
func (s *MessagesService) Create(ctx context.Context, projectID string, payload *teamhub.MessageCreate) (*teamhub.Message, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodPost,
		Path:      s.basePath + "/projects/" + projectID + "/messages",
		Body:      payload,
		Service:   "messages",
		Operation: "create",
	})
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	var message teamhub.Message

	err = json.Unmarshal(resp.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	return &message, nil
}

// Update implements teamhub.MessagesService.Update.
func (s *MessagesService) Update(ctx context.Context, projectID, messageID string, payload *teamhub.MessageUpdate) (*teamhub.Message, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodPatch,
		Path:      s.messagePath(projectID, messageID),
		Body:      payload,
		Service:   "messages",
		Operation: "update",
	})
	if err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	var message teamhub.Message

	err = json.Unmarshal(resp.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	return &message, nil
}

// Pin implements teamhub.MessagesService.Pin. Pinning an already-pinned
// message is a no-op on the server, so the request is marked idempotent.
func (s *MessagesService) Pin(ctx context.Context, projectID, messageID string) error {
	_, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:     http.MethodPost,
		Path:       s.messagePath(projectID, messageID) + "/pin",
		Idempotent: true,
		Service:    "messages",
		Operation:  "pin",
	})
	if err != nil {
		return fmt.Errorf("pinning message: %w", err)
	}

	return nil
}

// Unpin implements teamhub.MessagesService.Unpin.
func (s *MessagesService) Unpin(ctx context.Context, projectID, messageID string) error {
	_, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:     http.MethodDelete,
		Path:       s.messagePath(projectID, messageID) + "/pin",
		Idempotent: true,
		Service:    "messages",
		Operation:  "unpin",
	})
	if err != nil {
		return fmt.Errorf("unpinning message: %w", err)
	}

	return nil
}
