package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// TodosService implements teamhub.TodosService.
type TodosService struct {
	httpClient *internalhttp.Client
	basePath   string
}

// NewTodosService creates a todos service under basePath.
func NewTodosService(httpClient *internalhttp.Client, basePath string) *TodosService {
	return &TodosService{httpClient: httpClient, basePath: basePath}
}

func (s *TodosService) todoPath(projectID, todoID string) string {
	return s.basePath + "/projects/" + projectID + "/todos/" + todoID
}

// Get implements teamhub.TodosService.Get.
func (s *TodosService) Get(ctx context.Context, projectID, todoID string) (*teamhub.Todo, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodGet,
		Path:      s.todoPath(projectID, todoID),
		Service:   "todos",
		Operation: "get",
	})
	if err != nil {
		return nil, fmt.Errorf("getting todo: %w", err)
	}

	var todo teamhub.Todo

	err = json.Unmarshal(resp.Body, &todo)
	if err != nil {
		return nil, fmt.Errorf("parsing todo: %w", err)
	}

	return &todo, nil
}

// List implements teamhub.TodosService.List.
func (s *TodosService) List(ctx context.Context, projectID string, params *teamhub.QueryParams) *teamhub.PageIterator[teamhub.Todo] {
	return teamhub.NewPageIterator[teamhub.Todo](
		ctx,
		s.httpClient,
		listPath(s.basePath+"/projects/"+projectID+"/todos", params),
		s.httpClient.MaxPages(),
		s.httpClient.Hooks(),
	)
}

// ListAll implements teamhub.TodosService.ListAll.
func (s *TodosService) ListAll(ctx context.Context, projectID string, params *teamhub.QueryParams) ([]teamhub.Todo, error) {
	return s.List(ctx, projectID, params).All()
}

// Create implements teamhub.TodosService.Create.
func (s *TodosService) Create(ctx context.Context, projectID string, payload *teamhub.TodoCreate) (*teamhub.Todo, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodPost,
		Path:      s.basePath + "/projects/" + projectID + "/todos",
		Body:      payload,
		Service:   "todos",
		Operation: "create",
	})
	if err != nil {
		return nil, fmt.Errorf("creating todo: %w", err)
	}

	var todo teamhub.Todo

	err = json.Unmarshal(resp.Body, &todo)
	if err != nil {
		return nil, fmt.Errorf("parsing todo: %w", err)
	}

	return &todo, nil
}

// Update implements teamhub.TodosService.Update.
func (s *TodosService) Update(ctx context.Context, projectID, todoID string, payload *teamhub.TodoUpdate) (*teamhub.Todo, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodPatch,
		Path:      s.todoPath(projectID, todoID),
		Body:      payload,
		Service:   "todos",
		Operation: "update",
	})
	if err != nil {
		return nil, fmt.Errorf("updating todo: %w", err)
	}

	var todo teamhub.Todo

	err = json.Unmarshal(resp.Body, &todo)
	if err != nil {
		return nil, fmt.Errorf("parsing todo: %w", err)
	}

	return &todo, nil
}

// Complete implements teamhub.TodosService.Complete. The server applies the
// toggle idempotently, so transient failures are retried.
func (s *TodosService) Complete(ctx context.Context, projectID, todoID string) error {
	_, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:     http.MethodPost,
		Path:       s.todoPath(projectID, todoID) + "/completion",
		Idempotent: true,
		Service:    "todos",
		Operation:  "complete",
	})
	if err != nil {
		return fmt.Errorf("completing todo: %w", err)
	}

	return nil
}

// Uncomplete implements teamhub.TodosService.Uncomplete.
func (s *TodosService) Uncomplete(ctx context.Context, projectID, todoID string) error {
	_, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:     http.MethodDelete,
		Path:       s.todoPath(projectID, todoID) + "/completion",
		Idempotent: true,
		Service:    "todos",
		Operation:  "uncomplete",
	})
	if err != nil {
		return fmt.Errorf("uncompleting todo: %w", err)
	}

	return nil
}
