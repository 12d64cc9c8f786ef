package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// ProjectsService implements teamhub.ProjectsService.
type ProjectsService struct {
	httpClient *internalhttp.Client
	basePath   string
}

// NewProjectsService creates a projects service under basePath.
func NewProjectsService(httpClient *internalhttp.Client, basePath string) *ProjectsService {
	return &ProjectsService{httpClient: httpClient, basePath: basePath}
}

// Get implements teamhub.ProjectsService.Get.
func (s *ProjectsService) Get(ctx context.Context, projectID string) (*teamhub.Project, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodGet,
		Path:      s.basePath + "/projects/" + projectID,
		Service:   "projects",
		Operation: "get",
	})
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}

	var project teamhub.Project

	err = json.Unmarshal(resp.Body, &project)
	if err != nil {
		return nil, fmt.Errorf("parsing project: %w", err)
	}

	return &project, nil
}

// List implements teamhub.ProjectsService.List.
func (s *ProjectsService) List(ctx context.Context, params *teamhub.QueryParams) *teamhub.PageIterator[teamhub.Project] {
	return teamhub.NewPageIterator[teamhub.Project](
		ctx,
		s.httpClient,
		listPath(s.basePath+"/projects", params),
		s.httpClient.MaxPages(),
		s.httpClient.Hooks(),
	)
}

// ListAll implements teamhub.ProjectsService.ListAll.
func (s *ProjectsService) ListAll(ctx context.Context, params *teamhub.QueryParams) ([]teamhub.Project, error) {
	return s.List(ctx, params).All()
}

// Create implements teamhub.ProjectsService.Create.
func (s *ProjectsService) Create(ctx context.Context, payload *teamhub.ProjectCreate) (*teamhub.Project, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodPost,
		Path:      s.basePath + "/projects",
		Body:      payload,
		Service:   "projects",
		Operation: "create",
	})
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	var project teamhub.Project

	err = json.Unmarshal(resp.Body, &project)
	if err != nil {
		return nil, fmt.Errorf("parsing project: %w", err)
	}

	return &project, nil
}

// Update implements teamhub.ProjectsService.Update.
func (s *ProjectsService) Update(ctx context.Context, projectID string, payload *teamhub.ProjectUpdate) (*teamhub.Project, error) {
	resp, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodPatch,
		Path:      s.basePath + "/projects/" + projectID,
		Body:      payload,
		Service:   "projects",
		Operation: "update",
	})
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}

	var project teamhub.Project

	err = json.Unmarshal(resp.Body, &project)
	if err != nil {
		return nil, fmt.Errorf("parsing project: %w", err)
	}

	return &project, nil
}

// Trash implements teamhub.ProjectsService.Trash.
func (s *ProjectsService) Trash(ctx context.Context, projectID string) error {
	_, err := s.httpClient.Do(ctx, &internalhttp.Request{
		Method:    http.MethodDelete,
		Path:      s.basePath + "/projects/" + projectID,
		Service:   "projects",
		Operation: "trash",
	})
	if err != nil {
		return fmt.Errorf("trashing project: %w", err)
	}

	return nil
}

// listPath appends encoded query parameters to a listing path.
func listPath(path string, params *teamhub.QueryParams) string {
	if params == nil {
		return path
	}

	values := params.ToValues()
	if len(values) == 0 {
		return path
	}

	return path + "?" + values.Encode()
}
