//go:build integration

package integration

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// fakeAPI is an in-memory TeamHub API used by the workflow tests. It speaks
// the real wire conventions: Bearer auth, Link-header pagination, ETag
// revalidation and the OAuth2 token endpoint.
type fakeAPI struct {
	mu sync.Mutex

	server *httptest.Server

	accessToken string
	projects    map[string]*teamhub.Project
	todos       map[string]map[string]*teamhub.Todo
	nextID      int

	requests int
	notMods  int
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{
		accessToken: "integration-token",
		projects:    make(map[string]*teamhub.Project),
		todos:       make(map[string]map[string]*teamhub.Todo),
		nextID:      100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", api.handleToken)
	mux.HandleFunc("/authorization", api.authed(api.handleAuthorization))
	mux.HandleFunc("/1/projects", api.authed(api.handleProjects))
	mux.HandleFunc("/1/projects/", api.authed(api.handleProjectSubtree))

	api.server = httptest.NewServer(mux)

	return api
}

func (a *fakeAPI) Close() { a.server.Close() }

func (a *fakeAPI) URL() string { return a.server.URL }

// RequestCount returns how many authenticated requests the API has served.
func (a *fakeAPI) RequestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.requests
}

// NotModifiedCount returns how many requests were answered with a 304.
func (a *fakeAPI) NotModifiedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.notMods
}

func (a *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests++
		token := a.accessToken
		a.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized"}`))

			return
		}

		next(w, r)
	}
}

func (a *fakeAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") == "" {
		w.WriteHeader(http.StatusBadRequest)

		return
	}

	a.mu.Lock()
	token := a.accessToken
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   3600,
	})
}

func (a *fakeAPI) handleAuthorization(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, teamhub.Identity{
		ID:           "u-1",
		Name:         "Integration User",
		EmailAddress: "integration@example.com",
		Accounts:     []teamhub.Account{{ID: "1", Name: "Acme"}},
	})
}

func (a *fakeAPI) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listProjects(w, r)
	case http.MethodPost:
		var payload teamhub.ProjectCreate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())

			return
		}

		a.mu.Lock()
		a.nextID++
		project := &teamhub.Project{
			ID:     strconv.Itoa(a.nextID),
			Name:   payload.Name,
			Status: "active",
		}
		a.projects[project.ID] = project
		a.mu.Unlock()

		writeJSON(w, http.StatusCreated, project)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

const projectsPerPage = 2

func (a *fakeAPI) listProjects(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()

	ids := make([]string, 0, len(a.projects))
	for id := range a.projects {
		ids = append(ids, id)
	}

	// Map order is random; sort for stable pages.
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
	}

	start := min((page-1)*projectsPerPage, len(ids))
	end := min(start+projectsPerPage, len(ids))

	items := make([]*teamhub.Project, 0, projectsPerPage)
	for _, id := range ids[start:end] {
		items = append(items, a.projects[id])
	}

	total := len(ids)
	a.mu.Unlock()

	if end < total {
		next := fmt.Sprintf("%s/1/projects?page=%d", a.server.URL, page+1)
		w.Header().Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, items)
}

// handleProjectSubtree routes /1/projects/{id} and /1/projects/{id}/todos...
func (a *fakeAPI) handleProjectSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/1/projects/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1:
		a.handleProject(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "todos":
		a.handleTodos(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "todos":
		a.handleTodo(w, r, parts[0], parts[2])
	case len(parts) == 4 && parts[1] == "todos" && parts[3] == "completion":
		a.handleCompletion(w, r, parts[0], parts[2])
	default:
		writeError(w, http.StatusNotFound, "not_found", "no such route")
	}
}

func (a *fakeAPI) handleProject(w http.ResponseWriter, r *http.Request, projectID string) {
	a.mu.Lock()
	project, ok := a.projects[projectID]
	a.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "project not found")

		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)

		return
	}

	body, _ := json.Marshal(project)
	sum := sha256.Sum256(body)
	etag := fmt.Sprintf(`"%s"`, hex.EncodeToString(sum[:8]))
	w.Header().Set("ETag", etag)

	if r.Header.Get("If-None-Match") == etag {
		a.mu.Lock()
		a.notMods++
		a.mu.Unlock()

		w.WriteHeader(http.StatusNotModified)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (a *fakeAPI) handleTodos(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		a.mu.Lock()
		items := make([]*teamhub.Todo, 0, len(a.todos[projectID]))
		for _, todo := range a.todos[projectID] {
			items = append(items, todo)
		}
		a.mu.Unlock()

		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var payload teamhub.TodoCreate
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err.Error())

			return
		}

		a.mu.Lock()
		a.nextID++
		todo := &teamhub.Todo{
			ID:        strconv.Itoa(a.nextID),
			ProjectID: projectID,
			Content:   payload.Content,
		}

		if a.todos[projectID] == nil {
			a.todos[projectID] = make(map[string]*teamhub.Todo)
		}

		a.todos[projectID][todo.ID] = todo
		a.mu.Unlock()

		writeJSON(w, http.StatusCreated, todo)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (a *fakeAPI) handleTodo(w http.ResponseWriter, r *http.Request, projectID, todoID string) {
	a.mu.Lock()
	todo, ok := a.todos[projectID][todoID]
	a.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "todo not found")

		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)

		return
	}

	writeJSON(w, http.StatusOK, todo)
}

func (a *fakeAPI) handleCompletion(w http.ResponseWriter, r *http.Request, projectID, todoID string) {
	a.mu.Lock()
	todo, ok := a.todos[projectID][todoID]
	if ok {
		todo.Completed = r.Method == http.MethodPost
	}
	a.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "todo not found")

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "error_description": message})
}
