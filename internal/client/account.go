package client

import (
	"sync"

	internalhttp "github.com/fivetwenty-io/teamhub/internal/http"
	"github.com/fivetwenty-io/teamhub/pkg/teamhub"
)

// AccountClient implements teamhub.AccountClient. Resource services are
// created on first use and memoized under a mutex.
type AccountClient struct {
	httpClient *internalhttp.Client
	accountID  string
	basePath   string

	mu       sync.Mutex
	projects teamhub.ProjectsService
	todos    teamhub.TodosService
	messages teamhub.MessagesService
}

func newAccountClient(httpClient *internalhttp.Client, accountID string) *AccountClient {
	return &AccountClient{
		httpClient: httpClient,
		accountID:  accountID,
		basePath:   "/" + accountID,
	}
}

// AccountID returns the account this client is scoped to.
func (a *AccountClient) AccountID() string {
	return a.accountID
}

// Projects returns the projects service.
func (a *AccountClient) Projects() teamhub.ProjectsService {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.projects == nil {
		a.projects = NewProjectsService(a.httpClient, a.basePath)
	}

	return a.projects
}

// Todos returns the todos service.
func (a *AccountClient) Todos() teamhub.TodosService {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.todos == nil {
		a.todos = NewTodosService(a.httpClient, a.basePath)
	}

	return a.todos
}

// Messages returns the messages service.
func (a *AccountClient) Messages() teamhub.MessagesService {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.messages == nil {
		a.messages = NewMessagesService(a.httpClient, a.basePath)
	}

	return a.messages
}
