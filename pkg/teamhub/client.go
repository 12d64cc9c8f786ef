package teamhub

import "context"

// Client is the account-agnostic entry point. Implementations are safe for
// concurrent use.
type Client interface {
	// Identity returns the authenticated user and the accounts they can
	// access.
	Identity(ctx context.Context) (*Identity, error)

	// ForAccount returns a client scoped to one account. The account ID must
	// be numeric. The returned client is memoized: repeated calls with the
	// same ID return the same instance.
	ForAccount(accountID string) (AccountClient, error)
}

// AccountClient exposes the resource services of one account. Services are
// created lazily and memoized.
type AccountClient interface {
	AccountID() string

	Projects() ProjectsService
	Todos() TodosService
	Messages() MessagesService
}

// ProjectsService manages projects.
type ProjectsService interface {
	Get(ctx context.Context, projectID string) (*Project, error)
	// List returns a lazy iterator over the account's projects.
	List(ctx context.Context, params *QueryParams) *PageIterator[Project]
	// ListAll collects every project, following pagination to the end.
	ListAll(ctx context.Context, params *QueryParams) ([]Project, error)
	Create(ctx context.Context, payload *ProjectCreate) (*Project, error)
	Update(ctx context.Context, projectID string, payload *ProjectUpdate) (*Project, error)
	// Trash moves a project to the trash.
	Trash(ctx context.Context, projectID string) error
}

// TodosService manages todos within projects.
type TodosService interface {
	Get(ctx context.Context, projectID, todoID string) (*Todo, error)
	List(ctx context.Context, projectID string, params *QueryParams) *PageIterator[Todo]
	ListAll(ctx context.Context, projectID string, params *QueryParams) ([]Todo, error)
	Create(ctx context.Context, projectID string, payload *TodoCreate) (*Todo, error)
	Update(ctx context.Context, projectID, todoID string, payload *TodoUpdate) (*Todo, error)
	// Complete marks a todo done. Completion is a toggle the server applies
	// idempotently, so it is retried like a read.
	Complete(ctx context.Context, projectID, todoID string) error
	// Uncomplete reopens a completed todo.
	Uncomplete(ctx context.Context, projectID, todoID string) error
}

// MessagesService manages message-board posts within projects.
type MessagesService interface {
	Get(ctx context.Context, projectID, messageID string) (*Message, error)
	List(ctx context.Context, projectID string, params *QueryParams) *PageIterator[Message]
	ListAll(ctx context.Context, projectID string, params *QueryParams) ([]Message, error)
	Create(ctx context.Context, projectID string, payload *MessageCreate) (*Message, error)
	Update(ctx context.Context, projectID, messageID string, payload *MessageUpdate) (*Message, error)
	// Pin pins a message to the top of the board. Pinning is idempotent.
	Pin(ctx context.Context, projectID, messageID string) error
	// Unpin removes a pin.
	Unpin(ctx context.Context, projectID, messageID string) error
}
