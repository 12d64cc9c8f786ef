package teamhub

import "time"

// Account is one TeamHub account the authenticated user can access.
type Account struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Product   string `json:"product,omitempty"`
	AppURL    string `json:"app_url,omitempty"`
	Suspended bool   `json:"suspended,omitempty"`
}

// Identity describes the authenticated user and their accounts.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	EmailAddress string    `json:"email_address"`
	Accounts     []Account `json:"accounts"`
}

// Person is a user referenced from resources.
type Person struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmailAddress string `json:"email_address,omitempty"`
	Title        string `json:"title,omitempty"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// Project is a TeamHub project.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"`
	Purpose     string    `json:"purpose,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// ProjectCreate is the payload for creating a project.
type ProjectCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectUpdate is the payload for updating a project. Nil fields are left
// unchanged.
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Todo is a todo item within a project.
type Todo struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id,omitempty"`
	Content     string     `json:"content"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	DueOn       string     `json:"due_on,omitempty"`
	Assignees   []Person   `json:"assignees,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at,omitzero"`
	UpdatedAt   time.Time  `json:"updated_at,omitzero"`
}

// TodoCreate is the payload for creating a todo.
type TodoCreate struct {
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	DueOn       string   `json:"due_on,omitempty"`
	AssigneeIDs []string `json:"assignee_ids,omitempty"`
}

// TodoUpdate is the payload for updating a todo. Nil fields are left
// unchanged.
type TodoUpdate struct {
	Content     *string   `json:"content,omitempty"`
	Description *string   `json:"description,omitempty"`
	DueOn       *string   `json:"due_on,omitempty"`
	AssigneeIDs *[]string `json:"assignee_ids,omitempty"`
}

// Message is a message-board post within a project.
type Message struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id,omitempty"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content,omitempty"`
	Pinned    bool      `json:"pinned"`
	Creator   *Person   `json:"creator,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// MessageCreate is the payload for posting a message.
type MessageCreate struct {
	Subject string `json:"subject"`
	Content string `json:"content,omitempty"`
}

// MessageUpdate is the payload for editing a message. Nil fields are left
// unchanged.
type MessageUpdate struct {
	Subject *string `json:"subject,omitempty"`
	Content *string `json:"content,omitempty"`
}
