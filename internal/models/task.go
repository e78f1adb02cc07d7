package models

// TaskStatus tracks task progress.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task is the canonical task shape.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	AssigneeID  *string    `json:"assignee_id,omitempty"`
	DueDate     *string    `json:"due_date,omitempty"`
	Tags        []string   `json:"tags"`
}

// TaskInput creates or updates a task.
type TaskInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=4000"`
	Status      string   `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	AssigneeID  *string  `json:"assignee_id"`
	DueDate     string   `json:"due_date"`
	Tags        []string `json:"tags" validate:"omitempty,dive,required"`
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	ProjectID string
	Status    TaskStatus
	Tag       string
}

// Tag labels tasks.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// TagInput creates a tag.
type TagInput struct {
	Name  string `json:"name" validate:"required,max=40"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}
