package usecase

import "flowdesk-backend/internal/task/domain"

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	// CreateTask creates a new task
	CreateTask(userID string, req TaskCreateRequest) (*domain.Task, error)

	// GetTaskByID retrieves a task by ID (with ownership check)
	GetTaskByID(userID, taskID string) (*domain.Task, error)

	// GetUserTasks retrieves all tasks for a user with optional board-status filter
	GetUserTasks(userID string, boardStatus *string, limit, offset int) ([]*domain.Task, int64, error)

	// UpdateTask updates an existing task
	UpdateTask(userID, taskID string, updates TaskUpdateRequest) (*domain.Task, error)

	// ToggleDone flips the completion flag
	ToggleDone(userID, taskID string) (*domain.Task, error)

	// DeleteTask deletes a task
	DeleteTask(userID, taskID string) error

	// SetLinkageListener registers a callback fired whenever a task's
	// project linkage or completion changes (project progress recompute)
	SetLinkageListener(fn func(userID, projectID string))
}

// TaskCreateRequest carries the fields for a new task
type TaskCreateRequest struct {
	Title           string `json:"title" binding:"required"`
	Category        string `json:"category"`
	Start           string `json:"start"` // RFC3339
	DurationMinutes int    `json:"duration_minutes"`
	Color           string `json:"color"`
	ReminderMinutes int    `json:"reminder_minutes"`
	BoardStatus     string `json:"board_status"`
	Priority        string `json:"priority"`
	ProjectID       string `json:"project_id"`
	Assignee        string `json:"assignee"`
}

// TaskUpdateRequest represents the fields that can be updated
type TaskUpdateRequest struct {
	Title           *string `json:"title,omitempty"`
	Done            *bool   `json:"done,omitempty"`
	Category        *string `json:"category,omitempty"`
	Start           *string `json:"start,omitempty"` // RFC3339
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Color           *string `json:"color,omitempty"`
	ReminderMinutes *int    `json:"reminder_minutes,omitempty"`
	BoardStatus     *string `json:"board_status,omitempty"`
	Priority        *string `json:"priority,omitempty"`
	ProjectID       *string `json:"project_id,omitempty"`
	Assignee        *string `json:"assignee,omitempty"`
}
