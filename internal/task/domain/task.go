package domain

import "time"

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Category buckets a task by the kind of work it represents
type Category string

const (
	CategoryProduct Category = "product"
	CategoryContent Category = "content"
	CategoryMoney   Category = "money"
	CategoryAdmin   Category = "admin"
	CategoryMeeting Category = "meeting"
)

// BoardStatus is the task's kanban column
type BoardStatus string

const (
	BoardBacklog    BoardStatus = "backlog"
	BoardTodo       BoardStatus = "todo"
	BoardInProgress BoardStatus = "in_progress"
	BoardReview     BoardStatus = "review"
	BoardDone       BoardStatus = "done"
)

// Task is a scheduled unit of work, created manually or generated by an
// AI tool. It lives on the calendar (start + duration) and optionally
// on the kanban board of a project.
type Task struct {
	ID              string      `json:"id" gorm:"primaryKey"`
	UserID          string      `json:"user_id" gorm:"index;not null"`
	Title           string      `json:"title" gorm:"not null"`
	Done            bool        `json:"done" gorm:"default:false"`
	Category        Category    `json:"category" gorm:"default:admin"`
	Start           time.Time   `json:"start"`
	DurationMinutes int         `json:"duration_minutes"`
	Color           string      `json:"color,omitempty"`
	ReminderMinutes int         `json:"reminder_minutes,omitempty"` // lead time before start, 0 = no reminder
	BoardStatus     BoardStatus `json:"board_status,omitempty" gorm:"index"`
	Priority        Priority    `json:"priority" gorm:"default:medium"`
	ProjectID       string      `json:"project_id,omitempty" gorm:"index"` // weak reference
	Assignee        string      `json:"assignee,omitempty"`
	ReminderAt      *time.Time  `json:"reminder_at,omitempty"`              // when to push the reminder
	ReminderSent    bool        `json:"reminder_sent" gorm:"default:false"` // track if reminder was sent
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// End returns the task's end time on the calendar
func (t *Task) End() time.Time {
	return t.Start.Add(time.Duration(t.DurationMinutes) * time.Minute)
}
