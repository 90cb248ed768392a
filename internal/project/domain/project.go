package domain

import "time"

// Status is the project's lifecycle stage
type Status string

const (
	StatusIntake    Status = "intake"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusRevision  Status = "revision"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// InvoiceStatus tracks billing for a project
type InvoiceStatus string

const (
	InvoiceNone    InvoiceStatus = "none"
	InvoiceDraft   InvoiceStatus = "draft"
	InvoiceSent    InvoiceStatus = "sent"
	InvoicePaid    InvoiceStatus = "paid"
	InvoiceOverdue InvoiceStatus = "overdue"
)

// Project is a unit of client work. Progress is recomputed from linked
// task completion whenever linkage changes; when no tasks are linked it
// holds whatever the user set manually.
type Project struct {
	ID               string        `json:"id" gorm:"primaryKey"`
	UserID           string        `json:"user_id" gorm:"index;not null"`
	Title            string        `json:"title" gorm:"not null"`
	ClientID         string        `json:"client_id,omitempty" gorm:"index"` // weak reference
	ClientName       string        `json:"client_name,omitempty"`            // denormalized display name
	Status           Status        `json:"status" gorm:"default:intake"`
	Price            float64       `json:"price"`    // always >= 0
	Progress         int           `json:"progress"` // 0-100
	Deadline         *time.Time    `json:"deadline,omitempty"`
	Tags             string        `json:"tags,omitempty"` // comma-separated set
	Color            string        `json:"color,omitempty"`
	Notes            string        `json:"notes,omitempty"`
	InvoiceStatus    InvoiceStatus `json:"invoice_status" gorm:"default:none"`
	RevisionsUsed    int           `json:"revisions_used"`
	RevisionsAllowed int           `json:"revisions_allowed"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
