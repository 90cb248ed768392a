package domain

import "time"

// Status marks whether the relationship is live
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Client is a person or company the freelancer works for. Total spent
// is always derived from linked project prices, never stored here.
type Client struct {
	ID            string     `json:"id" gorm:"primaryKey"`
	UserID        string     `json:"user_id" gorm:"index;not null"`
	Name          string     `json:"name" gorm:"not null"`
	Email         string     `json:"email,omitempty"`
	Status        Status     `json:"status" gorm:"default:active"`
	LastContactAt *time.Time `json:"last_contact_at,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
