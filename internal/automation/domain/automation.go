package domain

import "time"

// AutopilotMode controls how much the engine does without asking
type AutopilotMode string

const (
	ModeAssist    AutopilotMode = "assist"    // propose everything
	ModeConfident AutopilotMode = "confident" // act on routine matters
	ModeStrict    AutopilotMode = "strict"    // act on protective matters too
)

// ApprovalType categorizes what an approval request is about
type ApprovalType string

const (
	ApprovalScope         ApprovalType = "scope"
	ApprovalCommunication ApprovalType = "communication"
)

// Urgency of an approval request
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// RiskType categorizes a risk alert
type RiskType string

const (
	RiskFinancial     RiskType = "financial"
	RiskDeadline      RiskType = "deadline"
	RiskUndercharging RiskType = "undercharging"
	RiskBurnout       RiskType = "burnout"
)

// Severity of a risk alert
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ApprovalRequest asks the user to sign off on an action the engine
// wants to take. IDs are deterministic per condition, so a re-run
// replaces rather than duplicates. Once resolved it is removed from the
// pending set - it never mutates in place.
type ApprovalRequest struct {
	ID        string       `json:"id" gorm:"primaryKey"`
	UserID    string       `json:"user_id" gorm:"index;not null"`
	Type      ApprovalType `json:"type"`
	Title     string       `json:"title"`
	Message   string       `json:"message"`
	Urgency   Urgency      `json:"urgency"`
	Data      string       `json:"data,omitempty"` // opaque JSON payload for the action if approved
	CreatedAt time.Time    `json:"created_at"`
}

// RiskAlert warns about a condition the engine will never auto-act on.
// Acknowledged alerts stay on record; deterministic IDs keep re-runs
// from stacking duplicates.
type RiskAlert struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"index;not null"`
	Type         RiskType  `json:"type"`
	Severity     Severity  `json:"severity"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Acknowledged bool      `json:"acknowledged" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

// HandledAction is the audit record of something the engine did (or
// recorded the intent to do) without asking
type HandledAction struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"index;not null"`
	Action    string    `json:"action"`
	Trigger   string    `json:"trigger"`
	Result    string    `json:"result"`
	Icon      string    `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
