package engine

import (
	"time"

	"flowdesk-backend/internal/automation/domain"
	clientdomain "flowdesk-backend/internal/client/domain"
	projectdomain "flowdesk-backend/internal/project/domain"
	taskdomain "flowdesk-backend/internal/task/domain"
	"flowdesk-backend/pkg/config"
)

// State is a snapshot of the workspace the engine diagnoses. The engine
// only reads it; slice order determines output order.
type State struct {
	UserID   string
	Projects []*projectdomain.Project
	Clients  []*clientdomain.Client
	Tasks    []*taskdomain.Task
}

// Report is the engine's three output streams
type Report struct {
	Handled   []domain.HandledAction   `json:"handled"`
	Approvals []domain.ApprovalRequest `json:"approvals"`
	Risks     []domain.RiskAlert       `json:"risks"`
}

// Rule evaluates one condition against the state and appends to the report
type Rule func(e *Engine, s *State, mode domain.AutopilotMode, r *Report)

// Engine evaluates the diagnostic rule set over a workspace snapshot.
// It is pure apart from the injected clock: identical state and mode
// always produce identical reports, in a fixed order (project rules in
// project order, then client rules, then schedule-wide checks).
type Engine struct {
	cfg   config.AutomationConfig
	rules []Rule

	// Now is injectable for tests
	Now func() time.Time
}

// New creates an engine with the default ordered rule set
func New(cfg config.AutomationConfig) *Engine {
	return &Engine{
		cfg: cfg,
		rules: []Rule{
			projectRules,
			clientRules,
			burnoutHoursRule,
			backToBackRule,
		},
		Now: time.Now,
	}
}

// RunDiagnostic evaluates every rule against the state. All applicable
// rules fire on every run; there is no early exit.
func (e *Engine) RunDiagnostic(s *State, mode domain.AutopilotMode) *Report {
	r := &Report{
		Handled:   []domain.HandledAction{},
		Approvals: []domain.ApprovalRequest{},
		Risks:     []domain.RiskAlert{},
	}
	for _, rule := range e.rules {
		rule(e, s, mode, r)
	}
	return r
}

// weekStart returns the Monday 00:00 of now's calendar week
func (e *Engine) weekStart(now time.Time) time.Time {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the previous Monday
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -(weekday - 1))
}

// sameDay reports whether two times fall on the same calendar day
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
