package engine

import (
	"fmt"
	"sort"

	"flowdesk-backend/internal/automation/domain"
	taskdomain "flowdesk-backend/internal/task/domain"
)

// burnoutHoursRule sums the incomplete task load booked for the current
// Monday-based week and raises a critical alert past the configured ceiling.
func burnoutHoursRule(e *Engine, s *State, _ domain.AutopilotMode, r *Report) {
	now := e.Now()
	start := e.weekStart(now)
	end := start.AddDate(0, 0, 7)

	var minutes int
	for _, t := range s.Tasks {
		if t == nil || t.Done {
			continue
		}
		if t.Start.Before(start) || !t.Start.Before(end) {
			continue
		}
		minutes += t.DurationMinutes
	}

	hours := float64(minutes) / 60
	if hours <= e.cfg.BurnoutWeekHours {
		return
	}

	r.Risks = append(r.Risks, domain.RiskAlert{
		ID:        "risk-burnout-" + start.Format("2006-01-02"),
		UserID:    s.UserID,
		Type:      domain.RiskBurnout,
		Severity:  domain.SeverityCritical,
		Title:     "Burnout warning",
		Message:   fmt.Sprintf("You have %.1f hours of open work booked this week, above your %.0f hour limit.", hours, e.cfg.BurnoutWeekHours),
		CreatedAt: e.Now(),
	})
}

// backToBackRule looks at today's incomplete tasks in start order and flags
// every adjacent pair with less than the configured gap between them.
func backToBackRule(e *Engine, s *State, _ domain.AutopilotMode, r *Report) {
	now := e.Now()

	var today []*taskdomain.Task
	for _, t := range s.Tasks {
		if t == nil || t.Done {
			continue
		}
		if sameDay(t.Start, now) {
			today = append(today, t)
		}
	}
	sort.SliceStable(today, func(i, j int) bool {
		return today[i].Start.Before(today[j].Start)
	})

	for i := 0; i+1 < len(today); i++ {
		a, b := today[i], today[i+1]
		gap := b.Start.Sub(a.End())
		if gap >= e.cfg.BackToBackGap {
			continue
		}
		r.Risks = append(r.Risks, domain.RiskAlert{
			ID:        "risk-backtoback-" + a.ID + "-" + b.ID,
			UserID:    s.UserID,
			Type:      domain.RiskBurnout,
			Severity:  domain.SeverityWarning,
			Title:     "Back-to-back schedule",
			Message:   fmt.Sprintf("%q runs into %q with no break between them.", a.Title, b.Title),
			CreatedAt: e.Now(),
		})
	}
}
