package engine

import (
	"encoding/json"
	"fmt"
	"math"

	"flowdesk-backend/internal/automation/domain"
	projectdomain "flowdesk-backend/internal/project/domain"
)

// projectRules evaluates every per-project rule, in project input order
func projectRules(e *Engine, s *State, mode domain.AutopilotMode, r *Report) {
	for _, p := range s.Projects {
		if p == nil {
			continue
		}
		e.checkOverdueInvoice(p, s.UserID, mode, r)
		e.checkScopeCreep(p, s.UserID, r)
		e.checkDeadlineCrisis(p, s.UserID, r)
		e.checkUndercharging(p, s.UserID, r)
	}
}

func (e *Engine) checkOverdueInvoice(p *projectdomain.Project, userID string, mode domain.AutopilotMode, r *Report) {
	if p.InvoiceStatus != projectdomain.InvoiceOverdue {
		return
	}

	if mode == domain.ModeStrict {
		r.Handled = append(r.Handled, domain.HandledAction{
			ID:        "handled-invoice-" + p.ID,
			UserID:    userID,
			Action:    fmt.Sprintf("Paused project %q", p.Title),
			Trigger:   "Invoice overdue",
			Result:    "Work on the project is on hold until the invoice is settled",
			Icon:      "pause",
			CreatedAt: e.Now(),
		})
		return
	}

	// The severity scale is info/warning/critical with no step between
	// warning and critical, so an overdue invoice maps to critical.
	r.Risks = append(r.Risks, domain.RiskAlert{
		ID:        "risk-invoice-" + p.ID,
		UserID:    userID,
		Type:      domain.RiskFinancial,
		Severity:  domain.SeverityCritical,
		Title:     "Overdue invoice",
		Message:   fmt.Sprintf("The invoice for %q is overdue. Consider pausing work until it is paid.", p.Title),
		CreatedAt: e.Now(),
	})
}

func (e *Engine) checkScopeCreep(p *projectdomain.Project, userID string, r *Report) {
	allowed := p.RevisionsAllowed
	if allowed <= 0 {
		allowed = e.cfg.DefaultRevisions
	}
	if p.RevisionsUsed < allowed {
		return
	}

	fee := p.Price * e.cfg.OverageFeeRate
	if fee <= 0 {
		fee = e.cfg.OverageFeeFlat
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"project_id": p.ID,
		"fee":        fee,
	})

	r.Approvals = append(r.Approvals, domain.ApprovalRequest{
		ID:        "approval-scope-" + p.ID,
		UserID:    userID,
		Type:      domain.ApprovalScope,
		Title:     "Scope creep detected",
		Message:   fmt.Sprintf("%q has used %d of %d revisions. Propose an overage fee of %.2f for further changes?", p.Title, p.RevisionsUsed, allowed, fee),
		Urgency:   domain.UrgencyMedium,
		Data:      string(payload),
		CreatedAt: e.Now(),
	})
}

func (e *Engine) checkDeadlineCrisis(p *projectdomain.Project, userID string, r *Report) {
	if p.Status != projectdomain.StatusActive || p.Deadline == nil {
		return
	}
	if p.Progress >= e.cfg.DeadlineProgressPct {
		return
	}

	daysLeft := int(math.Ceil(p.Deadline.Sub(e.Now()).Hours() / 24))
	if daysLeft > e.cfg.DeadlineWindowDays {
		return
	}

	r.Risks = append(r.Risks, domain.RiskAlert{
		ID:        "risk-deadline-" + p.ID,
		UserID:    userID,
		Type:      domain.RiskDeadline,
		Severity:  domain.SeverityCritical,
		Title:     "Deadline crisis",
		Message:   fmt.Sprintf("%q is at %d%% with %d day(s) until the deadline.", p.Title, p.Progress, daysLeft),
		CreatedAt: e.Now(),
	})
}

func (e *Engine) checkUndercharging(p *projectdomain.Project, userID string, r *Report) {
	if p.Status != projectdomain.StatusActive || p.Price >= e.cfg.UnderchargeThreshold {
		return
	}

	// Advisory only - never auto-acted
	r.Risks = append(r.Risks, domain.RiskAlert{
		ID:        "risk-undercharge-" + p.ID,
		UserID:    userID,
		Type:      domain.RiskUndercharging,
		Severity:  domain.SeverityInfo,
		Title:     "Possible undercharging",
		Message:   fmt.Sprintf("%q is priced at %.2f, below your usual floor of %.2f.", p.Title, p.Price, e.cfg.UnderchargeThreshold),
		CreatedAt: e.Now(),
	})
}
