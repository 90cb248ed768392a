package engine

import (
	"encoding/json"
	"fmt"

	"flowdesk-backend/internal/automation/domain"
	clientdomain "flowdesk-backend/internal/client/domain"
)

// clientRules evaluates every per-client rule, in client input order
func clientRules(e *Engine, s *State, mode domain.AutopilotMode, r *Report) {
	for _, c := range s.Clients {
		if c == nil {
			continue
		}
		e.checkGhosting(c, s.UserID, mode, r)
	}
}

func (e *Engine) checkGhosting(c *clientdomain.Client, userID string, mode domain.AutopilotMode, r *Report) {
	if c.Status != clientdomain.StatusActive || c.LastContactAt == nil {
		return
	}
	silence := e.Now().Sub(*c.LastContactAt)
	if silence <= e.cfg.GhostingAfter {
		return
	}

	days := int(silence.Hours() / 24)

	if mode == domain.ModeAssist {
		payload, _ := json.Marshal(map[string]interface{}{
			"client_id": c.ID,
		})
		r.Approvals = append(r.Approvals, domain.ApprovalRequest{
			ID:        "approval-followup-" + c.ID,
			UserID:    userID,
			Type:      domain.ApprovalCommunication,
			Title:     "Client gone quiet",
			Message:   fmt.Sprintf("No contact with %s for %d days. Send a friendly check-in?", c.Name, days),
			Urgency:   domain.UrgencyLow,
			Data:      string(payload),
			CreatedAt: e.Now(),
		})
		return
	}

	// confident and strict both treat a check-in as routine
	r.Handled = append(r.Handled, domain.HandledAction{
		ID:        "handled-followup-" + c.ID,
		UserID:    userID,
		Action:    fmt.Sprintf("Sent a check-in to %s", c.Name),
		Trigger:   fmt.Sprintf("%d days without contact", days),
		Result:    "Follow-up message queued",
		Icon:      "mail",
		CreatedAt: e.Now(),
	})
}
