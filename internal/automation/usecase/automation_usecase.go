package usecase

import (
	"encoding/json"
	"errors"
	"log"
	"sync"

	"flowdesk-backend/internal/automation/domain"
	"flowdesk-backend/internal/automation/engine"
	"flowdesk-backend/internal/automation/repository"
	clientdomain "flowdesk-backend/internal/client/domain"
	projectdomain "flowdesk-backend/internal/project/domain"
	taskdomain "flowdesk-backend/internal/task/domain"
)

// WorkspaceSource provides the snapshot the engine diagnoses. The concrete
// adapters over the task, project and client repositories are wired in cmd/api.
type WorkspaceSource interface {
	Projects(userID string) ([]*projectdomain.Project, error)
	Clients(userID string) ([]*clientdomain.Client, error)
	Tasks(userID string) ([]*taskdomain.Task, error)
}

// ClientContacts lets an approved follow-up stamp the client's contact time
// without importing the client usecase directly.
type ClientContacts interface {
	TouchLastContact(userID, clientID string) error
}

// Notifier pushes realtime events to the user's open connections
type Notifier interface {
	Notify(userID string, eventType string, data interface{})
}

type AutomationUsecase interface {
	RunDiagnostic(userID string, mode domain.AutopilotMode) (*engine.Report, error)
	GetApprovals(userID string) ([]*domain.ApprovalRequest, error)
	GetRisks(userID string) ([]*domain.RiskAlert, error)
	GetHandled(userID string, limit int) ([]*domain.HandledAction, error)
	ApproveRequest(userID, approvalID string) (*domain.HandledAction, error)
	RejectRequest(userID, approvalID string) error
	AcknowledgeRisk(userID, riskID string) error
	GetMode(userID string) domain.AutopilotMode
	SetMode(userID string, mode domain.AutopilotMode) error
	SetClientContacts(c ClientContacts)
	SetNotifier(n Notifier)
}

type automationUsecase struct {
	repo      repository.AutomationRepository
	engine    *engine.Engine
	workspace WorkspaceSource
	contacts  ClientContacts
	notifier  Notifier

	modeMu sync.RWMutex
	modes  map[string]domain.AutopilotMode
}

func NewAutomationUsecase(repo repository.AutomationRepository, eng *engine.Engine, workspace WorkspaceSource) AutomationUsecase {
	return &automationUsecase{
		repo:      repo,
		engine:    eng,
		workspace: workspace,
		modes:     make(map[string]domain.AutopilotMode),
	}
}

func (u *automationUsecase) SetClientContacts(c ClientContacts) {
	u.contacts = c
}

func (u *automationUsecase) SetNotifier(n Notifier) {
	u.notifier = n
}

// RunDiagnostic snapshots the workspace, evaluates the rule set and persists
// the outcome. Running it twice on the same state changes nothing.
func (u *automationUsecase) RunDiagnostic(userID string, mode domain.AutopilotMode) (*engine.Report, error) {
	if mode == "" {
		mode = u.GetMode(userID)
	}
	if !validMode(mode) {
		return nil, errors.New("invalid autopilot mode")
	}

	projects, err := u.workspace.Projects(userID)
	if err != nil {
		return nil, err
	}
	clients, err := u.workspace.Clients(userID)
	if err != nil {
		return nil, err
	}
	tasks, err := u.workspace.Tasks(userID)
	if err != nil {
		return nil, err
	}

	report := u.engine.RunDiagnostic(&engine.State{
		UserID:   userID,
		Projects: projects,
		Clients:  clients,
		Tasks:    tasks,
	}, mode)

	if err := u.repo.ReplaceApprovals(userID, report.Approvals); err != nil {
		return nil, err
	}
	if err := u.repo.ReplaceRisks(userID, report.Risks); err != nil {
		return nil, err
	}
	if err := u.repo.AppendHandled(userID, report.Handled); err != nil {
		return nil, err
	}

	log.Printf("[Automation] Diagnostic for user %s (%s): %d handled, %d approvals, %d risks",
		userID, mode, len(report.Handled), len(report.Approvals), len(report.Risks))

	if u.notifier != nil {
		u.notifier.Notify(userID, "diagnostic_completed", report)
	}
	return report, nil
}

func (u *automationUsecase) GetApprovals(userID string) ([]*domain.ApprovalRequest, error) {
	return u.repo.FindApprovals(userID)
}

func (u *automationUsecase) GetRisks(userID string) ([]*domain.RiskAlert, error) {
	return u.repo.FindRisks(userID)
}

func (u *automationUsecase) GetHandled(userID string, limit int) ([]*domain.HandledAction, error) {
	return u.repo.FindHandled(userID, limit)
}

// ApproveRequest carries out the proposed action and retires the request
func (u *automationUsecase) ApproveRequest(userID, approvalID string) (*domain.HandledAction, error) {
	approval, err := u.repo.FindApprovalByID(approvalID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, errors.New("approval not found")
	}
	if approval.UserID != userID {
		return nil, errors.New("unauthorized")
	}

	action := domain.HandledAction{
		ID:        "handled-approved-" + approval.ID,
		UserID:    userID,
		Trigger:   approval.Title,
		CreatedAt: u.engine.Now(),
	}

	switch approval.Type {
	case domain.ApprovalCommunication:
		var payload struct {
			ClientID string `json:"client_id"`
		}
		if err := json.Unmarshal([]byte(approval.Data), &payload); err == nil && payload.ClientID != "" && u.contacts != nil {
			if err := u.contacts.TouchLastContact(userID, payload.ClientID); err != nil {
				log.Printf("[Automation] Failed to touch client contact: %v", err)
			}
		}
		action.Action = "Sent the follow-up"
		action.Result = "Check-in queued and contact date refreshed"
		action.Icon = "mail"
	case domain.ApprovalScope:
		action.Action = "Proposed an overage fee"
		action.Result = "The client will see the fee on the next revision request"
		action.Icon = "dollar"
	default:
		action.Action = "Approved"
		action.Result = approval.Message
	}

	if err := u.repo.AppendHandled(userID, []domain.HandledAction{action}); err != nil {
		return nil, err
	}
	if err := u.repo.DeleteApproval(approval.ID); err != nil {
		return nil, err
	}

	if u.notifier != nil {
		u.notifier.Notify(userID, "approval_resolved", map[string]string{"id": approval.ID, "resolution": "approved"})
	}
	return &action, nil
}

// RejectRequest discards the request without acting on it
func (u *automationUsecase) RejectRequest(userID, approvalID string) error {
	approval, err := u.repo.FindApprovalByID(approvalID)
	if err != nil {
		return err
	}
	if approval == nil {
		return errors.New("approval not found")
	}
	if approval.UserID != userID {
		return errors.New("unauthorized")
	}

	if err := u.repo.DeleteApproval(approval.ID); err != nil {
		return err
	}
	if u.notifier != nil {
		u.notifier.Notify(userID, "approval_resolved", map[string]string{"id": approval.ID, "resolution": "rejected"})
	}
	return nil
}

func (u *automationUsecase) AcknowledgeRisk(userID, riskID string) error {
	risk, err := u.repo.FindRiskByID(riskID)
	if err != nil {
		return err
	}
	if risk == nil {
		return errors.New("risk not found")
	}
	if risk.UserID != userID {
		return errors.New("unauthorized")
	}
	return u.repo.AcknowledgeRisk(riskID)
}

func (u *automationUsecase) GetMode(userID string) domain.AutopilotMode {
	u.modeMu.RLock()
	defer u.modeMu.RUnlock()
	if mode, ok := u.modes[userID]; ok {
		return mode
	}
	return domain.ModeAssist
}

func (u *automationUsecase) SetMode(userID string, mode domain.AutopilotMode) error {
	if !validMode(mode) {
		return errors.New("invalid autopilot mode")
	}
	u.modeMu.Lock()
	defer u.modeMu.Unlock()
	u.modes[userID] = mode
	return nil
}

func validMode(mode domain.AutopilotMode) bool {
	switch mode {
	case domain.ModeAssist, domain.ModeConfident, domain.ModeStrict:
		return true
	}
	return false
}
