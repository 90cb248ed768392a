package usecase

import (
	"testing"
	"time"

	"flowdesk-backend/internal/automation/domain"
	"flowdesk-backend/internal/automation/engine"
	clientdomain "flowdesk-backend/internal/client/domain"
	projectdomain "flowdesk-backend/internal/project/domain"
	taskdomain "flowdesk-backend/internal/task/domain"
	"flowdesk-backend/pkg/config"
)

type fakeAutomationRepo struct {
	approvals map[string]*domain.ApprovalRequest
	risks     map[string]*domain.RiskAlert
	handled   map[string]*domain.HandledAction
}

func newFakeAutomationRepo() *fakeAutomationRepo {
	return &fakeAutomationRepo{
		approvals: make(map[string]*domain.ApprovalRequest),
		risks:     make(map[string]*domain.RiskAlert),
		handled:   make(map[string]*domain.HandledAction),
	}
}

func (f *fakeAutomationRepo) ReplaceApprovals(userID string, approvals []domain.ApprovalRequest) error {
	keep := make(map[string]bool, len(approvals))
	for _, a := range approvals {
		keep[a.ID] = true
	}
	for id, a := range f.approvals {
		if a.UserID == userID && !keep[id] {
			delete(f.approvals, id)
		}
	}
	for i := range approvals {
		a := approvals[i]
		if existing, ok := f.approvals[a.ID]; ok {
			a.CreatedAt = existing.CreatedAt
		}
		f.approvals[a.ID] = &a
	}
	return nil
}

func (f *fakeAutomationRepo) ReplaceRisks(userID string, risks []domain.RiskAlert) error {
	keep := make(map[string]bool, len(risks))
	for _, r := range risks {
		keep[r.ID] = true
	}
	for id, r := range f.risks {
		if r.UserID == userID && !keep[id] {
			delete(f.risks, id)
		}
	}
	for i := range risks {
		r := risks[i]
		if existing, ok := f.risks[r.ID]; ok {
			r.Acknowledged = existing.Acknowledged
			r.CreatedAt = existing.CreatedAt
		}
		f.risks[r.ID] = &r
	}
	return nil
}

func (f *fakeAutomationRepo) AppendHandled(userID string, actions []domain.HandledAction) error {
	for i := range actions {
		a := actions[i]
		if _, ok := f.handled[a.ID]; ok {
			continue
		}
		f.handled[a.ID] = &a
	}
	return nil
}

func (f *fakeAutomationRepo) FindApprovals(userID string) ([]*domain.ApprovalRequest, error) {
	var out []*domain.ApprovalRequest
	for _, a := range f.approvals {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAutomationRepo) FindApprovalByID(id string) (*domain.ApprovalRequest, error) {
	return f.approvals[id], nil
}

func (f *fakeAutomationRepo) DeleteApproval(id string) error {
	delete(f.approvals, id)
	return nil
}

func (f *fakeAutomationRepo) FindRisks(userID string) ([]*domain.RiskAlert, error) {
	var out []*domain.RiskAlert
	for _, r := range f.risks {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAutomationRepo) FindRiskByID(id string) (*domain.RiskAlert, error) {
	return f.risks[id], nil
}

func (f *fakeAutomationRepo) AcknowledgeRisk(id string) error {
	if r, ok := f.risks[id]; ok {
		r.Acknowledged = true
	}
	return nil
}

func (f *fakeAutomationRepo) FindHandled(userID string, limit int) ([]*domain.HandledAction, error) {
	var out []*domain.HandledAction
	for _, a := range f.handled {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeWorkspace struct {
	projects []*projectdomain.Project
	clients  []*clientdomain.Client
	tasks    []*taskdomain.Task
}

func (f *fakeWorkspace) Projects(userID string) ([]*projectdomain.Project, error) {
	return f.projects, nil
}

func (f *fakeWorkspace) Clients(userID string) ([]*clientdomain.Client, error) {
	return f.clients, nil
}

func (f *fakeWorkspace) Tasks(userID string) ([]*taskdomain.Task, error) {
	return f.tasks, nil
}

type fakeContacts struct {
	touched []string
}

func (f *fakeContacts) TouchLastContact(userID, clientID string) error {
	f.touched = append(f.touched, clientID)
	return nil
}

func newTestUsecase(ws *fakeWorkspace) (AutomationUsecase, *fakeAutomationRepo, *fakeContacts) {
	repo := newFakeAutomationRepo()
	eng := engine.New(config.AutomationConfig{
		UnderchargeThreshold: 500,
		BurnoutWeekHours:     45,
		BackToBackGap:        5 * time.Minute,
		GhostingAfter:        168 * time.Hour,
		DeadlineWindowDays:   2,
		DeadlineProgressPct:  80,
		DefaultRevisions:     3,
		OverageFeeRate:       0.1,
		OverageFeeFlat:       50,
	})
	eng.Now = func() time.Time { return time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC) }

	u := NewAutomationUsecase(repo, eng, ws)
	contacts := &fakeContacts{}
	u.SetClientContacts(contacts)
	return u, repo, contacts
}

func TestRunDiagnosticPersistsAndIsIdempotent(t *testing.T) {
	lastContact := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ws := &fakeWorkspace{
		projects: []*projectdomain.Project{
			{ID: "p1", UserID: "u1", Title: "Site", Status: projectdomain.StatusActive, Price: 200},
		},
		clients: []*clientdomain.Client{
			{ID: "c1", UserID: "u1", Name: "Acme", Status: clientdomain.StatusActive, LastContactAt: &lastContact},
		},
	}

	u, repo, _ := newTestUsecase(ws)

	report, err := u.RunDiagnostic("u1", domain.ModeConfident)
	if err != nil {
		t.Fatalf("RunDiagnostic failed: %v", err)
	}
	if len(report.Risks) != 1 || len(report.Handled) != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	if _, err := u.RunDiagnostic("u1", domain.ModeConfident); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(repo.handled) != 1 {
		t.Errorf("re-running must not duplicate handled actions, got %d", len(repo.handled))
	}
	if len(repo.risks) != 1 {
		t.Errorf("re-running must not duplicate risks, got %d", len(repo.risks))
	}
}

func TestRunDiagnosticInvalidMode(t *testing.T) {
	u, _, _ := newTestUsecase(&fakeWorkspace{})
	if _, err := u.RunDiagnostic("u1", domain.AutopilotMode("turbo")); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestRunDiagnosticDefaultsToUserMode(t *testing.T) {
	lastContact := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ws := &fakeWorkspace{
		clients: []*clientdomain.Client{
			{ID: "c1", UserID: "u1", Name: "Acme", Status: clientdomain.StatusActive, LastContactAt: &lastContact},
		},
	}

	u, _, _ := newTestUsecase(ws)

	// default mode is assist: ghosting asks first
	report, err := u.RunDiagnostic("u1", "")
	if err != nil {
		t.Fatalf("RunDiagnostic failed: %v", err)
	}
	if len(report.Approvals) != 1 || len(report.Handled) != 0 {
		t.Fatalf("expected assist behavior by default, got %+v", report)
	}

	if err := u.SetMode("u1", domain.ModeConfident); err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	report, err = u.RunDiagnostic("u1", "")
	if err != nil {
		t.Fatalf("RunDiagnostic failed: %v", err)
	}
	if len(report.Handled) != 1 {
		t.Fatalf("expected confident behavior after SetMode, got %+v", report)
	}
}

func TestApproveCommunicationTouchesClient(t *testing.T) {
	lastContact := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	ws := &fakeWorkspace{
		clients: []*clientdomain.Client{
			{ID: "c1", UserID: "u1", Name: "Acme", Status: clientdomain.StatusActive, LastContactAt: &lastContact},
		},
	}

	u, repo, contacts := newTestUsecase(ws)

	report, err := u.RunDiagnostic("u1", domain.ModeAssist)
	if err != nil {
		t.Fatalf("RunDiagnostic failed: %v", err)
	}
	if len(report.Approvals) != 1 {
		t.Fatalf("expected a follow-up approval, got %+v", report)
	}

	action, err := u.ApproveRequest("u1", report.Approvals[0].ID)
	if err != nil {
		t.Fatalf("ApproveRequest failed: %v", err)
	}
	if action == nil || action.Icon != "mail" {
		t.Errorf("unexpected handled action: %+v", action)
	}
	if len(contacts.touched) != 1 || contacts.touched[0] != "c1" {
		t.Errorf("expected client contact touched, got %v", contacts.touched)
	}
	if len(repo.approvals) != 0 {
		t.Error("approval should be retired after approval")
	}
}

func TestApproveOtherUsersRequest(t *testing.T) {
	u, repo, _ := newTestUsecase(&fakeWorkspace{})
	repo.approvals["a1"] = &domain.ApprovalRequest{ID: "a1", UserID: "someone-else"}

	if _, err := u.ApproveRequest("u1", "a1"); err == nil || err.Error() != "unauthorized" {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, ok := repo.approvals["a1"]; !ok {
		t.Error("approval must survive an unauthorized attempt")
	}
}

func TestRejectRequest(t *testing.T) {
	u, repo, contacts := newTestUsecase(&fakeWorkspace{})
	repo.approvals["a1"] = &domain.ApprovalRequest{
		ID: "a1", UserID: "u1", Type: domain.ApprovalCommunication, Data: `{"client_id":"c1"}`,
	}

	if err := u.RejectRequest("u1", "a1"); err != nil {
		t.Fatalf("RejectRequest failed: %v", err)
	}
	if len(repo.approvals) != 0 {
		t.Error("rejected approval should be removed")
	}
	if len(contacts.touched) != 0 {
		t.Error("rejecting must not act on the client")
	}
	if len(repo.handled) != 0 {
		t.Error("rejecting must not record a handled action")
	}
}

func TestAcknowledgeRisk(t *testing.T) {
	u, repo, _ := newTestUsecase(&fakeWorkspace{})
	repo.risks["r1"] = &domain.RiskAlert{ID: "r1", UserID: "u1"}

	if err := u.AcknowledgeRisk("u1", "r1"); err != nil {
		t.Fatalf("AcknowledgeRisk failed: %v", err)
	}
	if !repo.risks["r1"].Acknowledged {
		t.Error("risk should be acknowledged")
	}

	if err := u.AcknowledgeRisk("u1", "missing"); err == nil {
		t.Error("expected error for unknown risk")
	}
}
