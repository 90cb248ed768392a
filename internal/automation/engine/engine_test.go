package engine

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"flowdesk-backend/internal/automation/domain"
	clientdomain "flowdesk-backend/internal/client/domain"
	projectdomain "flowdesk-backend/internal/project/domain"
	taskdomain "flowdesk-backend/internal/task/domain"
	"flowdesk-backend/pkg/config"
)

func testConfig() config.AutomationConfig {
	return config.AutomationConfig{
		UnderchargeThreshold: 500,
		BurnoutWeekHours:     45,
		BackToBackGap:        5 * time.Minute,
		GhostingAfter:        168 * time.Hour,
		DeadlineWindowDays:   2,
		DeadlineProgressPct:  80,
		DefaultRevisions:     3,
		OverageFeeRate:       0.1,
		OverageFeeFlat:       50,
	}
}

// fixedNow is a Wednesday, mid-week, so week and day boundaries are unambiguous
var fixedNow = time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	e := New(testConfig())
	e.Now = func() time.Time { return fixedNow }
	return e
}

func riskIDs(r *Report) []string {
	ids := make([]string, 0, len(r.Risks))
	for _, risk := range r.Risks {
		ids = append(ids, risk.ID)
	}
	return ids
}

func TestRunDiagnosticEmptyState(t *testing.T) {
	e := newTestEngine()
	report := e.RunDiagnostic(&State{UserID: "u1"}, domain.ModeAssist)

	if report.Handled == nil || report.Approvals == nil || report.Risks == nil {
		t.Fatal("expected empty slices, got nil")
	}
	if len(report.Handled)+len(report.Approvals)+len(report.Risks) != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestDeadlineCrisis(t *testing.T) {
	deadline := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name     string
		status   projectdomain.Status
		progress int
		deadline *time.Time
		want     bool
	}{
		{"active low progress close deadline", projectdomain.StatusActive, 50, &deadline, true},
		{"progress at threshold", projectdomain.StatusActive, 80, &deadline, false},
		{"progress above threshold", projectdomain.StatusActive, 90, &deadline, false},
		{"paused project", projectdomain.StatusPaused, 50, &deadline, false},
		{"no deadline", projectdomain.StatusActive, 50, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			state := &State{
				UserID: "u1",
				Projects: []*projectdomain.Project{{
					ID:       "p1",
					Title:    "Logo pack",
					Status:   tt.status,
					Price:    1000,
					Progress: tt.progress,
					Deadline: tt.deadline,
				}},
			}
			report := e.RunDiagnostic(state, domain.ModeAssist)

			found := false
			for _, r := range report.Risks {
				if r.ID == "risk-deadline-p1" {
					found = true
					if r.Type != domain.RiskDeadline || r.Severity != domain.SeverityCritical {
						t.Errorf("wrong type/severity: %s/%s", r.Type, r.Severity)
					}
				}
			}
			if found != tt.want {
				t.Errorf("deadline risk fired = %v, want %v", found, tt.want)
			}
		})
	}
}

func TestDeadlineCrisisFarDeadline(t *testing.T) {
	deadline := fixedNow.AddDate(0, 0, 10)
	e := newTestEngine()
	report := e.RunDiagnostic(&State{
		UserID: "u1",
		Projects: []*projectdomain.Project{{
			ID: "p1", Title: "Site", Status: projectdomain.StatusActive,
			Price: 1000, Progress: 10, Deadline: &deadline,
		}},
	}, domain.ModeAssist)

	for _, r := range report.Risks {
		if r.ID == "risk-deadline-p1" {
			t.Error("deadline risk should not fire ten days out")
		}
	}
}

func TestScopeCreep(t *testing.T) {
	tests := []struct {
		name    string
		used    int
		allowed int
		want    bool
	}{
		{"at default limit", 3, 0, true},
		{"under default limit", 2, 0, false},
		{"at explicit limit", 5, 5, true},
		{"under explicit limit", 4, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			report := e.RunDiagnostic(&State{
				UserID: "u1",
				Projects: []*projectdomain.Project{{
					ID: "p1", Title: "Brand kit", Status: projectdomain.StatusActive,
					Price: 2000, RevisionsUsed: tt.used, RevisionsAllowed: tt.allowed,
				}},
			}, domain.ModeAssist)

			found := false
			for _, a := range report.Approvals {
				if a.ID == "approval-scope-p1" {
					found = true
					if a.Type != domain.ApprovalScope {
						t.Errorf("expected scope approval, got %s", a.Type)
					}
				}
			}
			if found != tt.want {
				t.Errorf("scope approval fired = %v, want %v", found, tt.want)
			}
		})
	}
}

func TestScopeCreepFlatFeeWhenUnpriced(t *testing.T) {
	e := newTestEngine()
	report := e.RunDiagnostic(&State{
		UserID: "u1",
		Projects: []*projectdomain.Project{{
			ID: "p1", Title: "Favor", Status: projectdomain.StatusActive,
			Price: 0, RevisionsUsed: 3,
		}},
	}, domain.ModeAssist)

	if len(report.Approvals) != 1 {
		t.Fatalf("expected 1 approval, got %d", len(report.Approvals))
	}
	if want := `"fee":50`; !strings.Contains(report.Approvals[0].Data, want) {
		t.Errorf("expected flat fee payload, got %s", report.Approvals[0].Data)
	}
}

func TestOverdueInvoiceByMode(t *testing.T) {
	state := func() *State {
		return &State{
			UserID: "u1",
			Projects: []*projectdomain.Project{{
				ID: "p1", Title: "Retainer", Status: projectdomain.StatusActive,
				Price: 3000, InvoiceStatus: projectdomain.InvoiceOverdue,
			}},
		}
	}

	e := newTestEngine()

	report := e.RunDiagnostic(state(), domain.ModeAssist)
	if len(report.Handled) != 0 {
		t.Errorf("assist mode should not auto-pause, handled = %d", len(report.Handled))
	}
	if len(report.Risks) == 0 || report.Risks[0].ID != "risk-invoice-p1" {
		t.Errorf("expected invoice risk in assist mode, got %v", riskIDs(report))
	}

	report = e.RunDiagnostic(state(), domain.ModeStrict)
	if len(report.Handled) != 1 || report.Handled[0].ID != "handled-invoice-p1" {
		t.Errorf("strict mode should auto-pause, got %+v", report.Handled)
	}
	for _, r := range report.Risks {
		if r.ID == "risk-invoice-p1" {
			t.Error("strict mode should not also raise the invoice risk")
		}
	}
}

func TestUndercharging(t *testing.T) {
	e := newTestEngine()
	report := e.RunDiagnostic(&State{
		UserID: "u1",
		Projects: []*projectdomain.Project{
			{ID: "cheap", Title: "Banner", Status: projectdomain.StatusActive, Price: 200},
			{ID: "fair", Title: "Site", Status: projectdomain.StatusActive, Price: 800},
			{ID: "done", Title: "Old", Status: projectdomain.StatusCompleted, Price: 100},
		},
	}, domain.ModeStrict)

	got := riskIDs(report)
	want := []string{"risk-undercharge-cheap"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("risks = %v, want %v", got, want)
	}
	if report.Risks[0].Severity != domain.SeverityInfo {
		t.Errorf("undercharging must stay advisory, got %s", report.Risks[0].Severity)
	}
	if len(report.Handled) != 0 {
		t.Error("undercharging must never be auto-acted, even in strict mode")
	}
}

func TestGhostingByMode(t *testing.T) {
	lastContact := fixedNow.Add(-10 * 24 * time.Hour)
	recent := fixedNow.Add(-2 * 24 * time.Hour)

	state := func(last *time.Time) *State {
		return &State{
			UserID: "u1",
			Clients: []*clientdomain.Client{{
				ID: "c1", Name: "Acme", Status: clientdomain.StatusActive, LastContactAt: last,
			}},
		}
	}

	e := newTestEngine()

	report := e.RunDiagnostic(state(&lastContact), domain.ModeAssist)
	if len(report.Approvals) != 1 || report.Approvals[0].ID != "approval-followup-c1" {
		t.Fatalf("assist mode should ask first, got %+v", report.Approvals)
	}
	if report.Approvals[0].Type != domain.ApprovalCommunication {
		t.Errorf("expected communication approval, got %s", report.Approvals[0].Type)
	}

	for _, mode := range []domain.AutopilotMode{domain.ModeConfident, domain.ModeStrict} {
		report = e.RunDiagnostic(state(&lastContact), mode)
		if len(report.Handled) != 1 || report.Handled[0].ID != "handled-followup-c1" {
			t.Errorf("%s mode should handle the follow-up, got %+v", mode, report.Handled)
		}
		if len(report.Approvals) != 0 {
			t.Errorf("%s mode should not also ask, got %+v", mode, report.Approvals)
		}
	}

	report = e.RunDiagnostic(state(&recent), domain.ModeAssist)
	if len(report.Approvals)+len(report.Handled) != 0 {
		t.Error("recent contact should not trigger ghosting")
	}

	report = e.RunDiagnostic(state(nil), domain.ModeAssist)
	if len(report.Approvals)+len(report.Handled) != 0 {
		t.Error("client with no contact history should be skipped")
	}
}

func TestBurnoutHours(t *testing.T) {
	// Monday of fixedNow's week is 2025-06-16
	monday := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

	makeTasks := func(minutes int, done bool) []*taskdomain.Task {
		return []*taskdomain.Task{{
			ID: "t1", Title: "Build", Start: monday, DurationMinutes: minutes, Done: done,
		}}
	}

	e := newTestEngine()

	report := e.RunDiagnostic(&State{UserID: "u1", Tasks: makeTasks(46*60, false)}, domain.ModeAssist)
	if got := riskIDs(report); !reflect.DeepEqual(got, []string{"risk-burnout-2025-06-16"}) {
		t.Errorf("expected burnout risk, got %v", got)
	}

	report = e.RunDiagnostic(&State{UserID: "u1", Tasks: makeTasks(45*60, false)}, domain.ModeAssist)
	if len(report.Risks) != 0 {
		t.Errorf("exactly at the limit should not fire, got %v", riskIDs(report))
	}

	report = e.RunDiagnostic(&State{UserID: "u1", Tasks: makeTasks(60*60, true)}, domain.ModeAssist)
	if len(report.Risks) != 0 {
		t.Error("completed work should not count toward burnout")
	}

	// tasks outside the current week do not count
	lastWeek := monday.AddDate(0, 0, -7)
	report = e.RunDiagnostic(&State{
		UserID: "u1",
		Tasks:  []*taskdomain.Task{{ID: "t1", Title: "Old", Start: lastWeek, DurationMinutes: 60 * 60}},
	}, domain.ModeAssist)
	if len(report.Risks) != 0 {
		t.Error("last week's tasks should not count toward burnout")
	}
}

func TestBackToBack(t *testing.T) {
	at := func(hour, min int) time.Time {
		return time.Date(2025, 6, 18, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name  string
		tasks []*taskdomain.Task
		want  []string
	}{
		{
			"three minute gap fires",
			[]*taskdomain.Task{
				{ID: "a", Title: "Call", Start: at(9, 0), DurationMinutes: 60},
				{ID: "b", Title: "Design", Start: at(10, 3), DurationMinutes: 30},
			},
			[]string{"risk-backtoback-a-b"},
		},
		{
			"ten minute gap does not fire",
			[]*taskdomain.Task{
				{ID: "a", Title: "Call", Start: at(9, 0), DurationMinutes: 60},
				{ID: "b", Title: "Design", Start: at(10, 10), DurationMinutes: 30},
			},
			nil,
		},
		{
			"every tight pair in a chain fires",
			[]*taskdomain.Task{
				{ID: "a", Title: "Call", Start: at(9, 0), DurationMinutes: 60},
				{ID: "b", Title: "Design", Start: at(10, 0), DurationMinutes: 60},
				{ID: "c", Title: "Review", Start: at(11, 2), DurationMinutes: 30},
			},
			[]string{"risk-backtoback-a-b", "risk-backtoback-b-c"},
		},
		{
			"done tasks are ignored",
			[]*taskdomain.Task{
				{ID: "a", Title: "Call", Start: at(9, 0), DurationMinutes: 60, Done: true},
				{ID: "b", Title: "Design", Start: at(10, 0), DurationMinutes: 30},
			},
			nil,
		},
		{
			"unsorted input is sorted by start",
			[]*taskdomain.Task{
				{ID: "b", Title: "Design", Start: at(10, 0), DurationMinutes: 30},
				{ID: "a", Title: "Call", Start: at(9, 0), DurationMinutes: 60},
			},
			[]string{"risk-backtoback-a-b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			report := e.RunDiagnostic(&State{UserID: "u1", Tasks: tt.tasks}, domain.ModeAssist)

			got := riskIDs(report)
			if len(tt.want) == 0 && len(got) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("risks = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackToBackOtherDayIgnored(t *testing.T) {
	tomorrow := fixedNow.AddDate(0, 0, 1)
	e := newTestEngine()
	report := e.RunDiagnostic(&State{
		UserID: "u1",
		Tasks: []*taskdomain.Task{
			{ID: "a", Title: "Call", Start: tomorrow, DurationMinutes: 60},
			{ID: "b", Title: "Design", Start: tomorrow.Add(61 * time.Minute), DurationMinutes: 30},
		},
	}, domain.ModeAssist)

	if len(report.Risks) != 0 {
		t.Errorf("tomorrow's schedule should not fire today, got %v", riskIDs(report))
	}
}

func TestRunDiagnosticDeterministic(t *testing.T) {
	deadline := fixedNow.Add(24 * time.Hour)
	lastContact := fixedNow.Add(-10 * 24 * time.Hour)

	state := &State{
		UserID: "u1",
		Projects: []*projectdomain.Project{
			{ID: "p1", Title: "Site", Status: projectdomain.StatusActive, Price: 300, Progress: 20, Deadline: &deadline, RevisionsUsed: 3},
			{ID: "p2", Title: "Logo", Status: projectdomain.StatusActive, Price: 2000, InvoiceStatus: projectdomain.InvoiceOverdue},
		},
		Clients: []*clientdomain.Client{
			{ID: "c1", Name: "Acme", Status: clientdomain.StatusActive, LastContactAt: &lastContact},
		},
	}

	e := newTestEngine()
	first := e.RunDiagnostic(state, domain.ModeAssist)
	second := e.RunDiagnostic(state, domain.ModeAssist)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical state and mode must produce identical reports")
	}

	// project rules in project order, then client rules
	wantRisks := []string{"risk-deadline-p1", "risk-undercharge-p1", "risk-invoice-p2"}
	if got := riskIDs(first); !reflect.DeepEqual(got, wantRisks) {
		t.Errorf("risk order = %v, want %v", got, wantRisks)
	}
	wantApprovals := []string{"approval-scope-p1", "approval-followup-c1"}
	gotApprovals := make([]string, 0, len(first.Approvals))
	for _, a := range first.Approvals {
		gotApprovals = append(gotApprovals, a.ID)
	}
	if !reflect.DeepEqual(gotApprovals, wantApprovals) {
		t.Errorf("approval order = %v, want %v", gotApprovals, wantApprovals)
	}
}

func TestNilEntitiesSkipped(t *testing.T) {
	e := newTestEngine()
	report := e.RunDiagnostic(&State{
		UserID:   "u1",
		Projects: []*projectdomain.Project{nil, {ID: "p1", Title: "Site", Status: projectdomain.StatusActive, Price: 100}},
		Clients:  []*clientdomain.Client{nil},
		Tasks:    []*taskdomain.Task{nil},
	}, domain.ModeAssist)

	if got := riskIDs(report); !reflect.DeepEqual(got, []string{"risk-undercharge-p1"}) {
		t.Errorf("expected nil entries skipped, got %v", got)
	}
}

func TestWeekStart(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday", time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		{"monday itself", time.Date(2025, 6, 16, 0, 0, 1, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
		{"sunday belongs to prior monday", time.Date(2025, 6, 22, 10, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.weekStart(tt.in); !got.Equal(tt.want) {
				t.Errorf("weekStart(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
