package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/internal/assistant/tools"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeTool struct {
	name   string
	output *domain.ToolOutput
	err    error
	panics bool
	calls  int
	gotWS  *tools.Workspace
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "a test tool" }

func (f *fakeTool) Execute(ctx context.Context, input json.RawMessage, ws *tools.Workspace) (*domain.ToolOutput, error) {
	f.calls++
	f.gotWS = ws
	if f.panics {
		panic("nil map write")
	}
	return f.output, f.err
}

func okOutput() *domain.ToolOutput {
	return &domain.ToolOutput{Success: true, HumanReadable: "done", Confidence: 0.9}
}

func newTestOrchestrator(provider *fakeProvider, t ...tools.Tool) *Orchestrator {
	return New(tools.NewRegistry(t...), provider,
		NewCache(5*time.Minute, 100), NewRateLimiter(20, time.Minute), NewRunLog(500))
}

func TestExecuteSuccess(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	resp := o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})

	if !resp.Output.Success {
		t.Fatalf("expected success, got %+v", resp.Output)
	}
	if tool.calls != 1 {
		t.Errorf("tool called %d times, want 1", tool.calls)
	}
	if resp.RunID == "" {
		t.Error("expected a run id")
	}
	if got := o.runLog.Recent(1); len(got) != 1 || got[0].Status != domain.RunSuccess {
		t.Errorf("expected a success run record, got %+v", got)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, &fakeTool{name: "summarize", output: okOutput()})

	resp := o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "translate", Input: json.RawMessage(`{}`),
	})

	if resp.Output.Success || resp.Output.Error != domain.ErrUnknownTool {
		t.Fatalf("expected UNKNOWN_TOOL, got %+v", resp.Output)
	}
}

func TestExecuteNormalizesToolErrors(t *testing.T) {
	tool := &fakeTool{name: "summarize", err: errors.New("upstream exploded")}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	resp := o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})

	if resp.Output.Success || resp.Output.Error != domain.ErrExecution {
		t.Fatalf("expected EXECUTION_ERROR, got %+v", resp.Output)
	}
	if resp.Output.HumanReadable == "" {
		t.Error("failures must carry a displayable message")
	}
}

func TestExecuteRecoversToolPanic(t *testing.T) {
	tool := &fakeTool{name: "summarize", panics: true}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	resp := o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})

	if resp.Output.Success || resp.Output.Error != domain.ErrExecution {
		t.Fatalf("expected EXECUTION_ERROR from a panicking tool, got %+v", resp.Output)
	}
	if got := o.runLog.Recent(1); len(got) != 1 || got[0].Status != domain.RunError {
		t.Errorf("expected an error run record, got %+v", got)
	}
}

func TestExecuteRequiresUser(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	resp := o.Execute(context.Background(), Request{
		ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})

	if resp.Output.Success || resp.Output.Error != domain.ErrPermissionDenied {
		t.Fatalf("expected PERMISSION_DENIED, got %+v", resp.Output)
	}
	if tool.calls != 0 {
		t.Errorf("tool must not run without a user, ran %d times", tool.calls)
	}
}

func TestExecuteRateLimit(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	// the limiter runs before the cache, so cached hits count too
	for i := 0; i < 20; i++ {
		resp := o.Execute(context.Background(), Request{
			UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
		})
		if resp.Output.Error == domain.ErrRateLimited {
			t.Fatalf("request %d should not be rate limited", i+1)
		}
	}

	resp := o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})
	if resp.Output.Error != domain.ErrRateLimited {
		t.Fatalf("21st request should be rate limited, got %+v", resp.Output)
	}

	// another user is unaffected
	resp = o.Execute(context.Background(), Request{
		UserID: "u2", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})
	if resp.Output.Error == domain.ErrRateLimited {
		t.Error("rate limit must be per user")
	}
}

func TestExecuteCacheHit(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	input := json.RawMessage(`{"content":"hello"}`)
	first := o.Execute(context.Background(), Request{UserID: "u1", ToolName: "summarize", Input: input})
	second := o.Execute(context.Background(), Request{UserID: "u1", ToolName: "summarize", Input: input})

	if tool.calls != 1 {
		t.Fatalf("cached request must not re-execute, tool ran %d times", tool.calls)
	}
	if second.Cached != true || second.DurationMs != 0 {
		t.Errorf("expected cached zero-duration response, got %+v", second)
	}
	if first.Cached {
		t.Error("first response should not be cached")
	}
	if second.Preview == nil {
		t.Error("cache hits still build a preview")
	}

	// different input misses
	o.Execute(context.Background(), Request{UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"other"}`)})
	if tool.calls != 2 {
		t.Errorf("different input must miss the cache, tool ran %d times", tool.calls)
	}
}

func TestExecuteFailuresNotCached(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: domain.Failure(domain.ErrParse, "bad reply")}
	o := newTestOrchestrator(&fakeProvider{}, tool)

	input := json.RawMessage(`{"content":"hello"}`)
	o.Execute(context.Background(), Request{UserID: "u1", ToolName: "summarize", Input: input})
	o.Execute(context.Background(), Request{UserID: "u1", ToolName: "summarize", Input: input})

	if tool.calls != 2 {
		t.Errorf("failed outputs must not be cached, tool ran %d times", tool.calls)
	}
}

func TestExecuteModerationBlocksBeforeTool(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	provider := &fakeProvider{}
	o := newTestOrchestrator(provider, tool)

	resp := o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize",
		Input: json.RawMessage(`{"content":"my password: abc123"}`),
	})

	if resp.Output.Error != domain.ErrContentUnsafe {
		t.Fatalf("expected CONTENT_UNSAFE, got %+v", resp.Output)
	}
	if tool.calls != 0 {
		t.Error("unsafe input must never reach the tool")
	}
	if provider.calls != 0 {
		t.Error("unsafe input must never reach the remote service")
	}
	if got := o.runLog.Recent(1); len(got) != 1 || got[0].Status != domain.RunBlocked {
		t.Errorf("expected a blocked run record, got %+v", got)
	}
}

func TestResolveToolFromPrompt(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}

	tests := []struct {
		name      string
		reply     string
		wantTool  string
		wantError string
	}{
		{"exact name", "summarize", "summarize", ""},
		{"quoted name", `"summarize"`, "summarize", ""},
		{"misspelled name", "summarise", "summarize", ""},
		{"none", "none", "", domain.ErrNoToolMatch},
		{"garbage", "definitely-not-a-tool", "", domain.ErrNoToolMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool.calls = 0
			o := newTestOrchestrator(&fakeProvider{reply: tt.reply}, tool)

			resp := o.Execute(context.Background(), Request{
				UserID: "u1", Prompt: "shorten this for me", Input: json.RawMessage(`{"content":"hello"}`),
			})

			if tt.wantError != "" {
				if resp.Output.Error != tt.wantError {
					t.Fatalf("expected %s, got %+v", tt.wantError, resp.Output)
				}
				return
			}
			if resp.Tool != tt.wantTool || tool.calls != 1 {
				t.Errorf("resolved %q (tool ran %d times), want %q", resp.Tool, tool.calls, tt.wantTool)
			}
		})
	}
}

func TestResolveToolEmptyPrompt(t *testing.T) {
	o := newTestOrchestrator(&fakeProvider{}, &fakeTool{name: "summarize", output: okOutput()})

	resp := o.Execute(context.Background(), Request{UserID: "u1", Input: json.RawMessage(`{}`)})
	if resp.Output.Error != domain.ErrNoToolMatch {
		t.Fatalf("expected NO_TOOL_MATCH, got %+v", resp.Output)
	}
}

func TestRateLimiterWindowRollsForward(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.Allow("u1") || !l.Allow("u1") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("u1") {
		t.Fatal("third request in the window should be rejected")
	}

	now = now.Add(61 * time.Second)
	if !l.Allow("u1") {
		t.Error("capacity should free up after the window rolls past the oldest stamp")
	}
}

func TestCacheTTLAndEviction(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)
	c := NewCache(5*time.Minute, 2)
	c.now = func() time.Time { return now }

	c.Set("a", okOutput())
	if _, ok := c.Get("a"); !ok {
		t.Fatal("fresh entry should hit")
	}

	now = now.Add(6 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expired entry should miss")
	}

	// oldest-first eviction at the cap
	now = now.Add(time.Second)
	c.Set("a", okOutput())
	now = now.Add(time.Second)
	c.Set("b", okOutput())
	now = now.Add(time.Second)
	c.Set("c", okOutput())

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("newest entry should survive")
	}
	if c.Len() != 2 {
		t.Errorf("cache holds %d entries, want 2", c.Len())
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"email", "contact jane@example.com today", "contact [email] today"},
		{"phone", "call +1 415-555-0132 now", "call [phone] now"},
		{"clean", "nothing sensitive here", "nothing sensitive here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'x'
	}
	if got := Sanitize(string(long)); len(got) != 1000 {
		t.Errorf("long input truncated to %d chars, want 1000", len(got))
	}
}

func TestCheckContent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		safe bool
	}{
		{"password assignment", `{"content":"password: abc123"}`, false},
		{"api key", `{"content":"API_KEY = sk-12345"}`, false},
		{"ssn", `{"content":"SSN is 123-45-6789"}`, false},
		{"credit card", `{"content":"pay with 4111 1111 1111 1111"}`, false},
		{"cvv", `{"content":"cvv: 123"}`, false},
		{"plain text", `{"content":"summarize the meeting notes"}`, true},
		{"word password alone", `{"content":"remind me to change my password"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			safe, reason := CheckContent(tt.in)
			if safe != tt.safe {
				t.Errorf("CheckContent(%q) safe = %v, want %v", tt.in, safe, tt.safe)
			}
			if !safe && reason == "" {
				t.Error("unsafe content must carry a reason")
			}
		})
	}
}

func TestRunLogRing(t *testing.T) {
	l := NewRunLog(3)
	for i := 0; i < 5; i++ {
		l.Append(domain.Run{ID: string(rune('a' + i))})
	}

	recent := l.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("ring holds %d runs, want 3", len(recent))
	}
	if recent[0].ID != "e" || recent[2].ID != "c" {
		t.Errorf("expected newest-first [e d c], got %+v", recent)
	}
}

type fakeRunStore struct {
	saved []*domain.Run
	trims []string
	keep  int
}

func (f *fakeRunStore) Save(run *domain.Run) error {
	f.saved = append(f.saved, run)
	return nil
}

func (f *fakeRunStore) DeleteOlderThan(userID string, keep int) error {
	f.trims = append(f.trims, userID)
	f.keep = keep
	return nil
}

func TestExecuteTrimsStoredRunHistory(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	o := newTestOrchestrator(&fakeProvider{}, tool)
	store := &fakeRunStore{}
	o.SetRunStore(store)

	o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})

	if len(store.saved) != 1 {
		t.Fatalf("saved %d runs, want 1", len(store.saved))
	}
	if len(store.trims) != 1 || store.trims[0] != "u1" {
		t.Fatalf("expected one trim for u1, got %v", store.trims)
	}
	if store.keep != 500 {
		t.Errorf("trim keep = %d, want the ring capacity", store.keep)
	}
}

type fakeWorkspaceLoader struct{}

func (fakeWorkspaceLoader) Load(userID string) (*tools.Workspace, error) {
	return &tools.Workspace{}, nil
}

func TestExecuteStampsWorkspaceOwner(t *testing.T) {
	tool := &fakeTool{name: "summarize", output: okOutput()}
	o := newTestOrchestrator(&fakeProvider{}, tool)
	o.SetWorkspaceLoader(fakeWorkspaceLoader{})

	o.Execute(context.Background(), Request{
		UserID: "u1", ToolName: "summarize", Input: json.RawMessage(`{"content":"hello"}`),
	})

	if tool.gotWS == nil || tool.gotWS.UserID != "u1" {
		t.Fatalf("workspace owner = %+v, want u1", tool.gotWS)
	}
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("a", maxLoggedChars-1) + "é" + strings.Repeat("b", 20)

	got := Sanitize(s)

	if len(got) > maxLoggedChars {
		t.Fatalf("len = %d, want <= %d", len(got), maxLoggedChars)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8 at the tail: %q", got[len(got)-4:])
	}
	if !strings.HasSuffix(got, "a") {
		t.Errorf("expected the split rune to be dropped, tail = %q", got[len(got)-4:])
	}
}
