package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/internal/assistant/tools"
	"flowdesk-backend/pkg/ai"
	"flowdesk-backend/pkg/fuzzy"
)

// Request is one AI invocation from the UI. ToolName may be empty, in which
// case the orchestrator resolves a tool from the free-text prompt.
type Request struct {
	UserID   string
	ToolName string
	Prompt   string
	Input    json.RawMessage
}

// WorkspaceLoader supplies the data context for tools that read the
// workspace. Wired to the repositories in cmd/api.
type WorkspaceLoader interface {
	Load(userID string) (*tools.Workspace, error)
}

// RunStore persists audit records beyond the in-process ring. Optional.
// The store is trimmed after every save so one user's history never grows
// past the ring capacity.
type RunStore interface {
	Save(run *domain.Run) error
	DeleteOlderThan(userID string, keep int) error
}

// Orchestrator runs the full request pipeline: rate limit, tool resolution,
// cache, moderation, execution, audit. Every failure is normalized into a
// ToolOutput; Execute never returns an error to the caller.
type Orchestrator struct {
	registry *tools.Registry
	provider ai.Provider
	cache    *Cache
	limiter  *RateLimiter
	runLog   *RunLog

	workspace WorkspaceLoader
	runStore  RunStore
	now       func() time.Time
}

func New(registry *tools.Registry, provider ai.Provider, cache *Cache, limiter *RateLimiter, runLog *RunLog) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		provider: provider,
		cache:    cache,
		limiter:  limiter,
		runLog:   runLog,
		now:      time.Now,
	}
}

func (o *Orchestrator) SetWorkspaceLoader(w WorkspaceLoader) {
	o.workspace = w
}

func (o *Orchestrator) SetRunStore(s RunStore) {
	o.runStore = s
}

func (o *Orchestrator) Registry() *tools.Registry {
	return o.registry
}

// Execute runs one request through the pipeline
func (o *Orchestrator) Execute(ctx context.Context, req Request) *domain.Response {
	if req.UserID == "" {
		return o.fail(req, "", domain.ErrPermissionDenied,
			"You need to be signed in to use the assistant.", domain.RunBlocked)
	}

	if !o.limiter.Allow(req.UserID) {
		return o.fail(req, "", domain.ErrRateLimited,
			"You have hit the request limit. Wait a minute and try again.", domain.RunBlocked)
	}

	toolName, output := o.resolveTool(ctx, req)
	if output != nil {
		return o.failOutput(req, toolName, output, domain.RunBlocked)
	}

	tool, ok := o.registry.Get(toolName)
	if !ok {
		return o.fail(req, toolName, domain.ErrUnknownTool,
			"There is no tool named \""+toolName+"\".", domain.RunBlocked)
	}

	serialized := string(req.Input)
	key := requestHash(toolName, serialized)

	if cached, ok := o.cache.Get(key); ok {
		run := o.record(req, toolName, key, cached, 0)
		return &domain.Response{
			Tool:    toolName,
			Output:  cached,
			Preview: buildPreview(toolName, cached),
			Cached:  true,
			RunID:   run.ID,
		}
	}

	if safe, reason := CheckContent(serialized); !safe {
		return o.fail(req, toolName, domain.ErrContentUnsafe, reason, domain.RunBlocked)
	}

	started := o.now()
	result, err := o.safeExecute(ctx, tool, req)
	duration := o.now().Sub(started).Milliseconds()
	if err != nil {
		log.Printf("[Assistant] Tool %s failed: %v", toolName, err)
		result = domain.Failure(domain.ErrExecution,
			"Something went wrong while running the tool. Try again in a moment.")
	}

	if result.Success {
		o.cache.Set(key, result)
	}
	run := o.record(req, toolName, key, result, duration)

	return &domain.Response{
		Tool:       toolName,
		Output:     result,
		Preview:    buildPreview(toolName, result),
		DurationMs: duration,
		RunID:      run.ID,
	}
}

// resolveTool picks the tool for the request. Explicit names win; otherwise
// the model chooses from the catalog, with a fuzzy keyword match as the net
// under a misspelled reply.
func (o *Orchestrator) resolveTool(ctx context.Context, req Request) (string, *domain.ToolOutput) {
	if req.ToolName != "" {
		return req.ToolName, nil
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return "", domain.Failure(domain.ErrNoToolMatch,
			"Tell me what you want to do, or pick a tool directly.")
	}

	var b strings.Builder
	b.WriteString("Pick exactly one tool for the request below. Reply with the tool name only, or \"none\".\nTools:\n")
	for _, info := range o.registry.Catalog() {
		b.WriteString("- " + info.Name + ": " + info.Description + "\n")
	}
	b.WriteString("\nRequest: " + req.Prompt)

	reply, err := o.provider.Complete(ctx, b.String())
	if err != nil {
		log.Printf("[Assistant] Tool resolution failed: %v", err)
		return "", domain.Failure(domain.ErrNoToolMatch,
			"I could not figure out which tool fits. Pick one directly.")
	}

	name := strings.ToLower(strings.TrimSpace(ai.StripCodeFences(reply)))
	name = strings.Trim(name, `"'.`)
	if name == "" || name == "none" {
		return "", domain.Failure(domain.ErrNoToolMatch,
			"None of the tools fit that request. Try rephrasing it.")
	}
	if _, ok := o.registry.Get(name); ok {
		return name, nil
	}
	if match, ok := fuzzy.BestMatch(name, o.registry.Names(), 2); ok {
		return match, nil
	}
	return "", domain.Failure(domain.ErrNoToolMatch,
		"None of the tools fit that request. Try rephrasing it.")
}

// safeExecute turns a panicking tool into an ordinary error
func (o *Orchestrator) safeExecute(ctx context.Context, tool tools.Tool, req Request) (result *domain.ToolOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return tool.Execute(ctx, req.Input, o.loadWorkspace(req.UserID))
}

func (o *Orchestrator) loadWorkspace(userID string) *tools.Workspace {
	if o.workspace == nil {
		return nil
	}
	ws, err := o.workspace.Load(userID)
	if err != nil {
		log.Printf("[Assistant] Workspace load failed: %v", err)
		return nil
	}
	if ws != nil {
		// The authenticated id, never one from the request body
		ws.UserID = userID
	}
	return ws
}

// record appends the audit entry to the ring and, when configured, the store
func (o *Orchestrator) record(req Request, toolName, key string, output *domain.ToolOutput, durationMs int64) domain.Run {
	status := domain.RunSuccess
	if !output.Success {
		status = domain.RunError
	}

	outputJSON, _ := json.Marshal(output)
	run := domain.Run{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Tool:       toolName,
		InputHash:  key,
		Input:      string(req.Input),
		Output:     string(outputJSON),
		Status:     status,
		ErrorCode:  output.Error,
		DurationMs: durationMs,
		CreatedAt:  o.now(),
	}
	o.runLog.Append(run)
	if o.runStore != nil {
		stored := run
		stored.Input = Sanitize(stored.Input)
		stored.Output = Sanitize(stored.Output)
		if err := o.runStore.Save(&stored); err != nil {
			log.Printf("[Assistant] Failed to persist run: %v", err)
		} else if err := o.runStore.DeleteOlderThan(run.UserID, o.runLog.Cap()); err != nil {
			log.Printf("[Assistant] Failed to trim run history: %v", err)
		}
	}
	return run
}

func (o *Orchestrator) fail(req Request, toolName, code, message string, status domain.RunStatus) *domain.Response {
	return o.failOutput(req, toolName, domain.Failure(code, message), status)
}

func (o *Orchestrator) failOutput(req Request, toolName string, output *domain.ToolOutput, status domain.RunStatus) *domain.Response {
	run := domain.Run{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Tool:      toolName,
		Input:     string(req.Input),
		Status:    status,
		ErrorCode: output.Error,
		CreatedAt: o.now(),
	}
	o.runLog.Append(run)
	return &domain.Response{
		Tool:   toolName,
		Output: output,
		RunID:  run.ID,
	}
}

// buildPreview stages the output for the UI: rewrites preview as an update
// with a before/after, item producers as a create list, the rest as info.
func buildPreview(toolName string, output *domain.ToolOutput) *domain.Preview {
	if !output.Success {
		return nil
	}

	switch toolName {
	case "rewrite":
		before, _ := output.Data["before"].(string)
		after, _ := output.Data["rewritten"].(string)
		return &domain.Preview{
			Kind:   domain.PreviewUpdate,
			Title:  "Rewritten text",
			Before: before,
			After:  after,
		}
	case "generate_items":
		return &domain.Preview{
			Kind:  domain.PreviewCreate,
			Title: "Generated items",
			Items: stringSlice(output.Data["items"]),
		}
	case "extract_fields":
		title, _ := output.Data["title"].(string)
		if title == "" {
			title, _ = output.Data["name"].(string)
		}
		return &domain.Preview{
			Kind:  domain.PreviewCreate,
			Title: "Extracted fields",
			Items: []string{title},
		}
	default:
		return &domain.Preview{
			Kind:  domain.PreviewInfo,
			Title: output.HumanReadable,
		}
	}
}

func stringSlice(v interface{}) []string {
	switch items := v.(type) {
	case []string:
		return items
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
