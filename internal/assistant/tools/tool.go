package tools

import (
	"context"
	"encoding/json"
	"sort"

	"flowdesk-backend/internal/assistant/domain"
	clientdomain "flowdesk-backend/internal/client/domain"
	projectdomain "flowdesk-backend/internal/project/domain"
	taskdomain "flowdesk-backend/internal/task/domain"
)

// Workspace is the read-only data context tools may consult. Only
// answer_question looks at it today. UserID is the authenticated owner,
// set by the orchestrator; tools must scope lookups with it rather than
// trusting ids in the request input.
type Workspace struct {
	UserID   string
	Tasks    []*taskdomain.Task
	Projects []*projectdomain.Project
	Clients  []*clientdomain.Client
}

// Tool is one capability of the assistant. Execute returns an error only for
// unexpected failures; expected ones (empty input, unparseable reply) come
// back inside the ToolOutput so the caller always has something to display.
type Tool interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input json.RawMessage, ws *Workspace) (*domain.ToolOutput, error)
}

// Registry holds the tool catalog. It is built once at startup and read-only
// afterwards, so lookups need no locking.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.tools[t.Name()] = t
	}
	return r
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the catalog in stable order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog returns name/description pairs for the tool-picking prompt
func (r *Registry) Catalog() []ToolInfo {
	infos := make([]ToolInfo, 0, len(r.tools))
	for _, name := range r.Names() {
		infos = append(infos, ToolInfo{Name: name, Description: r.tools[name].Description()})
	}
	return infos
}

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
