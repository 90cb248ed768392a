package domain

import "time"

// Error codes carried inside a failed ToolOutput. Failures are data, not
// panics: every path out of the orchestrator is a ToolOutput the UI can show.
const (
	ErrRateLimited      = "RATE_LIMITED"
	ErrNoToolMatch      = "NO_TOOL_MATCH"
	ErrUnknownTool      = "UNKNOWN_TOOL"
	ErrContentUnsafe    = "CONTENT_UNSAFE"
	ErrExecution        = "EXECUTION_ERROR"
	ErrParse            = "PARSE_ERROR"
	ErrEmptyContent     = "EMPTY_CONTENT"
	ErrEmptyText        = "EMPTY_TEXT"
	ErrEmptyPrompt      = "EMPTY_PROMPT"
	ErrEmptyQuestion    = "EMPTY_QUESTION"
	ErrPermissionDenied = "PERMISSION_DENIED"
)

// ToolOutput is the result of one tool execution, success or not
type ToolOutput struct {
	Success       bool                   `json:"success"`
	Data          map[string]interface{} `json:"data,omitempty"`
	HumanReadable string                 `json:"human_readable"`
	Confidence    float64                `json:"confidence"` // 0 to 1
	Assumptions   []string               `json:"assumptions,omitempty"`
	Error         string                 `json:"error,omitempty"` // one of the Err* codes
}

// Failure builds an error output with a displayable one-liner
func Failure(code, message string) *ToolOutput {
	return &ToolOutput{
		Success:       false,
		HumanReadable: message,
		Error:         code,
	}
}

// RunStatus labels an audit record
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	RunBlocked RunStatus = "blocked"
)

// Run is the audit wrapper around one orchestrated request
type Run struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	UserID     string    `json:"user_id" gorm:"index;not null"`
	Tool       string    `json:"tool"`
	InputHash  string    `json:"input_hash"`
	Input      string    `json:"input"`  // sanitized before storage
	Output     string    `json:"output"` // sanitized before storage
	Status     RunStatus `json:"status"`
	ErrorCode  string    `json:"error_code,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// PreviewKind tells the UI how to stage a tool result
type PreviewKind string

const (
	PreviewUpdate PreviewKind = "update"
	PreviewCreate PreviewKind = "create"
	PreviewInfo   PreviewKind = "info"
)

// Preview is the UI staging descriptor built from a tool output
type Preview struct {
	Kind   PreviewKind `json:"kind"`
	Title  string      `json:"title"`
	Before string      `json:"before,omitempty"` // update previews
	After  string      `json:"after,omitempty"`
	Items  []string    `json:"items,omitempty"` // create previews
}

// Response is what the orchestrator hands back for every request
type Response struct {
	Tool       string      `json:"tool,omitempty"`
	Output     *ToolOutput `json:"output"`
	Preview    *Preview    `json:"preview,omitempty"`
	Cached     bool        `json:"cached"`
	DurationMs int64       `json:"duration_ms"`
	RunID      string      `json:"run_id,omitempty"`
}
