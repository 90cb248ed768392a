package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/pkg/ai"
)

type SummarizeTool struct {
	provider ai.Provider
}

func NewSummarizeTool(provider ai.Provider) *SummarizeTool {
	return &SummarizeTool{provider: provider}
}

func (t *SummarizeTool) Name() string { return "summarize" }

func (t *SummarizeTool) Description() string {
	return "Summarize a piece of text into a short summary with key points, next actions and decisions"
}

type summarizeInput struct {
	Content   string `json:"content"`
	Format    string `json:"format"`
	MaxLength int    `json:"max_length"`
}

type summarizeResult struct {
	Summary     string   `json:"summary"`
	KeyPoints   []string `json:"key_points"`
	NextActions []string `json:"next_actions"`
	Decisions   []string `json:"decisions"`
}

func (t *SummarizeTool) Execute(ctx context.Context, input json.RawMessage, _ *Workspace) (*domain.ToolOutput, error) {
	var in summarizeInput
	if err := json.Unmarshal(input, &in); err != nil {
		return domain.Failure(domain.ErrParse, "Could not read the summarize input"), nil
	}
	if strings.TrimSpace(in.Content) == "" {
		return domain.Failure(domain.ErrEmptyContent, "There is nothing to summarize. Paste or select some text first."), nil
	}
	if in.Format == "" {
		in.Format = "paragraph"
	}
	if in.MaxLength <= 0 {
		in.MaxLength = 150
	}

	prompt := fmt.Sprintf(`Summarize the following text as a %s of at most %d words.
Return ONLY valid JSON with this shape:
{"summary": "...", "key_points": ["..."], "next_actions": ["..."], "decisions": ["..."]}

Text:
%s`, in.Format, in.MaxLength, in.Content)

	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := ai.ExtractJSONObject(reply)
	if !ok {
		// the reply still reads as a summary, keep it at low confidence
		return &domain.ToolOutput{
			Success:       true,
			Data:          map[string]interface{}{"summary": strings.TrimSpace(ai.StripCodeFences(reply))},
			HumanReadable: strings.TrimSpace(ai.StripCodeFences(reply)),
			Confidence:    0.3,
			Assumptions:   []string{"The model did not return structured output"},
		}, nil
	}

	var result summarizeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.Failure(domain.ErrParse, "The summary came back in an unexpected shape. Try again."), nil
	}

	return &domain.ToolOutput{
		Success: true,
		Data: map[string]interface{}{
			"summary":      result.Summary,
			"key_points":   result.KeyPoints,
			"next_actions": result.NextActions,
			"decisions":    result.Decisions,
		},
		HumanReadable: renderSummary(result),
		Confidence:    0.9,
	}, nil
}

func renderSummary(r summarizeResult) string {
	var b strings.Builder
	b.WriteString(r.Summary)
	writeBulletSection(&b, "Key points", r.KeyPoints)
	writeBulletSection(&b, "Next actions", r.NextActions)
	writeBulletSection(&b, "Decisions", r.Decisions)
	return b.String()
}

func writeBulletSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString("\n\n**" + title + "**\n")
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}
