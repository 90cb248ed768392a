package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/pkg/ai"
)

type GenerateItemsTool struct {
	provider ai.Provider
}

func NewGenerateItemsTool(provider ai.Provider) *GenerateItemsTool {
	return &GenerateItemsTool{provider: provider}
}

func (t *GenerateItemsTool) Name() string { return "generate_items" }

func (t *GenerateItemsTool) Description() string {
	return "Generate tasks, subtasks, checklists, briefs or meeting notes from a prompt"
}

type generateInput struct {
	Prompt   string `json:"prompt"`
	ItemType string `json:"item_type"`
	Count    int    `json:"count"`
}

type generateResult struct {
	Items         []string `json:"items"`
	GeneratedText string   `json:"generated_text"`
}

var generateItemTypes = map[string]bool{
	"tasks":         true,
	"subtasks":      true,
	"checklist":     true,
	"brief":         true,
	"meeting_notes": true,
}

func (t *GenerateItemsTool) Execute(ctx context.Context, input json.RawMessage, _ *Workspace) (*domain.ToolOutput, error) {
	var in generateInput
	if err := json.Unmarshal(input, &in); err != nil {
		return domain.Failure(domain.ErrParse, "Could not read the generation input"), nil
	}
	if strings.TrimSpace(in.Prompt) == "" {
		return domain.Failure(domain.ErrEmptyPrompt, "Describe what to generate first."), nil
	}
	if !generateItemTypes[in.ItemType] {
		in.ItemType = "tasks"
	}
	if in.Count <= 0 {
		in.Count = 5
	}

	prompt := fmt.Sprintf(`Generate %d %s for the following request. Put each item in "items" as a
short imperative line; for briefs and meeting notes also fill "generated_text"
with the long-form version.
Return ONLY valid JSON with this shape:
{"items": ["..."], "generated_text": "..."}

Request:
%s`, in.Count, strings.ReplaceAll(in.ItemType, "_", " "), in.Prompt)

	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := ai.ExtractJSONObject(reply)
	if !ok {
		return domain.Failure(domain.ErrParse, "Could not find generated items in the reply. Try again."), nil
	}

	var result generateResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.Failure(domain.ErrParse, "The generated items came back malformed. Try again."), nil
	}
	if len(result.Items) == 0 && result.GeneratedText == "" {
		return domain.Failure(domain.ErrParse, "Nothing was generated. Try a more specific prompt."), nil
	}
	if len(result.Items) > in.Count {
		result.Items = result.Items[:in.Count]
	}

	return &domain.ToolOutput{
		Success: true,
		Data: map[string]interface{}{
			"item_type":      in.ItemType,
			"items":          result.Items,
			"generated_text": result.GeneratedText,
		},
		HumanReadable: renderGenerated(in.ItemType, result),
		Confidence:    0.85,
	}, nil
}

func renderGenerated(itemType string, r generateResult) string {
	if len(r.Items) == 0 {
		return r.GeneratedText
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d %s:\n", len(r.Items), strings.ReplaceAll(itemType, "_", " "))
	for _, item := range r.Items {
		b.WriteString("- " + item + "\n")
	}
	if r.GeneratedText != "" {
		b.WriteString("\n" + r.GeneratedText)
	}
	return b.String()
}
