package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/pkg/ai"
)

type RewriteTool struct {
	provider ai.Provider
}

func NewRewriteTool(provider ai.Provider) *RewriteTool {
	return &RewriteTool{provider: provider}
}

func (t *RewriteTool) Name() string { return "rewrite" }

func (t *RewriteTool) Description() string {
	return "Rewrite a piece of text in a given tone, optionally following an extra instruction"
}

type rewriteInput struct {
	Text        string `json:"text"`
	Tone        string `json:"tone"`
	Instruction string `json:"instruction"`
}

type rewriteResult struct {
	Rewritten string `json:"rewritten"`
}

func (t *RewriteTool) Execute(ctx context.Context, input json.RawMessage, _ *Workspace) (*domain.ToolOutput, error) {
	var in rewriteInput
	if err := json.Unmarshal(input, &in); err != nil {
		return domain.Failure(domain.ErrParse, "Could not read the rewrite input"), nil
	}
	if strings.TrimSpace(in.Text) == "" {
		return domain.Failure(domain.ErrEmptyText, "There is nothing to rewrite. Provide the text first."), nil
	}
	if in.Tone == "" {
		in.Tone = "professional"
	}

	prompt := fmt.Sprintf("Rewrite the following text in a %s tone.", in.Tone)
	if in.Instruction != "" {
		prompt += " Also: " + in.Instruction + "."
	}
	prompt += fmt.Sprintf(`
Return ONLY valid JSON with this shape:
{"rewritten": "..."}

Text:
%s`, in.Text)

	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	rewritten := ""
	if raw, ok := ai.ExtractJSONObject(reply); ok {
		var result rewriteResult
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			rewritten = result.Rewritten
		}
	}

	confidence := 0.9
	var assumptions []string
	if rewritten == "" {
		// plain-text replies are usable for a rewrite, just less trustworthy
		rewritten = strings.TrimSpace(ai.StripCodeFences(reply))
		confidence = 0.3
		assumptions = []string{"The model did not return structured output"}
	}
	if rewritten == "" {
		return domain.Failure(domain.ErrParse, "The rewrite came back empty. Try again."), nil
	}

	return &domain.ToolOutput{
		Success: true,
		Data: map[string]interface{}{
			"before":    in.Text,
			"rewritten": rewritten,
		},
		HumanReadable: rewritten,
		Confidence:    confidence,
		Assumptions:   assumptions,
	}, nil
}
