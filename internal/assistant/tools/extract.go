package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/pkg/ai"
)

type ExtractFieldsTool struct {
	provider ai.Provider
}

func NewExtractFieldsTool(provider ai.Provider) *ExtractFieldsTool {
	return &ExtractFieldsTool{provider: provider}
}

func (t *ExtractFieldsTool) Name() string { return "extract_fields" }

func (t *ExtractFieldsTool) Description() string {
	return "Extract structured task, project, client or event fields from free-form text"
}

type extractInput struct {
	Text       string `json:"text"`
	TargetType string `json:"target_type"`
}

var extractShapes = map[string]string{
	"task":    `{"title": "...", "category": "product|content|money|admin|meeting", "priority": "high|medium|low", "start": "RFC3339 or empty", "duration_minutes": 0, "confidence": 0.0, "assumptions": ["..."]}`,
	"project": `{"title": "...", "client_name": "...", "price": 0, "deadline": "RFC3339 or empty", "tags": ["..."], "confidence": 0.0, "assumptions": ["..."]}`,
	"client":  `{"name": "...", "email": "...", "notes": "...", "confidence": 0.0, "assumptions": ["..."]}`,
	"event":   `{"title": "...", "start": "RFC3339 or empty", "duration_minutes": 0, "attendees": ["..."], "confidence": 0.0, "assumptions": ["..."]}`,
}

func (t *ExtractFieldsTool) Execute(ctx context.Context, input json.RawMessage, _ *Workspace) (*domain.ToolOutput, error) {
	var in extractInput
	if err := json.Unmarshal(input, &in); err != nil {
		return domain.Failure(domain.ErrParse, "Could not read the extraction input"), nil
	}
	if strings.TrimSpace(in.Text) == "" {
		return domain.Failure(domain.ErrEmptyText, "There is nothing to extract from. Provide the text first."), nil
	}
	shape, ok := extractShapes[in.TargetType]
	if !ok {
		return domain.Failure(domain.ErrParse, fmt.Sprintf("Unknown extraction target %q. Use task, project, client or event.", in.TargetType)), nil
	}

	prompt := fmt.Sprintf(`Extract a %s from the following text. Guess missing fields conservatively
and list every guess in "assumptions". Set "confidence" between 0 and 1.
Return ONLY valid JSON with this shape:
%s

Text:
%s`, in.TargetType, shape, in.Text)

	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := ai.ExtractJSONObject(reply)
	if !ok {
		return domain.Failure(domain.ErrParse, "Could not find structured fields in the reply. Try rephrasing the text."), nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.Failure(domain.ErrParse, "The extracted fields came back malformed. Try again."), nil
	}

	confidence := 0.5
	if c, ok := fields["confidence"].(float64); ok {
		confidence = c
		delete(fields, "confidence")
	}
	var assumptions []string
	if raw, ok := fields["assumptions"].([]interface{}); ok {
		for _, a := range raw {
			if s, ok := a.(string); ok {
				assumptions = append(assumptions, s)
			}
		}
		delete(fields, "assumptions")
	}

	title, _ := fields["title"].(string)
	if title == "" {
		title, _ = fields["name"].(string)
	}
	fields["target_type"] = in.TargetType

	return &domain.ToolOutput{
		Success:       true,
		Data:          fields,
		HumanReadable: renderExtraction(in.TargetType, title, fields),
		Confidence:    confidence,
		Assumptions:   assumptions,
	}, nil
}

func renderExtraction(targetType, title string, fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "title" || key == "name" || key == "target_type" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "Extracted %s: **%s**\n", targetType, title)
	for _, key := range keys {
		if fields[key] == nil || fields[key] == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %v\n", key, fields[key])
	}
	return b.String()
}
