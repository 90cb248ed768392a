package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/pkg/ai"
	"flowdesk-backend/pkg/fuzzy"
)

type ClassifyTagsTool struct {
	provider ai.Provider
}

func NewClassifyTagsTool(provider ai.Provider) *ClassifyTagsTool {
	return &ClassifyTagsTool{provider: provider}
}

func (t *ClassifyTagsTool) Name() string { return "classify_tags" }

func (t *ClassifyTagsTool) Description() string {
	return "Suggest tags for a piece of content, preferring the workspace's existing tags"
}

type classifyInput struct {
	Content      string   `json:"content"`
	ExistingTags []string `json:"existing_tags"`
	MaxTags      int      `json:"max_tags"`
}

type suggestedTag struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

type classifyResult struct {
	SuggestedTags []suggestedTag `json:"suggested_tags"`
	NewTags       []string       `json:"new_tags"`
}

func (t *ClassifyTagsTool) Execute(ctx context.Context, input json.RawMessage, _ *Workspace) (*domain.ToolOutput, error) {
	var in classifyInput
	if err := json.Unmarshal(input, &in); err != nil {
		return domain.Failure(domain.ErrParse, "Could not read the tagging input"), nil
	}
	if strings.TrimSpace(in.Content) == "" {
		return domain.Failure(domain.ErrEmptyContent, "There is nothing to tag. Provide the content first."), nil
	}
	if in.MaxTags <= 0 {
		in.MaxTags = 5
	}

	existing := "none"
	if len(in.ExistingTags) > 0 {
		existing = strings.Join(in.ExistingTags, ", ")
	}

	prompt := fmt.Sprintf(`Suggest at most %d tags for the following content. Prefer the existing
tags when they fit; put genuinely new ones in "new_tags" as well.
Existing tags: %s
Return ONLY valid JSON with this shape:
{"suggested_tags": [{"tag": "...", "confidence": 0.0}], "new_tags": ["..."]}

Content:
%s`, in.MaxTags, existing, in.Content)

	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := ai.ExtractJSONObject(reply)
	if !ok {
		return domain.Failure(domain.ErrParse, "Could not find tag suggestions in the reply. Try again."), nil
	}

	var result classifyResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.Failure(domain.ErrParse, "The tag suggestions came back malformed. Try again."), nil
	}
	if len(result.SuggestedTags) > in.MaxTags {
		result.SuggestedTags = result.SuggestedTags[:in.MaxTags]
	}

	tags := make([]string, 0, len(result.SuggestedTags))
	for i, s := range result.SuggestedTags {
		result.SuggestedTags[i].Tag = canonicalTag(s.Tag, in.ExistingTags)
		tags = append(tags, result.SuggestedTags[i].Tag)
	}

	return &domain.ToolOutput{
		Success: true,
		Data: map[string]interface{}{
			"suggested_tags": result.SuggestedTags,
			"new_tags":       result.NewTags,
		},
		HumanReadable: "Suggested tags: " + strings.Join(tags, ", "),
		Confidence:    0.85,
	}, nil
}

// canonicalTag folds a suggestion onto an existing tag when it is only a
// near-duplicate (case, accents, a one-letter typo, or a shared stem), so
// the workspace vocabulary stays stable.
func canonicalTag(tag string, existing []string) string {
	for _, e := range existing {
		if fuzzy.FuzzyMatch(tag, e, 1) {
			return e
		}
	}
	return tag
}
