package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"flowdesk-backend/internal/assistant/domain"
	"flowdesk-backend/pkg/ai"
)

// NoteSearcher finds entity ids semantically related to a query, scoped
// to one user. Satisfied by chroma.NoteIndex.
type NoteSearcher interface {
	Search(ctx context.Context, userID, query string, limit int) ([]string, []float64, error)
}

type AnswerQuestionTool struct {
	provider ai.Provider
	notes    NoteSearcher // optional semantic index over workspace notes
}

func NewAnswerQuestionTool(provider ai.Provider) *AnswerQuestionTool {
	return &AnswerQuestionTool{provider: provider}
}

func (t *AnswerQuestionTool) SetNoteIndex(notes NoteSearcher) {
	t.notes = notes
}

func (t *AnswerQuestionTool) Name() string { return "answer_question" }

func (t *AnswerQuestionTool) Description() string {
	return "Answer a question about the user's tasks, projects and clients"
}

type answerInput struct {
	Question string `json:"question"`
}

type answerResult struct {
	Answer       string   `json:"answer"`
	Sources      []string `json:"sources"`
	Confidence   float64  `json:"confidence"`
	CannotAnswer bool     `json:"cannot_answer"`
}

func (t *AnswerQuestionTool) Execute(ctx context.Context, input json.RawMessage, ws *Workspace) (*domain.ToolOutput, error) {
	var in answerInput
	if err := json.Unmarshal(input, &in); err != nil {
		return domain.Failure(domain.ErrParse, "Could not read the question"), nil
	}
	if strings.TrimSpace(in.Question) == "" {
		return domain.Failure(domain.ErrEmptyQuestion, "Ask a question first."), nil
	}

	dataContext := renderWorkspace(ws)
	noteSources := t.searchNotes(ctx, in.Question, ws)

	prompt := fmt.Sprintf(`Answer the question using ONLY the workspace data below. Cite the ids of
the entries you used in "sources". If the data cannot answer the question,
set "cannot_answer" to true and say so in "answer".
Return ONLY valid JSON with this shape:
{"answer": "...", "sources": ["..."], "confidence": 0.0, "cannot_answer": false}

Workspace data:
%s

Question: %s`, dataContext, in.Question)

	reply, err := t.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw, ok := ai.ExtractJSONObject(reply)
	if !ok {
		return domain.Failure(domain.ErrParse, "The answer came back in an unexpected shape. Try again."), nil
	}

	var result answerResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return domain.Failure(domain.ErrParse, "The answer came back malformed. Try again."), nil
	}

	sources := append(result.Sources, noteSources...)

	if result.CannotAnswer {
		return &domain.ToolOutput{
			Success:       true,
			Data:          map[string]interface{}{"answer": result.Answer, "cannot_answer": true},
			HumanReadable: result.Answer,
			Confidence:    0,
		}, nil
	}

	return &domain.ToolOutput{
		Success: true,
		Data: map[string]interface{}{
			"answer":  result.Answer,
			"sources": sources,
		},
		HumanReadable: result.Answer,
		Confidence:    result.Confidence,
	}, nil
}

// searchNotes adds semantically related note ids as extra sources, scoped
// to the authenticated workspace owner. The index is optional; failures
// only cost the extra citations.
func (t *AnswerQuestionTool) searchNotes(ctx context.Context, question string, ws *Workspace) []string {
	if t.notes == nil || ws == nil || ws.UserID == "" {
		return nil
	}
	ids, _, err := t.notes.Search(ctx, ws.UserID, question, 3)
	if err != nil {
		log.Printf("[Assistant] Note search failed: %v", err)
		return nil
	}
	return ids
}

func renderWorkspace(ws *Workspace) string {
	if ws == nil {
		return "(empty workspace)"
	}

	var b strings.Builder

	b.WriteString("Tasks:\n")
	for _, t := range ws.Tasks {
		if t == nil {
			continue
		}
		status := "open"
		if t.Done {
			status = "done"
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %s, starts %s, %d min)\n",
			t.ID, t.Title, status, t.Category, t.Start.Format("2006-01-02 15:04"), t.DurationMinutes)
	}

	b.WriteString("Projects:\n")
	for _, p := range ws.Projects {
		if p == nil {
			continue
		}
		deadline := "no deadline"
		if p.Deadline != nil {
			deadline = "due " + p.Deadline.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %.2f, %d%%, %s, client %s)\n",
			p.ID, p.Title, p.Status, p.Price, p.Progress, deadline, p.ClientName)
	}

	b.WriteString("Clients:\n")
	for _, c := range ws.Clients {
		if c == nil {
			continue
		}
		lastContact := "never contacted"
		if c.LastContactAt != nil {
			lastContact = "last contact " + c.LastContactAt.Format("2006-01-02")
		}
		fmt.Fprintf(&b, "- [%s] %s (%s, %s)\n", c.ID, c.Name, c.Status, lastContact)
	}

	return b.String()
}
