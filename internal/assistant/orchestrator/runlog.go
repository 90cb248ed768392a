package orchestrator

import (
	"regexp"
	"sync"
	"unicode/utf8"

	"flowdesk-backend/internal/assistant/domain"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
)

const maxLoggedChars = 1000

// RunLog is an in-process ring of the most recent runs, kept for diagnostics.
// Inputs and outputs are redacted and truncated before they are stored.
type RunLog struct {
	mu   sync.Mutex
	runs []domain.Run
	cap  int
}

func NewRunLog(capacity int) *RunLog {
	return &RunLog{cap: capacity}
}

func (l *RunLog) Append(run domain.Run) {
	run.Input = Sanitize(run.Input)
	run.Output = Sanitize(run.Output)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	if len(l.runs) > l.cap {
		l.runs = l.runs[len(l.runs)-l.cap:]
	}
}

// Cap returns the ring capacity. The durable run store is trimmed to the
// same depth per user.
func (l *RunLog) Cap() int { return l.cap }

// Recent returns up to n runs, newest first
func (l *RunLog) Recent(n int) []domain.Run {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.runs) {
		n = len(l.runs)
	}
	out := make([]domain.Run, n)
	for i := 0; i < n; i++ {
		out[i] = l.runs[len(l.runs)-1-i]
	}
	return out
}

// Sanitize redacts email and phone shaped substrings and truncates the rest
func Sanitize(s string) string {
	s = emailPattern.ReplaceAllString(s, "[email]")
	s = phonePattern.ReplaceAllString(s, "[phone]")
	if len(s) > maxLoggedChars {
		// Back up to a rune boundary so the cut never leaves a partial
		// UTF-8 sequence in the stored record.
		cut := maxLoggedChars
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}
