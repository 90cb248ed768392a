package ai

import "strings"

// StripCodeFences removes a leading/trailing markdown code fence from a
// model reply. Models wrap JSON in ```json fences no matter how firmly
// the prompt forbids it.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}

// ExtractJSONObject returns the first balanced {...} block in text.
// The scan is string-aware so braces inside JSON string values don't
// unbalance the count. Returns false when no complete object is found.
func ExtractJSONObject(text string) (string, bool) {
	return extractBalanced(StripCodeFences(text), '{', '}')
}

// ExtractJSONArray returns the first balanced [...] block in text.
func ExtractJSONArray(text string) (string, bool) {
	return extractBalanced(StripCodeFences(text), '[', ']')
}

func extractBalanced(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
