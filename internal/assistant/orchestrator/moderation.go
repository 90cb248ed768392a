package orchestrator

import "regexp"

// unsafePatterns match secret and PII shaped substrings that must never be
// sent to the remote model. Matching happens on the serialized input before
// any remote call.
var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`),
	regexp.MustCompile(`(?i)api[_\- ]?key\s*[:=]\s*\S+`),
	regexp.MustCompile(`(?i)secret\s*[:=]\s*\S+`),
	regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),                  // SSN
	regexp.MustCompile(`\b(?:\d[ \-]*?){13,16}\b`),               // credit card number
	regexp.MustCompile(`(?i)\b(?:cvv|cvc)\s*[:=]?\s*\d{3,4}\b`),
}

// CheckContent reports whether the input looks safe to send out. The reason
// is a displayable one-liner, empty when safe.
func CheckContent(serialized string) (safe bool, reason string) {
	for _, p := range unsafePatterns {
		if p.MatchString(serialized) {
			return false, "The input looks like it contains a credential or personal identifier. Remove it and try again."
		}
	}
	return true, ""
}
