package pipeline

import (
	"regexp"
	"strings"
)

// UnsupportedSentinel is the marker the model emits when a question cannot be
// mapped to the warehouse schema.
const UnsupportedSentinel = "UNSUPPORTED"

var (
	fenceOpenPattern  = regexp.MustCompile("^```[a-zA-Z0-9]*[ \t]*\n?")
	fenceClosePattern = regexp.MustCompile("\\s*```$")
	sqlLinePattern    = regexp.MustCompile(`(?i)^\s*sql\s*\n`)
	sqlLabelPattern   = regexp.MustCompile(`(?i)^\s*SQL\s*:\s*`)
)

// CleanSQL normalizes raw model output into a single semicolon-terminated
// statement, or the sentinel when the model declined. Models wrap SQL in
// markdown fences, prefix language labels, and emit trailing commentary or
// extra statements; this is a defensive text transform, not a parser.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.Contains(strings.ToUpper(s), UnsupportedSentinel) {
		return UnsupportedSentinel
	}

	s = fenceOpenPattern.ReplaceAllString(s, "")
	s = fenceClosePattern.ReplaceAllString(s, "")
	s = sqlLinePattern.ReplaceAllString(s, "")
	s = sqlLabelPattern.ReplaceAllString(s, "")

	// Only the first statement is ever executed.
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			return part + ";"
		}
	}
	return ""
}
