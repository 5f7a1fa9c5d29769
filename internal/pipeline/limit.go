package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

var limitPattern = regexp.MustCompile(`(?i)\blimit\s+\d+\b`)

// ApplyLimit appends a LIMIT clause when one is requested and the statement
// does not already carry one. An existing model-chosen bound is never
// overridden, so the transform is idempotent.
func ApplyLimit(sql string, limit int) string {
	if limit <= 0 {
		return sql
	}
	if limitPattern.MatchString(sql) {
		return sql
	}
	trimmed := strings.TrimRight(strings.TrimSpace(sql), "; \t\n")
	return fmt.Sprintf("%s LIMIT %d;", trimmed, limit)
}
