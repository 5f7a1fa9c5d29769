package pipeline

import (
	"errors"
	"regexp"
)

// ErrNotReadOnly is returned for any statement that is not a SELECT. The wording
// is user-visible through the response error field.
var ErrNotReadOnly = errors.New("Only SELECT statements are allowed.")

var selectPattern = regexp.MustCompile(`(?i)^\s*select\b`)

// EnforceSelectOnly is the sole defense against destructive statements and runs
// on every generated statement before execution.
func EnforceSelectOnly(sql string) error {
	if !selectPattern.MatchString(sql) {
		return ErrNotReadOnly
	}
	return nil
}
