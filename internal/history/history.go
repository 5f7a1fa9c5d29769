package history

import (
	"context"
	"time"
)

// Entry is one recorded question/answer cycle.
type Entry struct {
	ID         int64
	Question   string
	SQL        *string
	Outcome    string
	Error      *string
	DurationMs int64
	RowCount   int
	CreatedAt  time.Time
}

type ListFilter struct {
	Outcome string
	Limit   int
}

// Recorder persists pipeline outcomes. Recording is best effort; callers must
// not fail a request when Record returns an error.
type Recorder interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}
