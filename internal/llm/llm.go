package llm

import "context"

// Client is the completion surface the pipeline depends on. Implementations
// must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
