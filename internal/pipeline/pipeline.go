package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harborlens/harborlens/internal/history"
	"github.com/harborlens/harborlens/internal/llm"
	"github.com/harborlens/harborlens/internal/observability"
)

const (
	refusalAnswer = "Sorry, I cannot answer that question based on the available data."
	failureAnswer = "An error occurred while processing your question."

	defaultTopK = 5
)

// Terminal outcomes of one request, used for metrics and the query history.
const (
	OutcomeAnswered           = "answered"
	OutcomeUnsupported        = "unsupported"
	OutcomeInvalidQuestion    = "invalid_question"
	OutcomeGenerationFailed   = "generation_failed"
	OutcomeSanitizationFailed = "sanitization_failed"
	OutcomeRejected           = "rejected"
	OutcomeExecutionFailed    = "execution_failed"
)

// SchemaProvider yields the textual schema rendering used for prompt grounding.
type SchemaProvider interface {
	DescribeSchema(ctx context.Context) (string, error)
	DialectName() string
}

// Executor runs a single read-only statement against the warehouse.
type Executor interface {
	Execute(ctx context.Context, sql string) (columns []string, rows [][]any, err error)
}

type Request struct {
	Question    string `json:"question"`
	ReturnTable bool   `json:"return_table"`
	Limit       int    `json:"limit,omitempty"`
}

// Response is the uniform terminal shape for every request. Answer is always
// populated; Error is nil only for answered and unsupported outcomes.
type Response struct {
	SQL     *string  `json:"sql"`
	Answer  string   `json:"answer"`
	Error   *string  `json:"error"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// Pipeline orchestrates generate → sanitize → safety-check → limit → execute →
// summarize for one question. All fields are read-only after construction, so a
// single Pipeline is safe for concurrent requests.
type Pipeline struct {
	Schema  SchemaProvider
	Model   llm.Client
	Store   Executor
	Prompt  *PromptTemplate
	History history.Recorder
	TopK    int
	Logger  *slog.Logger
}

// stepFailure tags an error with the pipeline stage that produced it. The
// uniform user-facing collapse happens once, in Process.
type stepFailure struct {
	outcome string
	err     error
}

func (f *stepFailure) Error() string {
	return f.err.Error()
}

func (p *Pipeline) Process(ctx context.Context, req Request) Response {
	start := time.Now()

	response, outcome, rowCount := p.run(ctx, req)
	observability.ObserveQuestionOutcome(outcome)
	p.record(ctx, req.Question, response, outcome, rowCount, time.Since(start))
	return response
}

func (p *Pipeline) run(ctx context.Context, req Request) (Response, string, int) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		response, outcome := p.failureResponse(ctx, question, &stepFailure{
			outcome: OutcomeInvalidQuestion,
			err:     errors.New("question is required"),
		})
		return response, outcome, 0
	}

	raw, err := p.generate(ctx, question)
	if err != nil {
		response, outcome := p.failureResponse(ctx, question, &stepFailure{outcome: OutcomeGenerationFailed, err: err})
		return response, outcome, 0
	}

	sqlText := CleanSQL(raw)
	if sqlText == UnsupportedSentinel {
		return Response{
			SQL:     nil,
			Answer:  refusalAnswer,
			Error:   nil,
			Columns: []string{},
			Rows:    [][]any{},
		}, OutcomeUnsupported, 0
	}
	if sqlText == "" {
		response, outcome := p.failureResponse(ctx, question, &stepFailure{
			outcome: OutcomeSanitizationFailed,
			err:     errors.New("generated SQL was empty after sanitization"),
		})
		return response, outcome, 0
	}

	if err := EnforceSelectOnly(sqlText); err != nil {
		response, outcome := p.failureResponse(ctx, question, &stepFailure{outcome: OutcomeRejected, err: err})
		return response, outcome, 0
	}

	sqlText = ApplyLimit(sqlText, req.Limit)

	columns, rows, err := p.Store.Execute(ctx, sqlText)
	if err != nil {
		response, outcome := p.failureResponse(ctx, question, &stepFailure{outcome: OutcomeExecutionFailed, err: err})
		return response, outcome, 0
	}

	var answer string
	if req.ReturnTable {
		answer = p.summarizeTable(ctx, question, columns, rows)
	} else {
		answer = formatRowsForAnswer(rows)
	}

	response := Response{
		SQL:    &sqlText,
		Answer: answer,
	}
	if req.ReturnTable {
		if columns == nil {
			columns = []string{}
		}
		if rows == nil {
			rows = [][]any{}
		}
		response.Columns = columns
		response.Rows = rows
	}
	return response, OutcomeAnswered, len(rows)
}

func (p *Pipeline) generate(ctx context.Context, question string) (string, error) {
	schema, err := p.Schema.DescribeSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("describe schema: %w", err)
	}

	topK := p.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	prompt, err := p.Prompt.Render(PromptData{
		Question: question,
		Schema:   schema,
		Dialect:  p.Schema.DialectName(),
		TopK:     topK,
	})
	if err != nil {
		return "", err
	}

	start := time.Now()
	raw, err := p.Model.Complete(ctx, prompt)
	observability.ObserveModelLatency("generate", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("generate sql: %w", err)
	}
	return raw, nil
}

// failureResponse collapses every failure kind into the one user-facing shape:
// null SQL, the generic message, and the detail preserved in the error field.
func (p *Pipeline) failureResponse(ctx context.Context, question string, failure *stepFailure) (Response, string) {
	p.logger().ErrorContext(ctx, "question processing failed",
		slog.String("question", question),
		slog.String("outcome", failure.outcome),
		slog.Any("error", failure.err),
	)
	detail := failure.err.Error()
	return Response{
		SQL:    nil,
		Answer: failureAnswer,
		Error:  &detail,
	}, failure.outcome
}

func (p *Pipeline) record(ctx context.Context, question string, response Response, outcome string, rowCount int, elapsed time.Duration) {
	if p.History == nil {
		return
	}
	entry := history.Entry{
		Question:   strings.TrimSpace(question),
		SQL:        response.SQL,
		Outcome:    outcome,
		Error:      response.Error,
		DurationMs: elapsed.Milliseconds(),
		RowCount:   rowCount,
	}
	if _, err := p.History.Record(ctx, entry); err != nil {
		p.logger().WarnContext(ctx, "query history record failed", slog.Any("error", err))
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
