package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harborlens/harborlens/internal/observability"
)

const (
	noDataMessage   = "There was no data to summarize."
	summaryFallback = "Here is the data as requested."

	// Never send an unbounded table to the model.
	maxSummaryRows = 30
)

// summarizeTable renders the result as a markdown table and asks the model for
// a short narrative. Summarization failure never fails the request; the fixed
// fallback is returned instead.
func (p *Pipeline) summarizeTable(ctx context.Context, question string, columns []string, rows [][]any) string {
	if len(columns) == 0 || len(rows) == 0 {
		return noDataMessage
	}

	prompt := buildSummaryPrompt(question, columns, rows)
	start := time.Now()
	response, err := p.Model.Complete(ctx, prompt)
	observability.ObserveModelLatency("summarize", time.Since(start))
	if err != nil {
		observability.IncrementSummaryFallback()
		p.logger().WarnContext(ctx, "summarization failed", slog.Any("error", err))
		return summaryFallback
	}
	return strings.TrimSpace(response)
}

func buildSummaryPrompt(question string, columns []string, rows [][]any) string {
	header := strings.Join(columns, " | ")
	separators := make([]string, len(columns))
	for i := range separators {
		separators[i] = "---"
	}

	capped := rows
	if len(capped) > maxSummaryRows {
		capped = capped[:maxSummaryRows]
	}
	body := make([]string, 0, len(capped))
	for _, row := range capped {
		cells := make([]string, len(row))
		for i, value := range row {
			cells[i] = fmt.Sprint(value)
		}
		body = append(body, strings.Join(cells, " | "))
	}

	tableMD := header + "\n" + strings.Join(separators, " | ") + "\n" + strings.Join(body, "\n")
	return fmt.Sprintf(
		"The user asked: '%s'\n\nThe following table was returned:\n\n%s\n\n"+
			"Write a short, conversational summary of this data. Highlight interesting values, trends, or anomalies.",
		question, tableMD,
	)
}

// formatRowsForAnswer is the terse alternative to narrative summarization and
// involves no model call.
func formatRowsForAnswer(rows [][]any) string {
	if len(rows) == 0 {
		return "No rows matched your query."
	}
	if len(rows) == 1 && len(rows[0]) == 1 {
		return fmt.Sprintf("The result is %v.", rows[0][0])
	}
	preview := len(rows)
	if preview > 5 {
		preview = 5
	}
	return fmt.Sprintf("Found %d row(s). Showing top %d.", len(rows), preview)
}
