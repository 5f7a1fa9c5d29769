package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (m *fakeModel) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestSummarizeTableEmptyInputSkipsModel(t *testing.T) {
	model := &fakeModel{response: "should not be called"}
	p := &Pipeline{Model: model}

	if got := p.summarizeTable(context.Background(), "q", nil, nil); got != "There was no data to summarize." {
		t.Fatalf("summarizeTable() = %q", got)
	}
	if got := p.summarizeTable(context.Background(), "q", []string{"a"}, nil); got != "There was no data to summarize." {
		t.Fatalf("summarizeTable() = %q", got)
	}
	if len(model.prompts) != 0 {
		t.Fatalf("model was called %d times", len(model.prompts))
	}
}

func TestSummarizeTableBuildsMarkdownPrompt(t *testing.T) {
	model := &fakeModel{response: "  Revenue grew steadily.  "}
	p := &Pipeline{Model: model}

	got := p.summarizeTable(context.Background(), "how did revenue move?",
		[]string{"period", "value"},
		[][]any{{"2023-24", 1200.5}, {"2024-25", 1400.0}},
	)
	if got != "Revenue grew steadily." {
		t.Fatalf("summarizeTable() = %q", got)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("model called %d times", len(model.prompts))
	}
	prompt := model.prompts[0]
	for _, fragment := range []string{
		"how did revenue move?",
		"period | value",
		"--- | ---",
		"2023-24 | 1200.5",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, prompt)
		}
	}
}

func TestSummarizeTableCapsRowsSentToModel(t *testing.T) {
	model := &fakeModel{response: "ok"}
	p := &Pipeline{Model: model}

	rows := make([][]any, 50)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("row-%02d", i)}
	}
	p.summarizeTable(context.Background(), "q", []string{"label"}, rows)

	prompt := model.prompts[0]
	if !strings.Contains(prompt, "row-29") {
		t.Fatal("prompt should include the 30th row")
	}
	if strings.Contains(prompt, "row-30") {
		t.Fatal("prompt should not include rows past the cap")
	}
}

func TestSummarizeTableFallsBackOnModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	p := &Pipeline{Model: model}

	got := p.summarizeTable(context.Background(), "q", []string{"a"}, [][]any{{1}})
	if got != "Here is the data as requested." {
		t.Fatalf("summarizeTable() = %q", got)
	}
}

func TestFormatRowsForAnswer(t *testing.T) {
	cases := []struct {
		name string
		rows [][]any
		want string
	}{
		{"no rows", nil, "No rows matched your query."},
		{"empty slice", [][]any{}, "No rows matched your query."},
		{"single scalar", [][]any{{42}}, "The result is 42."},
		{"single row many columns", [][]any{{"a", "b"}}, "Found 1 row(s). Showing top 1."},
		{"three rows", [][]any{{1}, {2}, {3}}, "Found 3 row(s). Showing top 3."},
		{"seven rows", [][]any{{1}, {2}, {3}, {4}, {5}, {6}, {7}}, "Found 7 row(s). Showing top 5."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatRowsForAnswer(tc.rows); got != tc.want {
				t.Fatalf("formatRowsForAnswer() = %q, want %q", got, tc.want)
			}
		})
	}
}
