package history

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
)

func TestEncodeEntriesToParquet(t *testing.T) {
	generated := "SELECT SUM(value) FROM volumes;"
	failure := "An error occurred while processing your question."
	entries := []Entry{
		{
			ID:         1,
			Question:   "total volumes?",
			SQL:        &generated,
			Outcome:    "answered",
			DurationMs: 120,
			RowCount:   1,
			CreatedAt:  time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC),
		},
		{
			ID:         2,
			Question:   "broken question",
			Outcome:    "execution_failed",
			Error:      &failure,
			DurationMs: 60,
			CreatedAt:  time.Date(2026, time.March, 4, 11, 0, 0, 0, time.UTC),
		},
	}

	result, err := EncodeEntriesToParquet(entries)
	if err != nil {
		t.Fatalf("EncodeEntriesToParquet() error = %v", err)
	}
	if result.RecordCount != 2 {
		t.Fatalf("RecordCount = %d", result.RecordCount)
	}
	if len(result.Data) == 0 {
		t.Fatal("expected non-empty parquet payload")
	}
	if result.MinCreated == nil || !result.MinCreated.Equal(entries[0].CreatedAt) {
		t.Fatalf("MinCreated = %v", result.MinCreated)
	}
	if result.MaxCreated == nil || !result.MaxCreated.Equal(entries[1].CreatedAt) {
		t.Fatalf("MaxCreated = %v", result.MaxCreated)
	}

	reader := parquet.NewGenericReader[parquetEntry](bytes.NewReader(result.Data))
	defer func() { _ = reader.Close() }()
	rows := make([]parquetEntry, 2)
	count, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("reader.Read() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("read rows = %d", count)
	}
	if rows[0].SQLText != generated {
		t.Fatalf("SQLText = %q", rows[0].SQLText)
	}
	if rows[1].SQLText != "" || rows[1].ErrorText != failure {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestEncodeEntriesToParquetRequiresEntries(t *testing.T) {
	if _, err := EncodeEntriesToParquet(nil); err == nil {
		t.Fatal("expected error for empty input")
	}
}
