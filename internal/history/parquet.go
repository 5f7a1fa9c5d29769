package history

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

type ParquetEncodeResult struct {
	Data        []byte
	RecordCount int64
	MinCreated  *time.Time
	MaxCreated  *time.Time
}

type parquetEntry struct {
	ID              int64  `parquet:"id"`
	Question        string `parquet:"question"`
	SQLText         string `parquet:"sql_text"`
	Outcome         string `parquet:"outcome"`
	ErrorText       string `parquet:"error_text"`
	DurationMs      int64  `parquet:"duration_ms"`
	RowCount        int64  `parquet:"row_count"`
	CreatedAtUnixMs int64  `parquet:"created_at_unix_ms"`
}

// EncodeEntriesToParquet renders history entries as a parquet file for the
// export endpoint. Optional fields are flattened to empty strings because the
// export is meant for offline analytics, not round-tripping.
func EncodeEntriesToParquet(entries []Entry) (ParquetEncodeResult, error) {
	if len(entries) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("entries are required")
	}

	rows := make([]parquetEntry, 0, len(entries))
	var minCreated *time.Time
	var maxCreated *time.Time

	for _, entry := range entries {
		row := parquetEntry{
			ID:         entry.ID,
			Question:   entry.Question,
			Outcome:    entry.Outcome,
			DurationMs: entry.DurationMs,
			RowCount:   int64(entry.RowCount),
		}
		if entry.SQL != nil {
			row.SQLText = *entry.SQL
		}
		if entry.Error != nil {
			row.ErrorText = *entry.Error
		}
		if !entry.CreatedAt.IsZero() {
			createdAt := entry.CreatedAt.UTC()
			row.CreatedAtUnixMs = createdAt.UnixMilli()
			if minCreated == nil || createdAt.Before(*minCreated) {
				copy := createdAt
				minCreated = &copy
			}
			if maxCreated == nil || createdAt.After(*maxCreated) {
				copy := createdAt
				maxCreated = &copy
			}
		}
		rows = append(rows, row)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[parquetEntry](buf)
	if _, err := writer.Write(rows); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ParquetEncodeResult{
		Data:        buf.Bytes(),
		RecordCount: int64(len(rows)),
		MinCreated:  minCreated,
		MaxCreated:  maxCreated,
	}, nil
}
