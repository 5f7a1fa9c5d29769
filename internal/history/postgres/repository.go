// Package postgres stores the question audit trail. The warehouse itself is
// an embedded database, so durable history lives in a separate Postgres
// instance that survives warehouse rebuilds.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harborlens/harborlens/internal/history"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping history db: %w", err)
	}
	return nil
}

// EnsureSchema creates the history table when it does not exist. The API
// service owns this table, so there is no separate migration pipeline.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS query_history (
    id          BIGSERIAL PRIMARY KEY,
    question    TEXT NOT NULL,
    sql_text    TEXT,
    outcome     TEXT NOT NULL,
    error_text  TEXT,
    duration_ms BIGINT NOT NULL DEFAULT 0,
    row_count   BIGINT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure query_history table: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_query_history_outcome ON query_history (outcome)`); err != nil {
		return fmt.Errorf("ensure query_history index: %w", err)
	}
	return nil
}

func (r *Repository) Record(ctx context.Context, in history.Entry) (history.Entry, error) {
	query := `
INSERT INTO query_history (question, sql_text, outcome, error_text, duration_ms, row_count)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at`

	entry := in
	if err := r.db.QueryRowContext(ctx, query,
		in.Question,
		in.SQL,
		in.Outcome,
		in.Error,
		in.DurationMs,
		in.RowCount,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return history.Entry{}, fmt.Errorf("record history entry: %w", err)
	}
	return entry, nil
}

func (r *Repository) List(ctx context.Context, filter history.ListFilter) ([]history.Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `
SELECT id, question, sql_text, outcome, error_text, duration_ms, row_count, created_at
FROM query_history`
	args := []any{}
	if filter.Outcome != "" {
		query += `
WHERE outcome = $1`
		args = append(args, filter.Outcome)
	}
	query += fmt.Sprintf(`
ORDER BY id DESC
LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]history.Entry, 0)
	for rows.Next() {
		var entry history.Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.Question,
			&entry.SQL,
			&entry.Outcome,
			&entry.Error,
			&entry.DurationMs,
			&entry.RowCount,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}
	return entries, nil
}
