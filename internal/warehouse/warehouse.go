package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/harborlens/harborlens/internal/observability"
)

// Dialect is the SQL variant of the embedded engine, surfaced to the prompt.
const Dialect = "duckdb"

type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	SchemaCacheTTL  time.Duration
}

// Store wraps the embedded warehouse database. The pipeline only ever reads
// from it; writes happen through the ingest CLI.
type Store struct {
	db          *sql.DB
	schemaCache *gocache.Cache
	schemaTTL   time.Duration
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, fmt.Errorf("warehouse path is required")
	}

	db, err := sql.Open("duckdb", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open warehouse db: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping warehouse db: %w", err)
	}

	return NewStore(db, cfg.SchemaCacheTTL), nil
}

// NewStore wraps an already-open handle; tests use it with a mock driver.
func NewStore(db *sql.DB, schemaTTL time.Duration) *Store {
	ttl := schemaTTL
	if ttl <= 0 {
		// Schema is assumed static for the process lifetime.
		ttl = gocache.NoExpiration
	}
	return &Store{
		db:          db,
		schemaCache: gocache.New(ttl, 10*time.Minute),
		schemaTTL:   ttl,
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for migrations and the ingest loader.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) DialectName() string {
	return Dialect
}

// Execute runs one read-only statement and materializes the full result set,
// preserving the engine's native row and column ordering.
func (s *Store) Execute(ctx context.Context, sqlText string) ([]string, [][]any, error) {
	if strings.TrimSpace(sqlText) == "" {
		return nil, nil, fmt.Errorf("sql is required")
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}
	if len(columns) == 0 {
		return []string{}, [][]any{}, nil
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}

	observability.ObserveWarehouseQuery(time.Since(start))
	return columns, resultRows, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
