package warehouse

import (
	"context"
	"fmt"
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

const schemaCacheKey = "schema_description"

// Bookkeeping tables are kept out of the prompt so the model never queries them.
const migrationTable = "harborlens_schema_migrations"

const describeColumnsQuery = `
SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'main'
ORDER BY table_name, ordinal_position`

// DescribeSchema renders the warehouse tables as CREATE TABLE-like text for
// prompt grounding. The rendering is cached: the schema only changes when the
// ingest CLI runs.
func (s *Store) DescribeSchema(ctx context.Context) (string, error) {
	if cached, ok := s.schemaCache.Get(schemaCacheKey); ok {
		return cached.(string), nil
	}

	description, err := s.describeSchema(ctx)
	if err != nil {
		return "", err
	}
	s.schemaCache.Set(schemaCacheKey, description, gocache.DefaultExpiration)
	return description, nil
}

func (s *Store) describeSchema(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, describeColumnsQuery)
	if err != nil {
		return "", fmt.Errorf("query schema columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type column struct {
		name     string
		dataType string
	}
	tableOrder := make([]string, 0)
	tables := map[string][]column{}

	for rows.Next() {
		var tableName, columnName, dataType string
		if err := rows.Scan(&tableName, &columnName, &dataType); err != nil {
			return "", fmt.Errorf("scan schema column: %w", err)
		}
		if tableName == migrationTable {
			continue
		}
		if _, seen := tables[tableName]; !seen {
			tableOrder = append(tableOrder, tableName)
		}
		tables[tableName] = append(tables[tableName], column{name: columnName, dataType: dataType})
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate schema columns: %w", err)
	}
	if len(tableOrder) == 0 {
		return "", fmt.Errorf("warehouse has no tables; run the ingest CLI first")
	}

	var builder strings.Builder
	for i, tableName := range tableOrder {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString("CREATE TABLE ")
		builder.WriteString(tableName)
		builder.WriteString(" (\n")
		for j, col := range tables[tableName] {
			builder.WriteString("  ")
			builder.WriteString(col.name)
			builder.WriteString(" ")
			builder.WriteString(col.dataType)
			if j < len(tables[tableName])-1 {
				builder.WriteString(",")
			}
			builder.WriteString("\n")
		}
		builder.WriteString(");\n")
	}
	return builder.String(), nil
}
