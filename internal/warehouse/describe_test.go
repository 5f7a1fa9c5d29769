package warehouse

import (
	"context"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func schemaRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
		AddRow("periods", "id", "BIGINT").
		AddRow("periods", "label", "VARCHAR").
		AddRow("volumes", "period_id", "BIGINT").
		AddRow("volumes", "commodity", "VARCHAR").
		AddRow("volumes", "value", "DOUBLE").
		AddRow(migrationTable, "version", "BIGINT")
}

func TestDescribeSchemaRendersTables(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("information_schema.columns").WillReturnRows(schemaRows())

	description, err := store.DescribeSchema(context.Background())
	if err != nil {
		t.Fatalf("DescribeSchema() error = %v", err)
	}
	for _, fragment := range []string{
		"CREATE TABLE periods (",
		"label VARCHAR",
		"CREATE TABLE volumes (",
		"value DOUBLE",
	} {
		if !strings.Contains(description, fragment) {
			t.Fatalf("description missing %q:\n%s", fragment, description)
		}
	}
	if strings.Contains(description, migrationTable) {
		t.Fatal("description must not expose the migration table")
	}
	assertSQLMock(t, mock)
}

func TestDescribeSchemaIsCached(t *testing.T) {
	store, mock := newStoreMock(t)

	// Only one expectation: the second call must come from the cache.
	mock.ExpectQuery("information_schema.columns").WillReturnRows(schemaRows())

	first, err := store.DescribeSchema(context.Background())
	if err != nil {
		t.Fatalf("DescribeSchema() error = %v", err)
	}
	second, err := store.DescribeSchema(context.Background())
	if err != nil {
		t.Fatalf("DescribeSchema() second call error = %v", err)
	}
	if first != second {
		t.Fatal("cached description differs")
	}
	assertSQLMock(t, mock)
}

func TestDescribeSchemaEmptyWarehouseFails(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	if _, err := store.DescribeSchema(context.Background()); err == nil {
		t.Fatal("expected error for empty warehouse")
	}
	assertSQLMock(t, mock)
}

func TestDialectName(t *testing.T) {
	store, _ := newStoreMock(t)
	if got := store.DialectName(); got != "duckdb" {
		t.Fatalf("DialectName() = %q", got)
	}
}
