package warehouse

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock setup failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, 0), mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func TestExecuteReturnsAlignedColumnsAndRows(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("SELECT period, value FROM cash_flow").
		WillReturnRows(sqlmock.NewRows([]string{"period", "value"}).
			AddRow("2023-24", 100.5).
			AddRow("2024-25", 120.0))

	columns, rows, err := store.Execute(context.Background(), "SELECT period, value FROM cash_flow;")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(columns) != 2 {
		t.Fatalf("columns = %v", columns)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			t.Fatalf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}
	if rows[0][0] != "2023-24" {
		t.Fatalf("rows[0][0] = %v", rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestExecuteNormalizesByteSlices(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("SELECT name FROM ports").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("Mundra")))

	_, rows, err := store.Execute(context.Background(), "SELECT name FROM ports;")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got, ok := rows[0][0].(string); !ok || got != "Mundra" {
		t.Fatalf("rows[0][0] = %#v", rows[0][0])
	}
	assertSQLMock(t, mock)
}

func TestExecuteEmptyResultSet(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("SELECT value FROM roce").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	columns, rows, err := store.Execute(context.Background(), "SELECT value FROM roce WHERE 1=0;")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(columns) != 1 {
		t.Fatalf("columns = %v", columns)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %v", rows)
	}
	if rows == nil {
		t.Fatal("rows must be non-nil")
	}
	assertSQLMock(t, mock)
}

func TestExecuteRejectsEmptySQL(t *testing.T) {
	store, _ := newStoreMock(t)
	if _, _, err := store.Execute(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty sql")
	}
}

func TestExecutePropagatesStoreErrors(t *testing.T) {
	store, mock := newStoreMock(t)

	mock.ExpectQuery("SELECT nope").
		WillReturnError(errors.New("Binder Error: column nope does not exist"))

	_, _, err := store.Execute(context.Background(), "SELECT nope FROM volumes;")
	if err == nil {
		t.Fatal("expected execution error")
	}
	assertSQLMock(t, mock)
}
