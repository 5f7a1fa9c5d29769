// Package ingest normalizes the company report CSVs into the warehouse
// schema. Each loader reads one file, resolves the period and port
// dimensions, and inserts normalized fact rows.
package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// File names expected in the source directory or bucket prefix.
const (
	BalanceSheetCSV    = "BalanceSheet.csv"
	CashFlowCSV        = "CashFlowStatement.csv"
	QuarterlyPnLCSV    = "Quarterly PnL.csv"
	ConsolidatedPnLCSV = "Consolidated PnL.csv"
	ROCEInternalCSV    = "ROCE Internal.csv"
	ROCEExternalCSV    = "ROCE External.csv"
	VolumesCSV         = "Volumes.csv"
	ContainersCSV      = "Containers.csv"
	RoRoCSV            = "RORO.csv"
)

type Loader struct {
	DB     *sql.DB
	Source Source
	Logger *slog.Logger

	periodIDs map[string]int64
	portIDs   map[string]int64
}

func NewLoader(db *sql.DB, source Source, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		DB:        db,
		Source:    source,
		Logger:    logger,
		periodIDs: make(map[string]int64),
		portIDs:   make(map[string]int64),
	}
}

// LoadAll ingests every report file in dependency order. Dimensions are
// created on first reference, so the order only matters for log readability.
func (l *Loader) LoadAll(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"balance_sheet", l.LoadBalanceSheet},
		{"cash_flow", l.LoadCashFlow},
		{"quarterly_pnl", l.LoadQuarterlyPnL},
		{"consolidated_pnl", l.LoadConsolidatedPnL},
		{"roce_internal", func(ctx context.Context) error { return l.LoadROCE(ctx, "internal") }},
		{"roce_external", func(ctx context.Context) error { return l.LoadROCE(ctx, "external") }},
		{"volumes", l.LoadVolumes},
		{"containers", l.LoadContainers},
		{"roro", l.LoadRoRo},
	}

	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			return fmt.Errorf("load %s: %w", step.name, err)
		}
		l.Logger.Info("table loaded", "table", step.name)
	}
	return nil
}

func (l *Loader) LoadBalanceSheet(ctx context.Context) error {
	return l.eachRow(ctx, BalanceSheetCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO balance_sheet (period_id, line_item, category, sub_category, sub_sub_category, value)
VALUES (?, ?, ?, ?, ?, ?)`,
			periodID,
			row.get("Line Item"),
			nullable(row.get("Category")),
			nullable(row.get("SubCategory")),
			nullable(row.get("SubSubCategory")),
			ParseFloat(row.get("Value")),
		)
		return err
	})
}

func (l *Loader) LoadCashFlow(ctx context.Context) error {
	return l.eachRow(ctx, CashFlowCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO cash_flow (period_id, item, category, value)
VALUES (?, ?, ?, ?)`,
			periodID,
			row.get("Item"),
			nullable(row.get("Category")),
			ParseFloat(row.get("Value")),
		)
		return err
	})
}

func (l *Loader) LoadQuarterlyPnL(ctx context.Context) error {
	return l.eachRow(ctx, QuarterlyPnLCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO quarterly_pnl (period_id, item, category, value, period_type)
VALUES (?, ?, ?, ?, ?)`,
			periodID,
			row.get("Item"),
			nullable(row.get("Category")),
			ParseFloat(row.get("Value")),
			nullable(row.get("Period Type")),
		)
		return err
	})
}

func (l *Loader) LoadConsolidatedPnL(ctx context.Context) error {
	return l.eachRow(ctx, ConsolidatedPnLCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO consolidated_pnl (period_id, line_item, value)
VALUES (?, ?, ?)`,
			periodID,
			row.get("Line Item"),
			ParseFloat(row.get("Value")),
		)
		return err
	})
}

// LoadROCE handles both return-on-capital files. The internal file carries a
// Port column and names its metric "Line Item"; the external file has neither
// port nor category and calls the metric "Particular".
func (l *Loader) LoadROCE(ctx context.Context, source string) error {
	file := ROCEInternalCSV
	if source != "internal" {
		file = ROCEExternalCSV
	}
	return l.eachRow(ctx, file, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		var portID *int64
		if port := row.get("Port"); port != "" {
			id, err := l.portID(ctx, port, "")
			if err != nil {
				return err
			}
			portID = &id
		}
		lineItem := row.get("Line Item")
		if lineItem == "" {
			lineItem = row.get("Particular")
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO roce (period_id, source, category, port_id, line_item, value)
VALUES (?, ?, ?, ?, ?, ?)`,
			periodID,
			source,
			nullable(row.get("Category")),
			portID,
			lineItem,
			ParseFloat(row.get("Value")),
		)
		return err
	})
}

func (l *Loader) LoadVolumes(ctx context.Context) error {
	return l.eachRow(ctx, VolumesCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		portID, err := l.portID(ctx, row.get("Port"), row.get("State"))
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO volumes (period_id, port_id, commodity, entity, type, value)
VALUES (?, ?, ?, ?, ?, ?)`,
			periodID,
			portID,
			nullable(row.get("Commodity")),
			nullable(row.get("Entity")),
			nullable(row.get("Type")),
			ParseFloat(row.get("Value")),
		)
		return err
	})
}

func (l *Loader) LoadContainers(ctx context.Context) error {
	return l.eachRow(ctx, ContainersCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		portID, err := l.portID(ctx, row.get("Port"), "")
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO containers (period_id, port_id, entity, type, value)
VALUES (?, ?, ?, ?, ?)`,
			periodID,
			portID,
			nullable(row.get("Entity")),
			nullable(row.get("Type")),
			ParseFloat(row.get("Value")),
		)
		return err
	})
}

func (l *Loader) LoadRoRo(ctx context.Context) error {
	return l.eachRow(ctx, RoRoCSV, func(row csvRow) error {
		periodID, err := l.periodID(ctx, row.get("Period"))
		if err != nil {
			return err
		}
		portID, err := l.portID(ctx, row.get("Port"), "")
		if err != nil {
			return err
		}
		_, err = l.DB.ExecContext(ctx, `
INSERT INTO roro (period_id, port_id, type, value, number_of_cars)
VALUES (?, ?, ?, ?, ?)`,
			periodID,
			portID,
			nullable(row.get("Type")),
			ParseFloat(row.get("Value")),
			ParseInt(row.get("Number of Cars")),
		)
		return err
	})
}

func (l *Loader) periodID(ctx context.Context, label string) (int64, error) {
	if label == "" {
		return 0, fmt.Errorf("period label is required")
	}
	if id, ok := l.periodIDs[label]; ok {
		return id, nil
	}

	var id int64
	err := l.DB.QueryRowContext(ctx, `SELECT id FROM periods WHERE label = ?`, label).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = l.DB.QueryRowContext(ctx, `INSERT INTO periods (label) VALUES (?) RETURNING id`, label).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve period %q: %w", label, err)
	}
	l.periodIDs[label] = id
	return id, nil
}

func (l *Loader) portID(ctx context.Context, name, state string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("port name is required")
	}
	if id, ok := l.portIDs[name]; ok {
		return id, nil
	}

	var id int64
	err := l.DB.QueryRowContext(ctx, `SELECT id FROM ports WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		err = l.DB.QueryRowContext(ctx, `INSERT INTO ports (name, state) VALUES (?, ?) RETURNING id`, name, nullable(state)).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve port %q: %w", name, err)
	}
	l.portIDs[name] = id
	return id, nil
}

func (l *Loader) eachRow(ctx context.Context, name string, handle func(csvRow) error) error {
	reader, err := l.Source.Open(ctx, name)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header of %q: %w", name, err)
	}
	columns := make(map[string]int, len(header))
	for i, col := range header {
		columns[col] = i
	}

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %q line %d: %w", name, line+1, err)
		}
		line++
		if err := handle(csvRow{columns: columns, values: record}); err != nil {
			return fmt.Errorf("%q line %d: %w", name, line, err)
		}
	}
}

type csvRow struct {
	columns map[string]int
	values  []string
}

func (r csvRow) get(name string) string {
	idx, ok := r.columns[name]
	if !ok || idx >= len(r.values) {
		return ""
	}
	return strings.TrimSpace(r.values[idx])
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
