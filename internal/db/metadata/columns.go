package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/rebeliceyang/lazysearch/internal/db/connection"
)

// Column is the subset of column metadata needed to check field mappings
type Column struct {
	Name     string
	DataType string
}

// ColumnSource lists the columns of a table
type ColumnSource interface {
	TableColumns(ctx context.Context, table string) ([]Column, error)
}

// PostgresColumns reads columns from information_schema
type PostgresColumns struct {
	Pool   *connection.Pool
	Schema string
}

func (p PostgresColumns) TableColumns(ctx context.Context, table string) ([]Column, error) {
	schema := p.Schema
	if schema == "" {
		schema = "public"
	}

	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := p.Pool.Query(ctx, query, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columns := make([]Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, Column{
			Name:     toString(row["column_name"]),
			DataType: toString(row["data_type"]),
		})
	}
	return columns, nil
}

// SQLiteColumns reads columns with pragma_table_info
type SQLiteColumns struct {
	DB *sql.DB
}

func (s SQLiteColumns) TableColumns(ctx context.Context, table string) ([]Column, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("failed to read column: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// MissingColumn is a mapped column the database does not have
type MissingColumn struct {
	Table  string
	Column string
}

func (m MissingColumn) String() string {
	return m.Table + "." + m.Column
}

// CheckColumns reports every column of columns (keyed by table) that src does
// not list, sorted by table then column. A table without any column is
// reported column by column.
func CheckColumns(ctx context.Context, src ColumnSource, columns map[string][]string) ([]MissingColumn, error) {
	tables := make([]string, 0, len(columns))
	for table := range columns {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	var missing []MissingColumn
	for _, table := range tables {
		existing, err := src.TableColumns(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		known := make(map[string]bool, len(existing))
		for _, c := range existing {
			known[c.Name] = true
		}

		wanted := append([]string(nil), columns[table]...)
		sort.Strings(wanted)
		for _, c := range wanted {
			if !known[c] {
				missing = append(missing, MissingColumn{Table: table, Column: c})
			}
		}
	}
	return missing, nil
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
