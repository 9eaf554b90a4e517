package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Result holds the rows of an executed query rendered as strings
type Result struct {
	Columns  []string
	Rows     [][]string
	Duration time.Duration
}

// Execute runs a query on a PostgreSQL pool
func Execute(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) (*Result, error) {
	start := time.Now()

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	// Get column names
	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	// Get rows
	var result [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		result = append(result, renderRow(values))
	}

	// Check for errors from iteration
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return &Result{
		Columns:  columns,
		Rows:     result,
		Duration: time.Since(start),
	}, nil
}

// ExecuteDB runs a query through database/sql, used for SQLite
func ExecuteDB(ctx context.Context, db *sql.DB, query string, args ...any) (*Result, error) {
	start := time.Now()

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var result [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		result = append(result, renderRow(values))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return &Result{
		Columns:  columns,
		Rows:     result,
		Duration: time.Since(start),
	}, nil
}

func renderRow(values []any) []string {
	row := make([]string, len(values))
	for i, v := range values {
		if v == nil {
			row[i] = "NULL"
		} else {
			row[i] = convertValueToString(v)
		}
	}
	return row
}

// convertValueToString converts a database value to string, rendering JSON
// columns as JSON
func convertValueToString(val any) string {
	switch v := val.(type) {
	case map[string]any, []any:
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(jsonBytes)
	case []byte:
		return string(v)
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
