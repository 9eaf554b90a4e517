package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rebeliceyang/lazysearch/internal/db/query"
)

// nullValue is how query results render SQL NULL
const nullValue = "NULL"

// Export writes result to path, choosing the format from the extension
func Export(result *query.Result, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ExportToCSV(result, path)
	case ".json":
		return ExportToJSON(result, path)
	default:
		return fmt.Errorf("unsupported export format: %q", filepath.Ext(path))
	}
}

// ExportToCSV exports query rows to a CSV file with a column header
func ExportToCSV(result *query.Result, path string) error {
	// Create the file
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	// Write header
	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range result.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV file: %w", err)
	}
	return nil
}

// ExportToJSON exports query rows to a JSON array of objects keyed by column.
// NULL values become JSON null.
func ExportToJSON(result *query.Result, path string) error {
	records := make([]map[string]*string, 0, len(result.Rows))
	for _, row := range result.Rows {
		record := make(map[string]*string, len(result.Columns))
		for i, col := range result.Columns {
			if i >= len(row) || row[i] == nullValue {
				record[col] = nil
				continue
			}
			v := row[i]
			record[col] = &v
		}
		records = append(records, record)
	}

	// Marshal to JSON with pretty printing
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal rows to JSON: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	return nil
}
