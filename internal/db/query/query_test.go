package query

import (
	"context"
	"database/sql"
	"reflect"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazysearch/internal/filter"
	"github.com/rebeliceyang/lazysearch/internal/models"
)

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		clause filter.Clause
		limit  int
		want   string
	}{
		{"no condition", "invoices", filter.Clause{}, 0, "SELECT * FROM invoices"},
		{"with condition", "invoices I", filter.Clause{SQL: "((I.id IN(1)))"}, 0, "SELECT * FROM invoices I WHERE ((I.id IN(1)))"},
		{"with limit", "invoices", filter.Clause{SQL: "(x)"}, 10, "SELECT * FROM invoices WHERE (x) LIMIT 10"},
		{"bound postgres clause", "invoices I", filter.Clause{SQL: "((I.id IN($1, $2)))", Args: []any{1, 2}}, 5,
			"SELECT * FROM invoices I WHERE ((I.id IN($1, $2))) LIMIT 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildSelect(tt.from, tt.clause, tt.limit)
			if err != nil {
				t.Fatalf("BuildSelect failed: %v", err)
			}
			if got.SQL != tt.want {
				t.Errorf("SQL = %q, want %q", got.SQL, tt.want)
			}
		})
	}

	if _, err := BuildSelect("  ", filter.Clause{}, 0); err == nil {
		t.Error("expected an error for an empty source")
	}
}

func TestExecuteDB(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE invoices (id INTEGER, customer INTEGER, label TEXT)`,
		`INSERT INTO invoices VALUES (1, 2, 'spring'), (2, 5, NULL), (3, 7, 'winter')`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}

	cond := models.NewConditionBuilder(models.LogicalAnd).
		Field("customer").AddSimpleValue(2).AddSimpleValue(5).End().
		Build()
	g := filter.NewGenerator(cond, filter.WithDialect(filter.SQLite), filter.WithBindVars())
	if err := g.RegisterField("customer", "customer", filter.WithAlias("I")); err != nil {
		t.Fatalf("RegisterField failed: %v", err)
	}
	clause, err := g.Build("")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	stmt, err := BuildSelect("invoices I", clause, 0)
	if err != nil {
		t.Fatalf("BuildSelect failed: %v", err)
	}

	result, err := ExecuteDB(context.Background(), db, stmt.SQL+" ORDER BY id", stmt.Args...)
	if err != nil {
		t.Fatalf("ExecuteDB failed: %v", err)
	}

	if !reflect.DeepEqual(result.Columns, []string{"id", "customer", "label"}) {
		t.Errorf("Columns = %v", result.Columns)
	}
	want := [][]string{{"1", "2", "spring"}, {"2", "5", "NULL"}}
	if !reflect.DeepEqual(result.Rows, want) {
		t.Errorf("Rows = %v, want %v", result.Rows, want)
	}

	if _, err := ExecuteDB(context.Background(), db, "SELECT * FROM missing"); err == nil {
		t.Error("expected an error for a missing table")
	}
}

func TestConvertValueToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{map[string]any{"a": 1}, `{"a":1}`},
		{[]any{1, "x"}, `[1,"x"]`},
		{[]byte("raw"), "raw"},
		{time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "2024-05-01"},
		{time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC), "2024-05-01T08:30:00Z"},
		{int64(42), "42"},
	}
	for _, tt := range tests {
		if got := convertValueToString(tt.in); got != tt.want {
			t.Errorf("convertValueToString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
