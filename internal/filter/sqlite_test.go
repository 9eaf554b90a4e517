package filter

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rebeliceyang/lazysearch/internal/models"
)

// Executes compiled clauses against SQLite to check they select the expected rows.

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	birthday := time.Now().AddDate(-30, 0, -10).Format("2006-01-02")
	stmts := []string{
		`CREATE TABLE invoices (id INTEGER PRIMARY KEY, customer INTEGER, status INTEGER, label TEXT, birthday TEXT)`,
		`INSERT INTO invoices VALUES (1, 2, 1, 'spring sale', '2001-01-15')`,
		`INSERT INTO invoices VALUES (2, 5, 2, '50%_off', '1990-06-01')`,
		`INSERT INTO invoices VALUES (3, 10, 1, '50x off', '` + birthday + `')`,
		`INSERT INTO invoices VALUES (4, 35, 3, 'winter sale', '1985-12-24')`,
		`INSERT INTO invoices VALUES (5, 45, 2, 'Last one', '1970-03-03')`,
		`INSERT INTO invoices VALUES (6, 60, 1, 'it''s new', '1960-10-10')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("setup failed on %q: %v", stmt, err)
		}
	}
	return db
}

func selectIDs(t *testing.T, db *sql.DB, clause Clause) []int {
	t.Helper()
	query := "SELECT id FROM invoices I"
	if clause.SQL != "" {
		query += " WHERE " + clause.SQL
	}
	query += " ORDER BY id"

	rows, err := db.Query(query, clause.Args...)
	if err != nil {
		t.Fatalf("query %q failed: %v", query, err)
	}
	defer func() { _ = rows.Close() }()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows failed: %v", err)
	}
	return ids
}

func TestSQLiteSemantics(t *testing.T) {
	db := openTestDB(t)

	tests := []struct {
		name  string
		build func() *models.SearchCondition
		ids   []int
	}{
		{
			name:  "empty condition selects everything",
			build: func() *models.SearchCondition { return models.NewSearchCondition(nil) },
			ids:   []int{1, 2, 3, 4, 5, 6},
		},
		{
			name: "simple and excluded values",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("status").AddSimpleValue(1).AddSimpleValue(2).AddExcludedSimpleValue(2).End().
					Build()
			},
			ids: []int{1, 3, 6},
		},
		{
			name: "exclusions stay AND-ed in an OR group",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalOr).
					Field("customer").AddSimpleValue(10).AddExcludedSimpleValue(5).End().
					Build()
			},
			ids: []int{3},
		},
		{
			name: "ranges with exclusive bounds",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("customer").
					Add(models.Range{Lower: 2, Upper: 10, UpperInclusive: true}).
					Add(models.NewRange(45, 45)).
					End().
					Build()
			},
			ids: []int{2, 3, 5},
		},
		{
			name: "excluded ranges",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("customer").Add(models.ExcludedRange{Lower: 5, Upper: 45}).End().
					Build()
			},
			ids: []int{1, 2, 5, 6},
		},
		{
			name: "comparisons",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("customer").
					Add(models.Compare{Value: 5, Operator: models.OpGreater}).
					Add(models.Compare{Value: 60, Operator: models.OpLess}).
					Add(models.Compare{Value: 35, Operator: models.OpNotEqual}).
					End().
					Build()
			},
			ids: []int{3, 5},
		},
		{
			name: "pattern metacharacters match literally",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("label").Add(models.NewPatternMatch("0%_", models.PatternContains)).End().
					Build()
			},
			ids: []int{2},
		},
		{
			name: "starts with, ends with and exclusions",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("label").
					Add(models.NewPatternMatch("sale", models.PatternEndsWith)).
					Add(models.NewPatternMatch("50", models.PatternStartsWith)).
					Add(models.NewPatternMatch("winter", models.PatternNotStartsWith)).
					Add(models.PatternMatch{Value: "50X OFF", Type: models.PatternNotEquals, CaseInsensitive: true}).
					End().
					Build()
			},
			ids: []int{1, 2},
		},
		{
			name: "quoted strings",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("label").AddSimpleValue("it's new").End().
					Build()
			},
			ids: []int{6},
		},
		{
			name: "OR of AND subgroups with a primary condition",
			build: func() *models.SearchCondition {
				cond := models.NewConditionBuilder(models.LogicalOr).
					Group(models.LogicalAnd).
					Field("status").AddSimpleValue(1).End().
					Field("customer").Add(models.Compare{Value: 10, Operator: models.OpGreaterOrEqual}).End().
					End().
					Group(models.LogicalAnd).
					Field("status").AddSimpleValue(2).End().
					End().
					Build()
				primary := models.NewValuesGroup(models.LogicalAnd)
				primary.AddField("customer", models.NewValuesBag().AddExcludedSimpleValue(45))
				cond.SetPrimaryCondition(primary)
				return cond
			},
			ids: []int{2, 3, 6},
		},
		{
			name: "birthday by age and by date",
			build: func() *models.SearchCondition {
				return models.NewConditionBuilder(models.LogicalAnd).
					Field("birthday").
					AddSimpleValue(30).
					AddSimpleValue(time.Date(2001, 1, 15, 0, 0, 0, 0, time.UTC)).
					End().
					Build()
			},
			ids: []int{1, 3},
		},
	}

	for _, tt := range tests {
		for _, bind := range []bool{false, true} {
			name := tt.name
			if bind {
				name += " (bind vars)"
			}
			t.Run(name, func(t *testing.T) {
				opts := []Option{WithDialect(SQLite)}
				if bind {
					opts = append(opts, WithBindVars())
				}
				g := NewGenerator(tt.build(), opts...)
				mustRegister(t, g, "customer", "customer", WithAlias("I"))
				mustRegister(t, g, "status", "status", WithAlias("I"))
				mustRegister(t, g, "label", "label", WithAlias("I"))
				mustRegister(t, g, "birthday", "birthday", WithAlias("I"), WithConversion(BirthdayConversion{}))

				clause, err := g.Build("")
				if err != nil {
					t.Fatalf("Build failed: %v", err)
				}
				if got := selectIDs(t, db, clause); !reflect.DeepEqual(got, tt.ids) {
					t.Errorf("selected %v, want %v\nSQL: %s\nArgs: %v", got, tt.ids, clause.SQL, clause.Args)
				}
			})
		}
	}
}
