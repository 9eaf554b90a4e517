package query

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/rebeliceyang/lazysearch/internal/filter"
)

// BuildSelect wraps a compiled clause into SELECT * FROM from [WHERE ...]
// [LIMIT n]. The clause keeps its own placeholders and arguments.
func BuildSelect(from string, clause filter.Clause, limit int) (filter.Clause, error) {
	from = strings.TrimSpace(from)
	if from == "" {
		return filter.Clause{}, errors.New("select source is required")
	}

	stmt := sq.Select("*").From(from)
	if clause.SQL != "" {
		stmt = stmt.Where(sq.Expr(clause.SQL, clause.Args...))
	}
	if limit > 0 {
		stmt = stmt.Limit(uint64(limit))
	}

	sql, _, err := stmt.ToSql()
	if err != nil {
		return filter.Clause{}, fmt.Errorf("build select: %w", err)
	}
	return filter.Clause{SQL: sql, Args: clause.Args}, nil
}
