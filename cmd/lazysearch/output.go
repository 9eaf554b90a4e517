package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rebeliceyang/lazysearch/internal/elastic"
	"github.com/rebeliceyang/lazysearch/internal/highlight"
)

// printer writes command output, highlighted when the destination is a terminal
type printer struct {
	w  io.Writer
	hl *highlight.Highlighter
}

func (a *app) printer() *printer {
	return &printer{w: a.out, hl: a.hl}
}

func (p *printer) source(src string, lang highlight.Language) {
	if src == "" {
		p.comment("empty condition")
		return
	}
	_, _ = fmt.Fprintln(p.w, p.hl.Highlight(src, lang))
}

func (p *printer) comment(text string) {
	_, _ = fmt.Fprintf(p.w, "-- %s\n", text)
}

func (p *printer) args(args []any) {
	if len(args) == 0 {
		return
	}
	p.comment("args: " + joinArgs(args))
}

// mappings lists field, property and location of each mapping
func (p *printer) mappings(mappings []*elastic.FieldMapping) {
	rows := make([][]string, len(mappings))
	for i, m := range mappings {
		rows[i] = []string{m.FieldName, m.PropertyName, m.IndexName, m.TypeName}
	}
	p.table([]string{"FIELD", "PROPERTY", "INDEX", "TYPE"}, rows)
}

// table writes rows using tabwriter. header is the first row.
func (p *printer) table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 4, 2, ' ', 0)
	for i, h := range header {
		if i > 0 {
			_, _ = fmt.Fprint(tw, "\t")
		}
		_, _ = fmt.Fprint(tw, h)
	}
	_, _ = fmt.Fprintln(tw)
	for _, row := range rows {
		for i, col := range row {
			if i > 0 {
				_, _ = fmt.Fprint(tw, "\t")
			}
			_, _ = fmt.Fprint(tw, col)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()
}
