// Package highlight colors compiled output for terminals.
package highlight

import (
	"bytes"
	"io"
	"os"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-isatty"
)

// Language selects the lexer
type Language string

const (
	SQL  Language = "sql"
	JSON Language = "json"
)

// Highlighter renders source with ANSI colors, or leaves it untouched when
// disabled
type Highlighter struct {
	enabled   bool
	style     *chroma.Style
	formatter chroma.Formatter
}

// New creates a highlighter. A disabled highlighter returns its input as is.
func New(enabled bool) *Highlighter {
	// Use a built-in style that works well in terminals
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	// Use terminal256 formatter for ANSI output
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	return &Highlighter{enabled: enabled, style: style, formatter: formatter}
}

// ForWriter enables highlighting when w is a terminal
func ForWriter(w io.Writer) *Highlighter {
	return New(IsTerminal(w))
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Enabled reports whether output is colored
func (h *Highlighter) Enabled() bool {
	return h.enabled
}

// Highlight returns source colored for lang. Lexing errors fall back to the
// plain source.
func (h *Highlighter) Highlight(source string, lang Language) string {
	if !h.enabled || source == "" {
		return source
	}

	lexer := lexerFor(lang)
	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return source
	}

	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, iterator); err != nil {
		return source
	}
	return buf.String()
}

func lexerFor(lang Language) chroma.Lexer {
	var lexer chroma.Lexer
	switch lang {
	case SQL:
		lexer = lexers.Get("postgresql")
		if lexer == nil {
			lexer = lexers.Get("sql")
		}
	case JSON:
		lexer = lexers.Get("json")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}
