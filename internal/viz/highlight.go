package viz

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// HighlightSQL colors sql for a true color terminal. background, a hex
// color, replaces the token backgrounds of the style when non-empty. On any
// failure the source is returned unchanged.
func HighlightSQL(sql, background string) string {
	lexer := lexers.Get("sql")
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal16m")
	if formatter == nil {
		formatter = formatters.Get("terminal256")
	}
	if formatter == nil {
		return sql
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	if background != "" {
		bg := chroma.MustParseColour(background)
		if built, err := style.Builder().Transform(func(entry chroma.StyleEntry) chroma.StyleEntry {
			entry.Background = bg
			return entry
		}).Build(); err == nil {
			style = built
		}
	}

	iterator, err := lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return sql
	}
	return strings.TrimRight(buf.String(), "\n")
}
