package formatting

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"loopauth/internal/oauth"
	pkgstrings "loopauth/pkg/strings"
)

// TableFormatter prints the token response as a KEY/VALUE table.
type TableFormatter struct {
	options Options
}

func (f *TableFormatter) FormatToken(w io.Writer, res *oauth.TokenResult) error {
	fields := tokenFields(res, f.options.ShowToken)
	if len(fields) == 0 {
		fmt.Fprintln(w, f.colorize(text.FgYellow, "Token endpoint returned no fields"))
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		f.colorize(text.FgHiCyan, "KEY"),
		f.colorize(text.FgHiCyan, "VALUE"),
	})

	for _, key := range sortedKeys(fields) {
		t.AppendRow(table.Row{
			f.colorize(text.FgHiCyan, key),
			f.cell(fields[key]),
		})
	}
	t.Render()
	return nil
}

func (f *TableFormatter) cell(value any) string {
	switch v := value.(type) {
	case oauth.RedactedToken:
		return v.Hint()
	case string:
		if f.options.ShowToken {
			return v
		}
		return pkgstrings.Truncate(v, pkgstrings.DefaultCellMaxLen)
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return pkgstrings.Truncate(PrettyJSON(v), pkgstrings.DefaultCellMaxLen)
	}
}

func (f *TableFormatter) colorize(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}
