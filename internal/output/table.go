package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/rodaine/table"
)

// RenderTable prints a titled table with cyan underlined headers.
func RenderTable(w io.Writer, title string, headers []string, rows [][]string) {
	if title != "" {
		fmt.Fprintln(w, bold(title))
	}

	cols := make([]interface{}, len(headers))
	for i, h := range headers {
		cols[i] = h
	}

	headerFmt := color.New(color.FgCyan, color.Underline).SprintfFunc()
	tbl := table.New(cols...)
	tbl.WithHeaderFormatter(headerFmt)
	tbl.WithWriter(w)

	for _, row := range rows {
		vals := make([]interface{}, len(row))
		for i, v := range row {
			vals[i] = v
		}
		tbl.AddRow(vals...)
	}

	tbl.Print()
	fmt.Fprintln(w)
}

// StatusText colours an OK/FAIL style cell.
func StatusText(ok bool, text string) string {
	if ok {
		return green(text)
	}
	return red(text)
}
