package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a colored header with aligned columns
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{writer: w, headers: headers, noColor: noColor}
}

// AddRow adds a row; missing cells render empty, extra cells are dropped
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}

	header := paint(t.noColor, color.Bold, color.FgCyan)
	gray := paint(t.noColor, color.FgHiBlack)
	line := make([]string, len(widths))
	for i, h := range t.headers {
		line[i] = header.Sprint(padRight(h, widths[i]))
	}
	fmt.Fprintln(t.writer, strings.TrimRight(strings.Join(line, "  "), " "))
	for i, w := range widths {
		line[i] = gray.Sprint(strings.Repeat("─", w))
	}
	fmt.Fprintln(t.writer, strings.Join(line, "  "))

	for _, row := range t.rows {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			line[i] = padRight(cell, widths[i])
		}
		fmt.Fprintln(t.writer, strings.TrimRight(strings.Join(line, "  "), " "))
	}
}

// padRight pads s with spaces to width runes
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
