package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a colored header.
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a table with the given headers.
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{writer: w, headers: headers, noColor: noColor}
}

// AddRow adds a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table.
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

	head := color.New(color.Bold, color.FgCyan)
	rule := color.New(color.FgHiBlack)
	if t.noColor {
		head.DisableColor()
		rule.DisableColor()
	}

	t.line(widths, t.headers, head)
	rules := make([]string, len(widths))
	for i, w := range widths {
		rules[i] = strings.Repeat("─", w)
	}
	t.line(widths, rules, rule)
	for _, row := range t.rows {
		t.line(widths, row, nil)
	}
}

func (t *Table) line(widths []int, cells []string, c *color.Color) {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i < len(widths)-1 {
			cell += strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		}
		parts[i] = cell
	}
	text := strings.TrimRight(strings.Join(parts, "  "), " ")
	if c != nil {
		c.Fprintln(t.writer, text)
		return
	}
	fmt.Fprintln(t.writer, text)
}

// KeyValueTable renders aligned "key: value" lines.
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates an empty key-value table.
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair.
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render writes the pairs.
func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		width = max(width, utf8.RuneCountInString(k))
	}
	key := color.New(color.Bold)
	if t.noColor {
		key.DisableColor()
	}
	for i, k := range t.keys {
		key.Fprintf(t.writer, "%s:", k)
		fmt.Fprintf(t.writer, "%s %s\n", strings.Repeat(" ", width-utf8.RuneCountInString(k)), t.values[i])
	}
}
