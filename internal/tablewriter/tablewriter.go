// Package tablewriter renders small ASCII tables for CLI listings.
package tablewriter

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth returns the terminal width of s, ignoring ANSI colour codes.
func displayWidth(s string) int {
	return runewidth.StringWidth(ansiRegex.ReplaceAllString(s, ""))
}

// Writer collects rows and renders them as a bordered table.
type Writer struct {
	out     io.Writer
	headers []string
	rows    [][]string
	widths  []int
}

// NewWriter creates a table writer rendering to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// SetHeader sets the column headers. When headers are set, extra cells in
// appended rows are dropped.
func (t *Writer) SetHeader(headers []string) {
	t.headers = headers
	t.measure(headers)
}

// Append adds a row.
func (t *Writer) Append(row []string) {
	if len(t.headers) > 0 && len(row) > len(t.headers) {
		row = row[:len(t.headers)]
	}
	t.rows = append(t.rows, row)
	t.measure(row)
}

// Len returns the number of rows appended so far.
func (t *Writer) Len() int {
	return len(t.rows)
}

func (t *Writer) measure(row []string) {
	for i, cell := range row {
		if i >= len(t.widths) {
			t.widths = append(t.widths, 0)
		}
		if w := displayWidth(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
}

// Render writes the table. Nothing is written for an empty table.
func (t *Writer) Render() {
	if len(t.headers) == 0 && len(t.rows) == 0 {
		return
	}
	t.border()
	if len(t.headers) > 0 {
		t.row(t.headers)
		t.border()
	}
	for _, r := range t.rows {
		t.row(r)
	}
	t.border()
}

func (t *Writer) border() {
	var b strings.Builder
	b.WriteString("+")
	for _, w := range t.widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteString("+")
	}
	fmt.Fprintln(t.out, b.String())
}

func (t *Writer) row(cells []string) {
	var b strings.Builder
	b.WriteString("|")
	for i, w := range t.widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		fmt.Fprintf(&b, " %s%s |", cell, strings.Repeat(" ", w-displayWidth(cell)))
	}
	fmt.Fprintln(t.out, b.String())
}
