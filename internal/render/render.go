// Package render draws tables as fixed-width text for terminal output.
package render

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/tabula-data/tabula/internal/frame"
	"github.com/tabula-data/tabula/internal/value"
)

// Options configures rendering.
type Options struct {
	// MaxRows caps the number of data rows shown; rows beyond the cap
	// collapse into one elision row between the head and tail halves.
	// Zero shows everything.
	MaxRows int
}

// Render draws the table: a shape line, a header with column names and
// kinds, then the data rows. Numeric columns right-align, everything
// else left-aligns. Missing values render as empty cells. When rows
// are elided, the first and last rows appear around an ellipsis row.
func Render(t *frame.Table, opts Options) string {
	ncols := t.NumColumns()
	nrows := t.NumRows()

	shown := nrows
	elided := false
	if opts.MaxRows > 0 && nrows > opts.MaxRows {
		shown = opts.MaxRows
		elided = true
	}

	// Head half rounds up, so MaxRows 1 shows the first row only.
	headRows := shown
	rowIdx := make([]int, 0, shown)
	if elided {
		headRows = (shown + 1) / 2
		for r := 0; r < headRows; r++ {
			rowIdx = append(rowIdx, r)
		}
		for r := nrows - (shown - headRows); r < nrows; r++ {
			rowIdx = append(rowIdx, r)
		}
	} else {
		for r := 0; r < nrows; r++ {
			rowIdx = append(rowIdx, r)
		}
	}

	names := t.ColumnNames()
	kinds := make([]string, ncols)
	numeric := make([]bool, ncols)
	for i := 0; i < ncols; i++ {
		k, ok := t.ColumnAt(i).Kind()
		if !ok {
			kinds[i] = "mixed"
			continue
		}
		kinds[i] = k.String()
		numeric[i] = k == value.KindInt || k == value.KindFloat
	}

	cells := make([][]string, len(rowIdx))
	for i, r := range rowIdx {
		row := make([]string, ncols)
		for c := 0; c < ncols; c++ {
			row[c] = value.String(t.ColumnAt(c).Value(r))
		}
		cells[i] = row
	}

	widths := make([]int, ncols)
	for c := 0; c < ncols; c++ {
		widths[c] = displayWidth(names[c])
		if w := displayWidth(kinds[c]); w > widths[c] {
			widths[c] = w
		}
		for r := range cells {
			if w := displayWidth(cells[r][c]); w > widths[c] {
				widths[c] = w
			}
		}
		if elided && widths[c] < 3 {
			widths[c] = 3
		}
	}

	ellipsis := make([]string, ncols)
	for c := range ellipsis {
		ellipsis[c] = "..."
	}

	var b strings.Builder
	writeShape(&b, nrows, ncols)
	sep := separator(widths)
	b.WriteString(sep)
	writeRow(&b, names, widths, nil)
	writeRow(&b, kinds, widths, nil)
	b.WriteString(sep)
	for i := range cells {
		if elided && i == headRows {
			writeRow(&b, ellipsis, widths, nil)
		}
		writeRow(&b, cells[i], widths, numeric)
	}
	if elided && headRows == len(cells) {
		writeRow(&b, ellipsis, widths, nil)
	}
	b.WriteString(sep)
	return b.String()
}

func writeShape(b *strings.Builder, rows, cols int) {
	b.WriteString("shape: (")
	b.WriteString(strconv.Itoa(rows))
	b.WriteString(", ")
	b.WriteString(strconv.Itoa(cols))
	b.WriteString(")\n")
}

func separator(widths []int) string {
	var b strings.Builder
	for _, w := range widths {
		b.WriteString("+")
		b.WriteString(strings.Repeat("-", w+2))
	}
	b.WriteString("+\n")
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int, rightAlign []bool) {
	for c, cell := range cells {
		pad := widths[c] - displayWidth(cell)
		if pad < 0 {
			pad = 0
		}
		b.WriteString("| ")
		if rightAlign != nil && rightAlign[c] {
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(cell)
		} else {
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(" ")
	}
	b.WriteString("|\n")
}

// displayWidth measures terminal cells, counting East Asian wide and
// fullwidth runes as two.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}
