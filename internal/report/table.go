// Package report renders every engine result set as a header-plus-delimited
// table: column order preserved, currency at two decimal places. The
// presentation layer consumes these tables either as JSON (the structs
// themselves) or as delimited text via Write.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

type Table struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Write emits the table through encoding/csv so embedded delimiters and
// quotes survive a round trip. comma is usually ',' but callers may pick
// '\t' or ';'.
func (t Table) Write(w io.Writer, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Money renders cents as a currency string with exactly two decimals.
func Money(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Percent renders a percentage with two decimals.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func Int(v int) string {
	return strconv.Itoa(v)
}
