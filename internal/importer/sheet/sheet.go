// Package sheet reads the loosely formatted CSV files school offices export
// from spreadsheets: any charset, ';' or ',' separated, with title rows
// above the real header.
package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	enc "github.com/MrJamesThe3rd/tabungan/internal/encoding"
)

// Column describes one logical column and the header names it may appear under.
type Column struct {
	Key      string
	Aliases  []string
	Required bool
}

// Index maps a column key to its position in a row.
type Index map[string]int

func (ix Index) Has(key string) bool {
	_, ok := ix[key]
	return ok
}

// Cell returns the trimmed value of key in row, or "" if the column is absent.
func (ix Index) Cell(row []string, key string) string {
	i, ok := ix[key]
	if !ok || i >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[i])
}

// Read decodes r to UTF-8 and splits it into rows.
func Read(r io.Reader) ([][]string, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = separator(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// separator picks ';' or ',' by whichever occurs more on the first lines.
func separator(data []byte) rune {
	lines := bytes.SplitN(data, []byte("\n"), 20)

	var semis, commas int

	for _, l := range lines {
		semis += bytes.Count(l, []byte(";"))
		commas += bytes.Count(l, []byte(","))
	}

	if semis >= commas && semis > 0 {
		return ';'
	}

	return ','
}

// FindHeader returns the first row containing every required column, its
// column index and the position of that row.
func FindHeader(rows [][]string, cols []Column) (Index, int, error) {
	for rowIdx, row := range rows {
		ix := make(Index)

		for i, cell := range row {
			name := normalize(cell)
			if name == "" {
				continue
			}

			for _, c := range cols {
				if ix.Has(c.Key) {
					continue
				}

				for _, alias := range c.Aliases {
					if name == alias {
						ix[c.Key] = i
						break
					}
				}
			}
		}

		if complete(ix, cols) {
			return ix, rowIdx, nil
		}
	}

	var names []string

	for _, c := range cols {
		if c.Required {
			names = append(names, strings.Join(c.Aliases, "|"))
		}
	}

	return nil, 0, fmt.Errorf("no header row found: expected columns %s", strings.Join(names, ", "))
}

func complete(ix Index, cols []Column) bool {
	for _, c := range cols {
		if c.Required && !ix.Has(c.Key) {
			return false
		}
	}

	return true
}

// Blank reports whether every cell of row is empty.
func Blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

func normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}
