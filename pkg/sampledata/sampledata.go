// Package sampledata converts the service's column-oriented sample dataset
// into row-oriented CSV text for local download.
package sampledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Columns is the column-oriented payload returned by the sample endpoint:
// one entry per column, each holding the column's values in row order.
type Columns map[string][]any

// Leading columns, kept first when present so the output reads naturally.
var preferredOrder = []string{"customer_id", "customer_name"}

// ColumnOrder returns a deterministic column ordering: preferred identifier
// columns first, the rest sorted alphabetically.
func ColumnOrder(cols Columns) []string {
	order := make([]string, 0, len(cols))
	seen := make(map[string]bool, len(cols))

	for _, name := range preferredOrder {
		if _, ok := cols[name]; ok {
			order = append(order, name)
			seen[name] = true
		}
	}

	rest := make([]string, 0, len(cols))
	for name := range cols {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

// WriteCSV transposes the columns into CSV rows and writes them to w.
// Ragged columns are padded with empty cells.
func WriteCSV(w io.Writer, cols Columns) error {
	order := ColumnOrder(cols)

	rows := 0
	for _, name := range order {
		if n := len(cols[name]); n > rows {
			rows = n
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(order); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, len(order))
	for i := 0; i < rows; i++ {
		for j, name := range order {
			values := cols[name]
			if i < len(values) {
				record[j] = formatValue(values[i])
			} else {
				record[j] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ToCSV is a convenience wrapper returning the CSV as a string.
func ToCSV(cols Columns) (string, error) {
	var sb strings.Builder
	if err := WriteCSV(&sb, cols); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// formatValue renders a decoded JSON value as a CSV cell without exponent
// notation for numbers.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
