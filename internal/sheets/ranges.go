package sheets

import (
	"fmt"
	"strconv"
)

// MaxColumns is the widest grid Google Sheets accepts (column "ZZZ").
const MaxColumns = 18278

// ColumnLetter converts a 1-based column count into spreadsheet column-letter
// notation: 1→"A", 26→"Z", 27→"AA", 702→"ZZ", 703→"AAA". The conversion is
// bijective base-26, so it extends past "ZZ" instead of reproducing the
// defective "Z<n>" placeholder the original server emitted for wide ranges.
func ColumnLetter(n int) (string, error) {
	if n < 1 {
		return "", &ValidationError{Field: "values", Value: n, Message: "column count must be at least 1"}
	}
	if n > MaxColumns {
		return "", &ValidationError{
			Field:   "values",
			Value:   n,
			Message: fmt.Sprintf("column count exceeds the spreadsheet maximum of %d", MaxColumns),
		}
	}
	var b [3]byte
	i := len(b)
	for n > 0 {
		n--
		i--
		b[i] = byte('A' + n%26)
		n /= 26
	}
	return string(b[i:]), nil
}

// writeRange synthesises the A1 range covering rows inserted at startIndex.
// The structural insert addresses rows with 0-based half-open indices; the
// value write addresses them with 1-based inclusive row numbers, so the range
// spans rows startIndex+1 through startIndex+numRows.
func writeRange(title string, startIndex, numRows int64, maxCols int) (string, error) {
	endCol, err := ColumnLetter(maxCols)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("'%s'!A%d:%s%d", title, startIndex+1, endCol, startIndex+numRows), nil
}

// widestRow returns the column span needed for a ragged value grid. Rows may
// differ in length; the widest one sizes the range.
func widestRow(values [][]any) int {
	max := 1
	for _, row := range values {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// formatCell renders a single cell the way the backend expects string input:
// nulls become empty cells, booleans become the literal TRUE/FALSE tokens the
// grid recognises, and numbers lose their JSON float formatting artefacts.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case bool:
		if c {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	case int:
		return strconv.Itoa(c)
	case int64:
		return strconv.FormatInt(c, 10)
	default:
		return fmt.Sprintf("%v", c)
	}
}

// formatRows renders a full value grid for a write request.
func formatRows(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = formatCell(cell)
		}
		rows[i] = cells
	}
	return rows
}

// formatGrid is formatRows in the any-typed shape the JSON request body wants.
func formatGrid(values [][]any) [][]any {
	rows := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = formatCell(cell)
		}
		rows[i] = cells
	}
	return rows
}
