package sheets

import "google.golang.org/api/sheets/v4"

// The backend reports write outcomes in two shapes: values.update returns the
// counts as top-level fields, while values.append nests the same counts under
// an "updates" sub-object. Everything downstream works with WriteResult so
// merge logic never needs to know which endpoint produced the numbers.

func normalizeUpdate(resp *sheets.UpdateValuesResponse) WriteResult {
	if resp == nil {
		return WriteResult{}
	}
	return WriteResult{
		Range:   resp.UpdatedRange,
		Rows:    resp.UpdatedRows,
		Columns: resp.UpdatedColumns,
		Cells:   resp.UpdatedCells,
	}
}

func normalizeAppend(resp *sheets.AppendValuesResponse) WriteResult {
	if resp == nil {
		return WriteResult{}
	}
	return normalizeUpdate(resp.Updates)
}
