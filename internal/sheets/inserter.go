package sheets

import (
	"context"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/sirupsen/logrus"
)

// fallbackTitle is used for the range prefix when an id-only request needs a
// synthesised range but the id cannot be matched back to a title.
const fallbackTitle = "Sheet1"

// Backend is the slice of the spreadsheet service the inserter needs.
// *Client satisfies it; tests substitute a spy.
type Backend interface {
	// SheetMetadata lists the per-sheet properties of a spreadsheet.
	SheetMetadata(ctx context.Context, spreadsheetID string) ([]SheetProperties, error)
	// InsertRowDimension opens blank row slots in a sheet.
	InsertRowDimension(ctx context.Context, spreadsheetID string, ins RowInsertion) error
	// WriteValues writes a grid of cells to an A1 range.
	WriteValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, rows [][]string) (WriteResult, error)
}

// Inserter performs row insertion with optional value placement: it resolves
// the target sheet, opens the row slots with a structural update, and when
// values are supplied writes them into the newly opened rows.
//
// The two backend calls are not transactional. A write failure after a
// successful structural insert surfaces as *PartialSuccessError so callers
// can tell "rows inserted, values missing" apart from "nothing happened".
type Inserter struct {
	backend Backend
	logger  *logrus.Logger
}

// NewInserter creates an Inserter backed by the given spreadsheet service.
func NewInserter(backend Backend, logger *logrus.Logger) *Inserter {
	return &Inserter{backend: backend, logger: logger}
}

// InsertRows validates req, inserts the rows, and conditionally fills them.
// All validation happens before the first backend call.
func (in *Inserter) InsertRows(ctx context.Context, req InsertRequest) (*InsertResult, error) {
	if req.ValueInputOption == "" {
		req.ValueInputOption = InputUserEntered
	}
	if err := validateInsert(req); err != nil {
		return nil, err
	}

	sheetID, title, err := in.resolveSheet(ctx, req)
	if err != nil {
		return nil, err
	}

	in.logger.WithFields(logrus.Fields{
		"spreadsheet_id": req.SpreadsheetID,
		"sheet_id":       sheetID,
		"start_index":    req.StartIndex,
		"num_rows":       req.NumRows,
		"with_values":    req.Values != nil,
	}).Info("Inserting rows")

	err = in.backend.InsertRowDimension(ctx, req.SpreadsheetID, RowInsertion{
		SheetID:           sheetID,
		StartIndex:        req.StartIndex,
		EndIndex:          req.StartIndex + req.NumRows,
		InheritFromBefore: req.InheritFromBefore,
	})
	if err != nil {
		return nil, err
	}

	result := &InsertResult{
		SpreadsheetID: req.SpreadsheetID,
		SheetID:       sheetID,
		InsertedRows:  req.NumRows,
		StartIndex:    req.StartIndex,
	}
	if req.Values == nil {
		return result, nil
	}

	rng := req.Range
	if rng == "" {
		rng, err = in.synthesizeRange(ctx, req, title)
		if err != nil {
			return nil, &PartialSuccessError{Result: result, Cause: err}
		}
	}

	written, err := in.backend.WriteValues(ctx, req.SpreadsheetID, rng, req.ValueInputOption, formatRows(req.Values))
	if err != nil {
		return nil, &PartialSuccessError{Result: result, Cause: err}
	}

	result.UpdatedRange = written.Range
	result.UpdatedRows = written.Rows
	result.UpdatedColumns = written.Columns
	result.UpdatedCells = written.Cells
	return result, nil
}

// validateInsert checks the request fields in a fixed order so error messages
// are deterministic. Nothing here touches the network.
func validateInsert(req InsertRequest) error {
	if req.SpreadsheetID == "" {
		return &ValidationError{Field: "file_id", Value: req.SpreadsheetID, Message: "file_id is required"}
	}
	if req.SheetID == nil && req.SheetName == "" {
		return &ValidationError{Field: "sheet_id", Value: nil, Message: "either sheet_id or sheet_name must be provided"}
	}
	if req.StartIndex < 0 {
		return &ValidationError{Field: "start_index", Value: req.StartIndex, Message: "start_index must be non-negative"}
	}
	if req.NumRows <= 0 {
		return &ValidationError{Field: "num_rows", Value: req.NumRows, Message: "num_rows must be positive"}
	}
	if req.Values != nil && int64(len(req.Values)) != req.NumRows {
		return &ValidationError{
			Field:   "values",
			Value:   len(req.Values),
			Message: fmt.Sprintf("values list length (%d) does not match num_rows (%d)", len(req.Values), req.NumRows),
		}
	}
	if req.ValueInputOption != InputRaw && req.ValueInputOption != InputUserEntered {
		return &ValidationError{
			Field:   "value_input_option",
			Value:   req.ValueInputOption,
			Message: fmt.Sprintf("must be one of [%s, %s]", InputRaw, InputUserEntered),
		}
	}
	if req.Values != nil && req.Range == "" && widestRow(req.Values) > MaxColumns {
		return &ValidationError{
			Field:   "values",
			Value:   widestRow(req.Values),
			Message: fmt.Sprintf("row width exceeds the spreadsheet maximum of %d columns", MaxColumns),
		}
	}
	return nil
}

// resolveSheet turns the request's sheet selector into a numeric id. An
// explicit sheet_id is used as-is; a sheet_name is matched against the
// spreadsheet metadata by exact, case-sensitive title comparison.
func (in *Inserter) resolveSheet(ctx context.Context, req InsertRequest) (int64, string, error) {
	if req.SheetID != nil {
		return *req.SheetID, req.SheetName, nil
	}

	props, err := in.backend.SheetMetadata(ctx, req.SpreadsheetID)
	if err != nil {
		return 0, "", err
	}
	for _, p := range props {
		if p.Title == req.SheetName {
			return p.ID, p.Title, nil
		}
	}
	return 0, "", &NotFoundError{
		Kind:       "sheet",
		Name:       req.SheetName,
		Suggestion: closestTitle(req.SheetName, props),
	}
}

// synthesizeRange builds the A1 range for the value write. The title comes
// from the request when the caller selected by name; an id-only request costs
// a metadata lookup, falling back to a default title when the id is unknown
// to the metadata (the write will then fail with the backend's own error).
func (in *Inserter) synthesizeRange(ctx context.Context, req InsertRequest, title string) (string, error) {
	if title == "" {
		title = fallbackTitle
		if props, err := in.backend.SheetMetadata(ctx, req.SpreadsheetID); err == nil {
			for _, p := range props {
				if req.SheetID != nil && p.ID == *req.SheetID {
					title = p.Title
					break
				}
			}
		}
	}
	return writeRange(title, req.StartIndex, req.NumRows, widestRow(req.Values))
}

// closestTitle suggests an existing sheet title for a failed lookup.
func closestTitle(name string, props []SheetProperties) string {
	titles := make([]string, len(props))
	for i, p := range props {
		titles[i] = p.Title
	}
	matches := fuzzy.Find(name, titles)
	if len(matches) == 0 {
		return ""
	}
	return titles[matches[0].Index]
}
