// Package googlesheets exposes spreadsheet operations as MCP tools. Each tool
// parses its raw argument map, hands the work to the sheets client, and
// renders the outcome as a JSON text result. Domain errors pass through
// unconverted; the serving layer owns the translation into protocol error
// responses.
package googlesheets

import (
	"context"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
)

// Service is the slice of the spreadsheet client the tools need.
// *sheets.Client satisfies it; tests substitute a fake.
type Service interface {
	// SheetMetadata lists the per-sheet properties of a spreadsheet.
	SheetMetadata(ctx context.Context, spreadsheetID string) ([]sheets.SheetProperties, error)
	// ReadValues reads a single A1 range.
	ReadValues(ctx context.Context, spreadsheetID, rng string, opts sheets.ReadOptions) (*sheets.ValueGrid, error)
	// BatchReadValues reads several A1 ranges in one call.
	BatchReadValues(ctx context.Context, spreadsheetID string, ranges []string, opts sheets.ReadOptions) ([]sheets.ValueGrid, error)
	// UpdateValues overwrites a range with a grid of cells.
	UpdateValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, values [][]any) (sheets.WriteResult, error)
	// AppendValues appends a grid of cells after the data in a range.
	AppendValues(ctx context.Context, spreadsheetID, rng, valueInputOption, insertDataOption string, values [][]any) (sheets.WriteResult, error)
	// WriteFormula writes a formula cell into a range.
	WriteFormula(ctx context.Context, spreadsheetID, rng, formula string) (sheets.WriteResult, error)
	// CreateSpreadsheet creates a new spreadsheet and returns its id.
	CreateSpreadsheet(ctx context.Context, title string) (string, error)
	// AddSheet adds a named sheet to an existing spreadsheet.
	AddSheet(ctx context.Context, spreadsheetID, title string) error
	// DeleteSheet removes a sheet by numeric id.
	DeleteSheet(ctx context.Context, spreadsheetID string, sheetID int64) error
	// FormatRange applies cell formatting via a repeatCell request.
	FormatRange(ctx context.Context, spreadsheetID string, format map[string]any) error
}

// RowInserter is the insertion workflow behind the insert_rows tool.
// *sheets.Inserter satisfies it.
type RowInserter interface {
	InsertRows(ctx context.Context, req sheets.InsertRequest) (*sheets.InsertResult, error)
}
