package googlesheets

import (
	"context"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// InsertRowsTool inserts rows at a chosen position in a sheet, shifting
// existing data down and optionally filling the opened rows with values.
type InsertRowsTool struct {
	inserter RowInserter
}

// NewInsertRowsTool creates the insert_rows tool backed by the given workflow.
func NewInsertRowsTool(inserter RowInserter) *InsertRowsTool {
	return &InsertRowsTool{inserter: inserter}
}

// Definition returns the tool's definition for MCP registration
func (t *InsertRowsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"insert_rows",
		mcp.WithDescription("Insert rows at specific positions in a Google Sheet, shifting existing data down. Optionally fills the inserted rows with values."),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithNumber("sheet_id",
			mcp.Description("The numeric ID of the sheet (optional if sheet_name is provided)"),
		),
		mcp.WithString("sheet_name",
			mcp.Description("The name of the sheet (optional if sheet_id is provided)"),
		),
		mcp.WithNumber("start_index",
			mcp.Description("The row index where to insert (0-based)"),
			mcp.DefaultNumber(0),
		),
		mcp.WithNumber("num_rows",
			mcp.Description("Number of rows to insert"),
			mcp.DefaultNumber(1),
		),
		mcp.WithArray("values",
			mcp.Description("Optional 2D array of values to fill the inserted rows. Row count must match num_rows."),
			mcp.Items(map[string]any{
				"type": "array",
			}),
		),
		mcp.WithBoolean("inherit_from_before",
			mcp.Description("Whether the inserted rows inherit formatting from the row before (default: false)"),
		),
		mcp.WithString("value_input_option",
			mcp.Description("How input values should be interpreted (default: USER_ENTERED)"),
			mcp.Enum(sheets.InputRaw, sheets.InputUserEntered),
		),
		mcp.WithString("range",
			mcp.Description("Optional explicit A1 range for placing the values, overriding the calculated range"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the insert_rows tool. Semantic validation lives in the
// insertion workflow; only argument shape errors are raised here.
func (t *InsertRowsTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	req, err := parseInsertRequest(args)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": req.SpreadsheetID,
		"start_index":    req.StartIndex,
		"num_rows":       req.NumRows,
	}).Debug("Executing insert_rows tool")

	telemetry.AnnotateSpreadsheet(ctx, req.SpreadsheetID)
	telemetry.AnnotateRowCount(ctx, req.NumRows)
	if req.Range != "" {
		telemetry.AnnotateRange(ctx, req.Range)
	}

	result, err := t.inserter.InsertRows(ctx, req)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(result)
}

// parseInsertRequest maps the raw argument map onto an insert request.
func parseInsertRequest(args map[string]any) (sheets.InsertRequest, error) {
	var req sheets.InsertRequest
	var err error

	if req.SpreadsheetID, err = optionalString(args, "file_id", ""); err != nil {
		return req, err
	}
	if req.SheetID, err = optionalSheetID(args, "sheet_id"); err != nil {
		return req, err
	}
	if req.SheetName, err = optionalString(args, "sheet_name", ""); err != nil {
		return req, err
	}
	if req.StartIndex, err = optionalInt64(args, "start_index", 0); err != nil {
		return req, err
	}
	if req.NumRows, err = optionalInt64(args, "num_rows", 1); err != nil {
		return req, err
	}
	if req.Values, err = valuesGrid(args, "values"); err != nil {
		return req, err
	}
	if req.InheritFromBefore, err = optionalBool(args, "inherit_from_before", false); err != nil {
		return req, err
	}
	if req.ValueInputOption, err = optionalString(args, "value_input_option", sheets.InputUserEntered); err != nil {
		return req, err
	}
	if req.Range, err = optionalString(args, "range", ""); err != nil {
		return req, err
	}
	return req, nil
}
