package googlesheets

import (
	"context"
	"fmt"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// writeResponse is the flat update summary the write tools report.
type writeResponse struct {
	SpreadsheetID string `json:"spreadsheetId"`
	sheets.WriteResult
}

// statusSuccess is the fixed acknowledgement of tools that have no richer
// outcome to report.
var statusSuccess = map[string]string{"status": "success"}

// UpdateRangeTool overwrites a range of cells with new values.
type UpdateRangeTool struct {
	service Service
}

// NewUpdateRangeTool creates the update_range tool backed by the given
// service.
func NewUpdateRangeTool(service Service) *UpdateRangeTool {
	return &UpdateRangeTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *UpdateRangeTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"update_range",
		mcp.WithDescription("Update a specific range in a Google Sheet with new values"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("The A1 notation range to update (e.g., 'A1:B10', 'Sheet1!A1:C5')"),
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("2D array of values to write. All rows must have the same number of columns."),
			mcp.Items(map[string]any{
				"type": "array",
			}),
		),
		mcp.WithString("value_input_option",
			mcp.Description("How input values should be interpreted (default: USER_ENTERED)"),
			mcp.Enum(sheets.InputRaw, sheets.InputUserEntered),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the update_range tool
func (t *UpdateRangeTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	rng, err := requireString(args, "range")
	if err != nil {
		return nil, err
	}
	values, err := requireGrid(args, "values")
	if err != nil {
		return nil, err
	}
	if err := validateUpdateGrid(values); err != nil {
		return nil, err
	}
	inputOption, err := optionalString(args, "value_input_option", sheets.InputUserEntered)
	if err != nil {
		return nil, err
	}
	if err := validateInputOption("value_input_option", inputOption); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"range":          rng,
		"rows":           len(values),
	}).Debug("Executing update_range tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)
	telemetry.AnnotateRange(ctx, rng)
	telemetry.AnnotateRowCount(ctx, int64(len(values)))

	result, err := t.service.UpdateValues(ctx, fileID, rng, inputOption, values)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(writeResponse{SpreadsheetID: fileID, WriteResult: result})
}

// validateUpdateGrid enforces the stricter grid rules of a range update:
// rows must be non-empty and rectangular, because the update range addresses
// every cell it covers.
func validateUpdateGrid(values [][]any) error {
	for i, row := range values {
		if len(row) == 0 {
			return &sheets.ValidationError{
				Field:   "values",
				Value:   i,
				Message: "values array cannot contain empty rows",
			}
		}
	}
	width := len(values[0])
	for _, row := range values {
		if len(row) != width {
			return &sheets.ValidationError{
				Field:   "values",
				Value:   len(row),
				Message: "all rows must have the same number of columns",
			}
		}
	}
	return nil
}

// AppendRowsTool appends rows after the last row of data in a range.
type AppendRowsTool struct {
	service Service
}

// NewAppendRowsTool creates the append_rows tool backed by the given service.
func NewAppendRowsTool(service Service) *AppendRowsTool {
	return &AppendRowsTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *AppendRowsTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"append_rows",
		mcp.WithDescription("Append rows to the end of existing data in a Google Sheet"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("The A1 notation range to search for existing data (e.g., 'Sheet1!A:D')"),
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("2D array of values to append after the existing data"),
			mcp.Items(map[string]any{
				"type": "array",
			}),
		),
		mcp.WithString("value_input_option",
			mcp.Description("How input values should be interpreted (default: USER_ENTERED)"),
			mcp.Enum(sheets.InputRaw, sheets.InputUserEntered),
		),
		mcp.WithString("insert_data_option",
			mcp.Description("How appended data should be placed (default: OVERWRITE)"),
			mcp.Enum(sheets.InsertOverwrite, sheets.InsertNewRows),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the append_rows tool
func (t *AppendRowsTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	rng, err := requireString(args, "range")
	if err != nil {
		return nil, err
	}
	values, err := requireGrid(args, "values")
	if err != nil {
		return nil, err
	}
	inputOption, err := optionalString(args, "value_input_option", sheets.InputUserEntered)
	if err != nil {
		return nil, err
	}
	if err := validateInputOption("value_input_option", inputOption); err != nil {
		return nil, err
	}
	insertOption, err := optionalString(args, "insert_data_option", sheets.InsertOverwrite)
	if err != nil {
		return nil, err
	}
	if err := validateInsertDataOption("insert_data_option", insertOption); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"range":          rng,
		"rows":           len(values),
	}).Debug("Executing append_rows tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)
	telemetry.AnnotateRange(ctx, rng)
	telemetry.AnnotateRowCount(ctx, int64(len(values)))

	result, err := t.service.AppendValues(ctx, fileID, rng, inputOption, insertOption, values)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(writeResponse{SpreadsheetID: fileID, WriteResult: result})
}

// WriteFormulaTool writes a formula into a range of cells.
type WriteFormulaTool struct {
	service Service
}

// NewWriteFormulaTool creates the write_formula tool backed by the given
// service.
func NewWriteFormulaTool(service Service) *WriteFormulaTool {
	return &WriteFormulaTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *WriteFormulaTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"write_formula",
		mcp.WithDescription("Write a formula to a range of cells"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("The A1 notation range to write the formula to (e.g., 'Sheet1!D2')"),
		),
		mcp.WithString("formula",
			mcp.Required(),
			mcp.Description("The formula to write, starting with '=' (e.g., '=SUM(A1:A10)')"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the write_formula tool
func (t *WriteFormulaTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	rng, err := requireString(args, "range")
	if err != nil {
		return nil, err
	}
	formula, err := requireString(args, "formula")
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"range":          rng,
	}).Debug("Executing write_formula tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)
	telemetry.AnnotateRange(ctx, rng)

	if _, err := t.service.WriteFormula(ctx, fileID, rng, formula); err != nil {
		return nil, err
	}
	return newToolResultJSON(statusSuccess)
}

// requireGrid extracts a mandatory non-empty cell grid.
func requireGrid(args map[string]any, field string) ([][]any, error) {
	if _, ok := args[field]; !ok {
		return nil, &sheets.ValidationError{Field: field, Value: nil, Message: field + " is required"}
	}
	grid, err := valuesGrid(args, field)
	if err != nil {
		return nil, err
	}
	if grid == nil {
		return nil, &sheets.ValidationError{Field: field, Value: nil, Message: field + " is required"}
	}
	if len(grid) == 0 {
		return nil, &sheets.ValidationError{Field: field, Value: 0, Message: fmt.Sprintf("%s array cannot be empty", field)}
	}
	return grid, nil
}
