package googlesheets

import (
	"context"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// CreateSheetTool creates a new spreadsheet.
type CreateSheetTool struct {
	service Service
}

// NewCreateSheetTool creates the create_sheet tool backed by the given
// service.
func NewCreateSheetTool(service Service) *CreateSheetTool {
	return &CreateSheetTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *CreateSheetTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"create_sheet",
		mcp.WithDescription("Create a new Google Sheet"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The title of the new spreadsheet"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the create_sheet tool
func (t *CreateSheetTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}

	logger.WithField("title", title).Debug("Executing create_sheet tool")

	spreadsheetID, err := t.service.CreateSpreadsheet(ctx, title)
	if err != nil {
		return nil, err
	}

	telemetry.AnnotateSpreadsheet(ctx, spreadsheetID)
	return newToolResultJSON(map[string]string{"spreadsheetId": spreadsheetID})
}

// AddSheetTool adds a named sheet to an existing spreadsheet.
type AddSheetTool struct {
	service Service
}

// NewAddSheetTool creates the add_sheet tool backed by the given service.
func NewAddSheetTool(service Service) *AddSheetTool {
	return &AddSheetTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *AddSheetTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"add_sheet",
		mcp.WithDescription("Add a new sheet to an existing spreadsheet"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("The title of the new sheet"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the add_sheet tool
func (t *AddSheetTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	title, err := requireString(args, "title")
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"title":          title,
	}).Debug("Executing add_sheet tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)

	if err := t.service.AddSheet(ctx, fileID, title); err != nil {
		return nil, err
	}
	return newToolResultJSON(statusSuccess)
}

// DeleteSheetTool removes a sheet from a spreadsheet by numeric id.
type DeleteSheetTool struct {
	service Service
}

// NewDeleteSheetTool creates the delete_sheet tool backed by the given
// service.
func NewDeleteSheetTool(service Service) *DeleteSheetTool {
	return &DeleteSheetTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *DeleteSheetTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"delete_sheet",
		mcp.WithDescription("Delete a sheet from a spreadsheet. The sheet's data is lost."),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithNumber("sheet_id",
			mcp.Required(),
			mcp.Description("The numeric ID of the sheet to delete"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the delete_sheet tool
func (t *DeleteSheetTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	sheetID, err := requireInt64(args, "sheet_id")
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"sheet_id":       sheetID,
	}).Debug("Executing delete_sheet tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)

	if err := t.service.DeleteSheet(ctx, fileID, sheetID); err != nil {
		return nil, err
	}
	return newToolResultJSON(statusSuccess)
}

// FormatRangeTool applies cell formatting to a spreadsheet.
type FormatRangeTool struct {
	service Service
}

// NewFormatRangeTool creates the format_range tool backed by the given
// service.
func NewFormatRangeTool(service Service) *FormatRangeTool {
	return &FormatRangeTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *FormatRangeTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"format_range",
		mcp.WithDescription("Format a range of cells in a sheet. Supports background colour, text format, and horizontal alignment. Formatting is applied to the first sheet."),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("The A1 notation range to format"),
		),
		mcp.WithObject("format",
			mcp.Required(),
			mcp.Description("Cell format object (e.g., {\"backgroundColor\": {\"red\": 1.0}, \"textFormat\": {\"bold\": true}})"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the format_range tool
func (t *FormatRangeTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	rng, err := requireString(args, "range")
	if err != nil {
		return nil, err
	}
	format, err := requireObject(args, "format")
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"range":          rng,
	}).Debug("Executing format_range tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)
	telemetry.AnnotateRange(ctx, rng)

	if err := t.service.FormatRange(ctx, fileID, format); err != nil {
		return nil, err
	}
	return newToolResultJSON(statusSuccess)
}

// requireInt64 extracts a mandatory integer argument.
func requireInt64(args map[string]any, field string) (int64, error) {
	if raw, ok := args[field]; !ok || raw == nil {
		return 0, &sheets.ValidationError{Field: field, Value: nil, Message: field + " is required"}
	}
	return optionalInt64(args, field, 0)
}

// requireObject extracts a mandatory JSON object argument.
func requireObject(args map[string]any, field string) (map[string]any, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return nil, &sheets.ValidationError{Field: field, Value: nil, Message: field + " is required"}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be an object"}
	}
	return obj, nil
}
