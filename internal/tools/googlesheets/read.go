package googlesheets

import (
	"context"
	"strings"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// ReadRangeTool reads a single A1 range from a spreadsheet.
type ReadRangeTool struct {
	service Service
}

// NewReadRangeTool creates the read_range tool backed by the given service.
func NewReadRangeTool(service Service) *ReadRangeTool {
	return &ReadRangeTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *ReadRangeTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"read_range",
		mcp.WithDescription("Read data from a specific range in a Google Sheet"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("The A1 notation range to read (e.g., 'A1:B10', 'Sheet1!A1:C5')"),
		),
		mcp.WithString("value_render_option",
			mcp.Description("How values should be represented (default: FORMATTED_VALUE)"),
			mcp.Enum("FORMATTED_VALUE", "UNFORMATTED_VALUE", "FORMULA"),
		),
		mcp.WithString("date_time_render_option",
			mcp.Description("How dates should be represented (default: FORMATTED_STRING)"),
			mcp.Enum("SERIAL_NUMBER", "FORMATTED_STRING"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the read_range tool
func (t *ReadRangeTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	rng, err := requireString(args, "range")
	if err != nil {
		return nil, err
	}
	opts, err := parseReadOptions(args)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"range":          rng,
	}).Debug("Executing read_range tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)
	telemetry.AnnotateRange(ctx, rng)

	grid, err := t.service.ReadValues(ctx, fileID, rng, opts)
	if err != nil {
		return nil, err
	}

	// An empty range reads as an empty grid, never null.
	values := grid.Values
	if values == nil {
		values = [][]any{}
	}
	return newToolResultJSON(sheets.ValueGrid{Range: grid.Range, Values: values})
}

// GetValuesTool reads several A1 ranges from a spreadsheet in one batch call.
type GetValuesTool struct {
	service Service
}

// NewGetValuesTool creates the get_values tool backed by the given service.
func NewGetValuesTool(service Service) *GetValuesTool {
	return &GetValuesTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *GetValuesTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_values",
		mcp.WithDescription("Get values from multiple ranges in a Google Sheet using batch API"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithArray("ranges",
			mcp.Required(),
			mcp.Description("Ranges to read in A1 notation. A single range string is also accepted."),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
		mcp.WithString("value_render_option",
			mcp.Description("How values should be represented (default: FORMATTED_VALUE)"),
			mcp.Enum("FORMATTED_VALUE", "UNFORMATTED_VALUE", "FORMULA"),
		),
		mcp.WithString("date_time_render_option",
			mcp.Description("How dates should be represented (default: FORMATTED_STRING)"),
			mcp.Enum("SERIAL_NUMBER", "FORMATTED_STRING"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the get_values tool
func (t *GetValuesTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}
	ranges, err := rangesList(args, "ranges")
	if err != nil {
		return nil, err
	}
	opts, err := parseReadOptions(args)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"spreadsheet_id": fileID,
		"ranges":         len(ranges),
	}).Debug("Executing get_values tool")

	telemetry.AnnotateSpreadsheet(ctx, fileID)
	telemetry.AnnotateRange(ctx, strings.Join(ranges, ","))

	grids, err := t.service.BatchReadValues(ctx, fileID, ranges, opts)
	if err != nil {
		return nil, err
	}

	valueRanges := make([]sheets.ValueGrid, len(grids))
	for i, grid := range grids {
		if grid.Values == nil {
			grid.Values = [][]any{}
		}
		valueRanges[i] = grid
	}

	response := struct {
		SpreadsheetID string             `json:"spreadsheetId"`
		ValueRanges   []sheets.ValueGrid `json:"valueRanges"`
	}{
		SpreadsheetID: fileID,
		ValueRanges:   valueRanges,
	}
	return newToolResultJSON(response)
}

// SheetPropertiesTool lists the per-sheet properties of a spreadsheet.
type SheetPropertiesTool struct {
	service Service
}

// NewSheetPropertiesTool creates the get_sheet_properties tool backed by the
// given service.
func NewSheetPropertiesTool(service Service) *SheetPropertiesTool {
	return &SheetPropertiesTool{service: service}
}

// Definition returns the tool's definition for MCP registration
func (t *SheetPropertiesTool) Definition() mcp.Tool {
	return mcp.NewTool(
		"get_sheet_properties",
		mcp.WithDescription("Get properties of all sheets in a spreadsheet, including sheet IDs, titles, and grid sizes"),
		mcp.WithString("file_id",
			mcp.Required(),
			mcp.Description("The ID of the Google Sheet"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)
}

// Execute executes the get_sheet_properties tool
func (t *SheetPropertiesTool) Execute(ctx context.Context, logger *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	fileID, err := requireString(args, "file_id")
	if err != nil {
		return nil, err
	}

	logger.WithField("spreadsheet_id", fileID).Debug("Executing get_sheet_properties tool")
	telemetry.AnnotateSpreadsheet(ctx, fileID)

	props, err := t.service.SheetMetadata(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return newToolResultJSON(props)
}

// parseReadOptions extracts the shared render options of the read tools.
// Unknown render values pass through; the backend rejects them itself.
func parseReadOptions(args map[string]any) (sheets.ReadOptions, error) {
	var opts sheets.ReadOptions
	var err error

	if opts.ValueRenderOption, err = optionalString(args, "value_render_option", ""); err != nil {
		return opts, err
	}
	if opts.DateTimeRenderOption, err = optionalString(args, "date_time_render_option", ""); err != nil {
		return opts, err
	}
	return opts, nil
}
