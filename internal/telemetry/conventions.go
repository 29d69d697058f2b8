package telemetry

// Attribute names used on spans and metrics. The mcp.* names follow the
// MCP observability conventions; the sheets.* names are specific to this
// server and let traces be filtered by the spreadsheet being touched.

const (
	// Tool execution attributes
	AttrMCPToolName    = "mcp.tool.name"           // Tool identifier (e.g. "insert_rows")
	AttrMCPToolSuccess = "mcp.tool.result.success" // Execution success (boolean)
	AttrMCPToolError   = "mcp.tool.result.error"   // Error message if failed

	// Session attributes
	AttrMCPSessionID = "mcp.session.id" // Unique session identifier
	AttrMCPTransport = "mcp.transport"  // Transport type (stdio/http/sse)

	// Sheets attributes
	AttrSheetsSpreadsheetID = "sheets.spreadsheet_id" // Target spreadsheet
	AttrSheetsSheetID       = "sheets.sheet_id"       // Resolved sheet (tab) id
	AttrSheetsRange         = "sheets.range"          // A1 range being read or written
	AttrSheetsRowCount      = "sheets.row_count"      // Rows inserted, written or read
	AttrSheetsOperation     = "sheets.api.operation"  // Underlying API operation name
)

// Span names for consistent naming across the application
const (
	SpanNameSession     = "mcp.session"      // Session span (parent for all tool calls)
	SpanNameToolExecute = "mcp.tool.execute" // Tool execution span
	SpanNameHTTPClient  = "http.client"      // HTTP client request span
)
