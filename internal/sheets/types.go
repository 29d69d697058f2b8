package sheets

// Value input modes accepted by the backend for write operations.
const (
	InputRaw         = "RAW"
	InputUserEntered = "USER_ENTERED"
)

// Insert data options accepted by the backend for append operations.
const (
	InsertOverwrite = "OVERWRITE"
	InsertNewRows   = "INSERT_ROWS"
)

// InsertRequest describes one row-insertion operation. Exactly one of SheetID
// and SheetName is needed to select the target sheet; when both are given
// SheetID wins and SheetName is only reused as the range prefix.
type InsertRequest struct {
	SpreadsheetID     string
	SheetID           *int64
	SheetName         string
	StartIndex        int64
	NumRows           int64
	Values            [][]any // nil means insert blank rows only
	InheritFromBefore bool
	ValueInputOption  string // RAW or USER_ENTERED
	Range             string // explicit A1 override for the value write
}

// InsertResult is the consolidated outcome of an insertion. The Updated
// fields are populated only when the request carried values; a successful
// write always reports nonzero counts, so omitempty drops exactly the
// no-values case.
type InsertResult struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	SheetID        int64  `json:"sheetId"`
	InsertedRows   int64  `json:"insertedRows"`
	StartIndex     int64  `json:"startIndex"`
	UpdatedRange   string `json:"updatedRange,omitempty"`
	UpdatedRows    int64  `json:"updatedRows,omitempty"`
	UpdatedColumns int64  `json:"updatedColumns,omitempty"`
	UpdatedCells   int64  `json:"updatedCells,omitempty"`
}

// SheetProperties is the per-sheet slice of spreadsheet metadata.
type SheetProperties struct {
	ID          int64  `json:"sheetId"`
	Title       string `json:"title"`
	Index       int64  `json:"index"`
	RowCount    int64  `json:"rowCount,omitempty"`
	ColumnCount int64  `json:"columnCount,omitempty"`
}

// RowInsertion is the structural half of an insert: open numRows row slots in
// sheet SheetID over the half-open interval [StartIndex, EndIndex).
type RowInsertion struct {
	SheetID           int64
	StartIndex        int64
	EndIndex          int64
	InheritFromBefore bool
}

// WriteResult is the normalised outcome of any value-writing backend call,
// whatever shape the endpoint reported it in.
type WriteResult struct {
	Range   string `json:"updatedRange"`
	Rows    int64  `json:"updatedRows"`
	Columns int64  `json:"updatedColumns"`
	Cells   int64  `json:"updatedCells"`
}

// ValueGrid is the outcome of a single-range read.
type ValueGrid struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// ReadOptions control how read values are rendered.
type ReadOptions struct {
	ValueRenderOption    string // FORMATTED_VALUE, UNFORMATTED_VALUE, FORMULA
	DateTimeRenderOption string // SERIAL_NUMBER, FORMATTED_STRING
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.ValueRenderOption == "" {
		o.ValueRenderOption = "FORMATTED_VALUE"
	}
	if o.DateTimeRenderOption == "" {
		o.DateTimeRenderOption = "FORMATTED_STRING"
	}
	return o
}
