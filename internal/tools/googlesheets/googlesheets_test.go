package googlesheets

import (
	"context"
	"io"
	"testing"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeService records every service call and plays back canned results so
// tool tests can assert both the argument translation in and the JSON
// rendering out.
type fakeService struct {
	metadata       []sheets.SheetProperties
	metadataErr    error
	metadataCalls  int
	lastMetadataID string

	readGrid *sheets.ValueGrid
	readErr  error
	lastRead struct {
		spreadsheetID string
		rng           string
		opts          sheets.ReadOptions
	}

	batchGrids []sheets.ValueGrid
	batchErr   error
	lastBatch  struct {
		spreadsheetID string
		ranges        []string
		opts          sheets.ReadOptions
	}

	writeResult sheets.WriteResult
	writeErr    error
	updateCalls int
	lastUpdate  struct {
		spreadsheetID string
		rng           string
		inputOption   string
		values        [][]any
	}
	appendCalls int
	lastAppend  struct {
		spreadsheetID string
		rng           string
		inputOption   string
		insertOption  string
		values        [][]any
	}
	lastFormula struct {
		spreadsheetID string
		rng           string
		formula       string
	}

	createdID string
	createErr error
	lastTitle string

	addErr  error
	lastAdd struct {
		spreadsheetID string
		title         string
	}

	deleteErr  error
	lastDelete struct {
		spreadsheetID string
		sheetID       int64
	}

	formatErr  error
	lastFormat struct {
		spreadsheetID string
		format        map[string]any
	}
}

func (f *fakeService) SheetMetadata(_ context.Context, spreadsheetID string) ([]sheets.SheetProperties, error) {
	f.metadataCalls++
	f.lastMetadataID = spreadsheetID
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.metadata, nil
}

func (f *fakeService) ReadValues(_ context.Context, spreadsheetID, rng string, opts sheets.ReadOptions) (*sheets.ValueGrid, error) {
	f.lastRead.spreadsheetID = spreadsheetID
	f.lastRead.rng = rng
	f.lastRead.opts = opts
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.readGrid, nil
}

func (f *fakeService) BatchReadValues(_ context.Context, spreadsheetID string, ranges []string, opts sheets.ReadOptions) ([]sheets.ValueGrid, error) {
	f.lastBatch.spreadsheetID = spreadsheetID
	f.lastBatch.ranges = ranges
	f.lastBatch.opts = opts
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchGrids, nil
}

func (f *fakeService) UpdateValues(_ context.Context, spreadsheetID, rng, valueInputOption string, values [][]any) (sheets.WriteResult, error) {
	f.updateCalls++
	f.lastUpdate.spreadsheetID = spreadsheetID
	f.lastUpdate.rng = rng
	f.lastUpdate.inputOption = valueInputOption
	f.lastUpdate.values = values
	if f.writeErr != nil {
		return sheets.WriteResult{}, f.writeErr
	}
	return f.writeResult, nil
}

func (f *fakeService) AppendValues(_ context.Context, spreadsheetID, rng, valueInputOption, insertDataOption string, values [][]any) (sheets.WriteResult, error) {
	f.appendCalls++
	f.lastAppend.spreadsheetID = spreadsheetID
	f.lastAppend.rng = rng
	f.lastAppend.inputOption = valueInputOption
	f.lastAppend.insertOption = insertDataOption
	f.lastAppend.values = values
	if f.writeErr != nil {
		return sheets.WriteResult{}, f.writeErr
	}
	return f.writeResult, nil
}

func (f *fakeService) WriteFormula(_ context.Context, spreadsheetID, rng, formula string) (sheets.WriteResult, error) {
	f.lastFormula.spreadsheetID = spreadsheetID
	f.lastFormula.rng = rng
	f.lastFormula.formula = formula
	if f.writeErr != nil {
		return sheets.WriteResult{}, f.writeErr
	}
	return f.writeResult, nil
}

func (f *fakeService) CreateSpreadsheet(_ context.Context, title string) (string, error) {
	f.lastTitle = title
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.createdID, nil
}

func (f *fakeService) AddSheet(_ context.Context, spreadsheetID, title string) error {
	f.lastAdd.spreadsheetID = spreadsheetID
	f.lastAdd.title = title
	return f.addErr
}

func (f *fakeService) DeleteSheet(_ context.Context, spreadsheetID string, sheetID int64) error {
	f.lastDelete.spreadsheetID = spreadsheetID
	f.lastDelete.sheetID = sheetID
	return f.deleteErr
}

func (f *fakeService) FormatRange(_ context.Context, spreadsheetID string, format map[string]any) error {
	f.lastFormat.spreadsheetID = spreadsheetID
	f.lastFormat.format = format
	return f.formatErr
}

// fakeInserter plays back a canned insertion outcome.
type fakeInserter struct {
	result  *sheets.InsertResult
	err     error
	calls   int
	lastReq sheets.InsertRequest
}

func (f *fakeInserter) InsertRows(_ context.Context, req sheets.InsertRequest) (*sheets.InsertResult, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// resultText unwraps the single text content of a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

// requireValidation asserts err is a validation error on the given field.
func requireValidation(t *testing.T, err error, field string) *sheets.ValidationError {
	t.Helper()
	var verr *sheets.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, field, verr.Field)
	return verr
}
