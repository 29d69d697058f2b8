package sheets

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spyBackend records every backend call so tests can assert exactly which
// operations a request triggered, including that none happened at all.
type spyBackend struct {
	metadata      []SheetProperties
	metadataErr   error
	metadataCalls int

	insertErr   error
	insertCalls []RowInsertion

	writeResult WriteResult
	writeErr    error
	writeCalls  []spyWrite
}

type spyWrite struct {
	rng    string
	option string
	rows   [][]string
}

func (s *spyBackend) SheetMetadata(ctx context.Context, spreadsheetID string) ([]SheetProperties, error) {
	s.metadataCalls++
	if s.metadataErr != nil {
		return nil, s.metadataErr
	}
	return s.metadata, nil
}

func (s *spyBackend) InsertRowDimension(ctx context.Context, spreadsheetID string, ins RowInsertion) error {
	s.insertCalls = append(s.insertCalls, ins)
	return s.insertErr
}

func (s *spyBackend) WriteValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, rows [][]string) (WriteResult, error) {
	s.writeCalls = append(s.writeCalls, spyWrite{rng: rng, option: valueInputOption, rows: rows})
	if s.writeErr != nil {
		return WriteResult{}, s.writeErr
	}
	return s.writeResult, nil
}

func newTestInserter(backend Backend) *Inserter {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewInserter(backend, logger)
}

func int64p(v int64) *int64 { return &v }

func TestInsertRowsValidation(t *testing.T) {
	cases := []struct {
		name  string
		req   InsertRequest
		field string
	}{
		{
			name:  "missing file id",
			req:   InsertRequest{SheetName: "Sheet1", NumRows: 1},
			field: "file_id",
		},
		{
			name:  "missing sheet selector",
			req:   InsertRequest{SpreadsheetID: "abc", NumRows: 1},
			field: "sheet_id",
		},
		{
			name:  "negative start index",
			req:   InsertRequest{SpreadsheetID: "abc", SheetName: "Sheet1", StartIndex: -1, NumRows: 1},
			field: "start_index",
		},
		{
			name:  "zero rows",
			req:   InsertRequest{SpreadsheetID: "abc", SheetName: "Sheet1", NumRows: 0},
			field: "num_rows",
		},
		{
			name:  "negative rows",
			req:   InsertRequest{SpreadsheetID: "abc", SheetName: "Sheet1", NumRows: -3},
			field: "num_rows",
		},
		{
			name:  "values shorter than num rows",
			req:   InsertRequest{SpreadsheetID: "abc", SheetName: "Sheet1", NumRows: 2, Values: [][]any{{"only"}}},
			field: "values",
		},
		{
			name: "invalid value input option",
			req: InsertRequest{
				SpreadsheetID:    "abc",
				SheetName:        "Sheet1",
				NumRows:          1,
				Values:           [][]any{{"x"}},
				ValueInputOption: "raw",
			},
			field: "value_input_option",
		},
		{
			name: "row wider than the grid maximum",
			req: InsertRequest{
				SpreadsheetID: "abc",
				SheetName:     "Sheet1",
				NumRows:       1,
				Values:        [][]any{make([]any, MaxColumns+1)},
			},
			field: "values",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spy := &spyBackend{}
			_, err := newTestInserter(spy).InsertRows(context.Background(), tc.req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)

			assert.Zero(t, spy.metadataCalls, "validation must reject before any backend call")
			assert.Empty(t, spy.insertCalls)
			assert.Empty(t, spy.writeCalls)
		})
	}
}

func TestInsertRowsValidationChecksFileIDFirst(t *testing.T) {
	spy := &spyBackend{}
	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		StartIndex:       -4,
		NumRows:          0,
		ValueInputOption: "bogus",
	})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "file_id", verr.Field)
}

func TestInsertRowsResolvesSheetByName(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{
		{ID: 0, Title: "Sheet1"},
		{ID: 77, Title: "Budget"},
	}}

	res, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Budget",
		StartIndex:    3,
		NumRows:       2,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, spy.metadataCalls)
	require.Len(t, spy.insertCalls, 1)
	assert.Equal(t, RowInsertion{SheetID: 77, StartIndex: 3, EndIndex: 5}, spy.insertCalls[0])

	assert.Equal(t, "abc", res.SpreadsheetID)
	assert.Equal(t, int64(77), res.SheetID)
	assert.Equal(t, int64(2), res.InsertedRows)
	assert.Equal(t, int64(3), res.StartIndex)
	assert.Empty(t, res.UpdatedRange)
	assert.Empty(t, spy.writeCalls, "no values, no write")
}

func TestInsertRowsSheetIDSkipsResolution(t *testing.T) {
	spy := &spyBackend{}

	res, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetID:       int64p(5),
		SheetName:     "AnythingAtAll",
		NumRows:       1,
	})
	require.NoError(t, err)

	assert.Zero(t, spy.metadataCalls, "an explicit sheet id needs no lookup")
	require.Len(t, spy.insertCalls, 1)
	assert.Equal(t, int64(5), spy.insertCalls[0].SheetID)
	assert.Equal(t, int64(5), res.SheetID)
}

func TestInsertRowsTitleMatchIsCaseSensitive(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 3, Title: "budget"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Budget",
		NumRows:       1,
	})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "sheet", nf.Kind)
	assert.Equal(t, "Budget", nf.Name)
	assert.Equal(t, "budget", nf.Suggestion)
	assert.Empty(t, spy.insertCalls, "a failed lookup must not insert anything")
}

func TestInsertRowsUnknownSheetSuggestsClosest(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{
		{ID: 0, Title: "Budget"},
		{ID: 1, Title: "Summary"},
	}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Sumary",
		NumRows:       1,
	})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Summary", nf.Suggestion)
	assert.Contains(t, err.Error(), "did you mean 'Summary'?")
}

func TestInsertRowsUnknownSheetWithoutSuggestion(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 0, Title: "Budget"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Zzz",
		NumRows:       1,
	})

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, nf.Suggestion)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestInsertRowsMetadataFailurePropagates(t *testing.T) {
	boom := &TransientError{Operation: "spreadsheets.get", StatusCode: 503, Cause: errors.New("unavailable")}
	spy := &spyBackend{metadataErr: boom}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Sheet1",
		NumRows:       1,
	})

	require.ErrorIs(t, err, boom)
	assert.Empty(t, spy.insertCalls)
}

func TestInsertRowsWritesValues(t *testing.T) {
	spy := &spyBackend{
		metadata:    []SheetProperties{{ID: 0, Title: "Sheet1"}},
		writeResult: WriteResult{Range: "'Sheet1'!A4:C5", Rows: 2, Columns: 3, Cells: 6},
	}

	res, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Sheet1",
		StartIndex:    3,
		NumRows:       2,
		Values:        [][]any{{"a", nil, true}, {1.5, "e", "f"}},
	})
	require.NoError(t, err)

	require.Len(t, spy.writeCalls, 1)
	write := spy.writeCalls[0]
	assert.Equal(t, "'Sheet1'!A4:C5", write.rng)
	assert.Equal(t, InputUserEntered, write.option, "input option defaults to USER_ENTERED")
	assert.Equal(t, [][]string{{"a", "", "TRUE"}, {"1.5", "e", "f"}}, write.rows)

	assert.Equal(t, "'Sheet1'!A4:C5", res.UpdatedRange)
	assert.Equal(t, int64(2), res.UpdatedRows)
	assert.Equal(t, int64(3), res.UpdatedColumns)
	assert.Equal(t, int64(6), res.UpdatedCells)
	assert.Equal(t, 1, spy.metadataCalls, "title came from the request, no second lookup")
}

func TestInsertRowsRawInputOption(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 0, Title: "Sheet1"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID:    "abc",
		SheetName:        "Sheet1",
		NumRows:          1,
		Values:           [][]any{{"=SUM(A1:A2)"}},
		ValueInputOption: InputRaw,
	})
	require.NoError(t, err)

	require.Len(t, spy.writeCalls, 1)
	assert.Equal(t, InputRaw, spy.writeCalls[0].option)
}

func TestInsertRowsExplicitRangeOverride(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 4, Title: "Data"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Data",
		NumRows:       1,
		Values:        [][]any{{"x"}},
		Range:         "Data!B2:B2",
	})
	require.NoError(t, err)

	require.Len(t, spy.writeCalls, 1)
	assert.Equal(t, "Data!B2:B2", spy.writeCalls[0].rng)
}

func TestInsertRowsIDOnlySynthesisLooksUpTitle(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 42, Title: "Data"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetID:       int64p(42),
		StartIndex:    0,
		NumRows:       2,
		Values:        [][]any{{"a", "b"}, {"c", "d"}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, spy.metadataCalls, "metadata is needed only for the range title")
	require.Len(t, spy.writeCalls, 1)
	assert.Equal(t, "'Data'!A1:B2", spy.writeCalls[0].rng)
}

func TestInsertRowsIDOnlyFallsBackToDefaultTitle(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 0, Title: "Other"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetID:       int64p(99),
		NumRows:       1,
		Values:        [][]any{{"a", "b"}},
	})
	require.NoError(t, err)

	require.Len(t, spy.writeCalls, 1)
	assert.Equal(t, "'Sheet1'!A1:B1", spy.writeCalls[0].rng)
}

func TestInsertRowsPartialSuccessOnWriteFailure(t *testing.T) {
	writeErr := &RequestError{Operation: "spreadsheets.values.update", StatusCode: 400, Cause: errors.New("bad range")}
	spy := &spyBackend{
		metadata: []SheetProperties{{ID: 7, Title: "Budget"}},
		writeErr: writeErr,
	}

	res, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Budget",
		StartIndex:    1,
		NumRows:       2,
		Values:        [][]any{{"a"}, {"b"}},
	})
	assert.Nil(t, res)

	var pse *PartialSuccessError
	require.ErrorAs(t, err, &pse)
	require.NotNil(t, pse.Result)
	assert.Equal(t, int64(7), pse.Result.SheetID)
	assert.Equal(t, int64(2), pse.Result.InsertedRows)
	assert.Equal(t, int64(1), pse.Result.StartIndex)
	assert.Empty(t, pse.Result.UpdatedRange)
	require.ErrorIs(t, err, writeErr)

	require.Len(t, spy.insertCalls, 1, "the structural insert did happen")
	require.Len(t, spy.writeCalls, 1)
}

func TestInsertRowsStructuralFailureIsTotal(t *testing.T) {
	insertErr := &TransientError{Operation: "spreadsheets.batchUpdate", StatusCode: 503, Cause: errors.New("unavailable")}
	spy := &spyBackend{
		metadata:  []SheetProperties{{ID: 0, Title: "Sheet1"}},
		insertErr: insertErr,
	}

	res, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Sheet1",
		NumRows:       1,
		Values:        [][]any{{"x"}},
	})

	assert.Nil(t, res)
	require.ErrorIs(t, err, insertErr)
	var pse *PartialSuccessError
	assert.False(t, errors.As(err, &pse), "a failed insert is a total failure, not a partial one")
	assert.Empty(t, spy.writeCalls, "no write after a failed insert")
}

func TestInsertRowsInheritFromBefore(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 0, Title: "Sheet1"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID:     "abc",
		SheetName:         "Sheet1",
		StartIndex:        4,
		NumRows:           1,
		InheritFromBefore: true,
	})
	require.NoError(t, err)

	require.Len(t, spy.insertCalls, 1)
	assert.True(t, spy.insertCalls[0].InheritFromBefore)
}

func TestInsertRowsSequentialCallsRepeatTheInsert(t *testing.T) {
	spy := &spyBackend{metadata: []SheetProperties{{ID: 0, Title: "Sheet1"}}}
	ins := newTestInserter(spy)
	req := InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "Sheet1",
		StartIndex:    3,
		NumRows:       2,
	}

	_, err := ins.InsertRows(context.Background(), req)
	require.NoError(t, err)
	_, err = ins.InsertRows(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, spy.insertCalls, 2)
	assert.Equal(t, spy.insertCalls[0], spy.insertCalls[1], "the second call inserts again at the same index")
}

func TestInsertRowsExplicitRangeSkipsWidthCheck(t *testing.T) {
	// a width beyond the grid maximum is the backend's problem when the
	// caller supplies the range themselves
	spy := &spyBackend{metadata: []SheetProperties{{ID: 0, Title: "S"}}}

	_, err := newTestInserter(spy).InsertRows(context.Background(), InsertRequest{
		SpreadsheetID: "abc",
		SheetName:     "S",
		NumRows:       1,
		Values:        [][]any{make([]any, MaxColumns+1)},
		Range:         "S!A1:B1",
	})
	require.NoError(t, err)
}
