package googlesheets

import (
	"context"
	"testing"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateRangeToolUpdatesAndRenders(t *testing.T) {
	service := &fakeService{
		writeResult: sheets.WriteResult{
			Range:   "'Sheet1'!A1:B2",
			Rows:    2,
			Columns: 2,
			Cells:   4,
		},
	}
	tool := NewUpdateRangeTool(service)

	result, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id": "abc",
		"range":   "Sheet1!A1:B2",
		"values":  []any{[]any{"a", float64(1)}, []any{"b", float64(2)}},
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", service.lastUpdate.spreadsheetID)
	assert.Equal(t, "Sheet1!A1:B2", service.lastUpdate.rng)
	assert.Equal(t, sheets.InputUserEntered, service.lastUpdate.inputOption)
	assert.Equal(t, [][]any{{"a", float64(1)}, {"b", float64(2)}}, service.lastUpdate.values)

	assert.JSONEq(t, `{
		"spreadsheetId": "abc",
		"updatedRange": "'Sheet1'!A1:B2",
		"updatedRows": 2,
		"updatedColumns": 2,
		"updatedCells": 4
	}`, resultText(t, result))
}

func TestUpdateRangeToolValidation(t *testing.T) {
	cases := []struct {
		name    string
		args    map[string]any
		field   string
		message string
	}{
		{
			name:  "missing file id",
			args:  map[string]any{"range": "A1", "values": []any{[]any{"x"}}},
			field: "file_id",
		},
		{
			name:  "missing range",
			args:  map[string]any{"file_id": "abc", "values": []any{[]any{"x"}}},
			field: "range",
		},
		{
			name:    "missing values",
			args:    map[string]any{"file_id": "abc", "range": "A1"},
			field:   "values",
			message: "values is required",
		},
		{
			name:    "empty values",
			args:    map[string]any{"file_id": "abc", "range": "A1", "values": []any{}},
			field:   "values",
			message: "values array cannot be empty",
		},
		{
			name:    "empty row",
			args:    map[string]any{"file_id": "abc", "range": "A1", "values": []any{[]any{"x"}, []any{}}},
			field:   "values",
			message: "values array cannot contain empty rows",
		},
		{
			name:    "ragged rows",
			args:    map[string]any{"file_id": "abc", "range": "A1:B2", "values": []any{[]any{"a", "b"}, []any{"c"}}},
			field:   "values",
			message: "all rows must have the same number of columns",
		},
		{
			name:  "invalid input option",
			args:  map[string]any{"file_id": "abc", "range": "A1", "values": []any{[]any{"x"}}, "value_input_option": "raw"},
			field: "value_input_option",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			service := &fakeService{}
			tool := NewUpdateRangeTool(service)

			result, err := tool.Execute(context.Background(), testLogger(), tc.args)
			assert.Nil(t, result)
			verr := requireValidation(t, err, tc.field)
			if tc.message != "" {
				assert.Equal(t, tc.message, verr.Message)
			}
			assert.Zero(t, service.updateCalls, "backend must not be called on validation failure")
		})
	}
}

func TestAppendRowsToolAppendsAndRenders(t *testing.T) {
	service := &fakeService{
		writeResult: sheets.WriteResult{
			Range:   "'Log'!A7:C8",
			Rows:    2,
			Columns: 3,
			Cells:   6,
		},
	}
	tool := NewAppendRowsTool(service)

	result, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id":            "abc",
		"range":              "Log!A:C",
		"values":             []any{[]any{"x", "y", "z"}, []any{"p", "q", "r"}},
		"insert_data_option": "INSERT_ROWS",
	})
	require.NoError(t, err)

	assert.Equal(t, "Log!A:C", service.lastAppend.rng)
	assert.Equal(t, sheets.InputUserEntered, service.lastAppend.inputOption)
	assert.Equal(t, sheets.InsertNewRows, service.lastAppend.insertOption)

	assert.JSONEq(t, `{
		"spreadsheetId": "abc",
		"updatedRange": "'Log'!A7:C8",
		"updatedRows": 2,
		"updatedColumns": 3,
		"updatedCells": 6
	}`, resultText(t, result))
}

func TestAppendRowsToolDefaultsToOverwrite(t *testing.T) {
	service := &fakeService{}
	tool := NewAppendRowsTool(service)

	_, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id": "abc",
		"range":   "A:B",
		"values":  []any{[]any{"x"}},
	})
	require.NoError(t, err)
	assert.Equal(t, sheets.InsertOverwrite, service.lastAppend.insertOption)
}

func TestAppendRowsToolAllowsRaggedRows(t *testing.T) {
	service := &fakeService{}
	tool := NewAppendRowsTool(service)

	// Appends have no rectangularity requirement; the backend pads short rows.
	_, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id": "abc",
		"range":   "A:C",
		"values":  []any{[]any{"a", "b", "c"}, []any{"d"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, service.appendCalls)
}

func TestAppendRowsToolValidatesOptions(t *testing.T) {
	service := &fakeService{}
	tool := NewAppendRowsTool(service)

	_, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id":            "abc",
		"range":              "A:B",
		"values":             []any{[]any{"x"}},
		"insert_data_option": "APPEND",
	})
	verr := requireValidation(t, err, "insert_data_option")
	assert.Equal(t, "must be one of [OVERWRITE, INSERT_ROWS]", verr.Message)

	_, err = tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id":            "abc",
		"range":              "A:B",
		"values":             []any{[]any{"x"}},
		"value_input_option": "user_entered",
	})
	verr = requireValidation(t, err, "value_input_option")
	assert.Equal(t, "must be one of [RAW, USER_ENTERED]", verr.Message)

	assert.Zero(t, service.appendCalls)
}

func TestWriteFormulaToolWritesFormula(t *testing.T) {
	service := &fakeService{
		writeResult: sheets.WriteResult{Range: "'Sheet1'!D2", Rows: 1, Columns: 1, Cells: 1},
	}
	tool := NewWriteFormulaTool(service)

	result, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id": "abc",
		"range":   "Sheet1!D2",
		"formula": "=SUM(A1:A10)",
	})
	require.NoError(t, err)

	assert.Equal(t, "abc", service.lastFormula.spreadsheetID)
	assert.Equal(t, "Sheet1!D2", service.lastFormula.rng)
	assert.Equal(t, "=SUM(A1:A10)", service.lastFormula.formula)
	assert.JSONEq(t, `{"status": "success"}`, resultText(t, result))
}

func TestWriteFormulaToolRequiresFormula(t *testing.T) {
	tool := NewWriteFormulaTool(&fakeService{})

	_, err := tool.Execute(context.Background(), testLogger(), map[string]any{
		"file_id": "abc",
		"range":   "D2",
	})
	requireValidation(t, err, "formula")
}
