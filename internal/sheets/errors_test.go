package sheets

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestMapAPIErrorStatusCodes(t *testing.T) {
	cases := []struct {
		code      int
		transient bool
	}{
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
		{400, false},
		{401, false},
		{403, false},
	}
	for _, tc := range cases {
		gerr := &googleapi.Error{Code: tc.code, Message: "boom"}
		mapped := mapAPIError("spreadsheets.values.update", "abc", gerr)

		if tc.transient {
			var terr *TransientError
			require.ErrorAs(t, mapped, &terr, "status %d", tc.code)
			assert.Equal(t, tc.code, terr.StatusCode)
			assert.Equal(t, "spreadsheets.values.update", terr.Operation)
			assert.True(t, IsRetryable(mapped), "status %d", tc.code)
		} else {
			var rerr *RequestError
			require.ErrorAs(t, mapped, &rerr, "status %d", tc.code)
			assert.Equal(t, tc.code, rerr.StatusCode)
			assert.False(t, IsRetryable(mapped), "status %d", tc.code)
		}
		require.ErrorIs(t, mapped, gerr, "the original API error stays reachable")
	}
}

func TestMapAPIErrorNotFound(t *testing.T) {
	mapped := mapAPIError("spreadsheets.get", "missing-id", &googleapi.Error{Code: 404})

	var nf *NotFoundError
	require.ErrorAs(t, mapped, &nf)
	assert.Equal(t, "spreadsheet", nf.Kind)
	assert.Equal(t, "missing-id", nf.Name)
	assert.False(t, IsRetryable(mapped))
}

func TestMapAPIErrorPassesThroughNonHTTP(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapAPIError("op", "id", plain))
	assert.Equal(t, context.Canceled, mapAPIError("op", "id", context.Canceled))
	assert.NoError(t, mapAPIError("op", "id", nil))
}

func TestMapAPIErrorUnwrapsNestedGoogleError(t *testing.T) {
	gerr := &googleapi.Error{Code: 503}
	wrapped := fmt.Errorf("call failed: %w", gerr)

	var terr *TransientError
	require.ErrorAs(t, mapAPIError("op", "id", wrapped), &terr)
	assert.Equal(t, 503, terr.StatusCode)
}

func TestErrorMessages(t *testing.T) {
	verr := &ValidationError{Field: "num_rows", Value: 0, Message: "num_rows must be positive"}
	assert.Equal(t, "validation error for field 'num_rows' with value '0': num_rows must be positive", verr.Error())

	withSuggestion := &NotFoundError{Kind: "sheet", Name: "Budgets", Suggestion: "Budget"}
	assert.Equal(t, "sheet 'Budgets' not found (did you mean 'Budget'?)", withSuggestion.Error())

	plain := &NotFoundError{Kind: "spreadsheet", Name: "xyz"}
	assert.Equal(t, "spreadsheet 'xyz' not found", plain.Error())
}

func TestPartialSuccessErrorUnwraps(t *testing.T) {
	cause := errors.New("write failed")
	pse := &PartialSuccessError{
		Result: &InsertResult{SheetID: 7, InsertedRows: 2, StartIndex: 3},
		Cause:  cause,
	}

	require.ErrorIs(t, pse, cause)
	assert.Contains(t, pse.Error(), "rows inserted but value write failed")
	assert.Contains(t, pse.Error(), "sheet 7")
	assert.Contains(t, pse.Error(), "2 rows at index 3")
}
