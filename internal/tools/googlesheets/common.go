package googlesheets

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/duquesnay/google-sheets-mcp-server/internal/sheets"
	"github.com/mark3labs/mcp-go/mcp"
)

// newToolResultJSON renders a response as indented JSON text content.
func newToolResultJSON(data any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// ErrorKind classifies a domain error for the protocol-level error payload.
// Partial success is checked first because it wraps the underlying write
// failure, which would otherwise match its own class.
func ErrorKind(err error) string {
	var pserr *sheets.PartialSuccessError
	var verr *sheets.ValidationError
	var nferr *sheets.NotFoundError
	var rerr *sheets.RequestError
	var terr *sheets.TransientError
	switch {
	case errors.As(err, &pserr):
		return "partial_success"
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &nferr):
		return "not_found"
	case errors.As(err, &rerr):
		return "backend_request"
	case errors.As(err, &terr):
		return "backend_transient"
	default:
		return "internal"
	}
}

// ErrorResult converts a domain error into a protocol-level error response
// carrying kind and message. A partial success additionally carries the
// applied insert so callers can avoid re-inserting the same rows.
func ErrorResult(err error) *mcp.CallToolResult {
	payload := map[string]any{
		"kind":    ErrorKind(err),
		"message": err.Error(),
	}
	var pserr *sheets.PartialSuccessError
	if errors.As(err, &pserr) && pserr.Result != nil {
		payload["partial"] = pserr.Result
	}
	jsonBytes, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultError(string(jsonBytes))
}

// requireString extracts a mandatory non-empty string argument.
func requireString(args map[string]any, field string) (string, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return "", &sheets.ValidationError{Field: field, Value: nil, Message: field + " is required"}
	}
	s, ok := raw.(string)
	if !ok {
		return "", &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be a string"}
	}
	if s == "" {
		return "", &sheets.ValidationError{Field: field, Value: s, Message: field + " is required"}
	}
	return s, nil
}

// optionalString extracts a string argument, falling back to def when the
// argument is absent or empty.
func optionalString(args map[string]any, field, def string) (string, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be a string"}
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// optionalInt64 extracts an integer argument. JSON decoding delivers numbers
// as float64, so integral floats are accepted; fractional ones are not.
func optionalInt64(args map[string]any, field string, def int64) (int64, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case float64:
		n := int64(v)
		if float64(n) != v {
			return 0, &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be an integer"}
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be an integer"}
	}
}

// optionalBool extracts a boolean argument, falling back to def when absent.
func optionalBool(args map[string]any, field string, def bool) (bool, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return def, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be a boolean"}
	}
	return b, nil
}

// optionalSheetID extracts the numeric sheet selector, which is distinct from
// "sheet id zero": nil means the argument was not supplied at all.
func optionalSheetID(args map[string]any, field string) (*int64, error) {
	if raw, ok := args[field]; !ok || raw == nil {
		return nil, nil
	}
	id, err := optionalInt64(args, field, 0)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// valuesGrid extracts a two-dimensional cell grid. A missing argument returns
// a nil grid; a present argument must be an array of row arrays.
func valuesGrid(args map[string]any, field string) ([][]any, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return nil, nil
	}
	rows, ok := raw.([]any)
	if !ok {
		return nil, &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be an array of rows"}
	}
	grid := make([][]any, len(rows))
	for i, rawRow := range rows {
		row, ok := rawRow.([]any)
		if !ok {
			return nil, &sheets.ValidationError{
				Field:   field,
				Value:   i,
				Message: fmt.Sprintf("row %d must be an array of cells", i),
			}
		}
		grid[i] = row
	}
	return grid, nil
}

// rangesList extracts the ranges argument of a batch read, which accepts
// either a single A1 string or an array of them.
func rangesList(args map[string]any, field string) ([]string, error) {
	raw, ok := args[field]
	if !ok || raw == nil {
		return nil, &sheets.ValidationError{Field: field, Value: nil, Message: field + " is required"}
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil, &sheets.ValidationError{Field: field, Value: v, Message: field + " is required"}
		}
		return []string{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, &sheets.ValidationError{Field: field, Value: v, Message: field + " cannot be empty"}
		}
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, &sheets.ValidationError{
					Field:   field,
					Value:   i,
					Message: fmt.Sprintf("range %d must be a non-empty string", i),
				}
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, &sheets.ValidationError{Field: field, Value: raw, Message: field + " must be a string or an array of strings"}
	}
}

// validateInputOption checks a write option against the set the backend
// accepts.
func validateInputOption(field, value string) error {
	if value != sheets.InputRaw && value != sheets.InputUserEntered {
		return &sheets.ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("must be one of [%s, %s]", sheets.InputRaw, sheets.InputUserEntered),
		}
	}
	return nil
}

// validateInsertDataOption checks an append placement option.
func validateInsertDataOption(field, value string) error {
	if value != sheets.InsertOverwrite && value != sheets.InsertNewRows {
		return &sheets.ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("must be one of [%s, %s]", sheets.InsertOverwrite, sheets.InsertNewRows),
		}
	}
	return nil
}
