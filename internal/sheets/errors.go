package sheets

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// ValidationError reports a malformed or missing request field. It is always
// raised before any network call is made.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// NotFoundError reports that a sheet title did not resolve, or that the
// backend reported the spreadsheet itself as missing (HTTP 404).
type NotFoundError struct {
	Kind       string // "sheet" or "spreadsheet"
	Name       string
	Suggestion string // closest existing title, when one is plausible
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s '%s' not found (did you mean '%s'?)", e.Kind, e.Name, e.Suggestion)
	}
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

// RequestError reports a backend 400-class failure (bad range, malformed
// structural request). These are never retried.
type RequestError struct {
	Operation  string
	StatusCode int
	Cause      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error during %s (status %d): %v", e.Operation, e.StatusCode, e.Cause)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// TransientError reports a backend 429/5xx failure. The client retries these
// with backoff; once surfaced it is terminal for the current attempt.
type TransientError struct {
	Operation  string
	StatusCode int
	Cause      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient error during %s (status %d): %v", e.Operation, e.StatusCode, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// PartialSuccessError reports that the structural insert was applied but the
// subsequent value write failed. The inserted rows remain in the spreadsheet,
// empty. Result carries everything known about the applied insert; Cause is
// the write failure. Callers must not treat this as total failure: retrying
// the whole operation would insert the rows a second time.
type PartialSuccessError struct {
	Result *InsertResult
	Cause  error
}

func (e *PartialSuccessError) Error() string {
	return fmt.Sprintf("rows inserted but value write failed (sheet %d, %d rows at index %d): %v",
		e.Result.SheetID, e.Result.InsertedRows, e.Result.StartIndex, e.Cause)
}

func (e *PartialSuccessError) Unwrap() error {
	return e.Cause
}

// mapAPIError converts a Google API error into the taxonomy above.
// 404 means the spreadsheet is gone, 429 and 5xx are retryable, and all other
// HTTP failures are caller mistakes. Non-HTTP errors (network, context) pass
// through unchanged so context.Canceled stays recognisable.
func mapAPIError(operation, spreadsheetID string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch {
	case gerr.Code == 404:
		return &NotFoundError{Kind: "spreadsheet", Name: spreadsheetID}
	case gerr.Code == 429 || gerr.Code >= 500:
		return &TransientError{Operation: operation, StatusCode: gerr.Code, Cause: err}
	default:
		return &RequestError{Operation: operation, StatusCode: gerr.Code, Cause: err}
	}
}

// IsRetryable reports whether err is worth another attempt.
func IsRetryable(err error) bool {
	var terr *TransientError
	return errors.As(err, &terr)
}
