package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/duquesnay/google-sheets-mcp-server/internal/cache"
	"github.com/duquesnay/google-sheets-mcp-server/internal/telemetry"
	"github.com/duquesnay/google-sheets-mcp-server/internal/utils/httpclient"
)

const (
	defaultRatePerMinute = 60
	defaultMetadataTTL   = 5 * time.Minute
)

// Client wraps the Google Sheets v4 API with rate limiting, retries for
// transient failures, typed errors, and a short-lived metadata cache.
// It satisfies Backend.
type Client struct {
	service  *sheets.Service
	limiter  *rate.Limiter
	metadata *cache.Cache[[]SheetProperties]
	retry    RetryConfig
	logger   *logrus.Logger
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	// TokenSource authenticates API calls. Ignored when HTTPClient is set.
	TokenSource oauth2.TokenSource
	// HTTPClient overrides the authenticated client, used by tests to point
	// the service at a local server.
	HTTPClient *http.Client
	// Endpoint overrides the API base URL, used together with HTTPClient.
	Endpoint string
	// RatePerMinute caps outgoing API calls. Defaults to 60, the per-user
	// read quota of the hosted API.
	RatePerMinute int
	// MetadataTTL bounds how long the sheet list of a spreadsheet is served
	// from cache. Defaults to 5 minutes.
	MetadataTTL time.Duration
	// Retry overrides the transient-error backoff policy.
	Retry *RetryConfig
}

// NewClient builds a Sheets API client.
func NewClient(ctx context.Context, logger *logrus.Logger, opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		if opts.TokenSource == nil {
			return nil, errors.New("sheets: either TokenSource or HTTPClient must be provided")
		}
		// API calls ride a proxy-aware base transport; the authenticated
		// client is instrumented as a whole below.
		base := &http.Client{Transport: httpclient.NewTransport(logger)}
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), opts.TokenSource)
	}
	httpClient = telemetry.WrapHTTPClient(httpClient)

	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	service, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	perMinute := opts.RatePerMinute
	if perMinute <= 0 {
		perMinute = defaultRatePerMinute
	}
	ttl := opts.MetadataTTL
	if ttl <= 0 {
		ttl = defaultMetadataTTL
	}
	retryCfg := DefaultRetryConfig()
	if opts.Retry != nil {
		retryCfg = *opts.Retry
	}

	logger.WithFields(logrus.Fields{
		"rate_per_minute": perMinute,
		"metadata_ttl":    ttl.String(),
	}).Debug("Sheets client initialised")

	return &Client{
		service:  service,
		limiter:  rate.NewLimiter(rate.Limit(perMinute)/60, 1),
		metadata: cache.NewCache[[]SheetProperties](ttl),
		retry:    retryCfg,
		logger:   logger,
	}, nil
}

// do applies the shared call policy: rate limit, retry transient failures,
// map backend errors into the typed taxonomy.
func (c *Client) do(ctx context.Context, operation, spreadsheetID string, call func(context.Context) error) error {
	return withRetry(ctx, c.logger, c.retry, operation, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		err := call(ctx)
		telemetry.RecordSheetsAPICall(ctx, operation, err == nil, float64(time.Since(start).Milliseconds()))
		if err != nil {
			return mapAPIError(operation, spreadsheetID, err)
		}
		return nil
	})
}

// SheetMetadata returns the properties of every sheet in a spreadsheet.
// Results are cached briefly; structural updates made through this client
// invalidate the entry.
func (c *Client) SheetMetadata(ctx context.Context, spreadsheetID string) ([]SheetProperties, error) {
	if props, ok := c.metadata.Get(spreadsheetID); ok {
		return props, nil
	}

	var resp *sheets.Spreadsheet
	err := c.do(ctx, "spreadsheets.get", spreadsheetID, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Get(spreadsheetID).
			Fields("sheets.properties").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	props := make([]SheetProperties, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		p := SheetProperties{
			ID:    s.Properties.SheetId,
			Title: s.Properties.Title,
			Index: s.Properties.Index,
		}
		if g := s.Properties.GridProperties; g != nil {
			p.RowCount = g.RowCount
			p.ColumnCount = g.ColumnCount
		}
		props = append(props, p)
	}
	c.metadata.Set(spreadsheetID, props)
	return props, nil
}

// buildRowInsert is a pure function so the wire shape of the structural
// update can be asserted without a server. Zero-valued fields (sheetId 0,
// startIndex 0, inheritFromBefore false) are omitted from the JSON body;
// the backend treats missing fields as their defaults.
func buildRowInsert(ins RowInsertion) *sheets.BatchUpdateSpreadsheetRequest {
	return &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			InsertDimension: &sheets.InsertDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    ins.SheetID,
					Dimension:  "ROWS",
					StartIndex: ins.StartIndex,
					EndIndex:   ins.EndIndex,
				},
				InheritFromBefore: ins.InheritFromBefore,
			},
		}},
	}
}

// InsertRowDimension opens blank row slots in a sheet. Indices are zero-based
// and half-open: StartIndex 3, EndIndex 5 inserts two rows so that the new
// rows become the fourth and fifth of the sheet.
func (c *Client) InsertRowDimension(ctx context.Context, spreadsheetID string, ins RowInsertion) error {
	return c.do(ctx, "spreadsheets.batchUpdate", spreadsheetID, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, buildRowInsert(ins)).Context(ctx).Do()
		return err
	})
}

// WriteValues writes pre-serialised cells to an A1 range.
func (c *Client) WriteValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, rows [][]string) (WriteResult, error) {
	grid := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		grid[i] = cells
	}
	return c.UpdateValues(ctx, spreadsheetID, rng, valueInputOption, grid)
}

// UpdateValues overwrites an A1 range with a grid of values. Cells are
// serialised before submission: nil becomes an empty cell, booleans become
// the TRUE/FALSE tokens the grid recognises, numbers lose their float
// formatting artefacts.
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, rng, valueInputOption string, values [][]any) (WriteResult, error) {
	body := &sheets.ValueRange{Values: formatGrid(values)}
	var resp *sheets.UpdateValuesResponse
	err := c.do(ctx, "spreadsheets.values.update", spreadsheetID, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Update(spreadsheetID, rng, body).
			ValueInputOption(valueInputOption).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return WriteResult{}, err
	}
	return normalizeUpdate(resp), nil
}

// ReadValues reads a single A1 range.
func (c *Client) ReadValues(ctx context.Context, spreadsheetID, rng string, opts ReadOptions) (*ValueGrid, error) {
	opts = opts.withDefaults()

	var resp *sheets.ValueRange
	err := c.do(ctx, "spreadsheets.values.get", spreadsheetID, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Get(spreadsheetID, rng).
			ValueRenderOption(opts.ValueRenderOption).
			DateTimeRenderOption(opts.DateTimeRenderOption).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ValueGrid{Range: resp.Range, Values: resp.Values}, nil
}

// BatchReadValues reads several A1 ranges in one call.
func (c *Client) BatchReadValues(ctx context.Context, spreadsheetID string, ranges []string, opts ReadOptions) ([]ValueGrid, error) {
	opts = opts.withDefaults()

	var resp *sheets.BatchGetValuesResponse
	err := c.do(ctx, "spreadsheets.values.batchGet", spreadsheetID, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Values.BatchGet(spreadsheetID).
			Ranges(ranges...).
			ValueRenderOption(opts.ValueRenderOption).
			DateTimeRenderOption(opts.DateTimeRenderOption).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	grids := make([]ValueGrid, 0, len(resp.ValueRanges))
	for _, vr := range resp.ValueRanges {
		if vr == nil {
			continue
		}
		grids = append(grids, ValueGrid{Range: vr.Range, Values: vr.Values})
	}
	return grids, nil
}

// AppendValues appends rows after the table that contains rng. Cells are
// serialised the same way UpdateValues serialises them.
func (c *Client) AppendValues(ctx context.Context, spreadsheetID, rng, valueInputOption, insertDataOption string, values [][]any) (WriteResult, error) {
	body := &sheets.ValueRange{Values: formatGrid(values)}
	var resp *sheets.AppendValuesResponse
	err := c.do(ctx, "spreadsheets.values.append", spreadsheetID, func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Values.Append(spreadsheetID, rng, body).
			ValueInputOption(valueInputOption).
			InsertDataOption(insertDataOption).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return WriteResult{}, err
	}
	return normalizeAppend(resp), nil
}

// CreateSpreadsheet creates a new spreadsheet and returns its id.
func (c *Client) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	var resp *sheets.Spreadsheet
	err := c.do(ctx, "spreadsheets.create", "", func(ctx context.Context) error {
		var err error
		resp, err = c.service.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{Title: title},
		}).Fields("spreadsheetId").Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", err
	}
	return resp.SpreadsheetId, nil
}

// AddSheet adds a named sheet to an existing spreadsheet.
func (c *Client) AddSheet(ctx context.Context, spreadsheetID, title string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}
	err := c.do(ctx, "spreadsheets.batchUpdate", spreadsheetID, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	c.metadata.Invalidate(spreadsheetID)
	return nil
}

// DeleteSheet removes a sheet by numeric id.
func (c *Client) DeleteSheet(ctx context.Context, spreadsheetID string, sheetID int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteSheet: &sheets.DeleteSheetRequest{SheetId: sheetID},
		}},
	}
	err := c.do(ctx, "spreadsheets.batchUpdate", spreadsheetID, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}
	c.metadata.Invalidate(spreadsheetID)
	return nil
}

// FormatRange applies cell formatting to the first sheet via a repeatCell
// request. The format object is passed through to the backend; the fields
// mask limits which properties the call can touch.
func (c *Client) FormatRange(ctx context.Context, spreadsheetID string, format map[string]any) error {
	raw, err := json.Marshal(format)
	if err != nil {
		return &ValidationError{Field: "format", Value: format, Message: "format must be a JSON object"}
	}
	var cellFormat sheets.CellFormat
	if err := json.Unmarshal(raw, &cellFormat); err != nil {
		return &ValidationError{Field: "format", Value: format, Message: "not a valid cell format: " + err.Error()}
	}

	// TODO: parse the A1 range into a GridRange so formatting can target
	// sheets other than the first.
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range:  &sheets.GridRange{SheetId: 0},
				Cell:   &sheets.CellData{UserEnteredFormat: &cellFormat},
				Fields: "userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)",
			},
		}},
	}
	return c.do(ctx, "spreadsheets.batchUpdate", spreadsheetID, func(ctx context.Context) error {
		_, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
		return err
	})
}

// WriteFormula writes a formula into a range. USER_ENTERED input is what
// makes the backend parse the leading "=" instead of storing it as text.
func (c *Client) WriteFormula(ctx context.Context, spreadsheetID, rng, formula string) (WriteResult, error) {
	return c.UpdateValues(ctx, spreadsheetID, rng, InputUserEntered, [][]any{{formula}})
}
