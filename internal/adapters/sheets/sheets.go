// Package sheets reads and writes progress spreadsheet cells through the
// Google Sheets API.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/aimsync/internal/domain/model"
	"github.com/okian/aimsync/internal/domain/sheetrange"
	"github.com/okian/aimsync/pkg/logger"
	"github.com/okian/aimsync/pkg/metrics"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// valueInputRaw stores values as typed, without formula or locale parsing.
const valueInputRaw = "RAW"

// Client is bound to a single spreadsheet.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	credentials   string
	clientOpts    []option.ClientOption
	logger        logger.Logger
}

// New creates a client for spreadsheetID.
func New(ctx context.Context, spreadsheetID string, opts ...Option) (*Client, error) {
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheetID
	}
	c := &Client{
		spreadsheetID: spreadsheetID,
		logger:        logger.Get().Named("sheets"),
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := c.clientOpts
	if c.credentials != "" {
		clientOpts = append([]option.ClientOption{
			option.WithCredentialsFile(c.credentials),
			option.WithScopes(gsheets.SpreadsheetsScope),
		}, clientOpts...)
	}
	svc, err := gsheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, model.WrapKind("sheets.new", model.ErrSourceUnavailable, err)
	}
	c.svc = svc
	return c, nil
}

// ReadRange returns the values of a single-column range, trimmed,
// lowercased and zero-filled to the declared length.
func (c *Client) ReadRange(ctx context.Context, spec string) ([]string, error) {
	const op = "sheets.read"
	r, err := sheetrange.Parse(spec)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, r.String()).Context(ctx).Do()
	metrics.RecordSheetsRequest("read", time.Since(start), err)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceUnavailable, fmt.Errorf("range %s: %w", r, err))
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = fmt.Sprint(v)
		}
	}
	vals := sheetrange.ZeroFill(r, rows)
	c.logger.Debug(ctx, "read range", logger.String("range", r.String()), logger.Int("cells", len(vals)))
	return vals, nil
}

// WriteCell stores value in a single cell. Failures are not retried.
func (c *Client) WriteCell(ctx context.Context, cell string, value float64) error {
	vr := &gsheets.ValueRange{Values: [][]interface{}{{value}}}

	start := time.Now()
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, cell, vr).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	metrics.RecordSheetsRequest("write", time.Since(start), err)
	if err != nil {
		return model.WrapKind("sheets.write", model.ErrCellWrite, fmt.Errorf("cell %s: %w", cell, err))
	}
	return nil
}
