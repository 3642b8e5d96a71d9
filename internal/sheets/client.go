// Package sheets reads profession records from, and appends test results to,
// Google Sheets spreadsheets.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var ErrNotConfigured = errors.New("google sheets not configured")

// inputRaw stores values as typed; text starting with "=" stays text.
const inputRaw = "RAW"

// valuesAPI is the part of the Sheets values API the package uses.
type valuesAPI interface {
	Get(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error)
	Append(ctx context.Context, spreadsheetID, writeRange, inputOption string, rows [][]interface{}) error
}

type serviceValues struct {
	srv *sheets.Service
}

func (v serviceValues) Get(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	resp, err := v.srv.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (v serviceValues) Append(ctx context.Context, spreadsheetID, writeRange, inputOption string, rows [][]interface{}) error {
	_, err := v.srv.Spreadsheets.Values.Append(spreadsheetID, writeRange, &sheets.ValueRange{Values: rows}).
		ValueInputOption(inputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// Client wraps the Sheets API with a per-call timeout.
type Client struct {
	values  valuesAPI
	timeout time.Duration
}

// NewClient authenticates with a service account JSON key file.
func NewClient(ctx context.Context, credentialsPath string) (*Client, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{values: serviceValues{srv: srv}, timeout: 10 * time.Second}, nil
}

func (c *Client) get(ctx context.Context, spreadsheetID, readRange string) ([][]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	rows, err := c.values.Get(ctx, spreadsheetID, readRange)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", readRange, err)
	}
	return rows, nil
}

// appendRows adds rows below the table at writeRange without interpreting
// them, so user-supplied text is never evaluated as a formula.
func (c *Client) appendRows(ctx context.Context, spreadsheetID, writeRange string, rows [][]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.values.Append(ctx, spreadsheetID, writeRange, inputRaw, rows); err != nil {
		return fmt.Errorf("append to %s: %w", writeRange, err)
	}
	return nil
}

// sheetRange quotes the worksheet name so names with spaces work.
func sheetRange(worksheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", worksheet, cells)
}
