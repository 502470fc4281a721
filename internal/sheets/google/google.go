package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	applog "soda/internal/log"
	ports "soda/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const defaultReportSheet = "Semanas"

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID   string
	ReportSheet     string
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportSheet   string
	logger        *applog.Logger
}

var _ ports.ReportWriter = (*Client)(nil)

// New creates a Sheets client authenticated with service account
// credentials, inline or from a file. Extra options are passed to the
// Sheets service and take precedence.
func New(ctx context.Context, cfg Config, logger *applog.Logger, opts ...goption.ClientOption) (*Client, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheet := strings.TrimSpace(cfg.ReportSheet)
	if sheet == "" {
		sheet = defaultReportSheet
	}

	svcOpts, err := serviceOptions(cfg, len(opts) > 0)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, append(svcOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger = logger.WithComponent(applog.ComponentSheets)
	logger.InfoContext(ctx, "Google Sheets service created", "sheet", sheet)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportSheet:   sheet,
		logger:        logger,
	}, nil
}

// serviceOptions resolves credentials. When the caller supplies its own
// options, missing credentials are not an error.
func serviceOptions(cfg Config, custom bool) ([]goption.ClientOption, error) {
	credentialsJSON := []byte(strings.TrimSpace(cfg.CredentialsJSON))
	file := strings.TrimSpace(cfg.CredentialsFile)
	if len(credentialsJSON) == 0 && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case len(credentialsJSON) > 0:
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	case custom:
		return nil, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()),
	}, nil
}

// newHTTPClientWithPooling keeps connections to the Sheets API alive between
// exports.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// WriteWeeklyReport clears the report sheet and writes the header followed
// by rows.
func (c *Client) WriteWeeklyReport(ctx context.Context, rows []ports.WeekRow) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:G", c.reportSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", c.reportSheet, err)
	}

	values := make([][]any, 0, len(rows)+1)
	header := make([]any, len(ports.ReportHeader))
	for i, h := range ports.ReportHeader {
		header[i] = h
	}
	values = append(values, header)
	for _, r := range rows {
		values = append(values, r.Values())
	}

	dataRange := fmt.Sprintf("%s!A1:G%d", c.reportSheet, len(values))
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", c.reportSheet, err)
	}

	c.logger.InfoContext(ctx, "Weekly report written",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, len(rows))
	return nil
}
