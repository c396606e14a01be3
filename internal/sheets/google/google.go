package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	budgetsSheet      string
}

// Ensure interface conformance
var _ ports.LedgerWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables and a
// service account.
// Required: GOOGLE_SPREADSHEET_ID
// Optional tab names: GOOGLE_SHEET_NAME (default "Transactions"),
// GOOGLE_BUDGETS_SHEET_NAME (default "Budgets").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return New(svc, spreadsheetID,
		envOr("GOOGLE_SHEET_NAME", "Transactions"),
		envOr("GOOGLE_BUDGETS_SHEET_NAME", "Budgets")), nil
}

func New(svc *gsheet.Service, spreadsheetID, transactionsSheet, budgetsSheet string) *Client {
	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: transactionsSheet,
		budgetsSheet:      budgetsSheet,
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReplaceLedger clears both tabs and writes the snapshot in a single batch.
func (c *Client) ReplaceLedger(ctx context.Context, s core.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearReq := &gsheet.BatchClearValuesRequest{Ranges: c.ranges()}
	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear mirror tabs: %w", err)
	}

	update := c.updateRequest(s)
	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, update).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write mirror tabs: %w", err)
	}

	slog.InfoContext(ctx, "Ledger mirrored to Google Sheets",
		"spreadsheet", c.spreadsheetID,
		"version", s.Version,
		"updated_cells", resp.TotalUpdatedCells)
	return nil
}

func (c *Client) ranges() []string {
	return []string{
		fmt.Sprintf("%s!A:E", c.transactionsSheet),
		fmt.Sprintf("%s!A:E", c.budgetsSheet),
	}
}

func (c *Client) updateRequest(s core.Snapshot) *gsheet.BatchUpdateValuesRequest {
	return &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*gsheet.ValueRange{
			{Range: fmt.Sprintf("%s!A1", c.transactionsSheet), Values: ports.TransactionRows(s)},
			{Range: fmt.Sprintf("%s!A1", c.budgetsSheet), Values: ports.BudgetRows(s)},
		},
	}
}
