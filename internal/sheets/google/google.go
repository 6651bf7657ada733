// Package google exports ledger entries to a Google spreadsheet and reads
// the category taxonomy maintained there.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
	ports "github.com/yudong-94/spend-tracking-app-sub001/internal/sheets"
)

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	ledgerSheet     string
	categoriesSheet string
}

// Ensure interface conformance
var (
	_ ports.LedgerRowWriter = (*Client)(nil)
	_ ports.CategoryReader  = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional sheet names: GOOGLE_LEDGER_SHEET_NAME (default "Ledger"),
// GOOGLE_CATEGORIES_SHEET_NAME (default "Categories").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerSheet := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET_NAME"))
	if ledgerSheet == "" {
		ledgerSheet = "Ledger"
	}
	categoriesSheet := strings.TrimSpace(os.Getenv("GOOGLE_CATEGORIES_SHEET_NAME"))
	if categoriesSheet == "" {
		categoriesSheet = "Categories"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:             svc,
		spreadsheetID:   spreadsheetID,
		ledgerSheet:     ledgerSheet,
		categoriesSheet: categoriesSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
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

// AppendLedgerRow writes one entry as a row of the ledger sheet:
// date, description, category, amount, subscription id, entry id.
func (c *Client) AppendLedgerRow(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", c.ledgerSheet)
	vr := &gsheet.ValueRange{Values: [][]any{{
		e.Date.String(),
		e.Description,
		e.Category,
		core.FormatCents(e.Amount.Cents),
		e.SubscriptionID,
		e.ID,
	}}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.ledgerSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Ledger row appended to spreadsheet",
		"entry_id", e.ID,
		"range", ref)
	return ref, nil
}

// ListCategories reads the category sheet: column A names, column B kinds.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A2:B", c.categoriesSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var cats []core.Category
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(fmt.Sprint(row[0]))
		if name == "" {
			continue
		}
		kind := core.KindExpense
		if len(row) > 1 {
			if k := core.CategoryKind(strings.ToLower(strings.TrimSpace(fmt.Sprint(row[1])))); k.Valid() {
				kind = k
			}
		}
		cats = append(cats, core.Category{Name: name, Kind: kind})
	}
	return cats, nil
}
