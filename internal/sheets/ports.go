package sheets

import (
	"context"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// LedgerRowWriter appends one reconciled occurrence to the spreadsheet.
	LedgerRowWriter interface {
		AppendLedgerRow(ctx context.Context, e core.LedgerEntry) (rowRef string, err error)
	}

	// CategoryReader lists the categories maintained in the spreadsheet.
	CategoryReader interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
	}
)
