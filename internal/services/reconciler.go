// Package services orchestrates the scheduling core against the stores.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/schedule"
)

// Collaborator ports. The system of record implements all three; tests plug
// in fakes per port.
type (
	SubscriptionStore interface {
		GetSubscription(ctx context.Context, id string) (core.Subscription, error)
		// AdvanceAnchor sets the subscription's last logged date and returns
		// the updated subscription. Calling it twice with the same date is a
		// no-op the second time.
		AdvanceAnchor(ctx context.Context, id string, last core.Date) (core.Subscription, error)
	}

	CategoryResolver interface {
		ResolveCategory(ctx context.Context, id string) (core.Category, error)
	}

	LedgerWriter interface {
		// AppendEntry persists the entry and returns its assigned id.
		AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error)
	}

	// LedgerSyncPublisher enqueues an entry for spreadsheet export.
	LedgerSyncPublisher interface {
		PublishLedgerSync(ctx context.Context, entryID string) error
	}
)

// Caller-facing error codes for occurrence logging.
const (
	CodeMissingID            = "missing_id"
	CodeInvalidDate          = "invalid_occurrence_date"
	CodeSubscriptionNotFound = "subscription_not_found"
	CodeMissingStartDate     = "subscription_missing_start_date"
	CodeAfterEndDate         = "after_end_date"
	CodeOffSchedule          = "off_schedule"
	CodeCategoryNotFound     = "category_not_found"
)

// ReconcileError reports why an occurrence could not be logged. Reason is
// populated for off_schedule failures with the validator's verdict.
type ReconcileError struct {
	Code   string
	Reason schedule.Reason
}

func (e *ReconcileError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Reason)
	}
	return e.Code
}

func reconcileErr(code string) *ReconcileError {
	return &ReconcileError{Code: code}
}

// Reconciler confirms that a proposed occurrence is on schedule, records it
// in the ledger and advances the subscription's anchor.
type Reconciler struct {
	store      SubscriptionStore
	categories CategoryResolver
	ledger     LedgerWriter
	publisher  LedgerSyncPublisher
}

func NewReconciler(store SubscriptionStore, categories CategoryResolver, ledger LedgerWriter, publisher LedgerSyncPublisher) *Reconciler {
	return &Reconciler{
		store:      store,
		categories: categories,
		ledger:     ledger,
		publisher:  publisher,
	}
}

// LogOccurrence validates and records one occurrence of a subscription.
//
// Steps 1-6 are pure validation against already-loaded state; side effects
// start with the ledger append. The ledger write precedes the anchor
// advance, so a failure in between leaves an entry whose anchor was not
// moved; that window is reported, not rolled back. Concurrent calls for the
// same subscription may both pass validation against a stale anchor, making
// the operation at-least-once rather than exactly-once at the system
// boundary.
func (r *Reconciler) LogOccurrence(ctx context.Context, subscriptionID, dateStr string) (*core.LedgerEntry, *core.Subscription, error) {
	subscriptionID = strings.TrimSpace(subscriptionID)
	if subscriptionID == "" {
		return nil, nil, reconcileErr(CodeMissingID)
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		return nil, nil, reconcileErr(CodeInvalidDate)
	}

	sub, err := r.store.GetSubscription(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, reconcileErr(CodeSubscriptionNotFound)
		}
		return nil, nil, fmt.Errorf("load subscription %s: %w", subscriptionID, err)
	}

	if !sub.EndDate.IsZero() && date.After(sub.EndDate) {
		return nil, nil, reconcileErr(CodeAfterEndDate)
	}
	if sub.StartDate.IsZero() {
		return nil, nil, reconcileErr(CodeMissingStartDate)
	}

	if res := schedule.Check(sub, date); !res.OK {
		return nil, nil, &ReconcileError{Code: CodeOffSchedule, Reason: res.Reason}
	}

	cat, err := r.categories.ResolveCategory(ctx, sub.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, reconcileErr(CodeCategoryNotFound)
		}
		return nil, nil, fmt.Errorf("resolve category %s: %w", sub.CategoryID, err)
	}

	entry := core.LedgerEntry{
		Date:           date,
		Amount:         sub.Amount,
		Category:       cat.Name,
		Description:    sub.Name,
		SubscriptionID: sub.ID,
	}
	entryID, err := r.ledger.AppendEntry(ctx, entry)
	if err != nil {
		return nil, nil, fmt.Errorf("append ledger entry: %w", err)
	}
	entry.ID = entryID

	updated, err := r.store.AdvanceAnchor(ctx, sub.ID, date)
	if err != nil {
		// Ledger entry exists but the anchor did not move. Surface the error
		// with enough context for an operator to repair the state.
		slog.ErrorContext(ctx, "Anchor advance failed after ledger append",
			"subscription_id", sub.ID,
			"entry_id", entryID,
			"date", date.String(),
			"error", err)
		return nil, nil, fmt.Errorf("advance anchor for %s: %w", sub.ID, err)
	}

	if r.publisher != nil {
		if err := r.publisher.PublishLedgerSync(ctx, entryID); err != nil {
			// The entry is committed locally; export catches up via the
			// worker's periodic pass.
			slog.ErrorContext(ctx, "Failed to publish ledger sync message",
				"entry_id", entryID, "error", err)
		}
	}

	slog.InfoContext(ctx, "Occurrence reconciled",
		"subscription_id", sub.ID,
		"entry_id", entryID,
		"date", date.String(),
		"amount_cents", sub.Amount.Cents)

	return &entry, &updated, nil
}
