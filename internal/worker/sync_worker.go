// Package worker exports reconciled ledger entries from SQLite to the
// spreadsheet. It never logs occurrences itself; reconciliation is always
// client-initiated through the API.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/amqp"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/sheets"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/storage"
)

type SyncWorker struct {
	storage   *storage.SQLiteRepository
	sheets    sheets.LedgerRowWriter
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, sheets sheets.LedgerRowWriter, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the entry named by one AMQP message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.LedgerSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "entry_id", msg.EntryID)
	return w.syncEntry(ctx, msg.EntryID)
}

// ProcessPendingEntries exports entries whose sync message was lost. Runs
// periodically so the spreadsheet eventually catches up with the ledger.
func (w *SyncWorker) ProcessPendingEntries(ctx context.Context) error {
	ids, err := w.storage.GetPendingSyncEntries(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending entries: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending ledger entries", "count", len(ids))

	for _, id := range ids {
		if err := w.syncEntry(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending entry", "entry_id", id, "error", err)
			// Keep going; the entry stays pending or marked as errored.
		}
	}
	return nil
}

func (w *SyncWorker) syncEntry(ctx context.Context, id string) error {
	entry, err := w.storage.GetEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("get ledger entry: %w", err)
	}

	ref, err := w.sheets.AppendLedgerRow(ctx, entry)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "entry_id", id, "error", markErr)
		}
		return fmt.Errorf("append ledger row: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry exported to spreadsheet",
		"entry_id", id,
		"row_ref", ref)
	return nil
}
