package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/amqp"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/storage"
)

type fakeRowWriter struct {
	rows []core.LedgerEntry
	err  error
}

func (f *fakeRowWriter) AppendLedgerRow(_ context.Context, e core.LedgerEntry) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, e)
	return fmt.Sprintf("Ledger!A%d", len(f.rows)+1), nil
}

func newWorkerFixture(t *testing.T, writer *fakeRowWriter) (*SyncWorker, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewSyncWorker(repo, writer, 10), repo
}

func appendPending(t *testing.T, repo *storage.SQLiteRepository) string {
	t.Helper()
	id, err := repo.AppendEntry(context.Background(), core.LedgerEntry{
		Date:        core.NewDate(2024, 4, 1),
		Amount:      core.Money{Cents: 1599},
		Category:    "Subscriptions",
		Description: "Cloud storage",
	})
	if err != nil {
		t.Fatalf("AppendEntry() error = %v", err)
	}
	return id
}

func TestSyncWorker_HandleSyncMessage(t *testing.T) {
	ctx := context.Background()
	writer := &fakeRowWriter{}
	w, repo := newWorkerFixture(t, writer)
	id := appendPending(t, repo)

	if err := w.HandleSyncMessage(ctx, amqp.NewLedgerSyncMessage(id)); err != nil {
		t.Fatalf("HandleSyncMessage() error = %v", err)
	}
	if len(writer.rows) != 1 || writer.rows[0].ID != id {
		t.Fatalf("exported rows = %v", writer.rows)
	}

	pending, err := repo.GetPendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncEntries() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("entry still pending after export: %v", pending)
	}
}

func TestSyncWorker_HandleSyncMessage_UnknownEntry(t *testing.T) {
	w, _ := newWorkerFixture(t, &fakeRowWriter{})
	err := w.HandleSyncMessage(context.Background(), amqp.NewLedgerSyncMessage("missing"))
	if err == nil {
		t.Fatal("unknown entry accepted")
	}
}

func TestSyncWorker_ProcessPendingEntries(t *testing.T) {
	ctx := context.Background()
	writer := &fakeRowWriter{}
	w, repo := newWorkerFixture(t, writer)
	appendPending(t, repo)
	appendPending(t, repo)

	if err := w.ProcessPendingEntries(ctx); err != nil {
		t.Fatalf("ProcessPendingEntries() error = %v", err)
	}
	if len(writer.rows) != 2 {
		t.Fatalf("exported %d rows, want 2", len(writer.rows))
	}

	// A second pass finds nothing left to do.
	if err := w.ProcessPendingEntries(ctx); err != nil {
		t.Fatalf("second ProcessPendingEntries() error = %v", err)
	}
	if len(writer.rows) != 2 {
		t.Errorf("entries exported twice: %d rows", len(writer.rows))
	}
}

func TestSyncWorker_ExportFailureMarksError(t *testing.T) {
	ctx := context.Background()
	writer := &fakeRowWriter{err: errors.New("quota exceeded")}
	w, repo := newWorkerFixture(t, writer)
	appendPending(t, repo)

	// The pass itself succeeds; the failed entry leaves the pending queue.
	if err := w.ProcessPendingEntries(ctx); err != nil {
		t.Fatalf("ProcessPendingEntries() error = %v", err)
	}
	pending, err := repo.GetPendingSyncEntries(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncEntries() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed entry still pending: %v", pending)
	}
}
