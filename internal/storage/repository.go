// Package storage is the SQLite system of record for subscriptions,
// categories and ledger entries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"

	_ "modernc.org/sqlite"
)

// Sync lifecycle of a ledger entry relative to the spreadsheet export.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateSubscription implements services.SubscriptionCreator. An id is
// assigned when the caller leaves it empty.
func (r *SQLiteRepository) CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, name, amount_cents, cadence, interval_days, category_id, start_date, last_logged_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.Amount.Cents, string(sub.Cadence), sub.IntervalDays,
		sub.CategoryID, sub.StartDate.String(), nullDate(sub.LastLogged), nullDate(sub.EndDate))
	if err != nil {
		return core.Subscription{}, fmt.Errorf("insert subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription saved to SQLite",
		"id", sub.ID,
		"name", sub.Name,
		"cadence", sub.Cadence)
	return sub, nil
}

// GetSubscription implements services.SubscriptionStore.
func (r *SQLiteRepository) GetSubscription(ctx context.Context, id string) (core.Subscription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, amount_cents, cadence, interval_days, category_id, start_date, last_logged_date, end_date
		FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ListSubscriptions returns all subscriptions ordered by creation time.
func (r *SQLiteRepository) ListSubscriptions(ctx context.Context) ([]core.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, amount_cents, cadence, interval_days, category_id, start_date, last_logged_date, end_date
		FROM subscriptions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []core.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// AdvanceAnchor implements services.SubscriptionStore. Setting the same date
// twice leaves the row unchanged, which keeps the operation idempotent.
func (r *SQLiteRepository) AdvanceAnchor(ctx context.Context, id string, last core.Date) (core.Subscription, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET last_logged_date = ? WHERE id = ?`,
		last.String(), id)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("advance anchor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Subscription anchor advanced",
		"id", id,
		"last_logged_date", last.String())
	return r.GetSubscription(ctx, id)
}

// ResolveCategory implements services.CategoryResolver.
func (r *SQLiteRepository) ResolveCategory(ctx context.Context, id string) (core.Category, error) {
	var cat core.Category
	var kind string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, kind FROM categories WHERE id = ?`, id).
		Scan(&cat.ID, &cat.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("resolve category: %w", err)
	}
	cat.Kind = core.CategoryKind(kind)
	return cat, nil
}

// ListCategories returns all categories ordered by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, kind FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var cat core.Category
		var kind string
		if err := rows.Scan(&cat.ID, &cat.Name, &kind); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cat.Kind = core.CategoryKind(kind)
		cats = append(cats, cat)
	}
	return cats, rows.Err()
}

// AppendEntry implements services.LedgerWriter.
func (r *SQLiteRepository) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ledger_entries (id, entry_date, amount_cents, category, description, subscription_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date.String(), e.Amount.Cents, e.Category, e.Description, e.SubscriptionID)
	if err != nil {
		return "", fmt.Errorf("insert ledger entry: %w", err)
	}

	slog.InfoContext(ctx, "Ledger entry appended",
		"id", e.ID,
		"subscription_id", e.SubscriptionID,
		"date", e.Date.String(),
		"amount_cents", e.Amount.Cents)
	return e.ID, nil
}

// GetEntry loads a single ledger entry by id.
func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.LedgerEntry, error) {
	var e core.LedgerEntry
	var date string
	var created time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT id, entry_date, amount_cents, category, description, subscription_id, created_at
		FROM ledger_entries WHERE id = ?`, id).
		Scan(&e.ID, &date, &e.Amount.Cents, &e.Category, &e.Description, &e.SubscriptionID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LedgerEntry{}, fmt.Errorf("ledger entry %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.LedgerEntry{}, fmt.Errorf("get ledger entry: %w", err)
	}
	if e.Date, err = core.ParseDate(date); err != nil {
		return core.LedgerEntry{}, fmt.Errorf("ledger entry %s has malformed date %q", id, date)
	}
	e.CreatedAt = created
	return e, nil
}

// GetPendingSyncEntries returns the oldest entries still awaiting export.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM ledger_entries
		WHERE sync_status = ? ORDER BY created_at LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan entry id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSynced records a successful spreadsheet export.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET sync_status = ?, synced_at = CURRENT_TIMESTAMP WHERE id = ?`,
		SyncDone, id)
	if err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}
	slog.InfoContext(ctx, "Ledger entry marked as synced", "id", id)
	return nil
}

// MarkSyncError records a failed spreadsheet export.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE ledger_entries SET sync_status = ? WHERE id = ?`, SyncError, id)
	if err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}
	slog.WarnContext(ctx, "Ledger entry marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (core.Subscription, error) {
	var sub core.Subscription
	var cadence, startDate string
	var lastLogged, endDate sql.NullString
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Amount.Cents, &cadence, &sub.IntervalDays,
		&sub.CategoryID, &startDate, &lastLogged, &endDate); err != nil {
		return core.Subscription{}, err
	}
	sub.Cadence = core.Cadence(cadence)

	var err error
	if sub.StartDate, err = core.ParseDate(startDate); err != nil {
		return core.Subscription{}, fmt.Errorf("malformed start date %q", startDate)
	}
	if lastLogged.Valid && lastLogged.String != "" {
		if sub.LastLogged, err = core.ParseDate(lastLogged.String); err != nil {
			return core.Subscription{}, fmt.Errorf("malformed last logged date %q", lastLogged.String)
		}
	}
	if endDate.Valid && endDate.String != "" {
		if sub.EndDate, err = core.ParseDate(endDate.String); err != nil {
			return core.Subscription{}, fmt.Errorf("malformed end date %q", endDate.String)
		}
	}
	return sub, nil
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}
