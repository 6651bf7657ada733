// Package memory is an in-process store implementing the reconciler's
// collaborator ports. It backs local development and tests; the SQLite
// repository is the real system of record.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
)

type Store struct {
	mu         sync.Mutex
	subs       map[string]core.Subscription
	order      []string
	categories map[string]core.Category
	entries    []core.LedgerEntry
}

func New(categories []core.Category) *Store {
	s := &Store{
		subs:       make(map[string]core.Subscription),
		categories: make(map[string]core.Category),
	}
	for _, c := range categories {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		s.categories[c.ID] = c
	}
	return s
}

// NewWithDefaults seeds the common expense/income categories.
func NewWithDefaults() *Store {
	return New([]core.Category{
		{ID: "cat-subscriptions", Name: "Subscriptions", Kind: core.KindExpense},
		{ID: "cat-housing", Name: "Housing", Kind: core.KindExpense},
		{ID: "cat-utilities", Name: "Utilities", Kind: core.KindExpense},
		{ID: "cat-benefits", Name: "Benefits", Kind: core.KindIncome},
	})
}

func (s *Store) CreateSubscription(_ context.Context, sub core.Subscription) (core.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if _, exists := s.subs[sub.ID]; exists {
		return core.Subscription{}, fmt.Errorf("subscription %s already exists", sub.ID)
	}
	s.subs[sub.ID] = sub
	s.order = append(s.order, sub.ID)
	return sub, nil
}

func (s *Store) GetSubscription(_ context.Context, id string) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, exists := s.subs[id]
	if !exists {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	return sub, nil
}

func (s *Store) ListSubscriptions(_ context.Context) ([]core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Subscription, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.subs[id])
	}
	return out, nil
}

// AdvanceAnchor sets the last logged date. Re-applying the same date is a
// no-op, keeping the operation idempotent.
func (s *Store) AdvanceAnchor(_ context.Context, id string, last core.Date) (core.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, exists := s.subs[id]
	if !exists {
		return core.Subscription{}, fmt.Errorf("subscription %s: %w", id, core.ErrNotFound)
	}
	if !sub.LastLogged.Equal(last) {
		sub.LastLogged = last
		s.subs[id] = sub
	}
	return sub, nil
}

func (s *Store) ResolveCategory(_ context.Context, id string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, exists := s.categories[id]
	if !exists {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	return cat, nil
}

func (s *Store) AppendEntry(_ context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.entries = append(s.entries, e)
	return e.ID, nil
}

// Entries returns a copy of the appended ledger, oldest first.
func (s *Store) Entries() []core.LedgerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.LedgerEntry(nil), s.entries...)
}
