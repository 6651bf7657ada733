package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/schedule"
)

// SubscriptionCreator extends the store with the write operations the
// management endpoints need.
type SubscriptionCreator interface {
	SubscriptionStore
	CreateSubscription(ctx context.Context, sub core.Subscription) (core.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]core.Subscription, error)
}

// SubscriptionService handles subscription management. Reconciliation stays
// with the Reconciler; this service never touches LastLogged.
type SubscriptionService struct {
	store      SubscriptionCreator
	categories CategoryResolver
}

func NewSubscriptionService(store SubscriptionCreator, categories CategoryResolver) *SubscriptionService {
	return &SubscriptionService{store: store, categories: categories}
}

// Create validates the subscription, checks its category reference and
// stores it. LastLogged must be zero on creation.
func (s *SubscriptionService) Create(ctx context.Context, sub core.Subscription) (core.Subscription, error) {
	sub.LastLogged = core.Date{}
	if err := sub.Validate(); err != nil {
		return core.Subscription{}, err
	}
	if _, err := s.categories.ResolveCategory(ctx, sub.CategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Subscription{}, fmt.Errorf("category %s: %w", sub.CategoryID, core.ErrNotFound)
		}
		return core.Subscription{}, fmt.Errorf("resolve category: %w", err)
	}

	created, err := s.store.CreateSubscription(ctx, sub)
	if err != nil {
		return core.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}

	slog.InfoContext(ctx, "Subscription created",
		"id", created.ID,
		"name", created.Name,
		"cadence", created.Cadence,
		"start_date", created.StartDate.String())
	return created, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id string) (core.Subscription, error) {
	return s.store.GetSubscription(ctx, id)
}

func (s *SubscriptionService) List(ctx context.Context) ([]core.Subscription, error) {
	return s.store.ListSubscriptions(ctx)
}

// Due returns the occurrences of a subscription that are due up to until.
func (s *SubscriptionService) Due(ctx context.Context, id string, until core.Date) ([]core.Date, error) {
	sub, err := s.store.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return schedule.OccurrencesDue(sub, until)
}
