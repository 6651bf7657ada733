// Package http exposes the JSON API: occurrence logging, subscription
// management and the due-occurrence preview.
package http

import (
	"context"
	"net/http"
	"sync"

	applog "github.com/yudong-94/spend-tracking-app-sub001/internal/log"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/services"
)

type Server struct {
	http.Server
	reconciler    *services.Reconciler
	subscriptions *services.SubscriptionService
	rateLimiter   *rateLimiter
	shutdownOnce  sync.Once
}

func NewServer(addr string, reconciler *services.Reconciler, subscriptions *services.SubscriptionService, logger *applog.Logger) *Server {
	s := &Server{
		reconciler:    reconciler,
		subscriptions: subscriptions,
		rateLimiter:   newRateLimiter(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/occurrences", s.handleLogOccurrence)
	mux.HandleFunc("POST /api/subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /api/subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("GET /api/subscriptions/{id}", s.handleGetSubscription)
	mux.HandleFunc("GET /api/subscriptions/{id}/due", s.handleDueOccurrences)

	handler := applog.Middleware(logger)(s.rateLimiter.middleware(mux))

	s.Server = http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Shutdown stops the rate limiter's cleanup goroutine before draining the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
