package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
	applog "github.com/yudong-94/spend-tracking-app-sub001/internal/log"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/services"
)

type logOccurrenceRequest struct {
	SubscriptionID string `json:"subscription_id"`
	Date           string `json:"date"`
}

type createSubscriptionRequest struct {
	Name         string `json:"name"`
	Amount       string `json:"amount"`
	Cadence      string `json:"cadence"`
	IntervalDays int    `json:"interval_days,omitempty"`
	CategoryID   string `json:"category_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date,omitempty"`
}

type subscriptionView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Amount       string `json:"amount"`
	Cadence      string `json:"cadence"`
	IntervalDays int    `json:"interval_days,omitempty"`
	CategoryID   string `json:"category_id"`
	StartDate    string `json:"start_date"`
	LastLogged   string `json:"last_logged_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
}

type entryView struct {
	ID             string `json:"id"`
	Date           string `json:"date"`
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	SubscriptionID string `json:"subscription_id"`
}

func viewSubscription(s core.Subscription) subscriptionView {
	return subscriptionView{
		ID:           s.ID,
		Name:         s.Name,
		Amount:       core.FormatCents(s.Amount.Cents),
		Cadence:      string(s.Cadence),
		IntervalDays: s.IntervalDays,
		CategoryID:   s.CategoryID,
		StartDate:    s.StartDate.String(),
		LastLogged:   s.LastLogged.String(),
		EndDate:      s.EndDate.String(),
	}
}

func viewEntry(e core.LedgerEntry) entryView {
	return entryView{
		ID:             e.ID,
		Date:           e.Date.String(),
		Amount:         core.FormatCents(e.Amount.Cents),
		Category:       e.Category,
		Description:    e.Description,
		SubscriptionID: e.SubscriptionID,
	}
}

func (s *Server) handleLogOccurrence(w http.ResponseWriter, r *http.Request) {
	var req logOccurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "")
		return
	}

	entry, sub, err := s.reconciler.LogOccurrence(r.Context(), req.SubscriptionID, req.Date)
	if err != nil {
		var recErr *services.ReconcileError
		if errors.As(err, &recErr) {
			writeError(w, statusForCode(recErr.Code), recErr.Code, string(recErr.Reason))
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Occurrence logging failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"entry":        viewEntry(*entry),
		"subscription": viewSubscription(*sub),
	})
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "")
		return
	}

	cents, err := core.ParseAmountToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_amount", "")
		return
	}
	startDate, err := core.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_start_date", "")
		return
	}
	var endDate core.Date
	if req.EndDate != "" {
		if endDate, err = core.ParseDate(req.EndDate); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_end_date", "")
			return
		}
	}

	sub := core.Subscription{
		Name:         req.Name,
		Amount:       core.Money{Cents: cents},
		Cadence:      core.Cadence(req.Cadence),
		IntervalDays: req.IntervalDays,
		CategoryID:   req.CategoryID,
		StartDate:    startDate,
		EndDate:      endDate,
	}

	created, err := s.subscriptions.Create(r.Context(), sub)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "category_not_found", "")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid_subscription", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, viewSubscription(created))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subscriptions.List(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list subscriptions", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	views := make([]subscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, viewSubscription(sub))
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": views})
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subscriptions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "subscription_not_found", "")
			return
		}
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to get subscription", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "")
		return
	}
	writeJSON(w, http.StatusOK, viewSubscription(sub))
}

// handleDueOccurrences previews the dates a subscription still has to log,
// up to the "until" query parameter (default: today).
func (s *Server) handleDueOccurrences(w http.ResponseWriter, r *http.Request) {
	until := core.Date{Time: time.Now().UTC().Truncate(24 * time.Hour)}
	if v := r.URL.Query().Get("until"); v != "" {
		var err error
		if until, err = core.ParseDate(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_until_date", "")
			return
		}
	}

	dates, err := s.subscriptions.Due(r.Context(), r.PathValue("id"), until)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			writeError(w, http.StatusNotFound, "subscription_not_found", "")
		case errors.Is(err, core.ErrInvalidCadence):
			writeError(w, http.StatusUnprocessableEntity, "invalid_cadence", "")
		default:
			applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to enumerate due occurrences", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "")
		}
		return
	}

	due := make([]string, 0, len(dates))
	for _, d := range dates {
		due = append(due, d.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"due": due, "until": until.String()})
}

func statusForCode(code string) int {
	switch code {
	case services.CodeMissingID, services.CodeInvalidDate:
		return http.StatusBadRequest
	case services.CodeSubscriptionNotFound, services.CodeCategoryNotFound:
		return http.StatusNotFound
	case services.CodeOffSchedule, services.CodeAfterEndDate, services.CodeMissingStartDate:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
