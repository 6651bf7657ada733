package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yudong-94/spend-tracking-app-sub001/internal/core"
	applog "github.com/yudong-94/spend-tracking-app-sub001/internal/log"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/services"
	"github.com/yudong-94/spend-tracking-app-sub001/internal/sheets/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewWithDefaults()
	reconciler := services.NewReconciler(store, store, store, nil)
	subscriptions := services.NewSubscriptionService(store, store)
	logger := applog.New("test", applog.LevelFromEnv())

	srv := NewServer(":0", reconciler, subscriptions, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func seedSubscription(t *testing.T, store *memory.Store) core.Subscription {
	t.Helper()
	sub, err := store.CreateSubscription(context.Background(), core.Subscription{
		ID:         "sub-spotify",
		Name:       "Spotify",
		Amount:     core.Money{Cents: 1099},
		Cadence:    core.Monthly,
		CategoryID: "cat-subscriptions",
		StartDate:  core.NewDate(2024, 1, 20),
	})
	if err != nil {
		t.Fatalf("seed subscription: %v", err)
	}
	return sub
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHandleLogOccurrence(t *testing.T) {
	srv, store := newTestServer(t)
	seedSubscription(t, store)

	rec := doRequest(srv, http.MethodPost, "/api/occurrences",
		`{"subscription_id":"sub-spotify","date":"2024-01-20"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	entry, ok := body["entry"].(map[string]any)
	if !ok {
		t.Fatalf("missing entry in %v", body)
	}
	if entry["amount"] != "10.99" {
		t.Errorf("entry amount = %v, want 10.99", entry["amount"])
	}
	if entry["category"] != "Subscriptions" {
		t.Errorf("entry category = %v", entry["category"])
	}
	sub, ok := body["subscription"].(map[string]any)
	if !ok {
		t.Fatalf("missing subscription in %v", body)
	}
	if sub["last_logged_date"] != "2024-01-20" {
		t.Errorf("last logged = %v, want 2024-01-20", sub["last_logged_date"])
	}
}

func TestHandleLogOccurrence_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "malformed json",
			body:       `{"subscription_id":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request_body",
		},
		{
			name:       "missing id",
			body:       `{"subscription_id":"","date":"2024-01-20"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "missing_id",
		},
		{
			name:       "malformed date",
			body:       `{"subscription_id":"sub-spotify","date":"20/01/2024"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_occurrence_date",
		},
		{
			name:       "unknown subscription",
			body:       `{"subscription_id":"sub-ghost","date":"2024-01-20"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "subscription_not_found",
		},
		{
			name:       "off schedule",
			body:       `{"subscription_id":"sub-spotify","date":"2024-02-01"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "off_schedule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, store := newTestServer(t)
			seedSubscription(t, store)

			rec := doRequest(srv, http.MethodPost, "/api/occurrences", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			body := decodeBody(t, rec)
			if body["error"] != tt.wantError {
				t.Errorf("error = %v, want %s", body["error"], tt.wantError)
			}
		})
	}
}

func TestHandleLogOccurrence_OffScheduleCarriesReason(t *testing.T) {
	srv, store := newTestServer(t)
	seedSubscription(t, store)

	// Log the first occurrence, then try to log it again.
	first := doRequest(srv, http.MethodPost, "/api/occurrences",
		`{"subscription_id":"sub-spotify","date":"2024-01-20"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first log status = %d", first.Code)
	}
	repeat := doRequest(srv, http.MethodPost, "/api/occurrences",
		`{"subscription_id":"sub-spotify","date":"2024-01-20"}`)
	if repeat.Code != http.StatusUnprocessableEntity {
		t.Fatalf("repeat status = %d", repeat.Code)
	}
	body := decodeBody(t, repeat)
	if body["reason"] != "not_after_last" {
		t.Errorf("reason = %v, want not_after_last", body["reason"])
	}
}

func TestHandleCreateSubscription(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/subscriptions",
		`{"name":"Rent","amount":"1200.00","cadence":"monthly","category_id":"cat-housing","start_date":"2024-01-01"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["id"] == "" || body["id"] == nil {
		t.Error("id not assigned")
	}
	if body["amount"] != "1200.00" {
		t.Errorf("amount = %v", body["amount"])
	}
	if _, present := body["last_logged_date"]; present {
		t.Error("new subscription rendered with an anchor")
	}
}

func TestHandleCreateSubscription_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "bad amount",
			body:       `{"name":"Rent","amount":"-5","cadence":"monthly","category_id":"cat-housing","start_date":"2024-01-01"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad start date",
			body:       `{"name":"Rent","amount":"1200","cadence":"monthly","category_id":"cat-housing","start_date":"01-01-2024"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown category",
			body:       `{"name":"Rent","amount":"1200","cadence":"monthly","category_id":"cat-ghost","start_date":"2024-01-01"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid cadence",
			body:       `{"name":"Rent","amount":"1200","cadence":"daily","category_id":"cat-housing","start_date":"2024-01-01"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t)
			rec := doRequest(srv, http.MethodPost, "/api/subscriptions", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandleGetSubscription(t *testing.T) {
	srv, store := newTestServer(t)
	seedSubscription(t, store)

	rec := doRequest(srv, http.MethodGet, "/api/subscriptions/sub-spotify", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["name"] != "Spotify" {
		t.Errorf("name = %v", body["name"])
	}

	rec = doRequest(srv, http.MethodGet, "/api/subscriptions/sub-ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing subscription status = %d", rec.Code)
	}
}

func TestHandleListSubscriptions(t *testing.T) {
	srv, store := newTestServer(t)
	seedSubscription(t, store)

	rec := doRequest(srv, http.MethodGet, "/api/subscriptions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	subs, ok := body["subscriptions"].([]any)
	if !ok || len(subs) != 1 {
		t.Errorf("subscriptions = %v, want one element", body["subscriptions"])
	}
}

func TestHandleDueOccurrences(t *testing.T) {
	srv, store := newTestServer(t)
	seedSubscription(t, store)

	rec := doRequest(srv, http.MethodGet, "/api/subscriptions/sub-spotify/due?until=2024-03-31", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	due, ok := body["due"].([]any)
	if !ok {
		t.Fatalf("due missing in %v", body)
	}
	want := []string{"2024-01-20", "2024-02-20", "2024-03-20"}
	if len(due) != len(want) {
		t.Fatalf("due = %v, want %v", due, want)
	}
	for i := range want {
		if due[i] != want[i] {
			t.Errorf("due[%d] = %v, want %s", i, due[i], want[i])
		}
	}

	rec = doRequest(srv, http.MethodGet, "/api/subscriptions/sub-spotify/due?until=not-a-date", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad until status = %d", rec.Code)
	}

	rec = doRequest(srv, http.MethodGet, "/api/subscriptions/sub-ghost/due?until=2024-03-31", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing subscription status = %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}
