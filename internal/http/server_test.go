package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"famledger/internal/core"
	"famledger/internal/log"
	"famledger/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	tracker := services.New(logger)
	err := tracker.Seed(
		[]core.Member{{ID: "m1", Name: "Janaka"}},
		[]core.Wallet{
			{ID: "w1", Name: "Salary Savings", OpeningBalance: 150000},
			{ID: "w2", Name: "Family Debit Card", Limit: 10000},
		},
		[]core.Category{{ID: "c1", Name: "Food & Dining", Icon: "restaurant"}},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := NewServer(":0", tracker, nil, Options{
		InsightsCacheSize:  8,
		InsightsCacheTTL:   time.Minute,
		RateLimitPerMinute: 1000,
	})
	t.Cleanup(func() {
		s.rateLimiter.stop()
		close(s.stopCacheCleanup)
	})
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func expenseBody(amount float64) map[string]any {
	return map[string]any{
		"amount":   amount,
		"date":     "2025-06-10",
		"category": "c1",
		"source":   "w1",
		"member":   "m1",
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
}

func TestAddExpenseAndTotals(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/expenses", expenseBody(1500))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense = %d: %s", rec.Code, rec.Body)
	}
	tx := decodeBody[core.Transaction](t, rec)
	if tx.Amount != 1500 || tx.Category.Name != "Food & Dining" {
		t.Fatalf("unexpected transaction %+v", tx)
	}

	rec = doJSON(t, s, http.MethodGet, "/totals?date=2025-06-10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("totals = %d", rec.Code)
	}
	totals := decodeBody[struct {
		Today      float64 `json:"today"`
		Month      float64 `json:"month"`
		TodayLabel string  `json:"todayLabel"`
	}](t, rec)
	if totals.Today != 1500 || totals.Month != 1500 {
		t.Fatalf("unexpected totals %+v", totals)
	}
	if totals.TodayLabel != "1,500" {
		t.Fatalf("unexpected label %q", totals.TodayLabel)
	}
}

func TestValidationMapsTo422(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/expenses", expenseBody(0))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero amount = %d, want 422", rec.Code)
	}

	body := expenseBody(100)
	body["date"] = "10/06/2025"
	if rec = doJSON(t, s, http.MethodPost, "/expenses", body); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad date = %d, want 422", rec.Code)
	}

	transfer := map[string]any{"from": "w1", "to": "w1", "amount": 100}
	if rec = doJSON(t, s, http.MethodPost, "/transfers", transfer); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("same wallet = %d, want 422", rec.Code)
	}
}

func TestNotFoundMapsTo404(t *testing.T) {
	s := newTestServer(t)

	body := expenseBody(100)
	body["category"] = "missing"
	if rec := doJSON(t, s, http.MethodPost, "/expenses", body); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown category = %d, want 404", rec.Code)
	}

	if rec := doJSON(t, s, http.MethodGet, "/wallets/missing/stats", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown wallet = %d, want 404", rec.Code)
	}

	if rec := doJSON(t, s, http.MethodDelete, "/expenses/999", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown transaction = %d, want 404", rec.Code)
	}
}

func TestBadRequestMapsTo400(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/expenses", bytes.NewBufferString("{broken"))
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed body = %d, want 400", rec.Code)
	}

	if rec := doJSON(t, s, http.MethodDelete, "/expenses/not-a-number", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id = %d, want 400", rec.Code)
	}
}

func TestEditAndDeleteExpense(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/expenses", expenseBody(100))
	tx := decodeBody[core.Transaction](t, rec)

	body := expenseBody(250)
	body["note"] = "groceries"
	rec = doJSON(t, s, http.MethodPut, fmt.Sprintf("/expenses/%d", tx.ID), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("edit = %d: %s", rec.Code, rec.Body)
	}
	edited := decodeBody[core.Transaction](t, rec)
	if edited.ID != tx.ID || edited.Amount != 250 || edited.Note != "groceries" {
		t.Fatalf("unexpected edit %+v", edited)
	}

	if rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/expenses/%d", tx.ID), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/transactions", nil)
	if txs := decodeBody[[]core.Transaction](t, rec); len(txs) != 0 {
		t.Fatalf("expected empty ledger, got %d", len(txs))
	}
}

func TestUndoEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/undo", nil)
	first := decodeBody[struct {
		Undone      bool              `json:"undone"`
		Transaction *core.Transaction `json:"transaction"`
	}](t, rec)
	if first.Undone || first.Transaction != nil {
		t.Fatalf("undo on empty ledger must be a no-op: %+v", first)
	}

	doJSON(t, s, http.MethodPost, "/expenses", expenseBody(100))
	rec = doJSON(t, s, http.MethodPost, "/undo", nil)
	second := decodeBody[struct {
		Undone      bool              `json:"undone"`
		Transaction *core.Transaction `json:"transaction"`
	}](t, rec)
	if !second.Undone || second.Transaction == nil || second.Transaction.Amount != 100 {
		t.Fatalf("unexpected undo response %+v", second)
	}
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := expenseBody(100)
	body["note"] = "weekly groceries"
	doJSON(t, s, http.MethodPost, "/expenses", body)
	doJSON(t, s, http.MethodPost, "/transfers", map[string]any{
		"from": "w1", "to": "w2", "amount": 500, "date": "2025-06-10",
	})

	rec := doJSON(t, s, http.MethodGet, "/search?q=groceries", nil)
	result := decodeBody[struct {
		Count int    `json:"count"`
		Label string `json:"label"`
	}](t, rec)
	if result.Count != 1 || result.Label != "1 item" {
		t.Fatalf("unexpected result %+v", result)
	}

	rec = doJSON(t, s, http.MethodGet, "/search?type=transfer", nil)
	if r := decodeBody[struct {
		Count int `json:"count"`
	}](t, rec); r.Count != 1 {
		t.Fatalf("expected 1 transfer, got %d", r.Count)
	}
}

func TestWalletStatsEndpoint(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/expenses", expenseBody(1500))

	rec := doJSON(t, s, http.MethodGet, "/wallets/w1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats = %d", rec.Code)
	}
	stats := decodeBody[struct {
		Spent   float64 `json:"spent"`
		Balance float64 `json:"balance"`
		Display float64 `json:"display"`
	}](t, rec)
	if stats.Spent != 1500 || stats.Balance != -1500 || stats.Display != 148500 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestInsightsCachedUntilMutation(t *testing.T) {
	s := newTestServer(t)
	doJSON(t, s, http.MethodPost, "/expenses", expenseBody(100))

	rec := doJSON(t, s, http.MethodGet, "/insights?year=2025&month=6", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("insights = %d", rec.Code)
	}
	first := decodeBody[struct {
		Summary struct {
			Total float64 `json:"total"`
		} `json:"summary"`
	}](t, rec)
	if first.Summary.Total != 100 {
		t.Fatalf("unexpected total %v", first.Summary.Total)
	}
	if s.insightsCache.Size() != 1 {
		t.Fatalf("report not cached")
	}

	// A mutation purges the cache, and the next read sees fresh data
	doJSON(t, s, http.MethodPost, "/expenses", expenseBody(400))
	if s.insightsCache.Size() != 0 {
		t.Fatalf("cache not purged on mutation")
	}

	rec = doJSON(t, s, http.MethodGet, "/insights?year=2025&month=6", nil)
	second := decodeBody[struct {
		Summary struct {
			Total float64 `json:"total"`
		} `json:"summary"`
	}](t, rec)
	if second.Summary.Total != 500 {
		t.Fatalf("stale report served: %v", second.Summary.Total)
	}
}

func TestInsightsValidation(t *testing.T) {
	s := newTestServer(t)
	if rec := doJSON(t, s, http.MethodGet, "/insights?month=13", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("month 13 = %d, want 422", rec.Code)
	}
	if rec := doJSON(t, s, http.MethodGet, "/insights?year=abc", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad year = %d, want 422", rec.Code)
	}
}

func TestRegistryEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/members", map[string]any{"name": "Nilu", "color": "#A67B5B"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member = %d: %s", rec.Code, rec.Body)
	}
	created := decodeBody[core.Member](t, rec)
	if created.ID == "" || created.Initials != "N" {
		t.Fatalf("unexpected member %+v", created)
	}

	rec = doJSON(t, s, http.MethodGet, "/members", nil)
	if members := decodeBody[[]core.Member](t, rec); len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}

	if rec = doJSON(t, s, http.MethodPost, "/wallets", map[string]any{"name": ""}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty wallet name = %d, want 422", rec.Code)
	}

	if rec = doJSON(t, s, http.MethodDelete, "/categories/missing", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown category = %d, want 404", rec.Code)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	tracker := services.New(logger)
	s := NewServer(":0", tracker, nil, Options{
		InsightsCacheSize:  8,
		InsightsCacheTTL:   time.Minute,
		RateLimitPerMinute: 2,
	})
	t.Cleanup(func() {
		s.rateLimiter.stop()
		close(s.stopCacheCleanup)
	})

	var last int
	for i := 0; i < 3; i++ {
		rec := doJSON(t, s, http.MethodPost, "/undo", nil)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third mutation = %d, want 429", last)
	}

	// Reads stay unthrottled
	if rec := doJSON(t, s, http.MethodGet, "/transactions", nil); rec.Code != http.StatusOK {
		t.Fatalf("read throttled: %d", rec.Code)
	}
}
