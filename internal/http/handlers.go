package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"famledger/internal/core"
	"famledger/internal/search"
	"famledger/internal/services"
)

// expensePayload is the wire form of an expense add or edit. Entity
// fields carry registry ids; the tracker snapshots them.
type expensePayload struct {
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Note     string  `json:"note"`
	Category string  `json:"category"`
	Source   string  `json:"source"`
	Member   string  `json:"member"`
}

type transferPayload struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
	Date   string  `json:"date"`
	Note   string  `json:"note"`
}

func (p expensePayload) toRequest() (services.ExpenseRequest, error) {
	date, err := parseDateOrToday(p.Date)
	if err != nil {
		return services.ExpenseRequest{}, err
	}
	return services.ExpenseRequest{
		Amount:     core.Money(p.Amount),
		Date:       date,
		Note:       p.Note,
		CategoryID: p.Category,
		SourceID:   p.Source,
		MemberID:   p.Member,
	}, nil
}

func parseDateOrToday(s string) (core.Date, error) {
	if s == "" {
		return core.Today(), nil
	}
	return core.ParseDate(s)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if !decode(w, r, &payload) {
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.tracker.AddExpense(req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	var payload expensePayload
	if !decode(w, r, &payload) {
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.tracker.EditExpense(id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights()
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := transactionID(w, r)
	if !ok {
		return
	}
	if err := s.tracker.DeleteExpense(id); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddTransfer(w http.ResponseWriter, r *http.Request) {
	var payload transferPayload
	if !decode(w, r, &payload) {
		return
	}
	date, err := parseDateOrToday(payload.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := s.tracker.AddTransfer(payload.From, payload.To, core.Money(payload.Amount), date, payload.Note)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	tx, undone := s.tracker.Undo()
	if undone {
		s.invalidateInsights()
	}
	resp := struct {
		Undone      bool              `json:"undone"`
		Transaction *core.Transaction `json:"transaction,omitempty"`
	}{Undone: undone}
	if undone {
		resp.Transaction = &tx
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Transactions())
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	date, err := parseDateOrToday(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	totals := s.tracker.TotalsFor(date)
	writeJSON(w, http.StatusOK, struct {
		Today      core.Money `json:"today"`
		Month      core.Money `json:"month"`
		TodayLabel string     `json:"todayLabel"`
		MonthLabel string     `json:"monthLabel"`
	}{
		Today:      totals.Today,
		Month:      totals.Month,
		TodayLabel: core.FormatAmount(totals.Today),
		MonthLabel: core.FormatAmount(totals.Month),
	})
}

func (s *Server) handleWalletStats(w http.ResponseWriter, r *http.Request) {
	wallet, stats, err := s.tracker.WalletStats(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Wallet core.Wallet `json:"wallet"`
		Spent  core.Money  `json:"spent"`
		// Balance is the dynamic delta; Display folds in the opening
		// balance.
		Balance   core.Money `json:"balance"`
		Remaining core.Money `json:"remaining"`
		Display   core.Money `json:"display"`
	}{
		Wallet:    wallet,
		Spent:     stats.Spent,
		Balance:   stats.Balance,
		Remaining: stats.Remaining,
		Display:   stats.Display,
	})
}

func (s *Server) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.tracker.WalletTransactions(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := s.tracker.Search(q.Get("q"), search.Filters{
		Type:     q.Get("type"),
		Member:   q.Get("member"),
		Source:   q.Get("source"),
		Category: q.Get("category"),
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if v := q.Get("year"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeErrorMessage(w, http.StatusUnprocessableEntity, "invalid year")
			return
		}
		year = parsed
	}
	if v := q.Get("month"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 12 {
			writeErrorMessage(w, http.StatusUnprocessableEntity, "invalid month")
			return
		}
		month = parsed
	}

	key := insightsCacheKey(year, month)
	if report, found := s.insightsCache.Get(key); found {
		slog.DebugContext(r.Context(), "Insights cache hit", "year", year, "month", month)
		writeJSON(w, http.StatusOK, report)
		return
	}

	report := s.tracker.MonthlyInsights(year, month)
	s.insightsCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Members())
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m core.Member
	if !decode(w, r, &m) {
		return
	}
	created, err := s.tracker.CreateMember(m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var m core.Member
	if !decode(w, r, &m) {
		return
	}
	updated, err := s.tracker.UpdateMember(r.PathValue("id"), m)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteMember(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Wallets())
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var wallet core.Wallet
	if !decode(w, r, &wallet) {
		return
	}
	created, err := s.tracker.CreateWallet(wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights() // limits feed the ring view
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateWallet(w http.ResponseWriter, r *http.Request) {
	var wallet core.Wallet
	if !decode(w, r, &wallet) {
		return
	}
	updated, err := s.tracker.UpdateWallet(r.PathValue("id"), wallet)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteWallet(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteWallet(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateInsights()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if !decode(w, r, &c) {
		return
	}
	created, err := s.tracker.CreateCategory(c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if !decode(w, r, &c) {
		return
	}
	updated, err := s.tracker.UpdateCategory(r.PathValue("id"), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteCategory(r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func transactionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.WarnContext(r.Context(), "Request decode failed", "error", err, "url", r.URL.Path)
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

// writeError maps domain errors to status codes: validation failures
// to 422, missing ids to 404, anything else to 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	case core.IsNotFound(err):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
