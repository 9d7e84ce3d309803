package services

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"famledger/internal/core"
	"famledger/internal/events"
	"famledger/internal/log"
	"famledger/internal/search"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	tr := New(logger)
	err := tr.Seed(
		[]core.Member{
			{ID: "m1", Name: "Janaka", Color: "#5B7553"},
			{ID: "m2", Name: "Nilu", Color: "#A67B5B"},
		},
		[]core.Wallet{
			{ID: "w1", Name: "Salary Savings", OpeningBalance: 150000},
			{ID: "w2", Name: "Family Debit Card", Limit: 10000},
		},
		[]core.Category{
			{ID: "c1", Name: "Food & Dining", Icon: "restaurant", Color: "#8B7355"},
			{ID: "c2", Name: "Transportation", Icon: "bus", Color: "#7D8A5A"},
		},
	)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return tr
}

func request(amount core.Money) ExpenseRequest {
	return ExpenseRequest{
		Amount:     amount,
		Date:       core.NewDate(2025, 6, 10),
		CategoryID: "c1",
		SourceID:   "w1",
		MemberID:   "m1",
	}
}

func TestAddExpenseSnapshotsEntities(t *testing.T) {
	tr := newTestTracker(t)
	tx, err := tr.AddExpense(request(1500))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if tx.Category.Name != "Food & Dining" || tx.Category.Icon != "restaurant" {
		t.Fatalf("category not snapshotted: %+v", tx.Category)
	}
	if tx.Source.Name != "Salary Savings" {
		t.Fatalf("source not snapshotted: %+v", tx.Source)
	}
	if tx.Member.Name != "Janaka" {
		t.Fatalf("member not snapshotted: %+v", tx.Member)
	}
}

func TestAddExpenseUnknownReferences(t *testing.T) {
	tr := newTestTracker(t)

	req := request(100)
	req.CategoryID = "missing"
	if _, err := tr.AddExpense(req); !errors.Is(err, core.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	req = request(100)
	req.SourceID = "missing"
	if _, err := tr.AddExpense(req); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	req = request(100)
	req.MemberID = "missing"
	if _, err := tr.AddExpense(req); !errors.Is(err, core.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	if _, err := tr.AddExpense(request(0)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

// Renaming a category must not rewrite history: old transactions keep
// the name they were written with, new ones pick up the rename.
func TestSnapshotsSurviveRename(t *testing.T) {
	tr := newTestTracker(t)

	before, err := tr.AddExpense(request(100))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := tr.UpdateCategory("c1", core.Category{Name: "Dining Out", Icon: "plate", Color: "#8B7355"}); err != nil {
		t.Fatalf("update category: %v", err)
	}
	after, err := tr.AddExpense(request(200))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, _ := tr.WalletTransactions("w1")
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	for _, tx := range got {
		switch tx.ID {
		case before.ID:
			if tx.Category.Name != "Food & Dining" {
				t.Fatalf("history rewritten: %q", tx.Category.Name)
			}
		case after.ID:
			if tx.Category.Name != "Dining Out" {
				t.Fatalf("rename not picked up: %q", tx.Category.Name)
			}
		}
	}
}

func TestSnapshotsSurviveDelete(t *testing.T) {
	tr := newTestTracker(t)
	tx, err := tr.AddExpense(request(100))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tr.DeleteMember("m1"); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	all := tr.Transactions()
	if len(all) != 1 || all[0].ID != tx.ID {
		t.Fatalf("transaction lost after member delete")
	}
	if all[0].Member.Name != "Janaka" {
		t.Fatalf("member snapshot lost: %+v", all[0].Member)
	}

	// A new expense referencing the deleted member now fails
	if _, err := tr.AddExpense(request(100)); !errors.Is(err, core.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestAddTransferValidatesWallets(t *testing.T) {
	tr := newTestTracker(t)
	day := core.NewDate(2025, 6, 10)

	if _, err := tr.AddTransfer("w1", "w1", 100, day, ""); !errors.Is(err, core.ErrSameWallet) {
		t.Fatalf("expected ErrSameWallet, got %v", err)
	}
	if _, err := tr.AddTransfer("w1", "missing", 100, day, ""); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}

	tx, err := tr.AddTransfer("w1", "w2", 500, day, "topup")
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !tx.IsTransfer || tx.TransferFrom != "w1" || tx.TransferTo != "w2" {
		t.Fatalf("unexpected transfer %+v", tx)
	}
}

func TestUndoThroughTracker(t *testing.T) {
	tr := newTestTracker(t)
	tx, _ := tr.AddExpense(request(100))

	undone, ok := tr.Undo()
	if !ok || undone.ID != tx.ID {
		t.Fatalf("expected undo of %d", tx.ID)
	}
	if _, ok := tr.Undo(); ok {
		t.Fatalf("second undo must be a no-op")
	}
	if len(tr.Transactions()) != 0 {
		t.Fatalf("ledger not empty after undo")
	}
}

func TestWalletStats(t *testing.T) {
	tr := newTestTracker(t)
	if _, err := tr.AddExpense(request(1500)); err != nil {
		t.Fatalf("add: %v", err)
	}

	w, stats, err := tr.WalletStats("w1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if w.Name != "Salary Savings" {
		t.Fatalf("unexpected wallet %+v", w)
	}
	if stats.Spent != 1500 || stats.Balance != -1500 || stats.Display != 148500 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if _, _, err := tr.WalletStats("missing"); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestSearchThroughTracker(t *testing.T) {
	tr := newTestTracker(t)
	req := request(100)
	req.Note = "groceries"
	if _, err := tr.AddExpense(req); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := tr.AddTransfer("w1", "w2", 50, core.NewDate(2025, 6, 10), ""); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	r := tr.Search("groceries", search.Filters{})
	if r.Count != 1 || r.Label != "1 item" {
		t.Fatalf("unexpected result %+v", r)
	}
	if r = tr.Search("", search.Filters{Type: search.TypeTransfer}); r.Count != 1 {
		t.Fatalf("expected 1 transfer, got %d", r.Count)
	}
}

func TestEventsPublishedOnMutation(t *testing.T) {
	tr := newTestTracker(t)
	ch, cancel := tr.Events().Subscribe(16)
	defer cancel()

	tx, err := tr.AddExpense(request(100))
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	change := <-ch
	if change.Action != events.ActionCreated || change.Entity != events.EntityExpense {
		t.Fatalf("unexpected change %+v", change)
	}
	if change.Name != "Food & Dining" {
		t.Fatalf("expected category name on change, got %q", change.Name)
	}

	if err := tr.DeleteExpense(tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	change = <-ch
	if change.Action != events.ActionDeleted {
		t.Fatalf("unexpected change %+v", change)
	}
}

func TestMonthlyInsightsThroughTracker(t *testing.T) {
	tr := newTestTracker(t)
	req := request(8000)
	req.SourceID = "w2" // limited wallet
	if _, err := tr.AddExpense(req); err != nil {
		t.Fatalf("add: %v", err)
	}

	r := tr.MonthlyInsights(2025, 6)
	if r.NoData {
		t.Fatalf("expected data")
	}
	if r.Summary.TopCategory != "Food & Dining" {
		t.Fatalf("unexpected top category %q", r.Summary.TopCategory)
	}
	if len(r.Rings) != 1 || r.Rings[0].LabelPct != 80 {
		t.Fatalf("unexpected rings %+v", r.Rings)
	}
}
