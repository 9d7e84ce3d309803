// Package services wires the ledger, registries, and analytics into
// one command/query surface. The Tracker is the single owner of all
// mutable state: every operation takes its lock, so commands are
// serialized exactly as the surrounding dispatch expects.
package services

import (
	"strconv"
	"sync"

	"famledger/internal/aggregate"
	"famledger/internal/core"
	"famledger/internal/events"
	"famledger/internal/insights"
	"famledger/internal/ledger"
	"famledger/internal/log"
	"famledger/internal/registry"
	"famledger/internal/search"
)

// ExpenseRequest identifies the selected entities by id; the tracker
// resolves and snapshots them at write time.
type ExpenseRequest struct {
	Amount     core.Money
	Date       core.Date
	Note       string
	CategoryID string
	SourceID   string
	MemberID   string
}

// Tracker owns the application state and serializes access to it.
type Tracker struct {
	mu         sync.Mutex
	members    registry.Members
	wallets    registry.Wallets
	categories registry.Categories
	ledger     *ledger.Ledger
	bus        *events.Bus
	logger     *log.Logger
}

func New(logger *log.Logger) *Tracker {
	return &Tracker{
		ledger: ledger.New(),
		bus:    events.NewBus(),
		logger: logger.WithComponent("tracker"),
	}
}

// Seed loads initial registry entries, typically at startup.
func (t *Tracker) Seed(members []core.Member, wallets []core.Wallet, categories []core.Category) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range members {
		if _, err := t.members.Create(m); err != nil {
			return err
		}
	}
	for _, w := range wallets {
		if _, err := t.wallets.Create(w); err != nil {
			return err
		}
	}
	for _, c := range categories {
		if _, err := t.categories.Create(c); err != nil {
			return err
		}
	}
	return nil
}

// Events exposes the change-event bus for renderer subscriptions.
func (t *Tracker) Events() *events.Bus {
	return t.bus
}

// AddExpense resolves the selected category, source wallet, and member,
// snapshots them, and records the expense as the new undo candidate.
func (t *Tracker) AddExpense(req ExpenseRequest) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := req.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	in, err := t.resolve(req)
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := t.ledger.AddExpense(in)
	if err != nil {
		return core.Transaction{}, err
	}
	t.logger.Debug("Expense recorded", "id", tx.ID, "amount", float64(tx.Amount), "category", tx.Category.Name)
	t.bus.Publish(events.NewChange(events.ActionCreated, events.EntityExpense, txID(tx), tx.Category.Name))
	return tx, nil
}

// AddTransfer records a movement between two wallets. Transfers are
// not undoable.
func (t *Tracker) AddTransfer(fromID, toID string, amount core.Money, date core.Date, note string) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if fromID == toID {
		return core.Transaction{}, core.ErrSameWallet
	}
	from, ok := t.wallets.Get(fromID)
	if !ok {
		return core.Transaction{}, core.ErrWalletNotFound
	}
	to, ok := t.wallets.Get(toID)
	if !ok {
		return core.Transaction{}, core.ErrWalletNotFound
	}
	tx, err := t.ledger.AddTransfer(amount, date, note, from, to)
	if err != nil {
		return core.Transaction{}, err
	}
	t.logger.Debug("Transfer recorded", "id", tx.ID, "from", from.Name, "to", to.Name, "amount", float64(amount))
	t.bus.Publish(events.NewChange(events.ActionCreated, events.EntityTransfer, txID(tx), from.Name+" → "+to.Name))
	return tx, nil
}

// EditExpense replaces a transaction's fields, re-snapshotting the
// referenced entities.
func (t *Tracker) EditExpense(id int64, req ExpenseRequest) (core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := req.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	in, err := t.resolve(req)
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := t.ledger.EditExpense(id, in)
	if err != nil {
		return core.Transaction{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionUpdated, events.EntityExpense, txID(tx), tx.Category.Name))
	return tx, nil
}

// DeleteExpense removes a transaction by id.
func (t *Tracker) DeleteExpense(id int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.ledger.Delete(id); err != nil {
		return err
	}
	t.bus.Publish(events.NewChange(events.ActionDeleted, events.EntityExpense, strconv.FormatInt(id, 10), ""))
	return nil
}

// Undo removes the most recently added expense, once.
func (t *Tracker) Undo() (core.Transaction, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tx, ok := t.ledger.Undo()
	if ok {
		t.logger.Debug("Expense undone", "id", tx.ID)
		t.bus.Publish(events.NewChange(events.ActionUndone, events.EntityExpense, txID(tx), tx.Category.Name))
	}
	return tx, ok
}

// Transactions returns the ledger contents, newest first.
func (t *Tracker) Transactions() []core.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.All()
}

// TotalsFor returns today's and this month's spend for a reference
// date.
func (t *Tracker) TotalsFor(date core.Date) aggregate.Totals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return aggregate.TotalsFor(t.ledger.All(), date)
}

// WalletStats returns the wallet and its computed position.
func (t *Tracker) WalletStats(id string) (core.Wallet, aggregate.WalletStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.wallets.Get(id)
	if !ok {
		return core.Wallet{}, aggregate.WalletStats{}, core.ErrWalletNotFound
	}
	return w, aggregate.StatsFor(t.ledger.All(), w), nil
}

// WalletTransactions lists every transaction touching a wallet.
func (t *Tracker) WalletTransactions(id string) ([]core.Transaction, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.wallets.Get(id); !ok {
		return nil, core.ErrWalletNotFound
	}
	return aggregate.WalletTransactions(t.ledger.All(), id), nil
}

// Search filters the ledger by query and categorical filters.
func (t *Tracker) Search(query string, f search.Filters) search.Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return search.Run(t.ledger.All(), query, f)
}

// MonthlyInsights computes the insights report for a calendar month.
func (t *Tracker) MonthlyInsights(year, month int) insights.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return insights.Monthly(t.ledger.All(), t.wallets.All(), year, month)
}

// Registry commands. Deleting an entity never touches historical
// transactions: their snapshots stay as written.

func (t *Tracker) CreateMember(m core.Member) (core.Member, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	created, err := t.members.Create(m)
	if err != nil {
		return core.Member{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionCreated, events.EntityMember, created.ID, created.Name))
	return created, nil
}

func (t *Tracker) UpdateMember(id string, m core.Member) (core.Member, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	updated, err := t.members.Update(id, m)
	if err != nil {
		return core.Member{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionUpdated, events.EntityMember, updated.ID, updated.Name))
	return updated, nil
}

func (t *Tracker) DeleteMember(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.members.Delete(id); err != nil {
		return err
	}
	t.bus.Publish(events.NewChange(events.ActionDeleted, events.EntityMember, id, ""))
	return nil
}

func (t *Tracker) Members() []core.Member {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.members.All()
}

func (t *Tracker) CreateWallet(w core.Wallet) (core.Wallet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	created, err := t.wallets.Create(w)
	if err != nil {
		return core.Wallet{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionCreated, events.EntityWallet, created.ID, created.Name))
	return created, nil
}

func (t *Tracker) UpdateWallet(id string, w core.Wallet) (core.Wallet, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	updated, err := t.wallets.Update(id, w)
	if err != nil {
		return core.Wallet{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionUpdated, events.EntityWallet, updated.ID, updated.Name))
	return updated, nil
}

func (t *Tracker) DeleteWallet(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.wallets.Delete(id); err != nil {
		return err
	}
	t.bus.Publish(events.NewChange(events.ActionDeleted, events.EntityWallet, id, ""))
	return nil
}

func (t *Tracker) Wallets() []core.Wallet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.wallets.All()
}

func (t *Tracker) CreateCategory(c core.Category) (core.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	created, err := t.categories.Create(c)
	if err != nil {
		return core.Category{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionCreated, events.EntityCategory, created.ID, created.Name))
	return created, nil
}

func (t *Tracker) UpdateCategory(id string, c core.Category) (core.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	updated, err := t.categories.Update(id, c)
	if err != nil {
		return core.Category{}, err
	}
	t.bus.Publish(events.NewChange(events.ActionUpdated, events.EntityCategory, updated.ID, updated.Name))
	return updated, nil
}

func (t *Tracker) DeleteCategory(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.categories.Delete(id); err != nil {
		return err
	}
	t.bus.Publish(events.NewChange(events.ActionDeleted, events.EntityCategory, id, ""))
	return nil
}

func (t *Tracker) Categories() []core.Category {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.categories.All()
}

// resolve looks up the referenced entities and freezes their display
// fields.
func (t *Tracker) resolve(req ExpenseRequest) (ledger.ExpenseInput, error) {
	cat, ok := t.categories.Get(req.CategoryID)
	if !ok {
		return ledger.ExpenseInput{}, core.ErrCategoryNotFound
	}
	src, ok := t.wallets.Get(req.SourceID)
	if !ok {
		return ledger.ExpenseInput{}, core.ErrWalletNotFound
	}
	mem, ok := t.members.Get(req.MemberID)
	if !ok {
		return ledger.ExpenseInput{}, core.ErrMemberNotFound
	}
	return ledger.ExpenseInput{
		Amount:   req.Amount,
		Date:     req.Date,
		Note:     req.Note,
		Category: core.SnapshotCategory(cat),
		Source:   core.SnapshotSource(src),
		Member:   core.SnapshotMember(mem),
	}, nil
}

func txID(tx core.Transaction) string {
	return strconv.FormatInt(tx.ID, 10)
}
