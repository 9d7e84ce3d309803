// Package ledger implements the in-memory transaction collection with
// add, edit, delete, and one-step undo. The ledger owns transaction
// identity and ordering; registry lookups happen in the calling
// service before a transaction is recorded.
package ledger

import (
	"fmt"
	"time"

	"famledger/internal/core"
)

// ExpenseInput carries the fields of an expense add or edit. Snapshots
// are taken by the caller from the live registries at write time.
type ExpenseInput struct {
	Amount   core.Money
	Date     core.Date
	Note     string
	Category core.CategorySnapshot
	Source   core.SourceSnapshot
	Member   core.MemberSnapshot
}

// Ledger is the ordered transaction collection, newest first.
type Ledger struct {
	transactions []core.Transaction
	lastID       int64

	// undoID is the single undo candidate, overwritten by every
	// expense add and cleared after one undo. nil means nothing to
	// undo.
	undoID *int64
}

func New() *Ledger {
	return &Ledger{}
}

// nextID returns a fresh transaction id. Ids are wall-clock derived
// and strictly increasing even within the same millisecond.
func (l *Ledger) nextID() int64 {
	id := time.Now().UnixMilli()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

// AddExpense records a new expense at the head of the ledger and arms
// the undo slot with it.
func (l *Ledger) AddExpense(in ExpenseInput) (core.Transaction, error) {
	if err := in.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := in.Date.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:       l.nextID(),
		Amount:   in.Amount,
		Date:     in.Date,
		Note:     in.Note,
		Category: in.Category,
		Source:   in.Source,
		Member:   in.Member,
	}
	l.insert(tx)
	id := tx.ID
	l.undoID = &id
	return tx, nil
}

// AddTransfer records a movement between two resolved wallets.
// Transfers never arm the undo slot.
func (l *Ledger) AddTransfer(amount core.Money, date core.Date, note string, from, to core.Wallet) (core.Transaction, error) {
	if from.ID == to.ID {
		return core.Transaction{}, core.ErrSameWallet
	}
	if err := amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := date.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:           l.nextID(),
		Amount:       amount,
		Date:         date,
		Note:         note,
		IsTransfer:   true,
		TransferFrom: from.ID,
		TransferTo:   to.ID,
		Category:     core.TransferCategory(),
		Source:       core.SourceSnapshot{ID: from.ID, Name: from.Name, Color: "#007AFF"},
	}
	l.insert(tx)
	return tx, nil
}

// EditExpense replaces a transaction's fields in place, re-snapshotting
// category, source, and member. The id and transfer flags survive.
func (l *Ledger) EditExpense(id int64, in ExpenseInput) (core.Transaction, error) {
	if err := in.Amount.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := in.Date.Validate(); err != nil {
		return core.Transaction{}, err
	}
	for i := range l.transactions {
		if l.transactions[i].ID != id {
			continue
		}
		old := l.transactions[i]
		l.transactions[i] = core.Transaction{
			ID:           id,
			Amount:       in.Amount,
			Date:         in.Date,
			Note:         in.Note,
			IsTransfer:   old.IsTransfer,
			TransferFrom: old.TransferFrom,
			TransferTo:   old.TransferTo,
			Category:     in.Category,
			Source:       in.Source,
			Member:       in.Member,
		}
		return l.transactions[i], nil
	}
	return core.Transaction{}, fmt.Errorf("edit expense %d: %w", id, core.ErrTransactionNotFound)
}

// Delete removes the transaction with the given id.
func (l *Ledger) Delete(id int64) error {
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			l.transactions = append(l.transactions[:i], l.transactions[i+1:]...)
			if l.undoID != nil && *l.undoID == id {
				l.undoID = nil
			}
			return nil
		}
	}
	return fmt.Errorf("delete expense %d: %w", id, core.ErrTransactionNotFound)
}

// Undo removes the current undo candidate if it is still present and
// clears the slot. The second call after a single add is a no-op.
func (l *Ledger) Undo() (core.Transaction, bool) {
	if l.undoID == nil {
		return core.Transaction{}, false
	}
	id := *l.undoID
	l.undoID = nil
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			tx := l.transactions[i]
			l.transactions = append(l.transactions[:i], l.transactions[i+1:]...)
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// Get returns the transaction with the given id.
func (l *Ledger) Get(id int64) (core.Transaction, bool) {
	for _, tx := range l.transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}

// All returns every transaction, newest first.
func (l *Ledger) All() []core.Transaction {
	return append([]core.Transaction(nil), l.transactions...)
}

func (l *Ledger) Len() int {
	return len(l.transactions)
}

func (l *Ledger) insert(tx core.Transaction) {
	l.transactions = append([]core.Transaction{tx}, l.transactions...)
}
