// Package aggregate computes the derived numbers read by the home and
// wallet screens: daily and monthly spend totals and per-wallet
// statistics. All functions are pure reads over the ledger.
package aggregate

import "famledger/internal/core"

// Totals is the spend summary for a reference date.
type Totals struct {
	Today core.Money `json:"today"`
	Month core.Money `json:"month"`
}

// TotalsFor sums non-transfer amounts on the reference day and within
// its calendar month. Transfers move money between wallets and never
// count as spending.
func TotalsFor(transactions []core.Transaction, date core.Date) Totals {
	var t Totals
	year, month := date.Year(), int(date.Month())
	for _, tx := range transactions {
		if tx.IsTransfer {
			continue
		}
		if tx.Date.SameDay(date) {
			t.Today += tx.Amount
		}
		if tx.Date.InMonth(year, month) {
			t.Month += tx.Amount
		}
	}
	return t
}

// WalletStats describes one wallet's position against the ledger.
type WalletStats struct {
	// Spent is the all-time non-transfer outflow sourced from the wallet.
	Spent core.Money `json:"spent"`
	// Balance is the dynamic delta from transaction history alone:
	// -Spent, minus outgoing transfers, plus incoming transfers.
	Balance core.Money `json:"balance"`
	// Remaining is Limit - Spent for limited wallets, else Balance.
	Remaining core.Money `json:"remaining"`
	// Display is the balance presentation layers show: the wallet's
	// opening balance treated as an initial value plus the dynamic
	// delta.
	Display core.Money `json:"display"`
}

// StatsFor computes the wallet's spent, balance, and remaining values.
func StatsFor(transactions []core.Transaction, w core.Wallet) WalletStats {
	var s WalletStats
	for _, tx := range transactions {
		if tx.IsTransfer {
			if tx.TransferFrom == w.ID {
				s.Balance -= tx.Amount
			}
			if tx.TransferTo == w.ID {
				s.Balance += tx.Amount
			}
			continue
		}
		if tx.Source.ID == w.ID {
			s.Spent += tx.Amount
			s.Balance -= tx.Amount
		}
	}
	if w.HasLimit() {
		s.Remaining = w.Limit - s.Spent
	} else {
		s.Remaining = s.Balance
	}
	s.Display = w.OpeningBalance + s.Balance
	return s
}

// WalletTransactions lists every transaction touching the wallet:
// expenses sourced from it plus transfers in either direction. Ledger
// order is preserved.
func WalletTransactions(transactions []core.Transaction, walletID string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range transactions {
		if tx.IsTransfer {
			if tx.TransferFrom == walletID || tx.TransferTo == walletID {
				out = append(out, tx)
			}
			continue
		}
		if tx.Source.ID == walletID {
			out = append(out, tx)
		}
	}
	return out
}
