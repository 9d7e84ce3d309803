// Package search filters the ledger by free-text query plus
// categorical filters. All active predicates are ANDed and ledger
// order (newest first) is preserved.
package search

import (
	"strconv"
	"strings"

	"famledger/internal/core"
)

const (
	TypeAll      = "all"
	TypeExpense  = "expense"
	TypeTransfer = "transfer"
)

// Filters narrows results by transaction type and snapshotted ids.
// "all" (or empty) disables a filter.
type Filters struct {
	Type     string
	Member   string
	Source   string
	Category string
}

// Result is a filtered view of the ledger together with the
// human-readable count the results screen shows.
type Result struct {
	Items []core.Transaction `json:"items"`
	Count int                `json:"count"`
	Label string             `json:"label"`
}

// Run matches the query case-insensitively against the concatenation
// of amount, category name, source name, member name, and note, then
// applies the categorical filters.
func Run(transactions []core.Transaction, query string, f Filters) Result {
	query = strings.ToLower(strings.TrimSpace(query))

	var items []core.Transaction
	for _, tx := range transactions {
		if query != "" && !strings.Contains(searchableText(tx), query) {
			continue
		}
		if !matchesType(tx, f.Type) {
			continue
		}
		if active(f.Member) && tx.Member.ID != f.Member {
			continue
		}
		if active(f.Source) && tx.Source.ID != f.Source {
			continue
		}
		if active(f.Category) && tx.Category.ID != f.Category {
			continue
		}
		items = append(items, tx)
	}
	return Result{Items: items, Count: len(items), Label: CountLabel(len(items))}
}

// CountLabel renders "1 item" / "N items".
func CountLabel(n int) string {
	if n == 1 {
		return "1 item"
	}
	return strconv.Itoa(n) + " items"
}

func searchableText(tx core.Transaction) string {
	return strings.ToLower(strings.Join([]string{
		strconv.FormatFloat(float64(tx.Amount), 'f', -1, 64),
		tx.Category.Name,
		tx.Source.Name,
		tx.Member.Name,
		tx.Note,
	}, " "))
}

func matchesType(tx core.Transaction, typ string) bool {
	switch typ {
	case TypeExpense:
		return !tx.IsTransfer
	case TypeTransfer:
		return tx.IsTransfer
	default:
		return true
	}
}

func active(filter string) bool {
	return filter != "" && filter != TypeAll
}
