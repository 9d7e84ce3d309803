// Package insights computes the monthly report: summary stats, the
// category/member/limited-wallet breakdowns the charts draw, and the
// natural-language highlights comparing the month to the one before.
// The computation is a pure read over the ledger and wallet registry.
package insights

import (
	"fmt"
	"math"

	"famledger/internal/core"
)

// Summary is the headline stats row.
type Summary struct {
	Total       core.Money `json:"total"`
	Count       int        `json:"count"`
	TopCategory string     `json:"topCategory"`
}

// CategorySlice is one ring/pie segment, in first-seen order.
type CategorySlice struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Icon       string     `json:"icon"`
	Color      string     `json:"color"`
	Total      core.Money `json:"total"`
	Percentage float64    `json:"percentage"` // of the month's grand total
}

// MemberBar is one bar, scaled against the largest member total so the
// biggest spender always fills the track.
type MemberBar struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Total      core.Money `json:"total"`
	Percentage float64    `json:"percentage"` // of the maximum member total
}

// WalletRing is the usage ring for one limited wallet.
type WalletRing struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
	Spent core.Money `json:"spent"`
	Limit core.Money `json:"limit"`
	// Percentage is capped at 100 for the visual ring; the center
	// label and highlight text use the uncapped rounded value.
	Percentage float64 `json:"percentage"`
	LabelPct   int     `json:"labelPct"`
}

// Report is the full monthly insights result.
type Report struct {
	Year             int             `json:"year"`
	Month            int             `json:"month"`
	Label            string          `json:"label"` // e.g. "June 2025"
	NoData           bool            `json:"noData"`
	Summary          Summary         `json:"summary"`
	Categories       []CategorySlice `json:"categories"`
	Members          []MemberBar     `json:"members"`
	Rings            []WalletRing    `json:"rings"`
	NoLimitedWallets bool            `json:"noLimitedWallets"`
	Highlights       []string        `json:"highlights"`
}

// Monthly computes the report for a target calendar month.
func Monthly(transactions []core.Transaction, wallets []core.Wallet, year, month int) Report {
	r := Report{
		Year:  year,
		Month: month,
		Label: fmt.Sprintf("%s %d", core.MonthName(month), year),
	}

	monthTxs := monthExpenses(transactions, year, month)
	if len(monthTxs) == 0 {
		// Explicit no-data result: nothing downstream divides by an
		// empty denominator.
		r.NoData = true
		r.Summary.TopCategory = "-"
		return r
	}

	r.Summary = summarize(monthTxs)
	r.Categories = categoryBreakdown(monthTxs)
	r.Members = memberBreakdown(monthTxs)
	r.Rings, r.NoLimitedWallets = walletRings(monthTxs, wallets)
	r.Highlights = highlights(transactions, monthTxs, wallets, year, month)
	return r
}

// monthExpenses selects the non-transfer transactions of one calendar
// month.
func monthExpenses(transactions []core.Transaction, year, month int) []core.Transaction {
	var out []core.Transaction
	for _, tx := range transactions {
		if tx.IsTransfer {
			continue
		}
		if tx.Date.InMonth(year, month) {
			out = append(out, tx)
		}
	}
	return out
}

func summarize(monthTxs []core.Transaction) Summary {
	s := Summary{Count: len(monthTxs), TopCategory: "-"}
	names, totals := totalsByCategoryName(monthTxs)
	var best core.Money
	for _, name := range names {
		if totals[name] > best {
			best = totals[name]
			s.TopCategory = name
		}
	}
	for _, tx := range monthTxs {
		s.Total += tx.Amount
	}
	return s
}

func categoryBreakdown(monthTxs []core.Transaction) []CategorySlice {
	var order []string
	byID := map[string]*CategorySlice{}
	var grand core.Money
	for _, tx := range monthTxs {
		slice, ok := byID[tx.Category.ID]
		if !ok {
			slice = &CategorySlice{
				ID:    tx.Category.ID,
				Name:  tx.Category.Name,
				Icon:  tx.Category.Icon,
				Color: tx.Category.Color,
			}
			byID[tx.Category.ID] = slice
			order = append(order, tx.Category.ID)
		}
		slice.Total += tx.Amount
		grand += tx.Amount
	}
	out := make([]CategorySlice, 0, len(order))
	for _, id := range order {
		slice := *byID[id]
		if grand > 0 {
			slice.Percentage = float64(slice.Total) / float64(grand) * 100
		}
		out = append(out, slice)
	}
	return out
}

func memberBreakdown(monthTxs []core.Transaction) []MemberBar {
	var order []string
	byID := map[string]*MemberBar{}
	for _, tx := range monthTxs {
		bar, ok := byID[tx.Member.ID]
		if !ok {
			bar = &MemberBar{ID: tx.Member.ID, Name: tx.Member.Name}
			byID[tx.Member.ID] = bar
			order = append(order, tx.Member.ID)
		}
		bar.Total += tx.Amount
	}
	var max core.Money
	for _, id := range order {
		if byID[id].Total > max {
			max = byID[id].Total
		}
	}
	out := make([]MemberBar, 0, len(order))
	for _, id := range order {
		bar := *byID[id]
		if max > 0 {
			bar.Percentage = float64(bar.Total) / float64(max) * 100
		}
		out = append(out, bar)
	}
	return out
}

// walletRings builds a usage ring for every limited wallet, in
// registry order. Wallets without a limit are excluded entirely.
func walletRings(monthTxs []core.Transaction, wallets []core.Wallet) ([]WalletRing, bool) {
	var rings []WalletRing
	for _, w := range wallets {
		if !w.HasLimit() {
			continue
		}
		spent := walletMonthSpend(monthTxs, w.ID)
		pct := float64(spent) / float64(w.Limit) * 100
		rings = append(rings, WalletRing{
			ID:         w.ID,
			Name:       w.Name,
			Color:      w.Color,
			Spent:      spent,
			Limit:      w.Limit,
			Percentage: math.Min(pct, 100),
			LabelPct:   int(math.Round(pct)),
		})
	}
	return rings, len(rings) == 0
}

func walletMonthSpend(monthTxs []core.Transaction, walletID string) core.Money {
	var spent core.Money
	for _, tx := range monthTxs {
		if tx.Source.ID == walletID {
			spent += tx.Amount
		}
	}
	return spent
}

// highlights generates the ordered observation lines: category
// month-over-month jumps, limited wallets near their ceiling, heavily
// used wallets, and the heaviest spending weekday.
func highlights(all, monthTxs []core.Transaction, wallets []core.Wallet, year, month int) []string {
	var lines []string

	prevYear, prevMonth := core.PrevMonth(year, month)
	prevTxs := monthExpenses(all, prevYear, prevMonth)

	curNames, curTotals := totalsByCategoryName(monthTxs)
	_, prevTotals := totalsByCategoryName(prevTxs)

	for _, name := range curNames {
		current, previous := curTotals[name], prevTotals[name]
		if previous == 0 {
			// No base month to compare against; a percentage here
			// would divide by zero.
			lines = append(lines, fmt.Sprintf("New spending in %s this month", name))
			continue
		}
		if current > previous*1.2 {
			pct := int(math.Round(float64(current-previous) / float64(previous) * 100))
			lines = append(lines, fmt.Sprintf("%s spending up %d%% vs last month", name, pct))
		}
	}

	for _, w := range wallets {
		if !w.HasLimit() {
			continue
		}
		pct := float64(walletMonthSpend(monthTxs, w.ID)) / float64(w.Limit) * 100
		if pct >= 75 {
			lines = append(lines, fmt.Sprintf("%s at %d%% of limit", w.Name, int(math.Round(pct))))
		}
	}

	var usageOrder []string
	usage := map[string]int{}
	for _, tx := range monthTxs {
		if _, ok := usage[tx.Source.Name]; !ok {
			usageOrder = append(usageOrder, tx.Source.Name)
		}
		usage[tx.Source.Name]++
	}
	for _, name := range usageOrder {
		if usage[name] >= 5 {
			lines = append(lines, fmt.Sprintf("%s used %d times this month", name, usage[name]))
		}
	}

	if day := topWeekday(monthTxs); day != "" {
		lines = append(lines, fmt.Sprintf("%ss are your highest spending day", day))
	}

	if len(lines) == 0 {
		lines = append(lines, "No notable patterns this month")
	}
	return lines
}

func topWeekday(monthTxs []core.Transaction) string {
	var order []string
	totals := map[string]core.Money{}
	for _, tx := range monthTxs {
		day := tx.Date.Weekday().String()
		if _, ok := totals[day]; !ok {
			order = append(order, day)
		}
		totals[day] += tx.Amount
	}
	var top string
	var best core.Money
	for _, day := range order {
		if totals[day] > best {
			best = totals[day]
			top = day
		}
	}
	return top
}

// totalsByCategoryName sums amounts per snapshotted category name,
// keeping first-seen order.
func totalsByCategoryName(txs []core.Transaction) ([]string, map[string]core.Money) {
	var order []string
	totals := map[string]core.Money{}
	for _, tx := range txs {
		if _, ok := totals[tx.Category.Name]; !ok {
			order = append(order, tx.Category.Name)
		}
		totals[tx.Category.Name] += tx.Amount
	}
	return order, totals
}
