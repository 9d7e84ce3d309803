// Package seed loads the default family, wallet, and category data a
// fresh tracker starts with.
package seed

import "famledger/internal/core"

func Members() []core.Member {
	return []core.Member{
		{ID: "1", Name: "Janaka", Initials: "J", Role: "Owner", Color: "#6B8E7F"},
		{ID: "2", Name: "Nilu", Initials: "N", Role: "Family", Color: "#A67B5B"},
		{ID: "3", Name: "Daughter 1", Initials: "D1", Role: "Family", Color: "#8B7355"},
		{ID: "4", Name: "Daughter 2", Initials: "D2", Role: "Family", Color: "#9B6B5C"},
		{ID: "family", Name: "Family", Initials: "F", Role: "Group", Color: "#7D8A5A"},
	}
}

func Wallets() []core.Wallet {
	return []core.Wallet{
		{ID: "1", Name: "Salary Savings", Type: "Savings Account", Subtype: core.SubtypeSavings,
			Color: "#5B7553", Icon: "bank", OpeningBalance: 150000},
		{ID: "2", Name: "Family Debit Card", Type: "Debit Card", Subtype: core.SubtypeDebit,
			Color: "#8B7355", Icon: "card", OpeningBalance: 8500, Target: 15000, Owner: "family"},
		{ID: "3", Name: "Nilu Debit Card", Type: "Debit Card", Subtype: core.SubtypeDebit,
			Color: "#A67B5B", Icon: "card", OpeningBalance: 4200, Target: 10000, Owner: "2"},
		{ID: "4", Name: "Janaka Debit Card", Type: "Debit Card", Subtype: core.SubtypeDebit,
			Color: "#6B8E7F", Icon: "card", OpeningBalance: 12000, Target: 20000, Owner: "1"},
		{ID: "5", Name: "Cash Wallet", Type: "Cash", Subtype: core.SubtypeCash,
			Color: "#7D8A5A", Icon: "cash", OpeningBalance: 5000, Owner: "family"},
	}
}

func Categories() []core.Category {
	return []core.Category{
		{ID: "1", Name: "Food & Dining", Icon: "restaurant", Color: "#8B7355", DefaultWallet: "1"},
		{ID: "2", Name: "Transportation", Icon: "car", Color: "#6B8E7F", DefaultWallet: "1"},
		{ID: "3", Name: "Shopping", Icon: "cart", Color: "#A67B5B", DefaultWallet: "1"},
		{ID: "4", Name: "Entertainment", Icon: "game", Color: "#7D8A5A", DefaultWallet: "2"},
		{ID: "5", Name: "Healthcare", Icon: "medical", Color: "#9B6B5C", DefaultWallet: "1"},
		{ID: "6", Name: "Bills & Utilities", Icon: "file", Color: "#5B7553", DefaultWallet: "1"},
	}
}
