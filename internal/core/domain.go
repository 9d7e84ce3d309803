package core

import "strings"

const (
	SubtypeSavings WalletSubtype = "savings"
	SubtypeDebit   WalletSubtype = "debit"
	SubtypeCash    WalletSubtype = "cash"
	SubtypeOther   WalletSubtype = "other"
)

type (
	WalletSubtype string

	// Member is a person (or group) expenses can be attributed to.
	Member struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Initials string `json:"initials"`
		Role     string `json:"role"` // free-form label: "Owner", "Family", "Group"
		Color    string `json:"color"`
	}

	// Wallet is a funding source: bank account, card, or cash pool.
	Wallet struct {
		ID      string        `json:"id"`
		Name    string        `json:"name"`
		Type    string        `json:"type"` // display label, e.g. "Debit Card"
		Subtype WalletSubtype `json:"subtype"`
		Color   string        `json:"color"`
		Icon    string        `json:"icon"`
		// Limit > 0 marks a credit-style wallet tracked against a
		// spend ceiling.
		Limit Money `json:"limit,omitempty"`
		// Target is the low-balance warning threshold for debit wallets.
		Target Money `json:"target,omitempty"`
		// OpeningBalance is the static balance recorded at creation.
		// It is never recomputed from transaction history.
		OpeningBalance Money  `json:"balance,omitempty"`
		Owner          string `json:"owner,omitempty"` // member id, optional
	}

	Category struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Icon          string `json:"icon"`
		Color         string `json:"color"`
		DefaultWallet string `json:"defaultWallet"` // wallet id preselected for this category
	}
)

// Snapshot types carry the display fields copied onto a transaction at
// write time. The embedded IDs stay live identifiers; the rest is
// frozen so later registry edits never rewrite history.
type (
	CategorySnapshot struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Icon  string `json:"icon"`
		Color string `json:"color"`
	}

	SourceSnapshot struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	MemberSnapshot struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

// Transaction is a single ledger entry: an expense, or a transfer
// between two wallets when IsTransfer is set.
type Transaction struct {
	ID           int64            `json:"id"`
	Amount       Money            `json:"amount"`
	Date         Date             `json:"date"`
	Note         string           `json:"note"`
	IsTransfer   bool             `json:"isTransfer,omitempty"`
	TransferFrom string           `json:"transferFrom,omitempty"`
	TransferTo   string           `json:"transferTo,omitempty"`
	Category     CategorySnapshot `json:"category"`
	Source       SourceSnapshot   `json:"source"`
	Member       MemberSnapshot   `json:"member"`
}

func (w Wallet) HasLimit() bool { return w.Limit > 0 }

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (w Wallet) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// SnapshotCategory freezes a category's display fields.
func SnapshotCategory(c Category) CategorySnapshot {
	return CategorySnapshot{ID: c.ID, Name: c.Name, Icon: c.Icon, Color: c.Color}
}

// SnapshotSource freezes a wallet's display fields.
func SnapshotSource(w Wallet) SourceSnapshot {
	return SourceSnapshot{ID: w.ID, Name: w.Name, Color: w.Color}
}

// SnapshotMember freezes a member's display fields.
func SnapshotMember(m Member) MemberSnapshot {
	return MemberSnapshot{ID: m.ID, Name: m.Name}
}

// TransferCategory is the fixed category tag stamped on every transfer.
func TransferCategory() CategorySnapshot {
	return CategorySnapshot{ID: "transfer", Name: "Transfer", Icon: "🔄", Color: "#007AFF"}
}

// Initials derives up-to-two uppercase initials from a name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(string([]rune(word)[0])))
		if b.Len() >= 2 {
			break
		}
	}
	return b.String()
}
