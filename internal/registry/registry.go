// Package registry holds the ordered entity lists the ledger reads:
// members, wallets, and categories. Registries are plain collections;
// the owning service serializes access to them.
package registry

import (
	"fmt"

	"github.com/google/uuid"

	"famledger/internal/core"
)

// Members is an ordered, mutable list of family members.
type Members struct {
	items []core.Member
}

// Create validates and appends a member, assigning a fresh id and
// derived initials where missing.
func (r *Members) Create(m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Initials == "" {
		m.Initials = core.Initials(m.Name)
	}
	if m.Role == "" {
		m.Role = "Family"
	}
	r.items = append(r.items, m)
	return m, nil
}

// Update replaces the member's fields in place, preserving its id.
func (r *Members) Update(id string, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			m.ID = id
			if m.Initials == "" {
				m.Initials = core.Initials(m.Name)
			}
			r.items[i] = m
			return m, nil
		}
	}
	return core.Member{}, fmt.Errorf("update member %s: %w", id, core.ErrMemberNotFound)
}

// Delete removes the member. Historical transactions keep their
// snapshotted member fields untouched.
func (r *Members) Delete(id string) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete member %s: %w", id, core.ErrMemberNotFound)
}

func (r *Members) Get(id string) (core.Member, bool) {
	for _, m := range r.items {
		if m.ID == id {
			return m, true
		}
	}
	return core.Member{}, false
}

// All returns the members in insertion order.
func (r *Members) All() []core.Member {
	return append([]core.Member(nil), r.items...)
}

// Wallets is an ordered, mutable list of funding sources.
type Wallets struct {
	items []core.Wallet
}

func (r *Wallets) Create(w core.Wallet) (core.Wallet, error) {
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Subtype == "" {
		w.Subtype = core.SubtypeOther
	}
	r.items = append(r.items, w)
	return w, nil
}

func (r *Wallets) Update(id string, w core.Wallet) (core.Wallet, error) {
	if err := w.Validate(); err != nil {
		return core.Wallet{}, err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			w.ID = id
			r.items[i] = w
			return w, nil
		}
	}
	return core.Wallet{}, fmt.Errorf("update wallet %s: %w", id, core.ErrWalletNotFound)
}

func (r *Wallets) Delete(id string) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete wallet %s: %w", id, core.ErrWalletNotFound)
}

func (r *Wallets) Get(id string) (core.Wallet, bool) {
	for _, w := range r.items {
		if w.ID == id {
			return w, true
		}
	}
	return core.Wallet{}, false
}

func (r *Wallets) All() []core.Wallet {
	return append([]core.Wallet(nil), r.items...)
}

// Categories is an ordered, mutable list of spending categories.
type Categories struct {
	items []core.Category
}

func (r *Categories) Create(c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.items = append(r.items, c)
	return c, nil
}

func (r *Categories) Update(id string, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	for i := range r.items {
		if r.items[i].ID == id {
			c.ID = id
			r.items[i] = c
			return c, nil
		}
	}
	return core.Category{}, fmt.Errorf("update category %s: %w", id, core.ErrCategoryNotFound)
}

func (r *Categories) Delete(id string) error {
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete category %s: %w", id, core.ErrCategoryNotFound)
}

func (r *Categories) Get(id string) (core.Category, bool) {
	for _, c := range r.items {
		if c.ID == id {
			return c, true
		}
	}
	return core.Category{}, false
}

func (r *Categories) All() []core.Category {
	return append([]core.Category(nil), r.items...)
}
