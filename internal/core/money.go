// Package core holds the tracker's domain types: members, wallets,
// categories, transactions with their write-time snapshots, money and
// date values, and the domain errors shared by every component.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in the ledger's base currency unit.
type Money float64

// Validate rejects missing or non-positive amounts.
func (m Money) Validate() error {
	if m <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// ParseAmount converts a user-entered decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects signs, empty input, and non-positive values.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return 0, ErrInvalidAmount
			}
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	m := Money(v)
	if err := m.Validate(); err != nil {
		return 0, err
	}
	return m, nil
}

// FormatAmount renders an amount for display: rounded to the nearest
// whole unit, digits grouped in threes.
//
//	FormatAmount(1234567.4) -> "1,234,567"
func FormatAmount(m Money) string {
	v := int64(math.Round(float64(m)))
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return b.String()
}
