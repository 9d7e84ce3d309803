package core

import "errors"

// Domain errors. Validation errors are surfaced to the caller for
// user-facing correction; not-found errors mean the referenced id is
// no longer in the ledger or a registry. Neither is fatal.
var (
	ErrInvalidAmount = errors.New("missing or non-positive amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrSameWallet    = errors.New("source and destination must differ")
	ErrEmptyName     = errors.New("name is required")

	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMemberNotFound      = errors.New("member not found")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrCategoryNotFound    = errors.New("category not found")
)

// IsValidation reports whether err is a user-correctable input error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrSameWallet) ||
		errors.Is(err, ErrEmptyName)
}

// IsNotFound reports whether err refers to a missing ledger or
// registry id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrCategoryNotFound)
}
