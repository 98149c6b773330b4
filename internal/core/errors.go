package core

import "errors"

// Rejections: the request was invalid for the current ledger state.
var (
	ErrCardExists          = errors.New("credit card already exists")
	ErrCardNotFound        = errors.New("credit card does not exist")
	ErrInvalidCreditLimit  = errors.New("invalid credit limit")
	ErrInvalidBillingDay   = errors.New("invalid billing due day")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInstallments = errors.New("invalid number of installments")
	ErrInsufficientCredit  = errors.New("not enough credit")
	ErrDebtNotFound        = errors.New("debt does not exist")
	ErrInstallmentNotFound = errors.New("installment does not exist")
	ErrInstallmentPaid     = errors.New("installment already paid")
	ErrWalletExists        = errors.New("wallet already exists")
	ErrWalletNotFound      = errors.New("wallet does not exist")
	ErrWalletHasTransfers  = errors.New("wallet has transfers")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSameWallet          = errors.New("source and destination wallets are the same")
	ErrCategoryExists      = errors.New("category already exists")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyName           = errors.New("empty name")
)

// ErrInvariant marks a trusted internal path that found state the public
// validation gate should have excluded. It is never a user error.
var ErrInvariant = errors.New("ledger invariant violated")

var rejections = []error{
	ErrCardExists, ErrCardNotFound, ErrInvalidCreditLimit, ErrInvalidBillingDay,
	ErrInvalidAmount, ErrInvalidInstallments, ErrInsufficientCredit,
	ErrDebtNotFound, ErrInstallmentNotFound, ErrInstallmentPaid,
	ErrWalletExists, ErrWalletNotFound, ErrWalletHasTransfers, ErrInsufficientBalance, ErrSameWallet,
	ErrCategoryExists, ErrInvalidDate, ErrEmptyName,
}

// IsRejection reports whether err is a validation rejection, as opposed to
// a storage failure or an invariant violation.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err names a missing ledger entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrDebtNotFound) ||
		errors.Is(err, ErrInstallmentNotFound)
}

// IsConflict reports whether err is a rejection caused by existing state.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCardExists) ||
		errors.Is(err, ErrWalletExists) ||
		errors.Is(err, ErrWalletHasTransfers) ||
		errors.Is(err, ErrCategoryExists) ||
		errors.Is(err, ErrInstallmentPaid)
}
