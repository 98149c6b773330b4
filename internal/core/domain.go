package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

const (
	MinBillingDay = 1
	MaxBillingDay = 28
)

// DateLayout is the only date format used for storage and exchange.
const DateLayout = "2006-01-02"

// legacyDateLayout is accepted on input and normalized to DateLayout.
const legacyDateLayout = "2006/01/02"

type (
	TransactionType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Wallet struct {
		Name    string
		Balance Money
	}

	Category struct {
		ID   int64
		Name string
	}

	WalletTransaction struct {
		ID          int64
		Wallet      string
		CategoryID  int64
		Category    string
		Type        TransactionType
		Date        Date
		Amount      Money
		Description string
	}

	Transfer struct {
		ID          int64
		Sender      string
		Receiver    string
		Date        Date
		Amount      Money
		Description string
	}

	CreditCard struct {
		Number      string
		HolderName  string
		CreditLimit Money
		BillingDay  int
	}

	// CardInfo is a card plus its live pending debt.
	CardInfo struct {
		CreditCard
		PendingDebt Money
	}

	Debt struct {
		ID           int64
		CardNumber   string
		CategoryID   int64
		Category     string
		PurchaseDate Date
		Total        Money
		Description  string
		Installments int
	}

	// Installment is one share of a Debt. PaidWallet is nil while pending.
	Installment struct {
		ID         int64
		DebtID     int64
		Seq        int
		DueDate    Date
		Amount     Money
		PaidWallet *string
		PaidDate   *Date
	}

	// DueInstallment is a pending installment with the debt it belongs to.
	DueInstallment struct {
		Installment
		CardNumber  string
		Description string
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD, also accepting YYYY/MM/DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, legacyDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MustParseDate is ParseDate for literals known to be valid.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// IsPaid reports whether the installment has been settled from a wallet.
func (i Installment) IsPaid() bool {
	return i.PaidWallet != nil
}

// ValidateBillingDay checks the billing anchor day is in [1,28].
func ValidateBillingDay(day int) error {
	if day < MinBillingDay || day > MaxBillingDay {
		return fmt.Errorf("%w: %d (must be between %d and %d)", ErrInvalidBillingDay, day, MinBillingDay, MaxBillingDay)
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Number) == "" {
		return fmt.Errorf("%w: card number", ErrEmptyName)
	}
	if c.CreditLimit.Cents <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCreditLimit, c.CreditLimit)
	}
	return ValidateBillingDay(c.BillingDay)
}
