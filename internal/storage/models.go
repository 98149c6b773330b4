package storage

import "database/sql"

type Wallet struct {
	Name         string
	BalanceCents int64
}

type Category struct {
	CategoryID int64
	Name       string
}

type WalletTransaction struct {
	WalletTransactionID int64
	Wallet              string
	CategoryID          int64
	CategoryName        string
	Type                string
	Date                string
	AmountCents         int64
	Description         string
}

type CreditCard struct {
	Number        string
	Name          string
	MaxDebtCents  int64
	BillingDueDay int64
}

type CreditCardDebt struct {
	DebtID           int64
	CrcNumber        string
	CategoryID       int64
	CategoryName     string
	Date             string
	TotalAmountCents int64
	Description      string
	Installments     int64
}

type CreditCardPayment struct {
	PaymentID   int64
	DebtID      int64
	Installment int64
	DueDate     string
	AmountCents int64
	Wallet      sql.NullString
	PaidDate    sql.NullString
}

type DueInstallment struct {
	CreditCardPayment
	CrcNumber   string
	Description string
}
