package http

import (
	"github.com/shopspring/decimal"

	"mfn/internal/core"
)

// Amounts are accepted as JSON numbers or strings and always returned as
// strings with two decimals. Dates are YYYY-MM-DD.

type registerCardRequest struct {
	Number      string           `json:"number" validate:"required,max=64"`
	HolderName  string           `json:"holder_name" validate:"max=128"`
	BillingDay  int              `json:"billing_day"`
	CreditLimit *decimal.Decimal `json:"credit_limit" validate:"required"`
}

type cardResponse struct {
	Number      string `json:"number"`
	HolderName  string `json:"holder_name"`
	BillingDay  int    `json:"billing_day"`
	CreditLimit string `json:"credit_limit"`
	PendingDebt string `json:"pending_debt"`
	Available   string `json:"available_credit"`
}

func newCardResponse(c core.CardInfo) cardResponse {
	return cardResponse{
		Number:      c.Number,
		HolderName:  c.HolderName,
		BillingDay:  c.BillingDay,
		CreditLimit: c.CreditLimit.String(),
		PendingDebt: c.PendingDebt.String(),
		Available:   c.CreditLimit.Sub(c.PendingDebt).String(),
	}
}

type addDebtRequest struct {
	Category     string           `json:"category" validate:"required,max=64"`
	PurchaseDate string           `json:"purchase_date" validate:"required"`
	Total        *decimal.Decimal `json:"total" validate:"required"`
	Description  string           `json:"description" validate:"max=255"`
	Installments int              `json:"installments"`
}

type debtResponse struct {
	ID           int64  `json:"id"`
	CardNumber   string `json:"card_number"`
	Category     string `json:"category"`
	PurchaseDate string `json:"purchase_date"`
	Total        string `json:"total"`
	Description  string `json:"description"`
	Installments int    `json:"installments"`
}

func newDebtResponse(d core.Debt) debtResponse {
	return debtResponse{
		ID:           d.ID,
		CardNumber:   d.CardNumber,
		Category:     d.Category,
		PurchaseDate: d.PurchaseDate.String(),
		Total:        d.Total.String(),
		Description:  d.Description,
		Installments: d.Installments,
	}
}

type installmentResponse struct {
	Seq        int    `json:"seq"`
	DueDate    string `json:"due_date"`
	Amount     string `json:"amount"`
	Paid       bool   `json:"paid"`
	PaidWallet string `json:"paid_wallet,omitempty"`
	PaidDate   string `json:"paid_date,omitempty"`
}

func newInstallmentResponse(i core.Installment) installmentResponse {
	resp := installmentResponse{
		Seq:     i.Seq,
		DueDate: i.DueDate.String(),
		Amount:  i.Amount.String(),
		Paid:    i.IsPaid(),
	}
	if i.PaidWallet != nil {
		resp.PaidWallet = *i.PaidWallet
	}
	if i.PaidDate != nil {
		resp.PaidDate = i.PaidDate.String()
	}
	return resp
}

type payInstallmentRequest struct {
	Wallet string `json:"wallet" validate:"required,max=64"`
	Date   string `json:"date" validate:"required"`
}

type createWalletRequest struct {
	Name           string           `json:"name" validate:"required,max=64"`
	InitialBalance *decimal.Decimal `json:"initial_balance"`
}

type walletResponse struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
}

type transactionRequest struct {
	Category    string           `json:"category" validate:"required,max=64"`
	Date        string           `json:"date" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Description string           `json:"description" validate:"max=255"`
}

type transactionResponse struct {
	ID          int64  `json:"id"`
	Wallet      string `json:"wallet"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func newTransactionResponse(t core.WalletTransaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Wallet:      t.Wallet,
		Category:    t.Category,
		Type:        string(t.Type),
		Date:        t.Date.String(),
		Amount:      t.Amount.String(),
		Description: t.Description,
	}
}

type transferRequest struct {
	From        string           `json:"from" validate:"required,max=64"`
	To          string           `json:"to" validate:"required,max=64"`
	Date        string           `json:"date" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required"`
	Description string           `json:"description" validate:"max=255"`
}

type transferResponse struct {
	ID          int64  `json:"id"`
	From        string `json:"from"`
	To          string `json:"to"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type createCategoryRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

type categoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
