package storage

import (
	"context"
	"database/sql"
)

const createDebt = `
INSERT INTO credit_card_debt (crc_number, category_id, date, total_amount_cents, description)
VALUES (?, ?, ?, ?, ?)
RETURNING debt_id
`

type CreateDebtParams struct {
	CrcNumber        string
	CategoryID       int64
	Date             string
	TotalAmountCents int64
	Description      string
}

func (q *Queries) CreateDebt(ctx context.Context, arg CreateDebtParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createDebt,
		arg.CrcNumber,
		arg.CategoryID,
		arg.Date,
		arg.TotalAmountCents,
		arg.Description,
	)
	var debtID int64
	err := row.Scan(&debtID)
	return debtID, err
}

const createInstallment = `
INSERT INTO credit_card_payment (debt_id, installment, due_date, amount_cents)
VALUES (?, ?, ?, ?)
RETURNING payment_id
`

type CreateInstallmentParams struct {
	DebtID      int64
	Installment int64
	DueDate     string
	AmountCents int64
}

func (q *Queries) CreateInstallment(ctx context.Context, arg CreateInstallmentParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createInstallment,
		arg.DebtID,
		arg.Installment,
		arg.DueDate,
		arg.AmountCents,
	)
	var paymentID int64
	err := row.Scan(&paymentID)
	return paymentID, err
}

const debtColumns = `
d.debt_id, d.crc_number, d.category_id, c.name, d.date, d.total_amount_cents, d.description,
(SELECT COUNT(*) FROM credit_card_payment p WHERE p.debt_id = d.debt_id) AS installments
FROM credit_card_debt d
INNER JOIN category c ON c.category_id = d.category_id
`

const getLastDebt = `SELECT` + debtColumns + `
WHERE d.crc_number = ?
ORDER BY d.debt_id DESC
LIMIT 1
`

func (q *Queries) GetLastDebt(ctx context.Context, crcNumber string) (CreditCardDebt, error) {
	row := q.db.QueryRowContext(ctx, getLastDebt, crcNumber)
	return scanDebt(row)
}

const getDebt = `SELECT` + debtColumns + `
WHERE d.debt_id = ?
`

func (q *Queries) GetDebt(ctx context.Context, debtID int64) (CreditCardDebt, error) {
	row := q.db.QueryRowContext(ctx, getDebt, debtID)
	return scanDebt(row)
}

const listDebtsByCard = `SELECT` + debtColumns + `
WHERE d.crc_number = ?
ORDER BY d.debt_id
`

func (q *Queries) ListDebtsByCard(ctx context.Context, crcNumber string) ([]CreditCardDebt, error) {
	rows, err := q.db.QueryContext(ctx, listDebtsByCard, crcNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CreditCardDebt
	for rows.Next() {
		i, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row rowScanner) (CreditCardDebt, error) {
	var i CreditCardDebt
	err := row.Scan(
		&i.DebtID,
		&i.CrcNumber,
		&i.CategoryID,
		&i.CategoryName,
		&i.Date,
		&i.TotalAmountCents,
		&i.Description,
		&i.Installments,
	)
	return i, err
}

const paymentColumns = `
p.payment_id, p.debt_id, p.installment, p.due_date, p.amount_cents, p.wallet, p.paid_date
`

const listInstallments = `SELECT` + paymentColumns + `
FROM credit_card_payment p
WHERE p.debt_id = ?
ORDER BY p.installment
`

func (q *Queries) ListInstallments(ctx context.Context, debtID int64) ([]CreditCardPayment, error) {
	rows, err := q.db.QueryContext(ctx, listInstallments, debtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CreditCardPayment
	for rows.Next() {
		i, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getInstallment = `SELECT` + paymentColumns + `
FROM credit_card_payment p
WHERE p.debt_id = ? AND p.installment = ?
`

type GetInstallmentParams struct {
	DebtID      int64
	Installment int64
}

func (q *Queries) GetInstallment(ctx context.Context, arg GetInstallmentParams) (CreditCardPayment, error) {
	row := q.db.QueryRowContext(ctx, getInstallment, arg.DebtID, arg.Installment)
	return scanPayment(row)
}

func scanPayment(row rowScanner) (CreditCardPayment, error) {
	var i CreditCardPayment
	err := row.Scan(
		&i.PaymentID,
		&i.DebtID,
		&i.Installment,
		&i.DueDate,
		&i.AmountCents,
		&i.Wallet,
		&i.PaidDate,
	)
	return i, err
}

const markInstallmentPaid = `
UPDATE credit_card_payment SET wallet = ?, paid_date = ?
WHERE payment_id = ? AND wallet IS NULL
`

type MarkInstallmentPaidParams struct {
	Wallet    sql.NullString
	PaidDate  sql.NullString
	PaymentID int64
}

// MarkInstallmentPaid returns the number of rows changed; 0 means the
// installment was already paid.
func (q *Queries) MarkInstallmentPaid(ctx context.Context, arg MarkInstallmentPaidParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, markInstallmentPaid, arg.Wallet, arg.PaidDate, arg.PaymentID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listPendingInstallmentsDue = `SELECT` + paymentColumns + `, d.crc_number, d.description
FROM credit_card_payment p
INNER JOIN credit_card_debt d ON d.debt_id = p.debt_id
WHERE p.wallet IS NULL AND p.due_date >= ? AND p.due_date <= ?
ORDER BY p.due_date, p.payment_id
`

type ListPendingInstallmentsDueParams struct {
	FromDate string
	ToDate   string
}

func (q *Queries) ListPendingInstallmentsDue(ctx context.Context, arg ListPendingInstallmentsDueParams) ([]DueInstallment, error) {
	rows, err := q.db.QueryContext(ctx, listPendingInstallmentsDue, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DueInstallment
	for rows.Next() {
		var i DueInstallment
		if err := rows.Scan(
			&i.PaymentID,
			&i.DebtID,
			&i.Installment,
			&i.DueDate,
			&i.AmountCents,
			&i.Wallet,
			&i.PaidDate,
			&i.CrcNumber,
			&i.Description,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
