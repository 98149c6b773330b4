package storage

import (
	"context"
)

const createCreditCard = `
INSERT INTO credit_card (number, name, max_debt_cents, billing_due_day) VALUES (?, ?, ?, ?)
`

type CreateCreditCardParams struct {
	Number        string
	Name          string
	MaxDebtCents  int64
	BillingDueDay int64
}

func (q *Queries) CreateCreditCard(ctx context.Context, arg CreateCreditCardParams) error {
	_, err := q.db.ExecContext(ctx, createCreditCard,
		arg.Number,
		arg.Name,
		arg.MaxDebtCents,
		arg.BillingDueDay,
	)
	return err
}

const creditCardExists = `
SELECT COUNT(*) FROM credit_card WHERE number = ?
`

func (q *Queries) CreditCardExists(ctx context.Context, number string) (bool, error) {
	row := q.db.QueryRowContext(ctx, creditCardExists, number)
	var count int64
	err := row.Scan(&count)
	return count > 0, err
}

const getCreditCard = `
SELECT number, name, max_debt_cents, billing_due_day FROM credit_card WHERE number = ?
`

func (q *Queries) GetCreditCard(ctx context.Context, number string) (CreditCard, error) {
	row := q.db.QueryRowContext(ctx, getCreditCard, number)
	var i CreditCard
	err := row.Scan(
		&i.Number,
		&i.Name,
		&i.MaxDebtCents,
		&i.BillingDueDay,
	)
	return i, err
}

const listCreditCardNumbers = `
SELECT number FROM credit_card
`

func (q *Queries) ListCreditCardNumbers(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCreditCardNumbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return nil, err
		}
		items = append(items, number)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getPendingDebt = `
SELECT CAST(COALESCE(SUM(p.amount_cents), 0) AS INTEGER)
FROM credit_card_debt d
INNER JOIN credit_card_payment p ON p.debt_id = d.debt_id
WHERE d.crc_number = ? AND p.wallet IS NULL
`

// GetPendingDebt sums the unpaid installments of every debt on a card.
func (q *Queries) GetPendingDebt(ctx context.Context, number string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getPendingDebt, number)
	var pendingCents int64
	err := row.Scan(&pendingCents)
	return pendingCents, err
}
