package storage

import (
	"context"
)

const createWalletTransaction = `
INSERT INTO wallet_transaction (wallet, category_id, type, date, amount_cents, description)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING wallet_transaction_id
`

type CreateWalletTransactionParams struct {
	Wallet      string
	CategoryID  int64
	Type        string
	Date        string
	AmountCents int64
	Description string
}

func (q *Queries) CreateWalletTransaction(ctx context.Context, arg CreateWalletTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createWalletTransaction,
		arg.Wallet,
		arg.CategoryID,
		arg.Type,
		arg.Date,
		arg.AmountCents,
		arg.Description,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listWalletTransactions = `
SELECT t.wallet_transaction_id, t.wallet, t.category_id, c.name, t.type, t.date, t.amount_cents, t.description
FROM wallet_transaction t
INNER JOIN category c ON c.category_id = t.category_id
WHERE t.wallet = ?
ORDER BY t.date, t.wallet_transaction_id
`

func (q *Queries) ListWalletTransactions(ctx context.Context, wallet string) ([]WalletTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listWalletTransactions, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []WalletTransaction
	for rows.Next() {
		var i WalletTransaction
		if err := rows.Scan(
			&i.WalletTransactionID,
			&i.Wallet,
			&i.CategoryID,
			&i.CategoryName,
			&i.Type,
			&i.Date,
			&i.AmountCents,
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

const createTransfer = `
INSERT INTO transfer (sender_wallet, receiver_wallet, date, amount_cents, description)
VALUES (?, ?, ?, ?, ?)
RETURNING transfer_id
`

type CreateTransferParams struct {
	SenderWallet   string
	ReceiverWallet string
	Date           string
	AmountCents    int64
	Description    string
}

func (q *Queries) CreateTransfer(ctx context.Context, arg CreateTransferParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransfer,
		arg.SenderWallet,
		arg.ReceiverWallet,
		arg.Date,
		arg.AmountCents,
		arg.Description,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const countTransfers = `
SELECT COUNT(*) FROM transfer WHERE sender_wallet = ? OR receiver_wallet = ?
`

func (q *Queries) CountTransfers(ctx context.Context, wallet string) (int64, error) {
	row := q.db.QueryRowContext(ctx, countTransfers, wallet, wallet)
	var count int64
	err := row.Scan(&count)
	return count, err
}
