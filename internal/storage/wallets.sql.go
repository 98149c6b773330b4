package storage

import (
	"context"
)

const createWallet = `
INSERT INTO wallet (name, balance_cents) VALUES (?, ?)
`

type CreateWalletParams struct {
	Name         string
	BalanceCents int64
}

func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) error {
	_, err := q.db.ExecContext(ctx, createWallet, arg.Name, arg.BalanceCents)
	return err
}

const deleteWallet = `
DELETE FROM wallet WHERE name = ?
`

func (q *Queries) DeleteWallet(ctx context.Context, name string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteWallet, name)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const walletExists = `
SELECT COUNT(*) FROM wallet WHERE name = ?
`

func (q *Queries) WalletExists(ctx context.Context, name string) (bool, error) {
	row := q.db.QueryRowContext(ctx, walletExists, name)
	var count int64
	err := row.Scan(&count)
	return count > 0, err
}

const getWalletBalance = `
SELECT balance_cents FROM wallet WHERE name = ?
`

func (q *Queries) GetWalletBalance(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getWalletBalance, name)
	var balanceCents int64
	err := row.Scan(&balanceCents)
	return balanceCents, err
}

const updateWalletBalance = `
UPDATE wallet SET balance_cents = ? WHERE name = ?
`

type UpdateWalletBalanceParams struct {
	BalanceCents int64
	Name         string
}

func (q *Queries) UpdateWalletBalance(ctx context.Context, arg UpdateWalletBalanceParams) error {
	_, err := q.db.ExecContext(ctx, updateWalletBalance, arg.BalanceCents, arg.Name)
	return err
}

const listWallets = `
SELECT name, balance_cents FROM wallet
`

func (q *Queries) ListWallets(ctx context.Context) ([]Wallet, error) {
	rows, err := q.db.QueryContext(ctx, listWallets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Wallet
	for rows.Next() {
		var i Wallet
		if err := rows.Scan(&i.Name, &i.BalanceCents); err != nil {
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
