package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/storage"
)

// WalletService keeps wallet balances and their income, expense and
// transfer history. Every balance change is a read-modify-write inside a
// single transaction.
type WalletService struct {
	repo       *storage.SQLiteRepository
	categories *CategoryService
	logger     *log.Logger
}

func NewWalletService(repo *storage.SQLiteRepository, categories *CategoryService, logger *log.Logger) *WalletService {
	return &WalletService{
		repo:       repo,
		categories: categories,
		logger:     logger.WithComponent(log.ComponentWallet),
	}
}

func (s *WalletService) CreateWallet(ctx context.Context, name string, initialBalance core.Money) error {
	name = strings.TrimSpace(name)
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if name == "" {
			return fmt.Errorf("%w: wallet", core.ErrEmptyName)
		}
		if initialBalance.Cents < 0 {
			return fmt.Errorf("%w: initial balance %s", core.ErrInvalidAmount, initialBalance)
		}
		exists, err := q.WalletExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check wallet: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: %s", core.ErrWalletExists, name)
		}
		if err := q.CreateWallet(ctx, storage.CreateWalletParams{Name: name, BalanceCents: initialBalance.Cents}); err != nil {
			return fmt.Errorf("insert wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "create wallet", err, log.FieldWallet, name)
		return err
	}

	s.logger.InfoContext(ctx, "Wallet created",
		log.FieldWallet, name,
		log.FieldAmountCents, initialBalance.Cents)
	return nil
}

// DeleteWallet removes a wallet together with its income and expense
// history. A wallet that sent or received a transfer is kept, since the
// counterpart's balance depends on that row.
func (s *WalletService) DeleteWallet(ctx context.Context, name string) error {
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		exists, err := q.WalletExists(ctx, name)
		if err != nil {
			return fmt.Errorf("check wallet: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", core.ErrWalletNotFound, name)
		}
		transfers, err := q.CountTransfers(ctx, name)
		if err != nil {
			return fmt.Errorf("count transfers: %w", err)
		}
		if transfers > 0 {
			return fmt.Errorf("%w: %s took part in %d", core.ErrWalletHasTransfers, name, transfers)
		}
		if _, err := q.DeleteWallet(ctx, name); err != nil {
			return fmt.Errorf("delete wallet: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "delete wallet", err, log.FieldWallet, name)
		return err
	}

	s.logger.InfoContext(ctx, "Wallet deleted", log.FieldWallet, name)
	return nil
}

// Income credits amount to wallet under category.
func (s *WalletService) Income(ctx context.Context, wallet, category string, date core.Date, description string, amount core.Money) (core.WalletTransaction, error) {
	return s.record(ctx, core.Income, wallet, category, date, description, amount)
}

// Expense debits amount from wallet under category. The wallet balance
// must cover the amount.
func (s *WalletService) Expense(ctx context.Context, wallet, category string, date core.Date, description string, amount core.Money) (core.WalletTransaction, error) {
	return s.record(ctx, core.Expense, wallet, category, date, description, amount)
}

func (s *WalletService) record(ctx context.Context, kind core.TransactionType, wallet, category string, date core.Date, description string, amount core.Money) (core.WalletTransaction, error) {
	var tx core.WalletTransaction
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := amount.Validate(); err != nil {
			return fmt.Errorf("%w: %s", err, amount)
		}
		if err := date.Validate(); err != nil {
			return err
		}

		balance, err := q.GetWalletBalance(ctx, wallet)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", core.ErrWalletNotFound, wallet)
		}
		if err != nil {
			return fmt.Errorf("get wallet balance: %w", err)
		}

		newBalance := balance + amount.Cents
		if kind == core.Expense {
			if balance < amount.Cents {
				return fmt.Errorf("%w: %s has %s, expense is %s", core.ErrInsufficientBalance,
					wallet, core.Money{Cents: balance}, amount)
			}
			newBalance = balance - amount.Cents
		}

		categoryID, err := s.categories.Resolve(ctx, q, category)
		if err != nil {
			return err
		}

		id, err := q.CreateWalletTransaction(ctx, storage.CreateWalletTransactionParams{
			Wallet:      wallet,
			CategoryID:  categoryID,
			Type:        string(kind),
			Date:        date.String(),
			AmountCents: amount.Cents,
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}

		if err := q.UpdateWalletBalance(ctx, storage.UpdateWalletBalanceParams{
			BalanceCents: newBalance,
			Name:         wallet,
		}); err != nil {
			return fmt.Errorf("update wallet balance: %w", err)
		}

		tx = core.WalletTransaction{
			ID:          id,
			Wallet:      wallet,
			CategoryID:  categoryID,
			Category:    strings.TrimSpace(category),
			Type:        kind,
			Date:        date,
			Amount:      amount,
			Description: description,
		}
		return nil
	})
	op := "record " + strings.ToLower(string(kind))
	if err != nil {
		logFailure(ctx, s.logger, op, err,
			log.FieldWallet, wallet,
			log.FieldCategory, category,
			log.FieldAmountCents, amount.Cents)
		return core.WalletTransaction{}, err
	}

	s.categories.remember(tx.Category, tx.CategoryID)
	s.logger.InfoContext(ctx, "Wallet transaction recorded",
		log.FieldOperation, op,
		log.FieldWallet, wallet,
		log.FieldCategory, tx.Category,
		log.FieldAmountCents, amount.Cents,
		log.FieldDate, date.String())
	return tx, nil
}

// Transfer moves amount from one wallet to another.
func (s *WalletService) Transfer(ctx context.Context, from, to string, date core.Date, amount core.Money, description string) (core.Transfer, error) {
	var transfer core.Transfer
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if from == to {
			return fmt.Errorf("%w: %s", core.ErrSameWallet, from)
		}
		if err := amount.Validate(); err != nil {
			return fmt.Errorf("%w: %s", err, amount)
		}
		if err := date.Validate(); err != nil {
			return err
		}

		fromBalance, err := q.GetWalletBalance(ctx, from)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", core.ErrWalletNotFound, from)
		}
		if err != nil {
			return fmt.Errorf("get wallet balance: %w", err)
		}
		toBalance, err := q.GetWalletBalance(ctx, to)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", core.ErrWalletNotFound, to)
		}
		if err != nil {
			return fmt.Errorf("get wallet balance: %w", err)
		}
		if fromBalance < amount.Cents {
			return fmt.Errorf("%w: %s has %s, transfer is %s", core.ErrInsufficientBalance,
				from, core.Money{Cents: fromBalance}, amount)
		}

		id, err := q.CreateTransfer(ctx, storage.CreateTransferParams{
			SenderWallet:   from,
			ReceiverWallet: to,
			Date:           date.String(),
			AmountCents:    amount.Cents,
			Description:    description,
		})
		if err != nil {
			return fmt.Errorf("insert transfer: %w", err)
		}

		if err := q.UpdateWalletBalance(ctx, storage.UpdateWalletBalanceParams{
			BalanceCents: fromBalance - amount.Cents,
			Name:         from,
		}); err != nil {
			return fmt.Errorf("debit %s: %w", from, err)
		}
		if err := q.UpdateWalletBalance(ctx, storage.UpdateWalletBalanceParams{
			BalanceCents: toBalance + amount.Cents,
			Name:         to,
		}); err != nil {
			return fmt.Errorf("credit %s: %w", to, err)
		}

		transfer = core.Transfer{
			ID:          id,
			Sender:      from,
			Receiver:    to,
			Date:        date,
			Amount:      amount,
			Description: description,
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "transfer", err,
			"from", from,
			"to", to,
			log.FieldAmountCents, amount.Cents)
		return core.Transfer{}, err
	}

	s.logger.InfoContext(ctx, "Transfer recorded",
		log.FieldOperation, log.OpTransfer,
		"from", from,
		"to", to,
		log.FieldAmountCents, amount.Cents,
		log.FieldDate, date.String())
	return transfer, nil
}

func (s *WalletService) GetBalance(ctx context.Context, name string) (core.Money, error) {
	balance, err := s.repo.Queries().GetWalletBalance(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, fmt.Errorf("%w: %s", core.ErrWalletNotFound, name)
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get wallet balance: %w", err)
	}
	return core.Money{Cents: balance}, nil
}

func (s *WalletService) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := s.repo.Queries().ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	wallets := make([]core.Wallet, len(rows))
	for i, row := range rows {
		wallets[i] = core.Wallet{Name: row.Name, Balance: core.Money{Cents: row.BalanceCents}}
	}
	return wallets, nil
}

// ListTransactions returns the income and expense history of a wallet,
// oldest first.
func (s *WalletService) ListTransactions(ctx context.Context, wallet string) ([]core.WalletTransaction, error) {
	q := s.repo.Queries()
	exists, err := q.WalletExists(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("check wallet: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrWalletNotFound, wallet)
	}

	rows, err := q.ListWalletTransactions(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	txs := make([]core.WalletTransaction, 0, len(rows))
	for _, row := range rows {
		date, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: transaction %d stored date: %v", core.ErrInvariant, row.WalletTransactionID, err)
		}
		txs = append(txs, core.WalletTransaction{
			ID:          row.WalletTransactionID,
			Wallet:      row.Wallet,
			CategoryID:  row.CategoryID,
			Category:    row.CategoryName,
			Type:        core.TransactionType(row.Type),
			Date:        date,
			Amount:      core.Money{Cents: row.AmountCents},
			Description: row.Description,
		})
	}
	return txs, nil
}
