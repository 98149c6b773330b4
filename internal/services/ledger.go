package services

import (
	"context"
	"errors"
	"fmt"

	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/storage"
)

// Ledger bundles the services that share one store and one publisher.
type Ledger struct {
	Categories *CategoryService
	Cards      *CardService
	Debts      *DebtService
	Wallets    *WalletService

	repo      *storage.SQLiteRepository
	publisher EventPublisher
}

// NewLedger wires every service to repo. publisher may be nil.
func NewLedger(repo *storage.SQLiteRepository, publisher EventPublisher, logger *log.Logger) *Ledger {
	categories := NewCategoryService(repo, logger)
	return &Ledger{
		Categories: categories,
		Cards:      NewCardService(repo, publisher, logger),
		Debts:      NewDebtService(repo, categories, publisher, logger),
		Wallets:    NewWalletService(repo, categories, logger),
		repo:       repo,
		publisher:  publisher,
	}
}

// Ping reports whether the store is reachable.
func (l *Ledger) Ping(ctx context.Context) error {
	return l.repo.Ping(ctx)
}

// Reset empties the store and every cache derived from it.
func (l *Ledger) Reset(ctx context.Context) error {
	if err := l.repo.Reset(ctx); err != nil {
		return err
	}
	l.Categories.Purge()
	return nil
}

// Close closes both storage and AMQP connections
func (l *Ledger) Close() error {
	var errs []error

	if l.repo != nil {
		if err := l.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if closer, ok := l.publisher.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger: %w", errors.Join(errs...))
	}
	return nil
}

// logFailure logs rejections at WARN and everything else at ERROR.
func logFailure(ctx context.Context, logger *log.Logger, op string, err error, args ...any) {
	args = append(args, log.FieldOperation, op, log.FieldError, err)
	if core.IsRejection(err) {
		logger.WarnContext(ctx, "Rejected "+op, args...)
		return
	}
	logger.ErrorContext(ctx, "Failed to "+op, args...)
}
