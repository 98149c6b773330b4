package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mfn/internal/amqp"
	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/storage"
)

// CardService is the credit card registry.
type CardService struct {
	repo      *storage.SQLiteRepository
	publisher EventPublisher
	logger    *log.Logger
}

func NewCardService(repo *storage.SQLiteRepository, publisher EventPublisher, logger *log.Logger) *CardService {
	return &CardService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentCard),
	}
}

// RegisterCard stores a new card. A number already registered is rejected
// with ErrCardExists and the stored card is left untouched.
func (s *CardService) RegisterCard(ctx context.Context, number string, billingDay int, holderName string, creditLimit core.Money) error {
	card := core.CreditCard{
		Number:      number,
		HolderName:  holderName,
		CreditLimit: creditLimit,
		BillingDay:  billingDay,
	}

	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		exists, err := q.CreditCardExists(ctx, number)
		if err != nil {
			return fmt.Errorf("check card: %w", err)
		}
		if exists {
			return core.ErrCardExists
		}
		if err := card.Validate(); err != nil {
			return err
		}
		if err := q.CreateCreditCard(ctx, storage.CreateCreditCardParams{
			Number:        card.Number,
			Name:          card.HolderName,
			MaxDebtCents:  card.CreditLimit.Cents,
			BillingDueDay: int64(card.BillingDay),
		}); err != nil {
			return fmt.Errorf("insert card: %w", err)
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "register card", err,
			log.FieldCardNumber, number,
			"billing_day", billingDay,
			"credit_limit", creditLimit.String())
		return err
	}

	s.logger.InfoContext(ctx, "Credit card registered",
		log.FieldCardNumber, number,
		"holder", holderName,
		"billing_day", billingDay,
		"credit_limit", creditLimit.String())

	event := amqp.NewLedgerEvent(amqp.EventCardRegistered)
	event.CardNumber = number
	event.AmountCents = creditLimit.Cents
	publish(ctx, s.publisher, s.logger, event)
	return nil
}

// GetCard returns the card with its pending debt computed from unpaid
// installments at call time.
func (s *CardService) GetCard(ctx context.Context, number string) (core.CardInfo, error) {
	q := s.repo.Queries()
	row, err := q.GetCreditCard(ctx, number)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CardInfo{}, fmt.Errorf("%w: %s", core.ErrCardNotFound, number)
	}
	if err != nil {
		return core.CardInfo{}, fmt.Errorf("get card: %w", err)
	}

	pending, err := q.GetPendingDebt(ctx, number)
	if err != nil {
		return core.CardInfo{}, fmt.Errorf("get pending debt: %w", err)
	}

	return core.CardInfo{
		CreditCard:  cardFromRow(row),
		PendingDebt: core.Money{Cents: pending},
	}, nil
}

// ListCards returns every registered card number.
func (s *CardService) ListCards(ctx context.Context) ([]string, error) {
	numbers, err := s.repo.Queries().ListCreditCardNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return numbers, nil
}

func (s *CardService) CardExists(ctx context.Context, number string) (bool, error) {
	exists, err := s.repo.Queries().CreditCardExists(ctx, number)
	if err != nil {
		return false, fmt.Errorf("check card: %w", err)
	}
	return exists, nil
}

func cardFromRow(row storage.CreditCard) core.CreditCard {
	return core.CreditCard{
		Number:      row.Number,
		HolderName:  row.Name,
		CreditLimit: core.Money{Cents: row.MaxDebtCents},
		BillingDay:  int(row.BillingDueDay),
	}
}
