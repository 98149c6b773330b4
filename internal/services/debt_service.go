package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mfn/internal/amqp"
	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/storage"
)

// DebtRequest describes a purchase charged to a credit card.
type DebtRequest struct {
	CardNumber   string
	Category     string
	PurchaseDate core.Date
	Total        core.Money
	Description  string
	Installments int
}

// DebtService records card purchases as debts split into monthly
// installments and settles installments from wallets.
type DebtService struct {
	repo       *storage.SQLiteRepository
	categories *CategoryService
	publisher  EventPublisher
	logger     *log.Logger
}

func NewDebtService(repo *storage.SQLiteRepository, categories *CategoryService, publisher EventPublisher, logger *log.Logger) *DebtService {
	return &DebtService{
		repo:       repo,
		categories: categories,
		publisher:  publisher,
		logger:     logger.WithComponent(log.ComponentDebt),
	}
}

// AddDebt validates req against the card and, when accepted, stores the
// debt and its installment schedule.
//
// Checks run in order and the first failure is returned: the card must
// exist, the total must be positive, there must be at least one
// installment, and the card's available credit (limit minus pending
// installments) must cover the total. The checks and every insert share
// one transaction, so two concurrent purchases cannot both spend the same
// credit and a failure leaves no rows behind.
func (s *DebtService) AddDebt(ctx context.Context, req DebtRequest) (core.Debt, error) {
	var debt core.Debt
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		card, err := q.GetCreditCard(ctx, req.CardNumber)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", core.ErrCardNotFound, req.CardNumber)
		}
		if err != nil {
			return fmt.Errorf("get card: %w", err)
		}

		if err := req.Total.Validate(); err != nil {
			return fmt.Errorf("%w: total %s", err, req.Total)
		}
		if req.Installments < 1 {
			return fmt.Errorf("%w: %d", core.ErrInvalidInstallments, req.Installments)
		}
		if err := req.PurchaseDate.Validate(); err != nil {
			return err
		}

		pending, err := q.GetPendingDebt(ctx, req.CardNumber)
		if err != nil {
			return fmt.Errorf("get pending debt: %w", err)
		}
		available := core.Money{Cents: card.MaxDebtCents - pending}
		if req.Total.Cents > available.Cents {
			return fmt.Errorf("%w: requested %s, available %s", core.ErrInsufficientCredit, req.Total, available)
		}

		categoryID, err := s.categories.Resolve(ctx, q, req.Category)
		if err != nil {
			return err
		}

		debtID, err := q.CreateDebt(ctx, storage.CreateDebtParams{
			CrcNumber:        req.CardNumber,
			CategoryID:       categoryID,
			Date:             req.PurchaseDate.String(),
			TotalAmountCents: req.Total.Cents,
			Description:      req.Description,
		})
		if err != nil {
			return fmt.Errorf("insert debt: %w", err)
		}

		for _, inst := range core.InstallmentSchedule(req.PurchaseDate, int(card.BillingDueDay), req.Total, req.Installments) {
			if _, err := q.CreateInstallment(ctx, storage.CreateInstallmentParams{
				DebtID:      debtID,
				Installment: int64(inst.Seq),
				DueDate:     inst.DueDate.String(),
				AmountCents: inst.Amount.Cents,
			}); err != nil {
				return fmt.Errorf("insert installment %d: %w", inst.Seq, err)
			}
		}

		debt = core.Debt{
			ID:           debtID,
			CardNumber:   req.CardNumber,
			CategoryID:   categoryID,
			Category:     strings.TrimSpace(req.Category),
			PurchaseDate: req.PurchaseDate,
			Total:        req.Total,
			Description:  req.Description,
			Installments: req.Installments,
		}
		return nil
	})
	if err != nil {
		logFailure(ctx, s.logger, "add debt", err, log.NewFields().
			WithDebt(req.CardNumber, req.Category, req.Total.Cents, req.Installments).
			ToSlice()...)
		return core.Debt{}, err
	}

	s.categories.remember(debt.Category, debt.CategoryID)
	s.logger.InfoContext(ctx, "Debt added",
		log.FieldDebtID, debt.ID,
		log.FieldCardNumber, debt.CardNumber,
		log.FieldCategory, debt.Category,
		log.FieldAmountCents, debt.Total.Cents,
		log.FieldInstallments, debt.Installments,
		log.FieldDate, debt.PurchaseDate.String())

	event := amqp.NewLedgerEvent(amqp.EventDebtAdded)
	event.CardNumber = debt.CardNumber
	event.DebtID = debt.ID
	event.Installments = debt.Installments
	event.AmountCents = debt.Total.Cents
	event.Date = debt.PurchaseDate.String()
	publish(ctx, s.publisher, s.logger, event)

	return debt, nil
}

// DueDate returns when installment seq of a purchase on cardNumber falls due.
func (s *DebtService) DueDate(ctx context.Context, cardNumber string, purchase core.Date, seq int) (core.Date, error) {
	if seq < 1 {
		return core.Date{}, fmt.Errorf("%w: sequence %d", core.ErrInvalidInstallments, seq)
	}
	card, err := s.repo.Queries().GetCreditCard(ctx, cardNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Date{}, fmt.Errorf("%w: %s", core.ErrCardNotFound, cardNumber)
	}
	if err != nil {
		return core.Date{}, fmt.Errorf("get card: %w", err)
	}
	return core.InstallmentDueDate(purchase, int(card.BillingDueDay), seq), nil
}

// PendingDebt sums the unpaid installments of a card. Callers are expected
// to have checked that the card exists; a missing card is an invariant
// violation.
func (s *DebtService) PendingDebt(ctx context.Context, cardNumber string) (core.Money, error) {
	q := s.repo.Queries()
	exists, err := q.CreditCardExists(ctx, cardNumber)
	if err != nil {
		return core.Money{}, fmt.Errorf("check card: %w", err)
	}
	if !exists {
		s.logger.ErrorContext(ctx, "Pending debt requested for unknown card",
			log.FieldCardNumber, cardNumber)
		return core.Money{}, fmt.Errorf("%w: pending debt of unknown card %s", core.ErrInvariant, cardNumber)
	}

	pending, err := q.GetPendingDebt(ctx, cardNumber)
	if err != nil {
		return core.Money{}, fmt.Errorf("get pending debt: %w", err)
	}
	return core.Money{Cents: pending}, nil
}

// GetLastExpense returns the most recently recorded debt of a card.
func (s *DebtService) GetLastExpense(ctx context.Context, cardNumber string) (core.Debt, error) {
	row, err := s.repo.Queries().GetLastDebt(ctx, cardNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, fmt.Errorf("%w: card %s has no debts", core.ErrDebtNotFound, cardNumber)
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get last debt: %w", err)
	}
	return debtFromRow(row)
}

// ListDebts returns the debts of a card in insertion order.
func (s *DebtService) ListDebts(ctx context.Context, cardNumber string) ([]core.Debt, error) {
	q := s.repo.Queries()
	exists, err := q.CreditCardExists(ctx, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("check card: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrCardNotFound, cardNumber)
	}

	rows, err := q.ListDebtsByCard(ctx, cardNumber)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	debts := make([]core.Debt, 0, len(rows))
	for _, row := range rows {
		debt, err := debtFromRow(row)
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	return debts, nil
}

// ListInstallments returns the schedule of a debt ordered by sequence.
func (s *DebtService) ListInstallments(ctx context.Context, debtID int64) ([]core.Installment, error) {
	q := s.repo.Queries()
	if _, err := q.GetDebt(ctx, debtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", core.ErrDebtNotFound, debtID)
		}
		return nil, fmt.Errorf("get debt: %w", err)
	}

	rows, err := q.ListInstallments(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	installments := make([]core.Installment, 0, len(rows))
	for _, row := range rows {
		inst, err := installmentFromRow(row)
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, nil
}

// PayInstallment settles installment seq of a debt from wallet. The
// installment is marked paid and the wallet debited in one transaction;
// the payment is also recorded as an expense of the wallet under the
// debt's category.
func (s *DebtService) PayInstallment(ctx context.Context, debtID int64, seq int, wallet string, date core.Date) error {
	var paid core.Installment
	var cardNumber string
	err := s.repo.InTx(ctx, func(q *storage.Queries) error {
		if err := date.Validate(); err != nil {
			return err
		}

		debt, err := q.GetDebt(ctx, debtID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %d", core.ErrDebtNotFound, debtID)
		}
		if err != nil {
			return fmt.Errorf("get debt: %w", err)
		}
		cardNumber = debt.CrcNumber

		row, err := q.GetInstallment(ctx, storage.GetInstallmentParams{DebtID: debtID, Installment: int64(seq)})
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: debt %d installment %d", core.ErrInstallmentNotFound, debtID, seq)
		}
		if err != nil {
			return fmt.Errorf("get installment: %w", err)
		}
		if row.Wallet.Valid {
			return fmt.Errorf("%w: debt %d installment %d", core.ErrInstallmentPaid, debtID, seq)
		}

		balance, err := q.GetWalletBalance(ctx, wallet)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", core.ErrWalletNotFound, wallet)
		}
		if err != nil {
			return fmt.Errorf("get wallet balance: %w", err)
		}
		if balance < row.AmountCents {
			return fmt.Errorf("%w: %s has %s, installment is %s", core.ErrInsufficientBalance,
				wallet, core.Money{Cents: balance}, core.Money{Cents: row.AmountCents})
		}

		n, err := q.MarkInstallmentPaid(ctx, storage.MarkInstallmentPaidParams{
			Wallet:    sql.NullString{String: wallet, Valid: true},
			PaidDate:  sql.NullString{String: date.String(), Valid: true},
			PaymentID: row.PaymentID,
		})
		if err != nil {
			return fmt.Errorf("mark installment paid: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: debt %d installment %d", core.ErrInstallmentPaid, debtID, seq)
		}

		if err := q.UpdateWalletBalance(ctx, storage.UpdateWalletBalanceParams{
			BalanceCents: balance - row.AmountCents,
			Name:         wallet,
		}); err != nil {
			return fmt.Errorf("debit wallet: %w", err)
		}

		// A zero share (tiny totals split many ways) moves no money.
		if row.AmountCents > 0 {
			if _, err := q.CreateWalletTransaction(ctx, storage.CreateWalletTransactionParams{
				Wallet:      wallet,
				CategoryID:  debt.CategoryID,
				Type:        string(core.Expense),
				Date:        date.String(),
				AmountCents: row.AmountCents,
				Description: fmt.Sprintf("%s (installment %d/%d)", debt.Description, seq, debt.Installments),
			}); err != nil {
				return fmt.Errorf("record payment: %w", err)
			}
		}

		paid, err = installmentFromRow(row)
		return err
	})
	if err != nil {
		logFailure(ctx, s.logger, "pay installment", err,
			log.FieldDebtID, debtID,
			log.FieldInstallment, seq,
			log.FieldWallet, wallet)
		return err
	}

	s.logger.InfoContext(ctx, "Installment paid",
		log.FieldDebtID, debtID,
		log.FieldInstallment, seq,
		log.FieldWallet, wallet,
		log.FieldAmountCents, paid.Amount.Cents,
		log.FieldDate, date.String())

	event := amqp.NewLedgerEvent(amqp.EventInstallmentPaid)
	event.CardNumber = cardNumber
	event.DebtID = debtID
	event.Installment = seq
	event.AmountCents = paid.Amount.Cents
	event.Date = date.String()
	event.Wallet = wallet
	publish(ctx, s.publisher, s.logger, event)
	return nil
}

// DueInstallments lists pending installments due between from and to,
// both inclusive, ordered by due date.
func (s *DebtService) DueInstallments(ctx context.Context, from, to core.Date) ([]core.DueInstallment, error) {
	rows, err := s.repo.Queries().ListPendingInstallmentsDue(ctx, storage.ListPendingInstallmentsDueParams{
		FromDate: from.String(),
		ToDate:   to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list due installments: %w", err)
	}

	due := make([]core.DueInstallment, 0, len(rows))
	for _, row := range rows {
		inst, err := installmentFromRow(row.CreditCardPayment)
		if err != nil {
			return nil, err
		}
		due = append(due, core.DueInstallment{
			Installment: inst,
			CardNumber:  row.CrcNumber,
			Description: row.Description,
		})
	}
	return due, nil
}

func debtFromRow(row storage.CreditCardDebt) (core.Debt, error) {
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Debt{}, fmt.Errorf("%w: debt %d stored date: %v", core.ErrInvariant, row.DebtID, err)
	}
	return core.Debt{
		ID:           row.DebtID,
		CardNumber:   row.CrcNumber,
		CategoryID:   row.CategoryID,
		Category:     row.CategoryName,
		PurchaseDate: date,
		Total:        core.Money{Cents: row.TotalAmountCents},
		Description:  row.Description,
		Installments: int(row.Installments),
	}, nil
}

func installmentFromRow(row storage.CreditCardPayment) (core.Installment, error) {
	due, err := core.ParseDate(row.DueDate)
	if err != nil {
		return core.Installment{}, fmt.Errorf("%w: payment %d stored due date: %v", core.ErrInvariant, row.PaymentID, err)
	}
	inst := core.Installment{
		ID:      row.PaymentID,
		DebtID:  row.DebtID,
		Seq:     int(row.Installment),
		DueDate: due,
		Amount:  core.Money{Cents: row.AmountCents},
	}
	if row.Wallet.Valid {
		wallet := row.Wallet.String
		inst.PaidWallet = &wallet
	}
	if row.PaidDate.Valid {
		paidDate, err := core.ParseDate(row.PaidDate.String)
		if err != nil {
			return core.Installment{}, fmt.Errorf("%w: payment %d stored paid date: %v", core.ErrInvariant, row.PaymentID, err)
		}
		inst.PaidDate = &paidDate
	}
	return inst, nil
}
