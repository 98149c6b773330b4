// Package worker runs the periodic installment reminder.
package worker

import (
	"context"
	"fmt"
	"time"

	"mfn/internal/amqp"
	"mfn/internal/core"
	"mfn/internal/log"
	"mfn/internal/services"
)

// DueLister lists pending installments due in a date range.
// *services.DebtService satisfies it.
type DueLister interface {
	DueInstallments(ctx context.Context, from, to core.Date) ([]core.DueInstallment, error)
}

var _ DueLister = (*services.DebtService)(nil)

// ReminderWorker announces installments that fall due within Window.
type ReminderWorker struct {
	debts     DueLister
	publisher services.EventPublisher
	window    time.Duration
	logger    *log.Logger
}

// NewReminderWorker creates a worker. publisher may be nil, in which case
// due installments are only logged.
func NewReminderWorker(debts DueLister, publisher services.EventPublisher, window time.Duration, logger *log.Logger) *ReminderWorker {
	return &ReminderWorker{
		debts:     debts,
		publisher: publisher,
		window:    window,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// ProcessDue publishes one installment.due event per pending installment
// due between now and now+window. It returns how many were announced.
// A failed publish is logged and the remaining installments are still
// processed.
func (w *ReminderWorker) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if w.debts == nil {
		return 0, fmt.Errorf("reminder worker not properly initialized")
	}

	from := core.NewDate(now.Year(), int(now.Month()), now.Day())
	to := core.Date{Time: from.Add(w.window)}

	due, err := w.debts.DueInstallments(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list due installments: %w", err)
	}

	w.logger.InfoContext(ctx, "Processing due installments",
		"total_due", len(due),
		"from", from.String(),
		"to", to.String())

	announced := 0
	for _, inst := range due {
		if w.publisher == nil {
			w.logger.InfoContext(ctx, "Installment due",
				log.FieldCardNumber, inst.CardNumber,
				log.FieldDebtID, inst.DebtID,
				log.FieldInstallment, inst.Seq,
				log.FieldAmountCents, inst.Amount.Cents,
				"due_date", inst.DueDate.String())
			announced++
			continue
		}

		event := amqp.NewLedgerEvent(amqp.EventInstallmentDue)
		event.CardNumber = inst.CardNumber
		event.DebtID = inst.DebtID
		event.Installment = inst.Seq
		event.AmountCents = inst.Amount.Cents
		event.Date = inst.DueDate.String()

		if err := w.publisher.PublishEvent(ctx, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish due installment",
				log.FieldDebtID, inst.DebtID,
				log.FieldInstallment, inst.Seq,
				log.FieldError, err)
			continue
		}
		announced++
	}

	return announced, nil
}

// Run calls ProcessDue once immediately and then on every tick of interval
// until ctx is cancelled.
func (w *ReminderWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runOnce(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.runOnce(ctx, now)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context, now time.Time) {
	count, err := w.ProcessDue(ctx, now)
	if err != nil {
		w.logger.ErrorContext(ctx, "Reminder processing failed", log.FieldError, err)
		return
	}
	w.logger.InfoContext(ctx, "Reminder processing complete", "announced", count)
}
