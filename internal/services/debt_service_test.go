package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"mfn/internal/amqp"
	"mfn/internal/core"
)

func TestEndToEndCreditCheck(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))

	mustAddDebt(t, ledger, DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-15"),
		Total:        money(150),
		Description:  "groceries",
		Installments: 1,
	})

	card, err := ledger.Cards.GetCard(ctx, "1111")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if card.PendingDebt != money(150) {
		t.Fatalf("pending debt = %s, want 150.00", card.PendingDebt)
	}

	_, err = ledger.Debts.AddDebt(ctx, DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-20"),
		Total:        money(900),
		Description:  "big",
		Installments: 1,
	})
	if !errors.Is(err, core.ErrInsufficientCredit) {
		t.Fatalf("AddDebt over limit error = %v, want ErrInsufficientCredit", err)
	}

	card, err = ledger.Cards.GetCard(ctx, "1111")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if card.PendingDebt != money(150) {
		t.Errorf("rejected debt changed pending debt to %s", card.PendingDebt)
	}

	var debtEvents int
	for _, typ := range publisher.types() {
		if typ == amqp.EventDebtAdded {
			debtEvents++
		}
	}
	if debtEvents != 1 {
		t.Errorf("debt.added events = %d, want 1", debtEvents)
	}
}

func TestAddDebtInstallmentSchedule(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "2222", 1, "Bob", money(500))
	debt := mustAddDebt(t, ledger, DebtRequest{
		CardNumber:   "2222",
		Category:     "x",
		PurchaseDate: core.MustParseDate("2024-03-10"),
		Total:        money(300),
		Description:  "d",
		Installments: 3,
	})

	installments, err := ledger.Debts.ListInstallments(ctx, debt.ID)
	if err != nil {
		t.Fatalf("ListInstallments: %v", err)
	}
	wantDates := []string{"2024-04-01", "2024-05-01", "2024-06-01"}
	if len(installments) != len(wantDates) {
		t.Fatalf("got %d installments, want %d", len(installments), len(wantDates))
	}
	for i, inst := range installments {
		if inst.Seq != i+1 {
			t.Errorf("installment %d seq = %d", i, inst.Seq)
		}
		if inst.Amount != money(100) {
			t.Errorf("installment %d amount = %s, want 100.00", inst.Seq, inst.Amount)
		}
		if inst.DueDate.String() != wantDates[i] {
			t.Errorf("installment %d due = %s, want %s", inst.Seq, inst.DueDate, wantDates[i])
		}
		if inst.IsPaid() {
			t.Errorf("installment %d should be pending", inst.Seq)
		}
	}
}

func TestAddDebtSplitSumsToTotal(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 10, "Alice", money(1000))

	for _, n := range []int{1, 2, 3, 7, 12} {
		debt := mustAddDebt(t, ledger, DebtRequest{
			CardNumber:   "1111",
			Category:     "split",
			PurchaseDate: core.MustParseDate("2024-01-31"),
			Total:        money(10),
			Installments: n,
		})

		installments, err := ledger.Debts.ListInstallments(ctx, debt.ID)
		if err != nil {
			t.Fatalf("ListInstallments: %v", err)
		}
		if len(installments) != n {
			t.Fatalf("n=%d: got %d installments", n, len(installments))
		}
		var sum core.Money
		for _, inst := range installments {
			sum = sum.Add(inst.Amount)
			if inst.DueDate.Day() != 10 {
				t.Errorf("n=%d: due date %s not on billing day", n, inst.DueDate)
			}
		}
		if sum != money(10) {
			t.Errorf("n=%d: installments sum to %s, want 10.00", n, sum)
		}
	}
}

func TestAddDebtRejectionsWriteNothing(t *testing.T) {
	valid := DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-15"),
		Total:        money(100),
		Description:  "d",
		Installments: 2,
	}

	tests := []struct {
		name    string
		mutate  func(r *DebtRequest)
		wantErr error
	}{
		{"unknown card", func(r *DebtRequest) { r.CardNumber = "9999" }, core.ErrCardNotFound},
		{"zero total", func(r *DebtRequest) { r.Total = core.Money{} }, core.ErrInvalidAmount},
		{"negative total", func(r *DebtRequest) { r.Total = core.Money{Cents: -100} }, core.ErrInvalidAmount},
		{"zero installments", func(r *DebtRequest) { r.Installments = 0 }, core.ErrInvalidInstallments},
		{"zero date", func(r *DebtRequest) { r.PurchaseDate = core.Date{} }, core.ErrInvalidDate},
		{"over limit", func(r *DebtRequest) { r.Total = money(1000.01) }, core.ErrInsufficientCredit},
		{"empty category", func(r *DebtRequest) { r.Category = "" }, core.ErrEmptyName},
		// card check runs first
		{"unknown card and zero total", func(r *DebtRequest) {
			r.CardNumber = "9999"
			r.Total = core.Money{}
		}, core.ErrCardNotFound},
		// amount check runs before installment count
		{"zero total and zero installments", func(r *DebtRequest) {
			r.Total = core.Money{}
			r.Installments = 0
		}, core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, _ := newTestLedger(t)
			ctx := context.Background()
			mustRegister(t, ledger, "1111", 1, "Alice", money(1000))

			req := valid
			tt.mutate(&req)
			_, err := ledger.Debts.AddDebt(ctx, req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddDebt() error = %v, want %v", err, tt.wantErr)
			}
			if !core.IsRejection(err) {
				t.Errorf("error %v should be a rejection", err)
			}

			debts, err := ledger.Debts.ListDebts(ctx, "1111")
			if err != nil {
				t.Fatalf("ListDebts: %v", err)
			}
			if len(debts) != 0 {
				t.Errorf("rejected AddDebt wrote %d debts", len(debts))
			}
			categories, err := ledger.Categories.List(ctx)
			if err != nil {
				t.Fatalf("List categories: %v", err)
			}
			if len(categories) != 0 {
				t.Errorf("rejected AddDebt created categories %v", categories)
			}
			pending, err := ledger.Debts.PendingDebt(ctx, "1111")
			if err != nil {
				t.Fatalf("PendingDebt: %v", err)
			}
			if pending.Cents != 0 {
				t.Errorf("pending debt = %s after rejection", pending)
			}
		})
	}
}

func TestAddDebtCreditBoundary(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))
	mustAddDebt(t, ledger, DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-15"),
		Total:        money(400),
		Installments: 4,
	})

	// exactly the remaining credit is accepted
	mustAddDebt(t, ledger, DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-16"),
		Total:        money(600),
		Installments: 1,
	})

	_, err := ledger.Debts.AddDebt(ctx, DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-17"),
		Total:        core.Money{Cents: 1},
		Installments: 1,
	})
	if !errors.Is(err, core.ErrInsufficientCredit) {
		t.Fatalf("AddDebt past limit error = %v, want ErrInsufficientCredit", err)
	}
}

func TestAddDebtNoConcurrentOvercommit(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))

	var accepted, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := ledger.Debts.AddDebt(ctx, DebtRequest{
				CardNumber:   "1111",
				Category:     "food",
				PurchaseDate: core.MustParseDate("2024-02-01"),
				Total:        money(300),
				Installments: 3,
			})
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, core.ErrInsufficientCredit):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddDebt: %v", err)
	}

	if accepted.Load() != 3 || rejected.Load() != 7 {
		t.Errorf("accepted=%d rejected=%d, want 3 and 7", accepted.Load(), rejected.Load())
	}
	pending, err := ledger.Debts.PendingDebt(ctx, "1111")
	if err != nil {
		t.Fatalf("PendingDebt: %v", err)
	}
	if pending != money(900) {
		t.Errorf("pending debt = %s, want 900.00", pending)
	}
}

func TestDueDate(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 28, "Alice", money(1000))

	purchase := core.MustParseDate("2024-01-31")
	prev := core.Date{}
	for seq := 1; seq <= 14; seq++ {
		due, err := ledger.Debts.DueDate(ctx, "1111", purchase, seq)
		if err != nil {
			t.Fatalf("DueDate(%d): %v", seq, err)
		}
		if due.Day() != 28 {
			t.Errorf("DueDate(%d) = %s, day must be 28", seq, due)
		}
		if !due.After(prev.Time) {
			t.Errorf("DueDate(%d) = %s not after %s", seq, due, prev)
		}
		prev = due
	}

	if _, err := ledger.Debts.DueDate(ctx, "missing", purchase, 1); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("DueDate(missing card) error = %v", err)
	}
	if _, err := ledger.Debts.DueDate(ctx, "1111", purchase, 0); !errors.Is(err, core.ErrInvalidInstallments) {
		t.Errorf("DueDate(seq 0) error = %v", err)
	}
}

func TestPendingDebtUnknownCard(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Debts.PendingDebt(context.Background(), "ghost")
	if !errors.Is(err, core.ErrInvariant) {
		t.Fatalf("PendingDebt(unknown) error = %v, want ErrInvariant", err)
	}
	if core.IsRejection(err) {
		t.Errorf("invariant violation must not be reported as a rejection")
	}
}

func TestGetLastExpense(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))

	if _, err := ledger.Debts.GetLastExpense(ctx, "1111"); !errors.Is(err, core.ErrDebtNotFound) {
		t.Fatalf("GetLastExpense with no debts error = %v, want ErrDebtNotFound", err)
	}

	mustAddDebt(t, ledger, DebtRequest{
		CardNumber: "1111", Category: "food", PurchaseDate: core.MustParseDate("2024-01-15"),
		Total: money(10), Description: "first", Installments: 1,
	})
	second := mustAddDebt(t, ledger, DebtRequest{
		CardNumber: "1111", Category: "travel", PurchaseDate: core.MustParseDate("2024-01-10"),
		Total: money(20), Description: "second", Installments: 2,
	})

	last, err := ledger.Debts.GetLastExpense(ctx, "1111")
	if err != nil {
		t.Fatalf("GetLastExpense: %v", err)
	}
	if last != second {
		t.Errorf("GetLastExpense() = %+v, want %+v", last, second)
	}
}

func TestListDebtsUnknownCard(t *testing.T) {
	ledger, _ := newTestLedger(t)

	if _, err := ledger.Debts.ListDebts(context.Background(), "ghost"); !errors.Is(err, core.ErrCardNotFound) {
		t.Fatalf("ListDebts(unknown) error = %v", err)
	}
	if _, err := ledger.Debts.ListInstallments(context.Background(), 42); !errors.Is(err, core.ErrDebtNotFound) {
		t.Fatalf("ListInstallments(unknown) error = %v", err)
	}
}

func TestPayInstallment(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "2222", 1, "Bob", money(500))
	debt := mustAddDebt(t, ledger, DebtRequest{
		CardNumber: "2222", Category: "x", PurchaseDate: core.MustParseDate("2024-03-10"),
		Total: money(300), Description: "d", Installments: 3,
	})
	if err := ledger.Wallets.CreateWallet(ctx, "bank", money(150)); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	payDate := core.MustParseDate("2024-04-01")

	rejections := []struct {
		name    string
		debtID  int64
		seq     int
		wallet  string
		wantErr error
	}{
		{"unknown debt", debt.ID + 100, 1, "bank", core.ErrDebtNotFound},
		{"unknown installment", debt.ID, 4, "bank", core.ErrInstallmentNotFound},
		{"unknown wallet", debt.ID, 1, "cash", core.ErrWalletNotFound},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Debts.PayInstallment(ctx, tt.debtID, tt.seq, tt.wallet, payDate)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("PayInstallment() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ledger.Debts.PayInstallment(ctx, debt.ID, 1, "bank", payDate); err != nil {
		t.Fatalf("PayInstallment: %v", err)
	}

	pending, err := ledger.Debts.PendingDebt(ctx, "2222")
	if err != nil {
		t.Fatalf("PendingDebt: %v", err)
	}
	if pending != money(200) {
		t.Errorf("pending after payment = %s, want 200.00", pending)
	}
	balance, err := ledger.Wallets.GetBalance(ctx, "bank")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != money(50) {
		t.Errorf("wallet balance = %s, want 50.00", balance)
	}

	installments, err := ledger.Debts.ListInstallments(ctx, debt.ID)
	if err != nil {
		t.Fatalf("ListInstallments: %v", err)
	}
	first := installments[0]
	if !first.IsPaid() || *first.PaidWallet != "bank" || first.PaidDate.String() != "2024-04-01" {
		t.Errorf("installment 1 not marked paid: %+v", first)
	}

	txs, err := ledger.Wallets.ListTransactions(ctx, "bank")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 1 || txs[0].Type != core.Expense || txs[0].Amount != money(100) || txs[0].Category != "x" {
		t.Errorf("payment not recorded as wallet expense: %+v", txs)
	}

	if err := ledger.Debts.PayInstallment(ctx, debt.ID, 1, "bank", payDate); !errors.Is(err, core.ErrInstallmentPaid) {
		t.Errorf("second payment error = %v, want ErrInstallmentPaid", err)
	}
	if err := ledger.Debts.PayInstallment(ctx, debt.ID, 2, "bank", payDate); !errors.Is(err, core.ErrInsufficientBalance) {
		t.Errorf("payment over balance error = %v, want ErrInsufficientBalance", err)
	}

	balance, err = ledger.Wallets.GetBalance(ctx, "bank")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != money(50) {
		t.Errorf("rejected payments changed balance to %s", balance)
	}

	var paidEvents int
	for _, typ := range publisher.types() {
		if typ == amqp.EventInstallmentPaid {
			paidEvents++
		}
	}
	if paidEvents != 1 {
		t.Errorf("installment.paid events = %d, want 1", paidEvents)
	}
}

func TestDueInstallments(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "2222", 1, "Bob", money(500))
	debt := mustAddDebt(t, ledger, DebtRequest{
		CardNumber: "2222", Category: "x", PurchaseDate: core.MustParseDate("2024-03-10"),
		Total: money(300), Description: "d", Installments: 3,
	})

	due, err := ledger.Debts.DueInstallments(ctx, core.MustParseDate("2024-04-01"), core.MustParseDate("2024-05-01"))
	if err != nil {
		t.Fatalf("DueInstallments: %v", err)
	}
	if len(due) != 2 || due[0].Seq != 1 || due[1].Seq != 2 {
		t.Fatalf("DueInstallments() = %+v, want installments 1 and 2", due)
	}
	if due[0].CardNumber != "2222" || due[0].Description != "d" || due[0].DebtID != debt.ID {
		t.Errorf("due installment missing debt details: %+v", due[0])
	}

	if err := ledger.Wallets.CreateWallet(ctx, "bank", money(1000)); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	if err := ledger.Debts.PayInstallment(ctx, debt.ID, 1, "bank", core.MustParseDate("2024-04-01")); err != nil {
		t.Fatalf("PayInstallment: %v", err)
	}

	due, err = ledger.Debts.DueInstallments(ctx, core.MustParseDate("2024-04-01"), core.MustParseDate("2024-05-01"))
	if err != nil {
		t.Fatalf("DueInstallments: %v", err)
	}
	if len(due) != 1 || due[0].Seq != 2 {
		t.Errorf("paid installment still listed as due: %+v", due)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	publisher.err = errors.New("broker down")

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))
	mustAddDebt(t, ledger, DebtRequest{
		CardNumber: "1111", Category: "food", PurchaseDate: core.MustParseDate("2024-01-15"),
		Total: money(10), Installments: 1,
	})
}

func TestNilPublisher(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ledger.Debts.publisher = nil
	ledger.Cards.publisher = nil

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))
	mustAddDebt(t, ledger, DebtRequest{
		CardNumber: "1111", Category: "food", PurchaseDate: core.MustParseDate("2024-01-15"),
		Total: money(10), Installments: 1,
	})
}
