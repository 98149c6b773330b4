package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"mfn/internal/amqp"
	"mfn/internal/core"
)

func TestRegisterCard(t *testing.T) {
	tests := []struct {
		name       string
		number     string
		billingDay int
		limit      core.Money
		wantErr    error
	}{
		{"valid", "1111", 1, money(1000), nil},
		{"last allowed billing day", "1112", 28, money(1), nil},
		{"billing day zero", "3333", 0, money(100), core.ErrInvalidBillingDay},
		{"billing day 29", "3334", 29, money(100), core.ErrInvalidBillingDay},
		{"zero limit", "3335", 10, money(0), core.ErrInvalidCreditLimit},
		{"negative limit", "3336", 10, core.Money{Cents: -1}, core.ErrInvalidCreditLimit},
		{"empty number", " ", 10, money(100), core.ErrEmptyName},
	}

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Cards.RegisterCard(ctx, tt.number, tt.billingDay, "Holder", tt.limit)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RegisterCard() error = %v, want %v", err, tt.wantErr)
			}

			exists, err := ledger.Cards.CardExists(ctx, tt.number)
			if err != nil {
				t.Fatalf("CardExists: %v", err)
			}
			if exists != (tt.wantErr == nil) {
				t.Errorf("CardExists(%q) = %v after RegisterCard error %v", tt.number, exists, tt.wantErr)
			}
		})
	}
}

func TestRegisterCardDuplicateKeepsOriginal(t *testing.T) {
	ledger, publisher := newTestLedger(t)
	ctx := context.Background()

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))

	err := ledger.Cards.RegisterCard(ctx, "1111", 15, "Mallory", money(99999))
	if !errors.Is(err, core.ErrCardExists) {
		t.Fatalf("duplicate RegisterCard error = %v, want ErrCardExists", err)
	}
	if !core.IsConflict(err) {
		t.Errorf("duplicate registration should be a conflict")
	}

	card, err := ledger.Cards.GetCard(ctx, "1111")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if card.HolderName != "Alice" || card.BillingDay != 1 || card.CreditLimit != money(1000) {
		t.Errorf("original card changed: %+v", card)
	}

	if got := publisher.types(); !reflect.DeepEqual(got, []amqp.EventType{amqp.EventCardRegistered}) {
		t.Errorf("events = %v, want one card.registered", got)
	}
}

func TestGetCard(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.Cards.GetCard(ctx, "missing"); !errors.Is(err, core.ErrCardNotFound) {
		t.Fatalf("GetCard(missing) error = %v, want ErrCardNotFound", err)
	}

	mustRegister(t, ledger, "1111", 5, "Alice", money(1000))
	mustAddDebt(t, ledger, DebtRequest{
		CardNumber:   "1111",
		Category:     "food",
		PurchaseDate: core.MustParseDate("2024-01-15"),
		Total:        money(150),
		Description:  "groceries",
		Installments: 1,
	})

	first, err := ledger.Cards.GetCard(ctx, "1111")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	second, err := ledger.Cards.GetCard(ctx, "1111")
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if first != second {
		t.Errorf("GetCard not idempotent: %+v != %+v", first, second)
	}

	want := core.CardInfo{
		CreditCard: core.CreditCard{
			Number:      "1111",
			HolderName:  "Alice",
			CreditLimit: money(1000),
			BillingDay:  5,
		},
		PendingDebt: money(150),
	}
	if first != want {
		t.Errorf("GetCard() = %+v, want %+v", first, want)
	}
}

func TestListCards(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	numbers, err := ledger.Cards.ListCards(ctx)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(numbers) != 0 {
		t.Fatalf("expected no cards, got %v", numbers)
	}

	mustRegister(t, ledger, "1111", 1, "Alice", money(1000))
	mustRegister(t, ledger, "2222", 1, "Bob", money(500))

	numbers, err = ledger.Cards.ListCards(ctx)
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(numbers) != 2 {
		t.Fatalf("ListCards() = %v, want 2 cards", numbers)
	}
}
