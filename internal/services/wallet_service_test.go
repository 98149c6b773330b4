package services

import (
	"context"
	"errors"
	"testing"

	"mfn/internal/core"
)

func TestCreateWallet(t *testing.T) {
	tests := []struct {
		name    string
		wallet  string
		balance core.Money
		wantErr error
	}{
		{"valid", "bank", money(100), nil},
		{"zero balance", "cash", core.Money{}, nil},
		{"duplicate", "bank", money(5), core.ErrWalletExists},
		{"empty name", "  ", money(5), core.ErrEmptyName},
		{"negative balance", "debt", core.Money{Cents: -1}, core.ErrInvalidAmount},
	}

	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ledger.Wallets.CreateWallet(ctx, tt.wallet, tt.balance)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CreateWallet() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	balance, err := ledger.Wallets.GetBalance(ctx, "bank")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != money(100) {
		t.Errorf("duplicate CreateWallet changed balance to %s", balance)
	}

	wallets, err := ledger.Wallets.ListWallets(ctx)
	if err != nil {
		t.Fatalf("ListWallets: %v", err)
	}
	if len(wallets) != 2 {
		t.Errorf("ListWallets() = %+v, want bank and cash", wallets)
	}
}

func TestIncomeAndExpense(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	date := core.MustParseDate("2024-02-01")

	if err := ledger.Wallets.CreateWallet(ctx, "bank", money(10)); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	income, err := ledger.Wallets.Income(ctx, "bank", "salary", date, "january", money(2000))
	if err != nil {
		t.Fatalf("Income: %v", err)
	}
	if income.Type != core.Income || income.Category != "salary" {
		t.Errorf("Income() = %+v", income)
	}

	if _, err := ledger.Wallets.Expense(ctx, "bank", "rent", date, "february", money(800)); err != nil {
		t.Fatalf("Expense: %v", err)
	}

	balance, err := ledger.Wallets.GetBalance(ctx, "bank")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance != money(1210) {
		t.Errorf("balance = %s, want 1210.00", balance)
	}

	for _, name := range []string{"salary", "rent"} {
		exists, err := ledger.Categories.Exists(ctx, name)
		if err != nil {
			t.Fatalf("Exists: %v", err)
		}
		if !exists {
			t.Errorf("category %q should be created on first use", name)
		}
	}

	rejections := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{"expense over balance", func() error {
			_, err := ledger.Wallets.Expense(ctx, "bank", "rent", date, "", money(5000))
			return err
		}, core.ErrInsufficientBalance},
		{"zero income", func() error {
			_, err := ledger.Wallets.Income(ctx, "bank", "salary", date, "", core.Money{})
			return err
		}, core.ErrInvalidAmount},
		{"unknown wallet", func() error {
			_, err := ledger.Wallets.Income(ctx, "cash", "salary", date, "", money(1))
			return err
		}, core.ErrWalletNotFound},
		{"zero date", func() error {
			_, err := ledger.Wallets.Income(ctx, "bank", "salary", core.Date{}, "", money(1))
			return err
		}, core.ErrInvalidDate},
	}
	for _, tt := range rejections {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	txs, err := ledger.Wallets.ListTransactions(ctx, "bank")
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("ListTransactions() = %+v, want 2 entries", txs)
	}
	if txs[0].Type != core.Income || txs[1].Type != core.Expense {
		t.Errorf("unexpected transaction order: %+v", txs)
	}

	if _, err := ledger.Wallets.ListTransactions(ctx, "cash"); !errors.Is(err, core.ErrWalletNotFound) {
		t.Errorf("ListTransactions(unknown) error = %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	date := core.MustParseDate("2024-02-01")

	for name, balance := range map[string]core.Money{"bank": money(500), "cash": money(20)} {
		if err := ledger.Wallets.CreateWallet(ctx, name, balance); err != nil {
			t.Fatalf("CreateWallet(%s): %v", name, err)
		}
	}

	if _, err := ledger.Wallets.Transfer(ctx, "bank", "cash", date, money(120.5), "atm"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	tests := []struct {
		name    string
		from    string
		to      string
		amount  core.Money
		wantErr error
	}{
		{"same wallet", "bank", "bank", money(1), core.ErrSameWallet},
		{"unknown source", "safe", "cash", money(1), core.ErrWalletNotFound},
		{"unknown destination", "bank", "safe", money(1), core.ErrWalletNotFound},
		{"zero amount", "bank", "cash", core.Money{}, core.ErrInvalidAmount},
		{"insufficient balance", "cash", "bank", money(1000), core.ErrInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ledger.Wallets.Transfer(ctx, tt.from, tt.to, date, tt.amount, "")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	want := map[string]core.Money{"bank": money(379.5), "cash": money(140.5)}
	for name, expected := range want {
		balance, err := ledger.Wallets.GetBalance(ctx, name)
		if err != nil {
			t.Fatalf("GetBalance(%s): %v", name, err)
		}
		if balance != expected {
			t.Errorf("%s balance = %s, want %s", name, balance, expected)
		}
	}
}

func TestDeleteWallet(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()

	if err := ledger.Wallets.DeleteWallet(ctx, "bank"); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("DeleteWallet(missing) error = %v", err)
	}

	if err := ledger.Wallets.CreateWallet(ctx, "bank", money(10)); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	if _, err := ledger.Wallets.Income(ctx, "bank", "gift", core.MustParseDate("2024-01-01"), "", money(5)); err != nil {
		t.Fatalf("Income: %v", err)
	}
	if err := ledger.Wallets.DeleteWallet(ctx, "bank"); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}
	if _, err := ledger.Wallets.GetBalance(ctx, "bank"); !errors.Is(err, core.ErrWalletNotFound) {
		t.Errorf("GetBalance after delete error = %v", err)
	}
}

func TestDeleteWalletWithTransfersKeepsHistory(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	date := core.MustParseDate("2024-01-01")

	for name, balance := range map[string]float64{"bank": 10, "cash": 0} {
		if err := ledger.Wallets.CreateWallet(ctx, name, money(balance)); err != nil {
			t.Fatalf("CreateWallet(%s): %v", name, err)
		}
	}
	if _, err := ledger.Wallets.Transfer(ctx, "bank", "cash", date, money(4), "float"); err != nil {
		t.Fatalf("Transfer: %v", err)
	}

	for _, name := range []string{"bank", "cash"} {
		err := ledger.Wallets.DeleteWallet(ctx, name)
		if !errors.Is(err, core.ErrWalletHasTransfers) {
			t.Errorf("DeleteWallet(%s) error = %v, want ErrWalletHasTransfers", name, err)
		}
		if !core.IsConflict(err) {
			t.Errorf("DeleteWallet(%s) error not classified as conflict", name)
		}
	}

	want := map[string]core.Money{"bank": money(6), "cash": money(4)}
	for name, expected := range want {
		balance, err := ledger.Wallets.GetBalance(ctx, name)
		if err != nil {
			t.Fatalf("GetBalance(%s): %v", name, err)
		}
		if balance != expected {
			t.Errorf("%s balance = %s, want %s", name, balance, expected)
		}
	}
}

func TestConcurrentExpensesKeepBalance(t *testing.T) {
	ledger, _ := newTestLedger(t)
	ctx := context.Background()
	date := core.MustParseDate("2024-02-01")

	if err := ledger.Wallets.CreateWallet(ctx, "bank", money(100)); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			_, err := ledger.Wallets.Expense(ctx, "bank", "coffee", date, "", money(10))
			errs <- err
		}()
	}
	var accepted int
	for i := 0; i < 20; i++ {
		err := <-errs
		switch {
		case err == nil:
			accepted++
		case !errors.Is(err, core.ErrInsufficientBalance):
			t.Fatalf("Expense: %v", err)
		}
	}

	if accepted != 10 {
		t.Errorf("accepted %d expenses, want 10", accepted)
	}
	balance, err := ledger.Wallets.GetBalance(ctx, "bank")
	if err != nil {
		t.Fatalf("GetBalance: %v", err)
	}
	if balance.Cents != 0 {
		t.Errorf("balance = %s, want 0.00", balance)
	}
}
