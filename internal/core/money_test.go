package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	m, err := MoneyFromDecimal(decimal.RequireFromString("150"))
	if err != nil || m.Cents != 15000 {
		t.Fatalf("expected 15000 cents, got %d (err=%v)", m.Cents, err)
	}
	if got := m.String(); got != "150.00" {
		t.Fatalf("String() = %q, want 150.00", got)
	}
	if _, err := MoneyFromDecimal(decimal.RequireFromString("1e30")); err == nil {
		t.Fatalf("expected overflow to be rejected")
	}
}

func TestSplitInstallments(t *testing.T) {
	cases := []struct {
		total int64
		n     int
		want  []int64
	}{
		{30000, 3, []int64{10000, 10000, 10000}},
		{10000, 3, []int64{3333, 3333, 3334}},
		{15000, 1, []int64{15000}},
		{1, 4, []int64{0, 0, 0, 1}},
	}
	for _, tc := range cases {
		got := SplitInstallments(Money{Cents: tc.total}, tc.n)
		if len(got) != tc.n {
			t.Fatalf("total=%d n=%d: got %d shares", tc.total, tc.n, len(got))
		}
		var sum int64
		for i, m := range got {
			if m.Cents != tc.want[i] {
				t.Fatalf("total=%d n=%d: share %d = %d, want %d", tc.total, tc.n, i, m.Cents, tc.want[i])
			}
			sum += m.Cents
		}
		if sum != tc.total {
			t.Fatalf("total=%d n=%d: shares sum to %d", tc.total, tc.n, sum)
		}
	}
	if SplitInstallments(Money{Cents: 100}, 0) != nil {
		t.Fatalf("expected nil for zero installments")
	}
}

func TestSplitInstallmentsSumsToTotal(t *testing.T) {
	for n := 1; n <= 48; n++ {
		for _, total := range []int64{1, 99, 100, 12345, 99999, 1000000} {
			var sum int64
			for _, m := range SplitInstallments(Money{Cents: total}, n) {
				sum += m.Cents
			}
			if sum != total {
				t.Fatalf("n=%d total=%d: sum=%d", n, total, sum)
			}
		}
	}
}
