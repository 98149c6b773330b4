package core

import "time"

// InstallmentDueDate returns the due date of installment seq (1-based) for
// a purchase made on purchase with a card billed on billingDay.
//
// Installment 1 lands in the month after the purchase regardless of where in
// the current cycle the purchase fell, then one month per installment.
// Months are counted on (year, month) alone so a purchase on the 31st never
// skips a short month.
func InstallmentDueDate(purchase Date, billingDay, seq int) Date {
	firstOfMonth := time.Date(purchase.Year(), purchase.Month(), 1, 0, 0, 0, 0, time.UTC)
	target := firstOfMonth.AddDate(0, seq, 0)
	return NewDate(target.Year(), int(target.Month()), billingDay)
}

// InstallmentSchedule builds the pending installment set for a debt.
func InstallmentSchedule(purchase Date, billingDay int, total Money, n int) []Installment {
	shares := SplitInstallments(total, n)
	schedule := make([]Installment, len(shares))
	for i, amount := range shares {
		seq := i + 1
		schedule[i] = Installment{
			Seq:     seq,
			DueDate: InstallmentDueDate(purchase, billingDay, seq),
			Amount:  amount,
		}
	}
	return schedule
}
