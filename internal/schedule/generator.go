// Package schedule derives the full installment schedule for a debt from its
// terms. Everything here is pure: callers persist the result.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
)

// ErrInvalidInput is wrapped by all validation failures of Generate.
var ErrInvalidInput = errors.New("invalid schedule terms")

// Terms are the debt fields the generator needs.
type Terms struct {
	// TotalAmount is the full obligation. Informational only; per-installment
	// amounts come from InstallmentAmount, not from dividing the total.
	TotalAmount decimal.Decimal

	// InstallmentAmount is the amount of every generated installment (> 0).
	InstallmentAmount decimal.Decimal

	// TotalInstallments is the number of installments to generate (>= 1).
	TotalInstallments int

	// FirstInstallmentDate is the due date of installment 1, used as given.
	FirstInstallmentDate time.Time

	// MonthlyDueDay is the due day (1-31) for installments 2..n, clamped to
	// the last day of months that are shorter.
	MonthlyDueDay int
}

// Generate produces the ordered installment rows for the given terms.
// Installment 1 is due on FirstInstallmentDate exactly; installment n (n >= 2)
// is due on MonthlyDueDay of the n-1'th month after the first, rolling into
// following years and clamping day 31 to the end of shorter months.
func Generate(t Terms) ([]models.Installment, error) {
	if t.TotalInstallments < 1 {
		return nil, fmt.Errorf("%w: total_installments must be >= 1, got %d", ErrInvalidInput, t.TotalInstallments)
	}
	if !t.InstallmentAmount.IsPositive() {
		return nil, fmt.Errorf("%w: installment_amount must be > 0, got %s", ErrInvalidInput, t.InstallmentAmount)
	}
	if t.MonthlyDueDay < 1 || t.MonthlyDueDay > 31 {
		return nil, fmt.Errorf("%w: monthly_due_day must be in 1-31, got %d", ErrInvalidInput, t.MonthlyDueDay)
	}
	if t.FirstInstallmentDate.IsZero() {
		return nil, fmt.Errorf("%w: first_installment_date is required", ErrInvalidInput)
	}

	first := DateOnly(t.FirstInstallmentDate)
	rows := make([]models.Installment, t.TotalInstallments)
	for n := 1; n <= t.TotalInstallments; n++ {
		due := first
		if n > 1 {
			due = dueDateForMonth(first, n-1, t.MonthlyDueDay)
		}
		rows[n-1] = models.Installment{
			Number:  n,
			DueDate: due,
			Amount:  t.InstallmentAmount,
		}
	}
	return rows, nil
}

// Backfill marks the first paid installments of a freshly generated schedule
// as already paid, with paid_date set to each installment's own due date.
// Used when a debt is entered retroactively with paid_installments > 0.
// Values outside [0, len(rows)] are clamped.
func Backfill(rows []models.Installment, paid int) {
	if paid > len(rows) {
		paid = len(rows)
	}
	for i := 0; i < paid; i++ {
		d := rows[i].DueDate
		rows[i].IsPaid = true
		rows[i].PaidDate = &d
	}
}

// SuggestInstallmentAmount is the auto-calculate convenience the debt form
// uses: total divided by the installment count, rounded to 2 decimal places.
// The rounding drift on the final installment is accepted, not corrected.
func SuggestInstallmentAmount(total decimal.Decimal, installments int) decimal.Decimal {
	if installments < 1 {
		return decimal.Zero
	}
	return total.DivRound(decimal.NewFromInt(int64(installments)), 2)
}

// DateOnly strips the clock component, keeping year/month/day in the value's
// own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// dueDateForMonth returns dueDay in the month monthsAhead months after first,
// clamped to the last valid day of that month.
func dueDateForMonth(first time.Time, monthsAhead, dueDay int) time.Time {
	// Normalizing via day 1 avoids time.AddDate's month-overflow behavior
	// (e.g. Jan 31 + 1 month = Mar 3).
	monthStart := time.Date(first.Year(), first.Month()+time.Month(monthsAhead), 1, 0, 0, 0, 0, first.Location())
	day := dueDay
	if last := lastDayOfMonth(monthStart); day > last {
		day = last
	}
	return time.Date(monthStart.Year(), monthStart.Month(), day, 0, 0, 0, 0, first.Location())
}

// lastDayOfMonth returns the number of days in t's month.
func lastDayOfMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}
