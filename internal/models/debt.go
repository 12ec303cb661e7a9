package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debt represents a tracked installment obligation.
//
// PaidInstallments must always equal the number of this debt's installments
// with IsPaid set. The store's paid/unpaid operations maintain this; nothing
// else is allowed to touch the counter.
type Debt struct {
	// ID is the unique identifier for the debt (UUID format).
	ID string

	// UserID is the account that owns this debt. All queries are scoped by it.
	UserID string

	// Name is the human-readable name of the debt (e.g., "Financiamento do carro").
	Name string

	// Category is a free-form label chosen by the user.
	Category string

	// TotalAmount is the full obligation amount.
	TotalAmount decimal.Decimal

	// InstallmentAmount is the amount of each installment. It is supplied by
	// the caller, not derived from TotalAmount.
	InstallmentAmount decimal.Decimal

	// TotalInstallments is the number of scheduled payments (>= 1).
	TotalInstallments int

	// PaidInstallments counts installments already paid (0 <= paid <= total).
	PaidInstallments int

	// FirstInstallmentDate is the due date of installment 1, taken as given.
	FirstInstallmentDate time.Time

	// MonthlyDueDay is the day of month (1-31) for installments 2..n, clamped
	// to the last day of shorter months.
	MonthlyDueDay int

	// Notes is optional free text.
	Notes string

	// NotificationsEnabled controls whether the reminder sweep considers this
	// debt's installments.
	NotificationsEnabled bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// RemainingAmount returns the amount still owed, assuming equal installments.
func (d *Debt) RemainingAmount() decimal.Decimal {
	remaining := d.TotalInstallments - d.PaidInstallments
	if remaining < 0 {
		remaining = 0
	}
	return d.InstallmentAmount.Mul(decimal.NewFromInt(int64(remaining)))
}
