package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment represents one scheduled payment of a debt.
//
// Installment numbers for a debt form the contiguous range
// [1, TotalInstallments] and due dates are strictly increasing with the
// number. PaidDate is non-nil if and only if IsPaid is true.
type Installment struct {
	// ID is the unique identifier for the installment (UUID format).
	ID string

	// DebtID is the owning debt.
	DebtID string

	// Number is the 1-based sequence number, unique per debt.
	Number int

	// DueDate is the calendar date the installment is due (midnight).
	DueDate time.Time

	// Amount is the amount due for this installment.
	Amount decimal.Decimal

	// IsPaid reports whether the installment has been paid.
	IsPaid bool

	// PaidDate is the calendar date the installment was paid, nil while unpaid.
	PaidDate *time.Time

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// DueInstallment is an installment joined with the debt fields the reminder
// sweep needs: the debt name for message templating and the owning user for
// inbox routing. Only installments of debts with notifications enabled are
// ever returned in this shape.
type DueInstallment struct {
	Installment

	DebtName string
	UserID   string
}
