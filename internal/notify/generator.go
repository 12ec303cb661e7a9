// Package notify derives the transient, UI-facing notification feed from the
// current debt snapshot. Nothing here is persisted; the feed is regenerated
// on every evaluation and read/dismiss state is session-scoped.
package notify

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/money"
)

// Kind classifies a transient notification.
type Kind string

const (
	KindDueSoon Kind = "due_soon"
	KindOverdue Kind = "overdue"
	KindPaid    Kind = "paid"
)

// Alert is the single aggregate signal shown above the feed.
type Alert string

const (
	// AlertNone means no unpaid installment needs attention.
	AlertNone Alert = ""
	// AlertReminder is surfaced when at least one installment is due tomorrow.
	AlertReminder Alert = "reminder"
	// AlertAttention is surfaced when at least one installment is overdue.
	// Takes precedence over AlertReminder.
	AlertAttention Alert = "attention"
)

// Notification is a transient reminder derived from an unpaid installment.
// The ID is stable per (installment, kind, day) so a dismissed-set could be
// keyed by it; today the feed is ephemeral by design.
type Notification struct {
	ID                string          `json:"id"`
	Kind              Kind            `json:"kind"`
	Title             string          `json:"title"`
	Message           string          `json:"message"`
	DebtName          string          `json:"debt_name"`
	InstallmentNumber int             `json:"installment_number"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
	IsRead            bool            `json:"is_read"`
}

// Generate derives the notification list for a snapshot of debts and
// installments at the given instant. For each unpaid installment the calendar
// day difference (due minus now) decides: exactly 1 emits a due-soon
// reminder, negative emits an overdue notice, everything else is silent.
// Installments whose debt cannot be resolved are skipped, not fatal.
func Generate(debts []*models.Debt, installments []*models.Installment, now time.Time) ([]Notification, Alert) {
	byID := make(map[string]*models.Debt, len(debts))
	for _, d := range debts {
		byID[d.ID] = d
	}

	var (
		items   []Notification
		overdue int
		dueSoon int
	)
	day := now.Format("2006-01-02")

	for _, inst := range installments {
		if inst.IsPaid {
			continue
		}
		debt, ok := byID[inst.DebtID]
		if !ok {
			slog.Warn("notification skipped: installment references unknown debt",
				"installment_id", inst.ID, "debt_id", inst.DebtID)
			continue
		}

		diff := DaysDiff(inst.DueDate, now)
		switch {
		case diff == 1:
			dueSoon++
			items = append(items, Notification{
				ID:    fmt.Sprintf("%s:%s:%s", inst.ID, KindDueSoon, day),
				Kind:  KindDueSoon,
				Title: "Parcela vence amanhã",
				Message: fmt.Sprintf("A parcela %d de %s (%s) vence amanhã, dia %s.",
					inst.Number, debt.Name, money.FormatBRL(inst.Amount), inst.DueDate.Format("02/01/2006")),
				DebtName:          debt.Name,
				InstallmentNumber: inst.Number,
				Amount:            inst.Amount,
				DueDate:           inst.DueDate,
			})
		case diff < 0:
			overdue++
			items = append(items, Notification{
				ID:    fmt.Sprintf("%s:%s:%s", inst.ID, KindOverdue, day),
				Kind:  KindOverdue,
				Title: "Parcela em atraso",
				Message: fmt.Sprintf("A parcela %d de %s (%s) está %s em atraso.",
					inst.Number, debt.Name, money.FormatBRL(inst.Amount), pluralDays(-diff)),
				DebtName:          debt.Name,
				InstallmentNumber: inst.Number,
				Amount:            inst.Amount,
				DueDate:           inst.DueDate,
			})
		}
	}

	switch {
	case overdue > 0:
		return items, AlertAttention
	case dueSoon > 0:
		return items, AlertReminder
	default:
		return items, AlertNone
	}
}

// DaysDiff returns the number of calendar days between now and a due date.
// Due tomorrow is 1, due today is 0, one day overdue is -1. Each value's own
// calendar date is compared, so a due date stored as UTC midnight and a local
// clock in another zone cannot shift the boundary.
func DaysDiff(due, now time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(math.Round(d.Sub(n).Hours() / 24))
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 dia"
	}
	return fmt.Sprintf("%d dias", n)
}
