package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
)

func debtFixture(id, name string) *models.Debt {
	return &models.Debt{
		ID:                   id,
		UserID:               "user-1",
		Name:                 name,
		Category:             "Cartão",
		TotalAmount:          decimal.RequireFromString("1200.00"),
		InstallmentAmount:    decimal.RequireFromString("100.00"),
		TotalInstallments:    12,
		MonthlyDueDay:        10,
		NotificationsEnabled: true,
	}
}

func installmentFixture(id, debtID string, number int, due time.Time, paid bool) *models.Installment {
	inst := &models.Installment{
		ID:      id,
		DebtID:  debtID,
		Number:  number,
		DueDate: due,
		Amount:  decimal.RequireFromString("100.00"),
		IsPaid:  paid,
	}
	if paid {
		inst.PaidDate = &due
	}
	return inst
}

func TestGenerateEligibilityBoundary(t *testing.T) {
	// Evaluated mid-afternoon; due dates are midnights.
	now := time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)
	debt := debtFixture("d1", "Financiamento")

	tests := []struct {
		name     string
		due      time.Time
		wantKind Kind
		wantNone bool
	}{
		{"due tomorrow emits due_soon", time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC), KindDueSoon, false},
		{"due today emits nothing", time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), "", true},
		{"due yesterday emits overdue", time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC), KindOverdue, false},
		{"due next week emits nothing", time.Date(2024, time.June, 17, 0, 0, 0, 0, time.UTC), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := installmentFixture("i1", "d1", 3, tt.due, false)
			items, _ := Generate([]*models.Debt{debt}, []*models.Installment{inst}, now)

			if tt.wantNone {
				if len(items) != 0 {
					t.Fatalf("expected no notifications, got %d: %+v", len(items), items)
				}
				return
			}
			if len(items) != 1 {
				t.Fatalf("expected 1 notification, got %d", len(items))
			}
			if items[0].Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", items[0].Kind, tt.wantKind)
			}
			if items[0].DebtName != "Financiamento" {
				t.Errorf("debt name = %q", items[0].DebtName)
			}
		})
	}
}

func TestGenerateOverdueMessageCountsDays(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	debt := debtFixture("d1", "Empréstimo")

	t.Run("one day overdue is singular", func(t *testing.T) {
		inst := installmentFixture("i1", "d1", 1, time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC), false)
		items, _ := Generate([]*models.Debt{debt}, []*models.Installment{inst}, now)
		if len(items) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(items))
		}
		if !strings.Contains(items[0].Message, "1 dia em atraso") {
			t.Errorf("message %q should mention 1 dia em atraso", items[0].Message)
		}
	})

	t.Run("five days overdue is plural", func(t *testing.T) {
		inst := installmentFixture("i2", "d1", 1, time.Date(2024, time.June, 5, 0, 0, 0, 0, time.UTC), false)
		items, _ := Generate([]*models.Debt{debt}, []*models.Installment{inst}, now)
		if len(items) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(items))
		}
		if !strings.Contains(items[0].Message, "5 dias em atraso") {
			t.Errorf("message %q should mention 5 dias em atraso", items[0].Message)
		}
	})
}

func TestGenerateAggregateAlert(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	debt := debtFixture("d1", "Cartão")
	dueSoon := installmentFixture("i1", "d1", 1, time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC), false)
	overdue := installmentFixture("i2", "d1", 2, time.Date(2024, time.June, 8, 0, 0, 0, 0, time.UTC), false)

	tests := []struct {
		name         string
		installments []*models.Installment
		want         Alert
	}{
		{"no unpaid near dates", nil, AlertNone},
		{"due soon only", []*models.Installment{dueSoon}, AlertReminder},
		{"overdue wins over due soon", []*models.Installment{dueSoon, overdue}, AlertAttention},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, alert := Generate([]*models.Debt{debt}, tt.installments, now)
			if alert != tt.want {
				t.Errorf("alert = %q, want %q", alert, tt.want)
			}
		})
	}
}

func TestGenerateSkipsPaidAndOrphaned(t *testing.T) {
	now := time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
	debt := debtFixture("d1", "Cartão")
	paid := installmentFixture("i1", "d1", 1, time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC), true)
	orphan := installmentFixture("i2", "missing-debt", 2, time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC), false)

	items, alert := Generate([]*models.Debt{debt}, []*models.Installment{paid, orphan}, now)
	if len(items) != 0 {
		t.Errorf("expected no notifications, got %d", len(items))
	}
	if alert != AlertNone {
		t.Errorf("alert = %q, want none", alert)
	}
}

func TestDaysDiff(t *testing.T) {
	now := time.Date(2024, time.June, 10, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		due  time.Time
		want int
	}{
		{time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2024, time.June, 9, 0, 0, 0, 0, time.UTC), -1},
		{time.Date(2024, time.June, 13, 0, 0, 0, 0, time.UTC), 3},
	}
	for _, tt := range tests {
		if got := DaysDiff(tt.due, now); got != tt.want {
			t.Errorf("DaysDiff(%v) = %d, want %d", tt.due, got, tt.want)
		}
	}
}

func TestDaysDiffAcrossLocations(t *testing.T) {
	// Stored due dates come back as UTC midnight; the evaluation clock may be
	// local. The calendar-day comparison must not shift near midnight.
	brt := time.FixedZone("BRT", -3*3600)
	due := time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"late evening local, due tomorrow", time.Date(2024, time.June, 10, 23, 0, 0, 0, brt), 1},
		{"early morning local, due tomorrow", time.Date(2024, time.June, 10, 1, 0, 0, 0, brt), 1},
		{"same local day", time.Date(2024, time.June, 11, 10, 0, 0, 0, brt), 0},
		{"one local day past", time.Date(2024, time.June, 12, 0, 30, 0, 0, brt), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysDiff(due, tt.now); got != tt.want {
				t.Errorf("DaysDiff = %d, want %d", got, tt.want)
			}
		})
	}
}
