// Package service implements the debt and installment operations on top of
// the typed storage repositories.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/notify"
	"github.com/samuhcosta/meu-bolso-backend/internal/schedule"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

// storeTimeout bounds every store call issued by the service. Exceeding it
// surfaces as ErrTimeout, which the caller may retry.
const storeTimeout = 10 * time.Second

// DebtService owns the debt lifecycle: creation with schedule generation,
// edits, deletion, and the paid/unpaid installment state machine. Constructed
// once per process and passed by reference; there is no ambient global.
type DebtService struct {
	debts        storage.DebtRepository
	installments storage.InstallmentRepository
	center       *notify.Center
}

// NewDebtService creates a DebtService. center may be nil when no transient
// notification feed is wanted (e.g. in batch tooling).
func NewDebtService(debts storage.DebtRepository, installments storage.InstallmentRepository, center *notify.Center) *DebtService {
	return &DebtService{
		debts:        debts,
		installments: installments,
		center:       center,
	}
}

// AddDebtInput carries the debt form fields.
type AddDebtInput struct {
	Name                 string
	Category             string
	TotalAmount          decimal.Decimal
	InstallmentAmount    decimal.Decimal
	TotalInstallments    int
	PaidInstallments     int
	FirstInstallmentDate time.Time
	MonthlyDueDay        int
	Notes                string
	NotificationsEnabled bool
}

// UpdateDebtInput carries partial debt edits. Nil fields are left unchanged.
type UpdateDebtInput struct {
	Name                 *string
	Category             *string
	TotalAmount          *decimal.Decimal
	InstallmentAmount    *decimal.Decimal
	TotalInstallments    *int
	FirstInstallmentDate *time.Time
	MonthlyDueDay        *int
	Notes                *string
	NotificationsEnabled *bool
}

func (s *DebtService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// AddDebt validates the input, generates the installment schedule and
// persists debt plus schedule atomically. When PaidInstallments > 0 the first
// installments are backfilled as paid with paid_date set to their due dates.
func (s *DebtService) AddDebt(ctx context.Context, userID string, in AddDebtInput) (*models.Debt, error) {
	if err := validateAddDebt(in); err != nil {
		return nil, err
	}

	amount := in.InstallmentAmount
	if amount.IsZero() {
		// Form auto-calculate: total divided by count, 2 decimal places.
		amount = schedule.SuggestInstallmentAmount(in.TotalAmount, in.TotalInstallments)
	}

	rows, err := schedule.Generate(schedule.Terms{
		TotalAmount:          in.TotalAmount,
		InstallmentAmount:    amount,
		TotalInstallments:    in.TotalInstallments,
		FirstInstallmentDate: in.FirstInstallmentDate,
		MonthlyDueDay:        in.MonthlyDueDay,
	})
	if err != nil {
		return nil, &ValidationError{Fields: []string{"schedule: " + err.Error()}}
	}

	paid := in.PaidInstallments
	if paid < 0 {
		paid = 0
	}
	if paid > in.TotalInstallments {
		paid = in.TotalInstallments
	}
	schedule.Backfill(rows, paid)

	debt := &models.Debt{
		UserID:               userID,
		Name:                 in.Name,
		Category:             in.Category,
		TotalAmount:          in.TotalAmount,
		InstallmentAmount:    amount,
		TotalInstallments:    in.TotalInstallments,
		PaidInstallments:     paid,
		FirstInstallmentDate: schedule.DateOnly(in.FirstInstallmentDate),
		MonthlyDueDay:        in.MonthlyDueDay,
		Notes:                in.Notes,
		NotificationsEnabled: in.NotificationsEnabled,
	}

	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.debts.CreateDebtWithInstallments(cctx, debt, rows); err != nil {
		slog.Error("AddDebt failed", "user_id", userID, "name", in.Name, "error", err)
		return nil, mapStoreErr(err)
	}

	slog.Info("Debt created",
		"debt_id", debt.ID,
		"user_id", userID,
		"installments", debt.TotalInstallments,
		"backfilled", paid,
	)
	return debt, nil
}

// GetDebt retrieves a debt scoped to the user.
func (s *DebtService) GetDebt(ctx context.Context, userID, debtID string) (*models.Debt, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	debt, err := s.debts.GetDebt(cctx, userID, debtID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return debt, nil
}

// ListDebts retrieves all of a user's debts.
func (s *DebtService) ListDebts(ctx context.Context, userID string) ([]*models.Debt, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	debts, err := s.debts.ListDebts(cctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return debts, nil
}

// ListInstallments retrieves the schedule of a debt the user owns.
func (s *DebtService) ListInstallments(ctx context.Context, userID, debtID string) ([]*models.Installment, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.debts.GetDebt(cctx, userID, debtID); err != nil {
		return nil, mapStoreErr(err)
	}
	installments, err := s.installments.ListInstallments(cctx, debtID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return installments, nil
}

// UpdateDebt merges the provided fields into the debt. The installment
// schedule is generated once at creation and is never regenerated here, even
// when schedule-affecting fields change; regenerating would destroy paid
// history. Such edits are logged so the resulting staleness is visible.
func (s *DebtService) UpdateDebt(ctx context.Context, userID, debtID string, in UpdateDebtInput) (*models.Debt, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	debt, err := s.debts.GetDebt(cctx, userID, debtID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	scheduleEdited := false
	if in.Name != nil {
		debt.Name = *in.Name
	}
	if in.Category != nil {
		debt.Category = *in.Category
	}
	if in.Notes != nil {
		debt.Notes = *in.Notes
	}
	if in.NotificationsEnabled != nil {
		debt.NotificationsEnabled = *in.NotificationsEnabled
	}
	if in.TotalAmount != nil {
		debt.TotalAmount = *in.TotalAmount
	}
	if in.InstallmentAmount != nil {
		debt.InstallmentAmount = *in.InstallmentAmount
		scheduleEdited = true
	}
	if in.TotalInstallments != nil {
		debt.TotalInstallments = *in.TotalInstallments
		scheduleEdited = true
	}
	if in.FirstInstallmentDate != nil {
		debt.FirstInstallmentDate = schedule.DateOnly(*in.FirstInstallmentDate)
		scheduleEdited = true
	}
	if in.MonthlyDueDay != nil {
		debt.MonthlyDueDay = *in.MonthlyDueDay
		scheduleEdited = true
	}

	if err := validateDebtFields(debt); err != nil {
		return nil, err
	}

	if scheduleEdited {
		slog.Warn("Schedule-affecting field edited; existing installments are not regenerated",
			"debt_id", debt.ID, "user_id", userID)
	}

	if err := s.debts.UpdateDebt(cctx, debt); err != nil {
		slog.Error("UpdateDebt failed", "debt_id", debtID, "error", err)
		return nil, mapStoreErr(err)
	}
	return debt, nil
}

// DeleteDebt removes the debt and cascades to installments and ledger entries.
func (s *DebtService) DeleteDebt(ctx context.Context, userID, debtID string) error {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.debts.DeleteDebt(cctx, userID, debtID); err != nil {
		slog.Error("DeleteDebt failed", "debt_id", debtID, "error", err)
		return mapStoreErr(err)
	}
	slog.Info("Debt deleted", "debt_id", debtID, "user_id", userID)
	return nil
}

// MarkPaid marks an installment paid with today's date and increments the
// debt's paid counter. Calling it on an already-paid installment is a no-op
// with a warning; the counter moves by exactly one per real transition.
// Installments of debts the user does not own read as ErrNotFound.
func (s *DebtService) MarkPaid(ctx context.Context, userID, installmentID string) (*models.Installment, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	today := schedule.DateOnly(time.Now())
	inst, changed, err := s.installments.MarkPaid(cctx, userID, installmentID, today)
	if err != nil {
		slog.Error("MarkPaid failed", "installment_id", installmentID, "error", err)
		return nil, mapStoreErr(err)
	}
	if !changed {
		slog.Warn("MarkPaid on already-paid installment, counter untouched",
			"installment_id", installmentID)
		return inst, nil
	}

	slog.Info("Installment paid", "installment_id", inst.ID, "debt_id", inst.DebtID, "number", inst.Number)

	if s.center != nil {
		debt, err := s.debts.GetDebt(cctx, userID, inst.DebtID)
		if err != nil {
			slog.Warn("MarkPaid: could not resolve debt for notification", "debt_id", inst.DebtID, "error", err)
		} else {
			s.center.PublishPaid(userID, debt.Name, inst)
		}
	}
	return inst, nil
}

// MarkUnpaid reverts an installment to unpaid, clearing the paid date and
// decrementing the counter, floored at zero.
func (s *DebtService) MarkUnpaid(ctx context.Context, userID, installmentID string) (*models.Installment, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inst, changed, err := s.installments.MarkUnpaid(cctx, userID, installmentID)
	if err != nil {
		slog.Error("MarkUnpaid failed", "installment_id", installmentID, "error", err)
		return nil, mapStoreErr(err)
	}
	if !changed {
		slog.Warn("MarkUnpaid on already-unpaid installment, counter untouched",
			"installment_id", installmentID)
		return inst, nil
	}

	slog.Info("Installment reverted to unpaid", "installment_id", inst.ID, "debt_id", inst.DebtID, "number", inst.Number)
	return inst, nil
}

// RefreshNotifications regenerates the user's transient notification feed
// from the current store snapshot and returns it with the aggregate alert.
func (s *DebtService) RefreshNotifications(ctx context.Context, userID string, now time.Time) ([]notify.Notification, notify.Alert, error) {
	cctx, cancel := s.withTimeout(ctx)
	defer cancel()

	debts, err := s.debts.ListDebts(cctx, userID)
	if err != nil {
		return nil, notify.AlertNone, mapStoreErr(err)
	}
	installments, err := s.installments.ListInstallmentsByUser(cctx, userID)
	if err != nil {
		return nil, notify.AlertNone, mapStoreErr(err)
	}

	items, alert := notify.Generate(debts, installments, now)
	if s.center != nil {
		s.center.Refresh(userID, items)
		items = s.center.List(userID)
	}
	return items, alert, nil
}

func validateAddDebt(in AddDebtInput) error {
	var bad []string
	if in.Name == "" {
		bad = append(bad, "name")
	}
	if in.Category == "" {
		bad = append(bad, "category")
	}
	if !in.TotalAmount.IsPositive() {
		bad = append(bad, "total_amount")
	}
	if in.TotalInstallments < 1 {
		bad = append(bad, "total_installments")
	}
	if in.MonthlyDueDay < 1 || in.MonthlyDueDay > 31 {
		bad = append(bad, "monthly_due_day")
	}
	if in.FirstInstallmentDate.IsZero() {
		bad = append(bad, "first_installment_date")
	}
	if in.InstallmentAmount.IsNegative() {
		bad = append(bad, "installment_amount")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}

func validateDebtFields(debt *models.Debt) error {
	var bad []string
	if debt.Name == "" {
		bad = append(bad, "name")
	}
	if debt.Category == "" {
		bad = append(bad, "category")
	}
	if !debt.TotalAmount.IsPositive() {
		bad = append(bad, "total_amount")
	}
	if debt.TotalInstallments < 1 {
		bad = append(bad, "total_installments")
	}
	if debt.MonthlyDueDay < 1 || debt.MonthlyDueDay > 31 {
		bad = append(bad, "monthly_due_day")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}
