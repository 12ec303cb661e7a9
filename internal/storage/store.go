// Package storage defines the typed repository interfaces for persistent data.
// One interface per entity keeps table and column access out of the service
// layer and allows swapping storage backends without changing it.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert hits a unique constraint.
	ErrDuplicate = errors.New("duplicate entry")
)

// DebtRepository persists debts and their schedules.
type DebtRepository interface {
	// CreateDebtWithInstallments persists the debt and its full installment
	// schedule in a single transaction. Either everything is written or
	// nothing is. The debt and installment IDs are populated by the store.
	CreateDebtWithInstallments(ctx context.Context, debt *models.Debt, installments []models.Installment) error

	// GetDebt retrieves a debt by ID, scoped to the owning user.
	GetDebt(ctx context.Context, userID, debtID string) (*models.Debt, error)

	// ListDebts retrieves all debts for a user, newest first.
	ListDebts(ctx context.Context, userID string) ([]*models.Debt, error)

	// UpdateDebt writes the debt's mutable fields. It never touches the
	// installment schedule or the paid counter.
	UpdateDebt(ctx context.Context, debt *models.Debt) error

	// DeleteDebt removes the debt, cascading to its installments and ledger
	// entries.
	DeleteDebt(ctx context.Context, userID, debtID string) error
}

// InstallmentRepository persists installments and the paid/unpaid state machine.
type InstallmentRepository interface {
	// ListInstallments retrieves all installments of a debt ordered by number.
	ListInstallments(ctx context.Context, debtID string) ([]*models.Installment, error)

	// ListInstallmentsByUser retrieves all installments across a user's debts.
	ListInstallmentsByUser(ctx context.Context, userID string) ([]*models.Installment, error)

	// GetInstallment retrieves a single installment by ID.
	GetInstallment(ctx context.Context, installmentID string) (*models.Installment, error)

	// MarkPaid flips the installment to paid with the given paid date and
	// increments the owning debt's paid counter, atomically. The flip is
	// conditional on the installment being unpaid: calling MarkPaid on an
	// already-paid installment returns changed = false and leaves the counter
	// alone. The installment must belong to a debt owned by userID; any other
	// user gets ErrNotFound, never a toggle.
	MarkPaid(ctx context.Context, userID, installmentID string, paidDate time.Time) (inst *models.Installment, changed bool, err error)

	// MarkUnpaid flips the installment to unpaid, clears the paid date and
	// decrements the owning debt's paid counter (floored at zero),
	// atomically. Same conditional and ownership semantics as MarkPaid.
	MarkUnpaid(ctx context.Context, userID, installmentID string) (inst *models.Installment, changed bool, err error)

	// ListRemindersDueOn retrieves unpaid installments due exactly on the
	// given calendar date whose owning debt has notifications enabled.
	ListRemindersDueOn(ctx context.Context, due time.Time) ([]*models.DueInstallment, error)
}

// LedgerRepository persists the reminder de-duplication ledger.
type LedgerRepository interface {
	// HasEntry reports whether a reminder of the given kind was already
	// recorded for the installment.
	HasEntry(ctx context.Context, installmentID string, kind models.ReminderKind) (bool, error)

	// Record writes a ledger entry. Returns ErrDuplicate if an entry for the
	// same (installment, kind) pair already exists, which turns a concurrent
	// sweep race into a rejected insert.
	Record(ctx context.Context, entry *models.LedgerEntry) error
}

// InboxRepository persists the user-facing notification inbox.
type InboxRepository interface {
	// CreateNotification writes a notification to the user's inbox.
	CreateNotification(ctx context.Context, n *models.InboxNotification) error

	// ListNotifications retrieves a user's inbox, newest first.
	ListNotifications(ctx context.Context, userID string) ([]*models.InboxNotification, error)

	// MarkNotificationRead marks an inbox notification as read.
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
}

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
