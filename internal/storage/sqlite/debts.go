package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

const debtColumns = `id, user_id, name, category, total_amount, installment_amount,
	total_installments, paid_installments, first_installment_date, monthly_due_day,
	notes, notifications_enabled, created_at, updated_at`

// CreateDebtWithInstallments persists a debt and its full schedule in one
// transaction, so a failed installment write never leaves a schedule-less debt.
func (s *Store) CreateDebtWithInstallments(ctx context.Context, debt *models.Debt, installments []models.Installment) error {
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if debt.CreatedAt == 0 {
		debt.CreatedAt = now
	}
	debt.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var notes interface{}
	if debt.Notes != "" {
		notes = debt.Notes
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO debts (`+debtColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID, debt.UserID, debt.Name, debt.Category,
		debt.TotalAmount.String(), debt.InstallmentAmount.String(),
		debt.TotalInstallments, debt.PaidInstallments,
		formatDate(debt.FirstInstallmentDate), debt.MonthlyDueDay,
		notes, boolToInt(debt.NotificationsEnabled),
		debt.CreatedAt, debt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}

	for i := range installments {
		inst := &installments[i]
		if inst.ID == "" {
			inst.ID = uuid.New().String()
		}
		inst.DebtID = debt.ID
		inst.CreatedAt = now
		inst.UpdatedAt = now

		var paidDate interface{}
		if inst.PaidDate != nil {
			paidDate = formatDate(*inst.PaidDate)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO debt_installments
			 (id, debt_id, installment_number, due_date, amount, is_paid, paid_date, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.ID, inst.DebtID, inst.Number, formatDate(inst.DueDate),
			inst.Amount.String(), boolToInt(inst.IsPaid), paidDate,
			inst.CreatedAt, inst.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert installment %d: %w", inst.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetDebt retrieves a debt by ID, scoped to the owning user.
func (s *Store) GetDebt(ctx context.Context, userID, debtID string) (*models.Debt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE id = ? AND user_id = ?`,
		debtID, userID,
	)
	debt, err := scanDebt(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get debt: %w", err)
	}
	return debt, nil
}

// ListDebts retrieves all debts for a user, newest first.
func (s *Store) ListDebts(ctx context.Context, userID string) ([]*models.Debt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+debtColumns+` FROM debts WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list debts: %w", err)
	}
	defer rows.Close()

	var debts []*models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan debt: %w", err)
		}
		debts = append(debts, debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate debts: %w", err)
	}
	return debts, nil
}

// UpdateDebt writes the debt's mutable fields. The paid counter and the
// schedule are owned by the installment operations and are not written here.
func (s *Store) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	var notes interface{}
	if debt.Notes != "" {
		notes = debt.Notes
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE debts SET name = ?, category = ?, total_amount = ?, installment_amount = ?,
		 total_installments = ?, first_installment_date = ?, monthly_due_day = ?,
		 notes = ?, notifications_enabled = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		debt.Name, debt.Category, debt.TotalAmount.String(), debt.InstallmentAmount.String(),
		debt.TotalInstallments, formatDate(debt.FirstInstallmentDate), debt.MonthlyDueDay,
		notes, boolToInt(debt.NotificationsEnabled), time.Now().Unix(),
		debt.ID, debt.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debt %s: %w", debt.ID, storage.ErrNotFound)
	}
	return nil
}

// DeleteDebt removes the debt. Installments and ledger entries go with it via
// the ON DELETE CASCADE foreign keys.
func (s *Store) DeleteDebt(ctx context.Context, userID, debtID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM debts WHERE id = ? AND user_id = ?",
		debtID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete debt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("debt %s: %w", debtID, storage.ErrNotFound)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDebt(row scanner) (*models.Debt, error) {
	debt := &models.Debt{}
	var (
		totalAmount, installmentAmount, firstDate string
		notes                                     sql.NullString
		notificationsEnabled                      int
	)

	err := row.Scan(
		&debt.ID, &debt.UserID, &debt.Name, &debt.Category,
		&totalAmount, &installmentAmount,
		&debt.TotalInstallments, &debt.PaidInstallments,
		&firstDate, &debt.MonthlyDueDay,
		&notes, &notificationsEnabled,
		&debt.CreatedAt, &debt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if debt.TotalAmount, err = decimal.NewFromString(totalAmount); err != nil {
		return nil, fmt.Errorf("bad total_amount %q: %w", totalAmount, err)
	}
	if debt.InstallmentAmount, err = decimal.NewFromString(installmentAmount); err != nil {
		return nil, fmt.Errorf("bad installment_amount %q: %w", installmentAmount, err)
	}
	if debt.FirstInstallmentDate, err = parseDate(firstDate); err != nil {
		return nil, fmt.Errorf("bad first_installment_date %q: %w", firstDate, err)
	}
	if notes.Valid {
		debt.Notes = notes.String
	}
	debt.NotificationsEnabled = notificationsEnabled != 0

	return debt, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
