package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

const installmentColumns = `id, debt_id, installment_number, due_date, amount,
	is_paid, paid_date, created_at, updated_at`

// ListInstallments retrieves all installments of a debt ordered by number.
func (s *Store) ListInstallments(ctx context.Context, debtID string) ([]*models.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM debt_installments
		 WHERE debt_id = ? ORDER BY installment_number`,
		debtID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	return collectInstallments(rows)
}

// ListInstallmentsByUser retrieves all installments across a user's debts,
// ordered by due date.
func (s *Store) ListInstallmentsByUser(ctx context.Context, userID string) ([]*models.Installment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.debt_id, i.installment_number, i.due_date, i.amount,
		        i.is_paid, i.paid_date, i.created_at, i.updated_at
		 FROM debt_installments i
		 JOIN debts d ON d.id = i.debt_id
		 WHERE d.user_id = ?
		 ORDER BY i.due_date, i.installment_number`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments by user: %w", err)
	}
	defer rows.Close()

	return collectInstallments(rows)
}

// GetInstallment retrieves a single installment by ID.
func (s *Store) GetInstallment(ctx context.Context, installmentID string) (*models.Installment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM debt_installments WHERE id = ?`,
		installmentID,
	)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("installment %s: %w", installmentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}
	return inst, nil
}

// MarkPaid flips the installment to paid and increments the owning debt's
// paid counter in one transaction. The UPDATE is conditional on is_paid = 0;
// if the installment is already paid nothing is written and changed is false,
// so a retried or concurrent call can never double-increment the counter.
// Ownership is checked inside the same UPDATE: an installment of another
// user's debt is never touched and reads as not found.
func (s *Store) MarkPaid(ctx context.Context, userID, installmentID string, paidDate time.Time) (*models.Installment, bool, error) {
	return s.togglePaid(ctx, userID, installmentID, &paidDate)
}

// MarkUnpaid flips the installment to unpaid and decrements the counter,
// floored at zero, with the same conditional-update and ownership guards.
func (s *Store) MarkUnpaid(ctx context.Context, userID, installmentID string) (*models.Installment, bool, error) {
	return s.togglePaid(ctx, userID, installmentID, nil)
}

func (s *Store) togglePaid(ctx context.Context, userID, installmentID string, paidDate *time.Time) (*models.Installment, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()

	var res sql.Result
	if paidDate != nil {
		res, err = tx.ExecContext(ctx,
			`UPDATE debt_installments SET is_paid = 1, paid_date = ?, updated_at = ?
			 WHERE id = ? AND is_paid = 0
			   AND debt_id IN (SELECT id FROM debts WHERE user_id = ?)`,
			formatDate(*paidDate), now, installmentID, userID,
		)
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE debt_installments SET is_paid = 0, paid_date = NULL, updated_at = ?
			 WHERE id = ? AND is_paid = 1
			   AND debt_id IN (SELECT id FROM debts WHERE user_id = ?)`,
			now, installmentID, userID,
		)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update installment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check update result: %w", err)
	}

	if n == 0 {
		// The installment is missing, owned by someone else, or already in
		// the requested state. The scoped fetch distinguishes the no-op case
		// from the first two, which both read as not found.
		inst, err := s.getOwnedInstallmentTx(ctx, tx, userID, installmentID)
		if err != nil {
			return nil, false, err
		}
		return inst, false, nil
	}

	var debtID string
	if err := tx.QueryRowContext(ctx,
		"SELECT debt_id FROM debt_installments WHERE id = ?", installmentID,
	).Scan(&debtID); err != nil {
		return nil, false, fmt.Errorf("failed to resolve debt: %w", err)
	}

	if paidDate != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE debts SET paid_installments = paid_installments + 1, updated_at = ? WHERE id = ?`,
			now, debtID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE debts SET paid_installments = MAX(paid_installments - 1, 0), updated_at = ? WHERE id = ?`,
			now, debtID,
		)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to update paid counter: %w", err)
	}

	inst, err := s.getInstallmentTx(ctx, tx, installmentID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return inst, true, nil
}

func (s *Store) getInstallmentTx(ctx context.Context, tx *sql.Tx, installmentID string) (*models.Installment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+installmentColumns+` FROM debt_installments WHERE id = ?`,
		installmentID,
	)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("installment %s: %w", installmentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}
	return inst, nil
}

func (s *Store) getOwnedInstallmentTx(ctx context.Context, tx *sql.Tx, userID, installmentID string) (*models.Installment, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT i.id, i.debt_id, i.installment_number, i.due_date, i.amount,
		        i.is_paid, i.paid_date, i.created_at, i.updated_at
		 FROM debt_installments i
		 JOIN debts d ON d.id = i.debt_id
		 WHERE i.id = ? AND d.user_id = ?`,
		installmentID, userID,
	)
	inst, err := scanInstallment(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("installment %s: %w", installmentID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}
	return inst, nil
}

// ListRemindersDueOn retrieves unpaid installments due on the given calendar
// date for debts with notifications enabled, joined with the debt name and
// owning user for message templating and inbox routing.
func (s *Store) ListRemindersDueOn(ctx context.Context, due time.Time) ([]*models.DueInstallment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.debt_id, i.installment_number, i.due_date, i.amount,
		        i.is_paid, i.paid_date, i.created_at, i.updated_at,
		        d.name, d.user_id
		 FROM debt_installments i
		 JOIN debts d ON d.id = i.debt_id
		 WHERE i.is_paid = 0 AND i.due_date = ? AND d.notifications_enabled = 1
		 ORDER BY d.user_id, i.installment_number`,
		formatDate(due),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list due installments: %w", err)
	}
	defer rows.Close()

	var items []*models.DueInstallment
	for rows.Next() {
		item := &models.DueInstallment{}
		var (
			dueDate, amount string
			isPaid          int
			paidDate        sql.NullString
		)
		if err := rows.Scan(
			&item.ID, &item.DebtID, &item.Number, &dueDate, &amount,
			&isPaid, &paidDate, &item.CreatedAt, &item.UpdatedAt,
			&item.DebtName, &item.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan due installment: %w", err)
		}
		if err := fillInstallmentFields(&item.Installment, dueDate, amount, isPaid, paidDate); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate due installments: %w", err)
	}
	return items, nil
}

func collectInstallments(rows *sql.Rows) ([]*models.Installment, error) {
	var installments []*models.Installment
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate installments: %w", err)
	}
	return installments, nil
}

func scanInstallment(row scanner) (*models.Installment, error) {
	inst := &models.Installment{}
	var (
		dueDate, amount string
		isPaid          int
		paidDate        sql.NullString
	)
	err := row.Scan(
		&inst.ID, &inst.DebtID, &inst.Number, &dueDate, &amount,
		&isPaid, &paidDate, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fillInstallmentFields(inst, dueDate, amount, isPaid, paidDate); err != nil {
		return nil, err
	}
	return inst, nil
}

func fillInstallmentFields(inst *models.Installment, dueDate, amount string, isPaid int, paidDate sql.NullString) error {
	var err error
	if inst.DueDate, err = parseDate(dueDate); err != nil {
		return fmt.Errorf("bad due_date %q: %w", dueDate, err)
	}
	if inst.Amount, err = decimal.NewFromString(amount); err != nil {
		return fmt.Errorf("bad amount %q: %w", amount, err)
	}
	inst.IsPaid = isPaid != 0
	if paidDate.Valid {
		pd, err := parseDate(paidDate.String)
		if err != nil {
			return fmt.Errorf("bad paid_date %q: %w", paidDate.String, err)
		}
		inst.PaidDate = &pd
	}
	return nil
}
