package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

// HasEntry reports whether a reminder of the given kind was already recorded
// for the installment.
func (s *Store) HasEntry(ctx context.Context, installmentID string, kind models.ReminderKind) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM debt_notifications WHERE installment_id = ? AND notification_type = ?",
		installmentID, string(kind),
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}
	return true, nil
}

// Record writes a ledger entry. The unique (installment_id, notification_type)
// constraint rejects a second entry for the same pair; that surfaces as
// storage.ErrDuplicate so a racing sweep can treat it as an ordinary skip.
func (s *Store) Record(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if entry.CreatedAt == 0 {
		entry.CreatedAt = now
	}
	if entry.SentAt == 0 {
		entry.SentAt = now
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO debt_notifications (id, debt_id, installment_id, notification_type, sent_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.DebtID, entry.InstallmentID, string(entry.Type), entry.SentAt, entry.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("ledger entry for installment %s kind %s: %w",
			entry.InstallmentID, entry.Type, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return nil
}
