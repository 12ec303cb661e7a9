// Package sqlite provides the SQLite-backed implementation of the storage
// repository interfaces.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

// Ensure Store implements every repository interface.
var (
	_ storage.DebtRepository        = (*Store)(nil)
	_ storage.InstallmentRepository = (*Store)(nil)
	_ storage.LedgerRepository      = (*Store)(nil)
	_ storage.InboxRepository       = (*Store)(nil)
	_ storage.UserRepository        = (*Store)(nil)
)

// Store implements the storage repositories using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Cascading deletes (debt -> installments -> ledger) rely on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

const dateLayout = "2006-01-02"

// formatDate renders a calendar date for storage.
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// parseDate reads a stored calendar date back as midnight UTC.
func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// isUniqueViolation reports whether err is a unique-constraint failure from
// the sqlite driver.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
