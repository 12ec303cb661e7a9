package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

var (
	// ErrNotFound is returned when a referenced debt or installment is absent.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is returned when a store call exceeded its bound. Retryable
	// by the caller; the service never retries on its own.
	ErrTimeout = errors.New("store call timed out")

	// ErrConflict is returned on a concurrent-update race. The caller should
	// re-fetch and retry.
	ErrConflict = errors.New("concurrent update conflict")
)

// ValidationError reports which debt fields were missing or invalid. It is
// surfaced to the caller for user-visible feedback and never retried.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fields: %s", strings.Join(e.Fields, ", "))
}

// mapStoreErr translates storage and context errors into the service
// taxonomy, keeping the original error in the chain.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return err
	}
}
