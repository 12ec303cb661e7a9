// Package sweep implements the periodic reminder job: scan installments
// around their due dates, dedup against the notification ledger, write inbox
// messages and optionally push to an outbound channel.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/money"
	"github.com/samuhcosta/meu-bolso-backend/internal/schedule"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
)

// Dispatcher delivers a reminder over an outbound channel (push, WhatsApp).
// The inbox is always written regardless of dispatcher success; outbound
// delivery is best-effort.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID, channel, message string) error
}

// LogDispatcher is the stub outbound channel: it only logs. Kept as the
// default until a real push integration exists.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, userID, channel, message string) error {
	slog.Info("Outbound dispatch (stub)", "user_id", userID, "channel", channel, "message", message)
	return nil
}

// bucket pairs a reminder kind with the due-date offset it targets, relative
// to the sweep day.
type bucket struct {
	kind   models.ReminderKind
	offset int // days added to the sweep date to get the target due date
}

// The three reminder buckets: two days before, one day before, one day after.
var buckets = []bucket{
	{models.ReminderDueIn2Days, 2},
	{models.ReminderDueDate, 1},
	{models.ReminderOverdue1Day, -1},
}

// Summary reports what one sweep run did.
type Summary struct {
	Dispatched int
	Skipped    int
	Failed     int
}

// Sweeper runs the daily reminder pass. One bad installment never aborts the
// batch: failures are logged, counted and isolated.
type Sweeper struct {
	installments storage.InstallmentRepository
	ledger       storage.LedgerRepository
	inbox        storage.InboxRepository
	dispatcher   Dispatcher
}

// New creates a Sweeper. dispatcher may be nil to skip outbound delivery.
func New(installments storage.InstallmentRepository, ledger storage.LedgerRepository, inbox storage.InboxRepository, dispatcher Dispatcher) *Sweeper {
	return &Sweeper{
		installments: installments,
		ledger:       ledger,
		inbox:        inbox,
		dispatcher:   dispatcher,
	}
}

// Run executes one sweep as of the given instant and returns a summary.
func (s *Sweeper) Run(ctx context.Context, now time.Time) Summary {
	day := schedule.DateOnly(now)
	slog.Info("Reminder sweep started", "day", day.Format("2006-01-02"))

	var total Summary
	for _, b := range buckets {
		target := day.AddDate(0, 0, b.offset)
		sum := s.runBucket(ctx, b.kind, target)
		total.Dispatched += sum.Dispatched
		total.Skipped += sum.Skipped
		total.Failed += sum.Failed
	}

	slog.Info("Reminder sweep finished",
		"dispatched", total.Dispatched,
		"skipped", total.Skipped,
		"failed", total.Failed,
	)
	return total
}

func (s *Sweeper) runBucket(ctx context.Context, kind models.ReminderKind, target time.Time) Summary {
	var sum Summary

	due, err := s.installments.ListRemindersDueOn(ctx, target)
	if err != nil {
		slog.Error("Sweep bucket query failed", "kind", kind, "target", target.Format("2006-01-02"), "error", err)
		sweepFailures.WithLabelValues(string(kind), "query").Inc()
		sum.Failed++
		return sum
	}

	for _, item := range due {
		switch err := s.processInstallment(ctx, kind, item); {
		case err == nil:
			sum.Dispatched++
			sweepDispatched.WithLabelValues(string(kind)).Inc()
		case errors.Is(err, errAlreadySent):
			sum.Skipped++
			sweepSkipped.WithLabelValues(string(kind)).Inc()
		default:
			// Isolated per installment; the rest of the batch continues.
			sum.Failed++
			sweepFailures.WithLabelValues(string(kind), "dispatch").Inc()
			slog.Error("Sweep item failed",
				"kind", kind,
				"installment_id", item.ID,
				"debt_id", item.DebtID,
				"error", err,
			)
		}
	}
	return sum
}

// errAlreadySent marks an installment whose reminder of this kind was already
// recorded in the ledger.
var errAlreadySent = errors.New("reminder already sent")

func (s *Sweeper) processInstallment(ctx context.Context, kind models.ReminderKind, item *models.DueInstallment) error {
	sent, err := s.ledger.HasEntry(ctx, item.ID, kind)
	if err != nil {
		return fmt.Errorf("ledger check: %w", err)
	}
	if sent {
		return errAlreadySent
	}

	title, message := composeMessage(kind, item)

	if err := s.inbox.CreateNotification(ctx, &models.InboxNotification{
		UserID:  item.UserID,
		Title:   title,
		Message: message,
		Type:    "debt_reminder",
	}); err != nil {
		return fmt.Errorf("inbox write: %w", err)
	}

	if s.dispatcher != nil {
		// Outbound channels are best-effort; a failure here must not block
		// the ledger write or the inbox delivery already made.
		if err := s.dispatcher.Dispatch(ctx, item.UserID, "push", message); err != nil {
			slog.Warn("Outbound dispatch failed", "installment_id", item.ID, "error", err)
		}
	}

	err = s.ledger.Record(ctx, &models.LedgerEntry{
		DebtID:        item.DebtID,
		InstallmentID: item.ID,
		Type:          kind,
		SentAt:        time.Now().Unix(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		// A concurrent sweep won the race; its send stands, ours is a skip.
		return errAlreadySent
	}
	if err != nil {
		return fmt.Errorf("ledger write: %w", err)
	}
	return nil
}

// composeMessage builds the kind-specific reminder text.
func composeMessage(kind models.ReminderKind, item *models.DueInstallment) (title, message string) {
	amount := money.FormatBRL(item.Amount)
	dueDate := item.DueDate.Format("02/01/2006")

	switch kind {
	case models.ReminderDueIn2Days:
		return "Parcela vence em 2 dias",
			fmt.Sprintf("A parcela %d de %s no valor de %s vence em 2 dias, dia %s.",
				item.Number, item.DebtName, amount, dueDate)
	case models.ReminderDueDate:
		return "Parcela vence amanhã",
			fmt.Sprintf("A parcela %d de %s no valor de %s vence amanhã, dia %s.",
				item.Number, item.DebtName, amount, dueDate)
	case models.ReminderOverdue1Day:
		return "Parcela em atraso",
			fmt.Sprintf("A parcela %d de %s no valor de %s venceu ontem, dia %s. Regularize para evitar juros.",
				item.Number, item.DebtName, amount, dueDate)
	default:
		return "Lembrete de parcela",
			fmt.Sprintf("A parcela %d de %s no valor de %s vence em %s.",
				item.Number, item.DebtName, amount, dueDate)
	}
}
