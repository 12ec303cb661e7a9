package sweep

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *sqlite.Store, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, "Teste", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// createDebtDueOn inserts a single-installment debt with the given due date.
func createDebtDueOn(t *testing.T, store *sqlite.Store, userID, name string, due time.Time) *models.Debt {
	t.Helper()
	debt := &models.Debt{
		UserID:               userID,
		Name:                 name,
		Category:             "Cartão",
		TotalAmount:          decimal.RequireFromString("100.00"),
		InstallmentAmount:    decimal.RequireFromString("100.00"),
		TotalInstallments:    1,
		FirstInstallmentDate: due,
		MonthlyDueDay:        due.Day(),
		NotificationsEnabled: true,
	}
	installments := []models.Installment{
		{Number: 1, DueDate: due, Amount: decimal.RequireFromString("100.00")},
	}
	if err := store.CreateDebtWithInstallments(context.Background(), debt, installments); err != nil {
		t.Fatalf("failed to create debt: %v", err)
	}
	return debt
}

// recordingDispatcher captures outbound calls.
type recordingDispatcher struct {
	calls []string
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, userID, channel, message string) error {
	d.calls = append(d.calls, userID+"|"+channel+"|"+message)
	return d.err
}

// failingInbox delegates to a real inbox but rejects messages mentioning a
// given debt name, to simulate a per-item write failure.
type failingInbox struct {
	inner storage.InboxRepository
	match string
}

func (f *failingInbox) CreateNotification(ctx context.Context, n *models.InboxNotification) error {
	if strings.Contains(n.Message, f.match) {
		return errors.New("inbox write rejected")
	}
	return f.inner.CreateNotification(ctx, n)
}

func (f *failingInbox) ListNotifications(ctx context.Context, userID string) ([]*models.InboxNotification, error) {
	return f.inner.ListNotifications(ctx, userID)
}

func (f *failingInbox) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	return f.inner.MarkNotificationRead(ctx, userID, notificationID)
}

func TestRunSendsDueTomorrowReminder(t *testing.T) {
	store := newTestStore(t)
	user := createUser(t, store, "ana@example.com")
	ctx := context.Background()

	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	createDebtDueOn(t, store, user.ID, "Financiamento do carro", now.AddDate(0, 0, 1))

	dispatcher := &recordingDispatcher{}
	sweeper := New(store, store, store, dispatcher)

	sum := sweeper.Run(ctx, now)
	if sum.Dispatched != 1 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want 1 dispatched", sum)
	}

	inbox, err := store.ListNotifications(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 inbox message, got %d", len(inbox))
	}
	if inbox[0].Title != "Parcela vence amanhã" {
		t.Errorf("title = %q", inbox[0].Title)
	}
	if inbox[0].Type != "debt_reminder" {
		t.Errorf("type = %q", inbox[0].Type)
	}
	if !strings.Contains(inbox[0].Message, "Financiamento do carro") {
		t.Errorf("message %q should mention the debt name", inbox[0].Message)
	}
	if !strings.Contains(inbox[0].Message, "R$ 100,00") {
		t.Errorf("message %q should mention the formatted amount", inbox[0].Message)
	}

	if len(dispatcher.calls) != 1 {
		t.Fatalf("expected 1 outbound dispatch, got %d", len(dispatcher.calls))
	}
	if !strings.HasPrefix(dispatcher.calls[0], user.ID+"|push|") {
		t.Errorf("dispatch call = %q", dispatcher.calls[0])
	}
}

func TestRunCoversAllBuckets(t *testing.T) {
	store := newTestStore(t)
	user := createUser(t, store, "ana@example.com")
	ctx := context.Background()

	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	in2Days := createDebtDueOn(t, store, user.ID, "Em dois dias", now.AddDate(0, 0, 2))
	tomorrow := createDebtDueOn(t, store, user.ID, "Amanhã", now.AddDate(0, 0, 1))
	yesterday := createDebtDueOn(t, store, user.ID, "Ontem", now.AddDate(0, 0, -1))
	createDebtDueOn(t, store, user.ID, "Hoje", now) // no bucket targets today

	sweeper := New(store, store, store, nil)
	sum := sweeper.Run(ctx, now)
	if sum.Dispatched != 3 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want 3 dispatched", sum)
	}

	wantKinds := map[string]models.ReminderKind{
		in2Days.ID:   models.ReminderDueIn2Days,
		tomorrow.ID:  models.ReminderDueDate,
		yesterday.ID: models.ReminderOverdue1Day,
	}
	for debtID, kind := range wantKinds {
		installments, err := store.ListInstallments(ctx, debtID)
		if err != nil {
			t.Fatalf("failed to list installments: %v", err)
		}
		sent, err := store.HasEntry(ctx, installments[0].ID, kind)
		if err != nil {
			t.Fatalf("failed to check ledger: %v", err)
		}
		if !sent {
			t.Errorf("expected ledger entry of kind %s for debt %s", kind, debtID)
		}
	}
}

func TestRunTwiceSendsEachReminderOnce(t *testing.T) {
	store := newTestStore(t)
	user := createUser(t, store, "ana@example.com")
	ctx := context.Background()

	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	createDebtDueOn(t, store, user.ID, "Financiamento", now.AddDate(0, 0, 1))

	sweeper := New(store, store, store, nil)

	first := sweeper.Run(ctx, now)
	if first.Dispatched != 1 {
		t.Fatalf("first run: %+v, want 1 dispatched", first)
	}

	second := sweeper.Run(ctx, now)
	if second.Dispatched != 0 || second.Skipped != 1 {
		t.Fatalf("second run: %+v, want 1 skipped and nothing dispatched", second)
	}

	inbox, err := store.ListNotifications(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Errorf("expected exactly 1 inbox message after two runs, got %d", len(inbox))
	}
}

func TestRunIsolatesPerItemFailures(t *testing.T) {
	store := newTestStore(t)
	user := createUser(t, store, "ana@example.com")
	ctx := context.Background()

	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	createDebtDueOn(t, store, user.ID, "Quebrado", now.AddDate(0, 0, 1))
	createDebtDueOn(t, store, user.ID, "Saudável", now.AddDate(0, 0, 1))

	inbox := &failingInbox{inner: store, match: "Quebrado"}
	sweeper := New(store, store, inbox, nil)

	sum := sweeper.Run(ctx, now)
	if sum.Dispatched != 1 || sum.Failed != 1 {
		t.Fatalf("summary = %+v, want 1 dispatched and 1 failed", sum)
	}

	items, err := store.ListNotifications(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list inbox: %v", err)
	}
	if len(items) != 1 || !strings.Contains(items[0].Message, "Saudável") {
		t.Fatalf("expected only the healthy reminder in the inbox, got %+v", items)
	}

	// The failed item has no ledger entry, so a later run retries it.
	retry := New(store, store, store, nil).Run(ctx, now)
	if retry.Dispatched != 1 || retry.Skipped != 1 {
		t.Fatalf("retry run: %+v, want the failed item dispatched and the sent one skipped", retry)
	}
}

func TestRunDispatcherFailureIsBestEffort(t *testing.T) {
	store := newTestStore(t)
	user := createUser(t, store, "ana@example.com")
	ctx := context.Background()

	now := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.UTC)
	createDebtDueOn(t, store, user.ID, "Financiamento", now.AddDate(0, 0, 1))

	dispatcher := &recordingDispatcher{err: errors.New("push gateway down")}
	sweeper := New(store, store, store, dispatcher)

	sum := sweeper.Run(ctx, now)
	if sum.Dispatched != 1 || sum.Failed != 0 {
		t.Fatalf("summary = %+v; outbound failure must not fail the item", sum)
	}

	inbox, err := store.ListNotifications(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list inbox: %v", err)
	}
	if len(inbox) != 1 {
		t.Errorf("expected the inbox delivery to stand, got %d messages", len(inbox))
	}
}
