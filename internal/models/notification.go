package models

// ReminderKind identifies which time-relative reminder was sent for an
// installment. The sweep sends each kind at most once per installment.
type ReminderKind string

const (
	// ReminderDueIn2Days fires two days before the due date.
	ReminderDueIn2Days ReminderKind = "due_in_2_days"

	// ReminderDueDate fires the day before the due date.
	ReminderDueDate ReminderKind = "due_date"

	// ReminderOverdue1Day fires the day after the due date.
	ReminderOverdue1Day ReminderKind = "overdue_1_day"
)

// LedgerEntry records that a reminder of a given kind was dispatched for an
// installment. Entries are written once and never mutated; the unique
// (installment, kind) pair is the duplicate-send guard.
type LedgerEntry struct {
	// ID is the unique identifier for the entry (UUID format).
	ID string

	// DebtID is the debt the installment belongs to.
	DebtID string

	// InstallmentID is the installment the reminder was about.
	InstallmentID string

	// Type is the reminder kind that was sent.
	Type ReminderKind

	// SentAt is the Unix timestamp of the successful dispatch.
	SentAt int64

	// CreatedAt is the Unix timestamp when the entry was recorded.
	CreatedAt int64
}

// InboxNotification is a message in a user's notification inbox. The inbox is
// the primary delivery channel for the reminder sweep.
type InboxNotification struct {
	// ID is the unique identifier for the notification (UUID format).
	ID string

	// UserID is the recipient.
	UserID string

	// Title is the short headline shown in the inbox.
	Title string

	// Message is the full notification text.
	Message string

	// Type labels the notification (e.g., "debt_reminder").
	Type string

	// Read reports whether the user has opened the notification.
	Read bool

	// CreatedAt is the Unix timestamp when the notification was written.
	CreatedAt int64
}
