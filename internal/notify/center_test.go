package notify

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
)

func feedFixture() []Notification {
	return []Notification{
		{ID: "n1", Kind: KindDueSoon, Title: "Parcela vence amanhã"},
		{ID: "n2", Kind: KindOverdue, Title: "Parcela em atraso"},
	}
}

func TestCenterRefreshReplacesFeed(t *testing.T) {
	center := NewCenter()
	center.Refresh("u1", feedFixture())

	if got := center.List("u1"); len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if center.Alert("u1") != AlertAttention {
		t.Errorf("alert = %q, want attention", center.Alert("u1"))
	}

	center.Refresh("u1", nil)
	if got := center.List("u1"); len(got) != 0 {
		t.Errorf("refresh should replace wholesale, got %d items", len(got))
	}
	if center.Alert("u1") != AlertNone {
		t.Errorf("alert = %q, want none", center.Alert("u1"))
	}
}

func TestCenterReadState(t *testing.T) {
	center := NewCenter()
	center.Refresh("u1", feedFixture())

	if !center.MarkAsRead("u1", "n1") {
		t.Fatal("MarkAsRead should find n1")
	}
	if center.MarkAsRead("u1", "missing") {
		t.Error("MarkAsRead should report unknown IDs")
	}

	items := center.List("u1")
	if !items[0].IsRead || items[1].IsRead {
		t.Errorf("only n1 should be read: %+v", items)
	}

	center.MarkAllAsRead("u1")
	for _, n := range center.List("u1") {
		if !n.IsRead {
			t.Errorf("notification %s should be read", n.ID)
		}
	}
}

func TestCenterDismissIsSessionScoped(t *testing.T) {
	center := NewCenter()
	center.Refresh("u1", feedFixture())

	if !center.Dismiss("u1", "n1") {
		t.Fatal("Dismiss should find n1")
	}
	if center.Dismiss("u1", "n1") {
		t.Error("second dismiss should report the ID as gone")
	}
	if got := center.List("u1"); len(got) != 1 || got[0].ID != "n2" {
		t.Fatalf("expected only n2 to remain, got %+v", got)
	}

	// The next refresh brings the dismissed notification back.
	center.Refresh("u1", feedFixture())
	if got := center.List("u1"); len(got) != 2 {
		t.Errorf("expected dismissed item to reappear, got %d items", len(got))
	}
}

func TestCenterIsolatesUsers(t *testing.T) {
	center := NewCenter()
	center.Refresh("u1", feedFixture())

	if got := center.List("u2"); len(got) != 0 {
		t.Errorf("u2 should have an empty feed, got %d items", len(got))
	}
	center.MarkAllAsRead("u2") // must not panic or touch u1
	if items := center.List("u1"); items[0].IsRead {
		t.Error("u1 feed should be untouched")
	}
}

func TestCenterPublishPaidPrepends(t *testing.T) {
	center := NewCenter()
	center.Refresh("u1", feedFixture())

	paidDate := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	center.PublishPaid("u1", "Financiamento", &models.Installment{
		ID:       "i1",
		Number:   3,
		Amount:   decimal.RequireFromString("100.00"),
		DueDate:  paidDate,
		IsPaid:   true,
		PaidDate: &paidDate,
	})

	items := center.List("u1")
	if len(items) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(items))
	}
	if items[0].Kind != KindPaid {
		t.Errorf("first item kind = %s, want paid", items[0].Kind)
	}
	if items[0].DebtName != "Financiamento" {
		t.Errorf("debt name = %q", items[0].DebtName)
	}
}
