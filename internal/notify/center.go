package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/samuhcosta/meu-bolso-backend/internal/models"
	"github.com/samuhcosta/meu-bolso-backend/internal/money"
)

// Center holds each user's current transient notification list for the
// session. Read and dismiss mutate only this in-memory state: Refresh
// replaces the list wholesale, so dismissed notifications reappear on the
// next data change. That idempotence gap is kept on purpose — the durable
// record of what was actually sent lives in the sweep ledger, not here.
type Center struct {
	mu       sync.Mutex
	sessions map[string][]Notification
}

// NewCenter creates an empty notification center. One per process; torn down
// with it.
func NewCenter() *Center {
	return &Center{sessions: make(map[string][]Notification)}
}

// Refresh replaces the user's feed with a freshly generated list.
func (c *Center) Refresh(userID string, items []Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[userID] = append([]Notification(nil), items...)
}

// List returns a copy of the user's current feed.
func (c *Center) List(userID string) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification(nil), c.sessions[userID]...)
}

// Alert recomputes the aggregate alert from the user's current feed.
func (c *Center) Alert(userID string) Alert {
	c.mu.Lock()
	defer c.mu.Unlock()
	alert := AlertNone
	for _, n := range c.sessions[userID] {
		switch n.Kind {
		case KindOverdue:
			return AlertAttention
		case KindDueSoon:
			alert = AlertReminder
		}
	}
	return alert
}

// MarkAsRead marks one notification read. Returns false if the ID is not in
// the current feed.
func (c *Center) MarkAsRead(userID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.sessions[userID]
	for i := range items {
		if items[i].ID == id {
			items[i].IsRead = true
			return true
		}
	}
	return false
}

// MarkAllAsRead marks the user's whole feed read.
func (c *Center) MarkAllAsRead(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.sessions[userID]
	for i := range items {
		items[i].IsRead = true
	}
}

// Dismiss removes one notification from the current feed. Returns false if
// the ID is not present.
func (c *Center) Dismiss(userID, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := c.sessions[userID]
	for i := range items {
		if items[i].ID == id {
			c.sessions[userID] = append(items[:i], items[i+1:]...)
			return true
		}
	}
	return false
}

// PublishPaid prepends a paid confirmation to the user's feed. It lives only
// until the next Refresh, like every other transient notification.
func (c *Center) PublishPaid(userID, debtName string, inst *models.Installment) {
	paidOn := time.Now()
	if inst.PaidDate != nil {
		paidOn = *inst.PaidDate
	}
	n := Notification{
		ID:    fmt.Sprintf("%s:%s:%s", inst.ID, KindPaid, paidOn.Format("2006-01-02")),
		Kind:  KindPaid,
		Title: "Parcela paga",
		Message: fmt.Sprintf("A parcela %d de %s (%s) foi marcada como paga.",
			inst.Number, debtName, money.FormatBRL(inst.Amount)),
		DebtName:          debtName,
		InstallmentNumber: inst.Number,
		Amount:            inst.Amount,
		DueDate:           inst.DueDate,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[userID] = append([]Notification{n}, c.sessions[userID]...)
}
