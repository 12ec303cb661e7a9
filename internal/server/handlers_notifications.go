package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samuhcosta/meu-bolso-backend/internal/notify"
	"github.com/samuhcosta/meu-bolso-backend/internal/service"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
	"github.com/samuhcosta/meu-bolso-backend/internal/sweep"
)

// NotificationHandler serves the transient feed, its read/dismiss operations
// and the persistent inbox.
type NotificationHandler struct {
	Service   *service.DebtService
	Center    *notify.Center
	InboxRepo storage.InboxRepository
}

// Feed regenerates and returns the transient notification list with the
// aggregate alert. Regeneration resets session read/dismiss state.
func (h *NotificationHandler) Feed(c *gin.Context) {
	items, alert, err := h.Service.RefreshNotifications(c.Request.Context(), GetUserID(c), time.Now())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if items == nil {
		items = []notify.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "alert": alert})
}

// MarkRead marks one transient notification as read for this session.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if !h.Center.MarkAsRead(GetUserID(c), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not in current feed"})
		return
	}
	c.Status(http.StatusNoContent)
}

// MarkAllRead marks the whole transient feed read for this session.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	h.Center.MarkAllAsRead(GetUserID(c))
	c.Status(http.StatusNoContent)
}

// Dismiss removes one transient notification from the session feed. It will
// reappear on the next regeneration; dismissal is not durable.
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	if !h.Center.Dismiss(GetUserID(c), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not in current feed"})
		return
	}
	c.Status(http.StatusNoContent)
}

type inboxItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"read"`
	CreatedAt int64  `json:"created_at"`
}

// Inbox returns the user's persistent notification inbox.
func (h *NotificationHandler) Inbox(c *gin.Context) {
	notifications, err := h.InboxRepo.ListNotifications(c.Request.Context(), GetUserID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	items := make([]inboxItem, len(notifications))
	for i, n := range notifications {
		items[i] = inboxItem{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      n.Type,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// InboxMarkRead marks an inbox notification as read.
func (h *NotificationHandler) InboxMarkRead(c *gin.Context) {
	if err := h.InboxRepo.MarkNotificationRead(c.Request.Context(), GetUserID(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SweepHandler exposes the reminder sweep for external schedulers.
type SweepHandler struct {
	Sweeper *sweep.Sweeper
}

// Trigger runs one sweep immediately and reports the summary.
func (h *SweepHandler) Trigger(c *gin.Context) {
	sum := h.Sweeper.Run(c.Request.Context(), time.Now())
	c.JSON(http.StatusOK, gin.H{
		"dispatched": sum.Dispatched,
		"skipped":    sum.Skipped,
		"failed":     sum.Failed,
	})
}
