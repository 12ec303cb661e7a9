// Package server exposes the REST API over the debt service, the transient
// notification feed and the reminder sweep.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samuhcosta/meu-bolso-backend/internal/auth"
	"github.com/samuhcosta/meu-bolso-backend/internal/notify"
	"github.com/samuhcosta/meu-bolso-backend/internal/service"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage"
	"github.com/samuhcosta/meu-bolso-backend/internal/sweep"
)

// Deps bundles everything the router needs.
type Deps struct {
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Debts         *service.DebtService
	Center        *notify.Center
	Inbox         storage.InboxRepository
	Sweeper       *sweep.Sweeper
	Mode          string
}

// NewRouter configures the gin engine with all routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	if d.Mode != "" {
		gin.SetMode(d.Mode)
	}
	r := gin.New()
	r.Use(RequestLogger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	authHandler := &AuthHandler{Authenticator: d.Authenticator, JWTManager: d.JWTManager}
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(RequireAuth(d.JWTManager))

	debtHandler := &DebtHandler{Service: d.Debts}
	protected.POST("/debts", debtHandler.Create)
	protected.GET("/debts", debtHandler.List)
	protected.GET("/debts/:id", debtHandler.Get)
	protected.PUT("/debts/:id", debtHandler.Update)
	protected.DELETE("/debts/:id", debtHandler.Delete)
	protected.GET("/debts/:id/installments", debtHandler.ListInstallments)
	protected.POST("/installments/:id/pay", debtHandler.MarkPaid)
	protected.POST("/installments/:id/unpay", debtHandler.MarkUnpaid)

	notifHandler := &NotificationHandler{Service: d.Debts, Center: d.Center, InboxRepo: d.Inbox}
	protected.GET("/notifications", notifHandler.Feed)
	protected.POST("/notifications/read-all", notifHandler.MarkAllRead)
	protected.POST("/notifications/:id/read", notifHandler.MarkRead)
	protected.POST("/notifications/:id/dismiss", notifHandler.Dismiss)
	protected.GET("/inbox", notifHandler.Inbox)
	protected.POST("/inbox/:id/read", notifHandler.InboxMarkRead)

	sweepHandler := &SweepHandler{Sweeper: d.Sweeper}
	protected.POST("/admin/sweep", sweepHandler.Trigger)

	return r
}
