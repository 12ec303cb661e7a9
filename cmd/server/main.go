package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/samuhcosta/meu-bolso-backend/internal/auth"
	"github.com/samuhcosta/meu-bolso-backend/internal/config"
	"github.com/samuhcosta/meu-bolso-backend/internal/notify"
	"github.com/samuhcosta/meu-bolso-backend/internal/server"
	"github.com/samuhcosta/meu-bolso-backend/internal/service"
	"github.com/samuhcosta/meu-bolso-backend/internal/storage/sqlite"
	"github.com/samuhcosta/meu-bolso-backend/internal/sweep"
	"github.com/samuhcosta/meu-bolso-backend/pkg/logging"
)

func main() {
	logging.Setup()

	configPath := os.Getenv("MEUBOLSO_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	center := notify.NewCenter()
	debtService := service.NewDebtService(store, store, center)
	sweeper := sweep.New(store, store, store, sweep.LogDispatcher{})

	if cfg.Sweep.Enabled {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Sweep.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			sweeper.Run(ctx, time.Now())
		})
		if err != nil {
			slog.Error("Invalid sweep schedule", "schedule", cfg.Sweep.Schedule, "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
		slog.Info("Reminder sweep scheduled", "schedule", cfg.Sweep.Schedule)
	}

	router := server.NewRouter(server.Deps{
		Authenticator: authenticator,
		JWTManager:    jwtManager,
		Debts:         debtService,
		Center:        center,
		Inbox:         store,
		Sweeper:       sweeper,
		Mode:          cfg.Server.Mode,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
