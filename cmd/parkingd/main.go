package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"parking-session-backend/config"
	"parking-session-backend/internal/account"
	"parking-session-backend/internal/api"
	"parking-session-backend/internal/billing"
	"parking-session-backend/internal/coordinator"
	"parking-session-backend/internal/db"
	"parking-session-backend/internal/gateway"
	"parking-session-backend/internal/kv"
	"parking-session-backend/internal/ledger"
	"parking-session-backend/internal/logging"
	"parking-session-backend/internal/notification"
	"parking-session-backend/internal/registry"
	"parking-session-backend/internal/session"
)

func main() {
	bootLog := logging.New("info", "json", "parkingd")
	config.LoadEnv(bootLog)

	configPath := config.ConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		bootLog.WithError(err).Fatalf("failed to load configuration from %s", configPath)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, "parkingd")
	logger.WithField("path", configPath).Info("configuration loaded")
	if logging.ParseLevel(cfg.Log.Level) < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	policy, err := billing.PolicyFromConfig(cfg.Billing)
	if err != nil {
		logger.WithError(err).Fatal("invalid billing configuration")
	}

	gormDB, err := db.Init(&cfg.Database, logging.GormLevel(cfg.Log.Level), logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize database")
	}
	logger.WithField("driver", cfg.Database.Driver).Info("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := kv.New(kv.NewGormBackend(gormDB))
	client := gateway.NewClient(cfg.Gateway, logger.WithField("component", "gateway"))
	places := registry.New(client, logger.WithField("component", "registry"))

	webpushOptions := notification.OptionsFromConfig(cfg.Push)
	if webpushOptions == nil {
		logger.Warn("VAPID keys are not configured, push notifications will only be logged")
	}
	subs := notification.NewSubscriptions(gormDB)
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, subs, webpushOptions, logger.WithField("component", "notification"))
	pool.Start(ctx)
	places.OnFreed(pool.PlacesFreed)

	// The poller refreshes on start; without it, load the snapshot once.
	if cfg.Registry.PollInterval <= 0 {
		if err := places.Refresh(ctx); err != nil {
			logger.WithError(err).Warn("initial place refresh failed, starting with an empty registry")
		}
	}
	go registry.NewPoller(places, cfg.Registry.PollInterval, logger.WithField("component", "poller")).Run(ctx)

	engine := coordinator.New(
		client,
		places,
		session.NewTracker(store),
		account.New(store, cfg.Account.GuestName, cfg.Account.StartingBalance),
		ledger.New(gormDB, cfg.Ledger.MaxRecords),
		coordinator.Options{
			Policy:              policy,
			Tx:                  db.NewTransactor(gormDB),
			UnknownDuration:     cfg.Billing.UnknownDuration,
			ClearLedgerOnLogout: cfg.Ledger.ClearOnLogout,
		},
		logger.WithField("component", "coordinator"),
	)

	if view, err := engine.Status(ctx); err != nil {
		logger.WithError(err).Error("failed to read stored state")
	} else if view.Session != nil {
		logger.WithFields(logrus.Fields{
			"place_id":   view.Session.PlaceID,
			"started_at": view.Session.StartedAt,
		}).Info("resuming active session")
	}

	handler := api.NewHandler(engine, places, subs, webpushOptions, logger.WithField("component", "api"))
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server),
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server stopped unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server gracefully stopped")
}
