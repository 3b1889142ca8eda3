package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/graphscape/collab-api/internal/auth"
	"github.com/graphscape/collab-api/internal/config"
	"github.com/graphscape/collab-api/internal/handlers"
	"github.com/graphscape/collab-api/internal/logging"
	"github.com/graphscape/collab-api/internal/metrics"
	"github.com/graphscape/collab-api/internal/middleware"
	"github.com/graphscape/collab-api/internal/realtime"
	"github.com/graphscape/collab-api/internal/session"
)

func main() {
	godotenv.Load()

	cfg := config.Load()
	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	logger.Info("Starting GraphScape collab server", nil)

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		logger.Error("JWT_SECRET is required", err, nil)
		os.Exit(1)
	}

	// Session state is explicitly constructed and injected, never global:
	// the registry is the single source of truth for membership, the hub
	// is the per-room multicast fabric, and the controller owns the
	// position batcher.
	registry := session.NewRegistry()
	hub := realtime.NewHub()
	controller := realtime.NewController(registry, hub, logger.WithComponent("realtime"), cfg.Session.BatchWindow)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go controller.RunSweeper(sweepCtx, cfg.Session.SweepInterval, cfg.Session.StaleThreshold)

	router := mux.NewRouter()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Realtime handshake; authentication happens before the upgrade.
	router.HandleFunc("/ws", controller.ServeWS(verifier, cfg.Realtime)).Methods("GET")

	router.HandleFunc("/health", handlers.Health).Methods("GET")
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(600, 1*time.Minute)))

	statsHandlers := handlers.NewStatsHandlers(registry, hub)
	apiRouter.HandleFunc("/stats", statsHandlers.GetStats).Methods("GET")

	systemMetricsHandlers := handlers.NewSystemMetricsHandlers(logger)
	apiRouter.HandleFunc("/system-metrics", systemMetricsHandlers.GetSystemMetrics).Methods("GET")

	if cfg.Auth.EnableDevTokens {
		tokenHandlers := handlers.NewTokenHandlers(verifier, cfg.Auth.TokenTTL)
		apiRouter.HandleFunc("/auth/dev-token", tokenHandlers.MintDevToken).Methods("POST")
		logger.Warn("Dev token endpoint enabled", nil)
	}

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", err, nil)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down", nil)
	stopSweep()

	// Drain pending position batches before tearing the transport down so
	// the last window of updates still reaches clients.
	controller.Shutdown()
	hub.CloseAll()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error", err, nil)
	}
}
