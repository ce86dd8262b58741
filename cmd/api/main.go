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

	"golang.org/x/sync/errgroup"

	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/logger"
	"spendwise/internal/middleware"
	"spendwise/internal/notifier"
	"spendwise/internal/server"
	"spendwise/internal/validator"
)

// @title           Spendwise API
// @version         1.0
// @description     Spendwise is a personal expense tracker. Expenses and categories are private to each user, and every change is pushed to the user's connected clients.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	hub := notifier.NewHub(cfg.Notifier.Buffer)
	var publisher notifier.Publisher = hub

	var bridge *notifier.Bridge
	if cfg.Notifier.AMQPURL != "" {
		bridge, err = notifier.DialBridge(cfg.Notifier.AMQPURL, cfg.Notifier.AMQPExchange, hub, cfg.Notifier.Buffer)
		if err != nil {
			return fmt.Errorf("failed to connect notifier bridge: %w", err)
		}
		publisher = bridge
		log.Infof("Relaying change events through exchange %q", cfg.Notifier.AMQPExchange)
	}

	router := server.NewRouter(server.Deps{
		DB:         dbManager.DB(),
		Hub:        hub,
		Publisher:  publisher,
		Tokens:     middleware.NewTokenManager(cfg.JWT),
		CORSOrigin: cfg.CORSOrigin,
	})

	// No WriteTimeout: event streams stay open for the life of the client.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("Starting Spendwise server on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if bridge != nil {
		g.Go(func() error {
			if err := bridge.Run(ctx); err != nil {
				return fmt.Errorf("notifier bridge stopped: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")

		// Event streams never go idle; they must end before Shutdown.
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		if bridge != nil {
			if err := bridge.Close(); err != nil {
				log.Warnf("notifier bridge close error: %v", err)
			}
		}
		log.Info("Server stopped gracefully")
		return nil
	})

	return g.Wait()
}
