// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/canchapro/canchapro/internal/api/complexes"
	"github.com/canchapro/canchapro/internal/api/courts"
	apipayments "github.com/canchapro/canchapro/internal/api/payments"
	"github.com/canchapro/canchapro/internal/api/reservations"
	"github.com/canchapro/canchapro/internal/config"
	"github.com/canchapro/canchapro/internal/db"
	"github.com/canchapro/canchapro/internal/email"
	"github.com/canchapro/canchapro/internal/payments"
	"github.com/canchapro/canchapro/internal/ratelimit"
	"github.com/canchapro/canchapro/internal/scheduler"
)

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	limiter := ratelimit.New(nil)
	defer limiter.Close()

	var emailSender email.EmailSender
	var sesClient *email.SESClient
	if cfg.Email.AccessKeyID != "" && cfg.Email.SecretAccessKey != "" {
		sesClient, err = email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create email client")
		}
		emailSender = sesClient
	} else {
		log.Warn().Msg("Email credentials not set, receipts and reminders disabled")
	}

	complexes.InitHandlers(database.Queries)
	courts.InitHandlers(database.Queries)
	reservations.InitHandlers(database.Queries)
	apipayments.InitHandlers(
		database,
		payments.NewCulqiClient(cfg.Payments.CulqiSecretKey),
		limiter,
		emailSender,
		apipayments.Options{Currency: cfg.Payments.Currency},
	)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	expiry := time.Duration(cfg.Reservations.PendingExpiryMinutes) * time.Minute
	if err := scheduler.RegisterExpiryJob(database, expiry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register hold expiry job")
	}
	if sesClient != nil {
		if err := scheduler.RegisterReminderJobs(database, sesClient, cfg.Reservations.ReminderHoursBefore, cfg.Email.Sender); err != nil {
			log.Fatal().Err(err).Msg("Failed to register reminder jobs")
		}
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
