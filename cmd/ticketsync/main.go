// cmd/ticketsync/main.go
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

	"github.com/spf13/pflag"

	"ticketsync/internal/app"
	"ticketsync/internal/auth"
	"ticketsync/internal/config"
	"ticketsync/internal/httpapi"
	"ticketsync/internal/logging"
	"ticketsync/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("ticketsync", pflag.ContinueOnError)
	generateKey := flags.Bool("generate-key", false, "print a new admin API key with its hash and salt, then exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *generateKey {
		return printKey()
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "ticketsync", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	counters, err := telemetry.NewCounters()
	if err != nil {
		return err
	}

	infra, err := app.OpenInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	services := app.New(cfg, infra.Store, infra.Locker, app.NewRemotes(cfg, logger), counters, logger)

	var verifier *auth.Verifier
	if cfg.AdminKeyHash != "" {
		if verifier, err = auth.NewVerifier(cfg.AdminKeyHash, cfg.AdminKeySalt); err != nil {
			return fmt.Errorf("admin key: %w", err)
		}
	} else {
		logger.Warn("ADMIN_API_KEY_HASH not set; the API is unauthenticated")
	}

	webhook := auth.WebhookPolicy{Secret: cfg.WebhookSecret, AllowUnsigned: cfg.AllowUnsignedWebhooks}
	switch {
	case webhook.Secret != "":
	case webhook.AllowUnsigned:
		logger.Warn("CATALOG_WEBHOOK_SECRET not set and unsigned webhooks allowed; anyone can post orders")
	default:
		logger.Warn("CATALOG_WEBHOOK_SECRET not set; order webhooks are refused")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(services.HTTPServices(), verifier, webhook, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("starting ticketsync")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func printKey() error {
	key, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	hash, salt, err := auth.HashKey(key)
	if err != nil {
		return err
	}
	fmt.Printf("API key: %s\n\nADMIN_API_KEY_HASH=%s\nADMIN_API_KEY_SALT=%s\n", key, hash, salt)
	return nil
}
