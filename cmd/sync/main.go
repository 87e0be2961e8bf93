// cmd/sync/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"ticketsync/internal/app"
	"ticketsync/internal/config"
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
	flags := pflag.NewFlagSet("sync", pflag.ContinueOnError)
	timeout := flags.Duration("timeout", 5*time.Minute, "abort the pass after this long")
	dryRun := flags.Bool("dry-run", false, "report would-be updates without writing (forces test mode)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg := config.Load()
	if *dryRun {
		cfg.TestMode = true
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

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

	report, err := services.Reconcile.Sync(ctx)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(report); encErr != nil {
		return encErr
	}
	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d mappings failed to sync", report.Failed, report.Checked)
	}
	return nil
}
