// cmd/backfill/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"ticketsync/internal/app"
	"ticketsync/internal/config"
	"ticketsync/internal/importer"
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
	var (
		from, to string
		sources  []string
		retries  int
		pause    time.Duration
	)
	flags := pflag.NewFlagSet("backfill", pflag.ContinueOnError)
	flags.StringVar(&from, "from", "", "first sale date to import (YYYY-MM-DD)")
	flags.StringVar(&to, "to", "", "last sale date to import (YYYY-MM-DD)")
	flags.StringSliceVar(&sources, "source", []string{importer.SourceOrders, importer.SourcePOS}, "sources to import, in order")
	flags.IntVar(&retries, "retries", 3, "attempts per failing step before giving up")
	flags.DurationVar(&pause, "pause", 500*time.Millisecond, "delay between steps")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if from == "" || to == "" {
		return errors.New("--from and --to are required")
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	req := importer.StepRequest{StartDate: from, EndDate: to, Sources: sources}
	return drive(ctx, services.Importer, req, retries, pause, func(line string) {
		fmt.Println(line)
	})
}

// drive runs import steps until the importer reports completion. A failed
// step is retried from the cursor it returned.
func drive(ctx context.Context, svc importer.Service, req importer.StepRequest, retries int, pause time.Duration, emit func(string)) error {
	failures := 0
	for {
		res, err := svc.Step(ctx, req)
		if err != nil {
			var stepErr *importer.StepError
			if !errors.As(err, &stepErr) {
				return err
			}
			for _, l := range stepErr.Logs {
				emit(fmt.Sprintf("[%s] %s", l.Type, l.Message))
			}
			failures++
			if failures >= retries {
				return err
			}
			emit(fmt.Sprintf("step failed (%v); retrying %d/%d", err, failures, retries-1))
			cursor := stepErr.Cursor
			req.Cursor = &cursor
		} else {
			failures = 0
			for _, l := range res.Logs {
				emit(fmt.Sprintf("[%s] %s", l.Type, l.Message))
			}
			emit(fmt.Sprintf("%3d%% %s", res.Progress, res.Message))
			if res.Next == nil {
				return nil
			}
			req.Cursor = res.Next
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pause):
		}
	}
}
