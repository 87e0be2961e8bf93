// internal/app/app.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"ticketsync/internal/admin"
	"ticketsync/internal/catalog"
	"ticketsync/internal/clients"
	"ticketsync/internal/config"
	"ticketsync/internal/docstore"
	"ticketsync/internal/httpapi"
	"ticketsync/internal/importer"
	"ticketsync/internal/ledger"
	"ticketsync/internal/lock"
	"ticketsync/internal/mapping"
	"ticketsync/internal/matching"
	"ticketsync/internal/occurrence"
	"ticketsync/internal/oplog"
	"ticketsync/internal/pos"
	"ticketsync/internal/reconcile"
	"ticketsync/internal/telemetry"
	"ticketsync/internal/ticketing"
)

// Remotes are the three external systems.
type Remotes struct {
	Catalog  catalog.Service
	Tickets  ticketing.Service
	Register pos.Service
}

// NewRemotes builds the HTTP clients from configuration.
func NewRemotes(cfg config.Config, logger logrus.FieldLogger) Remotes {
	opts := clients.Options{Logger: logger}
	return Remotes{
		Catalog:  clients.NewCatalogClient(cfg.CatalogURL, cfg.CatalogKey, cfg.CatalogSecret, opts),
		Tickets:  clients.NewTicketingClient(cfg.EventbriteBaseURL, cfg.EventbriteToken, cfg.EventbriteOrgID, opts),
		Register: clients.NewPOSClient(cfg.SquareBaseURL, cfg.SquareToken, cfg.SquareLocationID, cfg.Location(), opts),
	}
}

// Infra is the storage side: the document store and its writer lock.
type Infra struct {
	Store  docstore.Store
	Locker lock.Locker
	close  []func() error
}

func (i *Infra) Close() error {
	var first error
	for _, c := range i.close {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenInfra connects to Postgres and Redis when configured and falls back
// to an in-memory store and an in-process lock otherwise.
func OpenInfra(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*Infra, error) {
	infra := &Infra{Store: docstore.NewMemoryStore(), Locker: lock.NewLocal()}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		store := docstore.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		infra.Store = store
		infra.close = append(infra.close, db.Close)
	} else {
		logger.Warn("DATABASE_URL not set; documents are kept in memory")
	}

	if cfg.RedisAddr != "" {
		rdb, err := lock.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.WithField("addr", cfg.RedisAddr).Warn("redis unreachable; document writes are locked in-process only: " + err.Error())
		} else {
			infra.Locker = lock.NewRedis(rdb, logger)
			infra.close = append(infra.close, rdb.Close)
		}
	}

	return infra, nil
}

// App holds the wired domain services.
type App struct {
	Ops       *oplog.Recorder
	Mappings  mapping.Service
	Ledger    ledger.Service
	Reconcile reconcile.Service
	Importer  importer.Service
	Admin     admin.Service
}

func New(cfg config.Config, store docstore.Store, locker lock.Locker, remotes Remotes, counters *telemetry.Counters, logger logrus.FieldLogger) *App {
	loc := cfg.Location()
	tolerance := cfg.TimeTolerance
	ops := oplog.NewRecorder(store, logger, oplog.Modes{TestMode: cfg.TestMode, LiveLogging: cfg.LiveLogging})

	mappings := mapping.NewService(store, locker, ops, logger, tolerance)
	sales := ledger.NewService(store, locker, remotes.Catalog, ops, counters, loc, logger)
	similarity := matching.SimilarText
	if cfg.Similarity == "levenshtein" {
		similarity = matching.LevenshteinSimilarity
	}
	engine := matching.NewEngine(remotes.Tickets, logger, similarity, tolerance)
	discoverer := occurrence.NewDiscoverer(remotes.Tickets, similarity, tolerance, loc, logger)

	return &App{
		Ops:       ops,
		Mappings:  mappings,
		Ledger:    sales,
		Reconcile: reconcile.NewService(mappings, sales, remotes.Catalog, remotes.Tickets, ops, counters, tolerance, logger),
		Importer: importer.NewService(sales, cfg.ImportBatchSize, counters, logger,
			importer.NewOrdersSource(remotes.Catalog, loc),
			importer.NewPOSSource(remotes.Register, mappings, loc),
		),
		Admin: admin.NewService(remotes.Catalog, discoverer, mappings, engine, remotes.Tickets, remotes.Register, ops, logger),
	}
}

// HTTPServices exposes the services the router mounts.
func (a *App) HTTPServices() httpapi.Services {
	return httpapi.Services{
		Mappings:  a.Mappings,
		Ledger:    a.Ledger,
		Reconcile: a.Reconcile,
		Importer:  a.Importer,
		Admin:     a.Admin,
		Oplog:     a.Ops,
	}
}
