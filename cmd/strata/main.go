package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stratahq/strata/internal/aggregation"
	corecfg "github.com/stratahq/strata/internal/core/config"
	"github.com/stratahq/strata/internal/core/storage"
	"github.com/stratahq/strata/internal/core/storage/memory"
	"github.com/stratahq/strata/internal/core/storage/postgres"
	"github.com/stratahq/strata/internal/core/storage/redis"
	"github.com/stratahq/strata/internal/core/stream"
	"github.com/stratahq/strata/internal/ingestion"
	"github.com/stratahq/strata/internal/migrations"
	"github.com/stratahq/strata/internal/projection"
	"github.com/stratahq/strata/internal/server"
	"golang.org/x/sync/errgroup"
)

const disposeTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "strata.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath); err != nil {
		slog.Error("Strata stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("Loaded config",
		"database", cfg.Database.Type,
		"usage_store", cfg.Usage.Store,
		"usage_enabled", cfg.Usage.Enabled,
		"projection_rules", cfg.Rules.Len(),
	)
	for _, rule := range cfg.Rules.List() {
		slog.Info("Projection rule loaded",
			"event_type", rule.EventType,
			"kind", rule.Kind,
			"action", rule.Action,
			"fingerprint", rule.Fingerprint,
		)
	}

	checks := make(map[string]server.HealthChecker)

	// 2. Initialize Storage
	var (
		db        *sql.DB
		documents storage.DocumentStore
	)
	switch cfg.Database.Type {
	case corecfg.StorePostgres:
		db, err = postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return fmt.Errorf("initialize database: %w", err)
		}
		defer db.Close()

		// 2.1. Run Database Migrations
		if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
			return fmt.Errorf("run database migrations: %w", err)
		}

		docAdapter, err := postgres.NewDocumentAdapter(db)
		if err != nil {
			return fmt.Errorf("initialize document store: %w", err)
		}
		defer docAdapter.Close()
		documents = docAdapter
		checks["database"] = server.HealthFunc(db.PingContext)
	default:
		slog.Warn("Using in-memory document store; read models are lost on restart")
		documents = memory.NewDocumentStore()
	}

	// 3. Initialize Projection
	resolver, err := stream.NewResolver(cfg.Projection.StreamPrefix)
	if err != nil {
		return fmt.Errorf("initialize stream resolver: %w", err)
	}
	projectionSvc := projection.NewService(projection.NewWriter(documents), cfg.Rules, resolver)

	// 4. Initialize Usage Aggregation
	var aggregator *aggregation.Aggregator
	if cfg.Usage.Enabled {
		usageStore, closeStore, err := openUsageStore(cfg, db)
		if err != nil {
			return err
		}
		defer closeStore()
		if probe, ok := usageStore.(server.HealthChecker); ok {
			checks["redis"] = probe
		}

		aggregator = aggregation.NewAggregator(usageStore, aggregation.Options{
			FlushInterval: cfg.Usage.FlushIntervalDuration(),
		})
		slog.Info("Usage aggregator initialized",
			"store", cfg.Usage.Store,
			"flush_interval", cfg.Usage.FlushIntervalDuration(),
		)
	} else {
		slog.Info("Usage metering disabled by config")
	}

	// 5. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, checks)
	if aggregator != nil {
		ingestion.NewService(projectionSvc, aggregator, cfg.Server.MaxBodySizeMB).RegisterRoutes(srv.Engine)
		aggregator.RegisterRoutes(srv.Engine)
	} else {
		ingestion.NewService(projectionSvc, nil, cfg.Server.MaxBodySizeMB).RegisterRoutes(srv.Engine)
	}

	// 6. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	if aggregator != nil {
		g.Go(func() error {
			// A signal can dispose the aggregator before its loop starts.
			if err := aggregator.Start(gctx); !errors.Is(err, aggregation.ErrDisposed) {
				return err
			}
			return nil
		})
	}

	// HTTP server blocks until gctx is cancelled.
	g.Go(func() error {
		return srv.Run(gctx)
	})

	// Drain buffered usage on shutdown. Usage requests still in flight get 503.
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Signal received, shutting down...")
		if aggregator == nil {
			return nil
		}
		disposeCtx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
		defer cancel()
		return aggregator.Dispose(disposeCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openUsageStore opens the configured usage backend and returns a closer for it.
func openUsageStore(cfg *corecfg.Config, db *sql.DB) (storage.UsageStore, func(), error) {
	noop := func() {}

	switch cfg.Usage.Store {
	case corecfg.StorePostgres:
		return postgres.NewUsageAdapter(db), noop, nil
	case corecfg.StoreRedis:
		client, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize redis: %w", err)
		}
		closer := func() {
			if err := client.Close(); err != nil {
				slog.Error("Failed to close redis client", "error", err)
			}
		}
		return redis.NewUsageAdapter(client, cfg.Redis.TTLDuration()), closer, nil
	default:
		slog.Warn("Using in-memory usage store; counters are lost on restart")
		return memory.NewUsageStore(), noop, nil
	}
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
