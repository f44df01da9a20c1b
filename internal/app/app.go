package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/arnabmitra/topcap-index/internal/cache"
	"github.com/arnabmitra/topcap-index/internal/config"
	"github.com/arnabmitra/topcap-index/internal/database"
	"github.com/arnabmitra/topcap-index/internal/index"
	"github.com/arnabmitra/topcap-index/internal/indexstore"
	"github.com/arnabmitra/topcap-index/internal/ingest"
	"github.com/arnabmitra/topcap-index/internal/lock"
	"github.com/arnabmitra/topcap-index/internal/metrics"
	"github.com/arnabmitra/topcap-index/internal/worker"
)

type store interface {
	index.Store
	ingest.Store
}

type readCache interface {
	index.Cache
	Ping(ctx context.Context) error
}

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	router   *chi.Mux
	db       *pgxpool.Pool
	sqlDB    *sql.DB
	rdb      *redis.Client
	registry *prometheus.Registry
	store    store
	cache    readCache
	service  *index.Service
	handler  http.Handler
}

func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		router: chi.NewRouter(),
	}
}

// Init opens the store and cache and wires the index service.
func (a *App) Init(ctx context.Context) error {
	if err := a.openStore(ctx); err != nil {
		return err
	}

	locker := a.openCache()

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := index.Options{
		Size:              a.cfg.Index.Size,
		LockTTL:           a.cfg.Build.LockTTL,
		InvalidateOnBuild: a.cfg.Cache.InvalidateOnBuild,
		Metrics:           metrics.New(a.registry),
	}
	if a.cfg.Build.LockEnabled {
		opts.Locker = locker
	}
	a.service = index.NewService(a.store, a.cache, a.logger, opts)
	return nil
}

func (a *App) openStore(ctx context.Context) error {
	switch a.cfg.Database.Driver {
	case "sqlite":
		db, err := database.OpenSQLite(a.cfg.Database.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open sqlite: %w", err)
		}
		a.sqlDB = db
		if a.cfg.Database.Migrate {
			if err := database.MigrateSQLite(db); err != nil {
				return fmt.Errorf("failed to migrate sqlite: %w", err)
			}
		}
		a.store = indexstore.NewSQLite(db)
		a.logger.Info("using sqlite store", slog.String("path", a.cfg.Database.SQLitePath))
	default:
		if a.cfg.Database.Migrate {
			if err := database.Migrate(a.cfg.Database.URL); err != nil {
				return fmt.Errorf("failed to migrate db: %w", err)
			}
		}
		db, err := database.Connect(ctx, a.cfg.Database.URL, a.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to db: %w", err)
		}
		a.db = db
		a.store = indexstore.NewPostgres(db)
	}
	return nil
}

// openCache sets up the read cache and returns the matching build locker.
func (a *App) openCache() lock.Locker {
	if a.cfg.Cache.Backend == "memory" {
		a.cache = cache.NewMemory(a.cfg.Cache.TTL)
		return lock.NewLocalLocker()
	}

	a.rdb = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.cache = cache.NewRedis(a.rdb, a.cfg.Cache.TTL)
	return lock.NewRedisLocker(a.rdb)
}

func (a *App) Service() *index.Service {
	return a.service
}

// Ingestor fetches market data into the app's store.
func (a *App) Ingestor() *ingest.Ingestor {
	client := &http.Client{Timeout: 30 * time.Second}
	return ingest.NewIngestor(
		ingest.NewWikipediaUniverse(client, a.cfg.Ingest.UniverseURL),
		ingest.NewYahooClient(client, a.cfg.Ingest.YahooBaseURL),
		a.store,
		a.logger,
		a.cfg.Ingest.Concurrency,
	)
}

// Handler returns the router, loading the routes on first use.
func (a *App) Handler() http.Handler {
	if a.handler == nil {
		a.loadRoutes()
		if a.cfg.HTTP.Profiling {
			a.loadProfilingRoutes()
		}
		a.handler = a.router
	}
	return a.handler
}

// Start serves HTTP until ctx is cancelled. Init must have been called.
func (a *App) Start(ctx context.Context) error {
	server := http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfg.Ingest.Enabled {
		collector := worker.NewIndexCollector(a.Ingestor(), a.service, a.logger, a.cfg.Ingest.Interval, a.cfg.Ingest.LookbackDays)
		collector.Start()
		defer collector.Stop()
	}

	done := make(chan struct{})
	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("failed to listen and serve", slog.Any("error", err))
		}
		close(done)
	}()

	a.logger.Info("Server listening", slog.String("addr", a.cfg.HTTP.Addr))
	select {
	case <-done:
		break
	case <-ctx.Done():
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		server.Shutdown(ctx)
		cancel()
	}

	return nil
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			a.logger.Warn("failed to close sqlite", slog.Any("error", err))
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("failed to close redis", slog.Any("error", err))
		}
	}
}

func (a *App) pingDatabase(ctx context.Context) error {
	if a.db != nil {
		return a.db.Ping(ctx)
	}
	return a.sqlDB.PingContext(ctx)
}
