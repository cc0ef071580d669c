// Package app wires the configured stores, lock, notifier and services
// shared by the server and the cronjob binaries.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	httpapi "service-portal-backend/internal/api/http"
	"service-portal-backend/internal/audit"
	"service-portal-backend/internal/config"
	"service-portal-backend/internal/ledger"
	"service-portal-backend/internal/locker"
	"service-portal-backend/internal/logger"
	"service-portal-backend/internal/metrics"
	"service-portal-backend/internal/migration"
	"service-portal-backend/internal/notify"
	"service-portal-backend/internal/repository"
	"service-portal-backend/internal/repository/memory"
	"service-portal-backend/internal/repository/postgres"
	"service-portal-backend/internal/security"
	"service-portal-backend/internal/service"
)

type App struct {
	Config       *config.Config
	Sources      repository.Sources
	Ledger       repository.LedgerRepository
	Engine       *ledger.Engine
	Requests     service.RequestService
	Transactions service.LedgerService
	Tokens       security.TokenManager
	Registry     *prometheus.Registry
	Metrics      *metrics.Metrics
	// Health is nil for the memory driver.
	Health httpapi.Pinger

	closers []func() error
}

// New builds the application from cfg. Close releases what it opened.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Tokens:   security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL()),
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	auditLog, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	lock, err := a.openLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	amounts, err := cfg.Ledger.DefaultAmounts()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Engine = ledger.NewEngine(a.Sources, a.Ledger,
		ledger.WithLocker(lock),
		ledger.WithAudit(auditLog),
		ledger.WithNotifier(notify.Async(newNotifier(cfg.Email), cfg.EmailTimeout())),
		ledger.WithMetrics(a.Metrics),
		ledger.WithDefaultAmounts(amounts),
	)
	a.Requests = service.NewRequestService(a.Sources, a.Ledger, a.Engine, auditLog, a.Metrics)
	a.Transactions = service.NewLedgerService(a.Ledger, a.Engine)
	return a, nil
}

func (a *App) openStores(ctx context.Context) (audit.Logger, error) {
	cfg := a.Config
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory stores, data is lost on restart")
		a.Sources = memory.NewSources()
		a.Ledger = memory.NewLedgerStore()
		return audit.NewSlogLogger(), nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established", "host", cfg.Database.Host, "database", cfg.Database.Database)

	if cfg.Database.AutoMigrate {
		if err := migration.Up(db); err != nil {
			return nil, err
		}
		logger.Info("Database migrations applied")
	}

	store := postgres.NewStore(db)
	a.Sources = store.Sources
	a.Ledger = store.LedgerRepository
	a.Health = store
	return audit.NewStoreLogger(store.Audit), nil
}

func (a *App) openLocker(ctx context.Context) (locker.Locker, error) {
	cfg := a.Config.Lock
	if cfg.Type != "redis" {
		return locker.NewKeyedMutex(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	a.closers = append(a.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Info("Using redis lock", "addr", cfg.RedisAddr, "prefix", cfg.Prefix)
	return locker.NewRedisLocker(client, cfg.Prefix, a.Config.LockTTL(), a.Config.LockWait()), nil
}

func newNotifier(cfg config.EmailConfig) notify.Notifier {
	if cfg.Provider == "sendgrid" {
		logger.Info("Using SendGrid notifier", "from", cfg.FromEmail)
		return notify.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName)
	}
	return notify.NewLogNotifier()
}

// Router returns the HTTP API handler.
func (a *App) Router() http.Handler {
	return httpapi.NewRouter(httpapi.RouterDeps{
		Requests:     a.Requests,
		Ledger:       a.Transactions,
		TokenManager: a.Tokens,
		Metrics:      a.Metrics,
		Gatherer:     a.Registry,
		Health:       a.Health,
	})
}

// ReconcileNow runs one reconcile pass over the configured lookback.
func (a *App) ReconcileNow(ctx context.Context) (ledger.ReconcileResult, error) {
	return a.Engine.ReconcileSince(ctx, time.Now().UTC().Add(-a.Config.ReconcileLookback()))
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
