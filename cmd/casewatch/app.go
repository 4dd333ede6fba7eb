package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nhle/casewatch/internal/credential"
	"github.com/nhle/casewatch/internal/events"
	"github.com/nhle/casewatch/internal/model"
	"github.com/nhle/casewatch/internal/seen"
	"github.com/nhle/casewatch/internal/source/hrapi"
	"github.com/nhle/casewatch/internal/store"
	appsync "github.com/nhle/casewatch/internal/sync"
)

// app holds shared state for all CLI subcommands.
type app struct {
	cfg     *model.AppConfig
	log     *zap.Logger
	store   *store.SQLiteStore
	redis   *redis.Client
	seen    *seen.Store
	client  *hrapi.Client
	engine  *appsync.Engine
	metrics *http.Server
}

// newApp opens local storage, loads the seen set and builds the engine.
func newApp(ctx context.Context, cfg *model.AppConfig, log *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	dbPath := cfg.Storage.SQLitePath
	if cfg.Storage.Backend == model.StorageMemory {
		dbPath = ":memory:"
	} else if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", filepath.Dir(dbPath), err)
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open database %q: %w", dbPath, err)
	}
	a.store = s

	if cfg.Storage.Backend == model.StorageRedis || cfg.Events.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
	}

	var backend seen.Backend
	switch cfg.Storage.Backend {
	case model.StorageRedis:
		backend = seen.NewRedisBackend(a.redis, "casewatch:")
	case model.StorageMemory:
		backend = seen.NewMemoryBackend()
	default:
		backend = s
	}
	a.seen = seen.New(backend, log)
	a.seen.Load(ctx)

	token, err := credential.Token()
	if err != nil {
		log.Warn("reading api token", zap.Error(err))
	}
	a.client = hrapi.NewClient(cfg.API.BaseURL, token,
		hrapi.OnTokenRenewed(func(tok string) {
			if err := credential.Set(credential.TokenKey, tok); err != nil {
				log.Warn("saving renewed token", zap.Error(err))
			}
		}),
	)

	a.engine = appsync.NewEngine(
		hrapi.NewAdapter(a.client, time.Local),
		a.seen,
		appsync.WithFetchTimeout(cfg.FetchTimeout()),
		appsync.WithCycleLog(s),
		appsync.WithLogger(log),
	)
	return a, nil
}

// newPoller creates a poller over the app's engine.
func (a *app) newPoller() *appsync.Poller {
	return appsync.New(a.engine, a.cfg.PollInterval(), a.log)
}

// startEvents forwards Redis pub/sub signals to n until ctx is done.
// It is a no-op when events are disabled.
func (a *app) startEvents(ctx context.Context, n events.Notifier) {
	if !a.cfg.Events.Enabled || a.redis == nil {
		return
	}
	sub := events.NewSubscriber(a.redis, a.cfg.Events.RedisChannel, a.log)
	go func() {
		if err := sub.Run(ctx, n); err != nil {
			a.log.Error("event subscriber stopped", zap.Error(err))
		}
	}()
}

// startMetrics serves /metrics on the configured address, if any.
func (a *app) startMetrics() {
	addr := a.cfg.Metrics.Addr
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.Info("metrics server listening", zap.String("addr", addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()
}

// Close releases the database, Redis and metrics resources.
func (a *app) Close() {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metrics.Shutdown(ctx)
		cancel()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	_ = a.store.Close()
}
