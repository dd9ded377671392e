package commands

import (
	"context"
	"fmt"

	"github.com/wonny/tradingquiz/internal/auth"
	"github.com/wonny/tradingquiz/internal/contracts"
	"github.com/wonny/tradingquiz/internal/leaderboard"
	"github.com/wonny/tradingquiz/internal/market"
	"github.com/wonny/tradingquiz/internal/quiz"
	"github.com/wonny/tradingquiz/internal/realtime"
	"github.com/wonny/tradingquiz/internal/replay"
	"github.com/wonny/tradingquiz/internal/store/memory"
	"github.com/wonny/tradingquiz/internal/store/postgres"
	"github.com/wonny/tradingquiz/pkg/config"
	"github.com/wonny/tradingquiz/pkg/database"
	"github.com/wonny/tradingquiz/pkg/logger"
	"github.com/wonny/tradingquiz/pkg/redis"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

// app holds every long-lived dependency a command may need.
// ⭐ SSOT: service wiring happens here only
type app struct {
	cfg *config.Config
	log *logger.Logger

	db      *database.DB // nil for the memory store
	store   contracts.Store
	redis   *redis.Client
	cache   *redis.Cache // nil when redis is disabled
	limiter *redis.RateLimiter

	hub      *realtime.Hub
	board    *leaderboard.Service
	history  *market.HistoryService
	importer *market.Importer
	auth     *auth.Service
	quiz     *quiz.Service
	replay   *replay.Service
}

// loadConfig applies global flag overrides on top of the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if storeFlag != "" {
		cfg.Store = storeFlag
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp connects the configured store and redis and builds the services.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	switch cfg.Store {
	case storePostgres:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.store = postgres.New(db.Pool)
		log.Info("Connected to database")
	case storeMemory:
		a.store = memory.New()
		log.Warn("Using in-memory store; data is lost on exit")
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", cfg.Store, storePostgres, storeMemory)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		// Redis only backs caches and limits; run without it.
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rdb = redis.Disabled()
	}
	a.redis = rdb
	a.limiter = redis.NewRateLimiter(rdb, "tradingquiz")
	if rdb.Enabled() {
		a.cache = redis.NewCache(rdb, "tradingquiz")
	}

	a.hub = realtime.NewHub(log)
	a.board = leaderboard.NewService(a.store.Users(), a.cache, cfg.LeaderboardCacheTTL, a.hub, log)

	coingecko := market.NewCoinGeckoClient(cfg.CoinGecko, a.limiter, log)
	a.history = market.NewHistoryService(coingecko, market.DefaultGenerator(), a.cache, redis.PriceHistoryTTL, log)
	a.importer = market.NewImporter(a.history, a.store.Samples(), log)

	a.auth = auth.NewService(a.store.Users(), cfg.Auth, a.limiter, log)
	a.quiz = quiz.NewService(a.store, a.board, a.board, log)
	a.replay = replay.NewService(a.store, a.board, log)

	return a, nil
}

// migrate applies schema migrations; a no-op for the memory store.
func (a *app) migrate(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// ensureSamples imports up to n samples when the pool is empty.
func (a *app) ensureSamples(ctx context.Context, n int) error {
	have, err := a.store.Samples().Count(ctx)
	if err != nil {
		return fmt.Errorf("count samples: %w", err)
	}
	if have > 0 {
		return nil
	}
	imported, err := a.importer.Import(ctx, n)
	if err != nil {
		return fmt.Errorf("import samples: %w", err)
	}
	a.log.WithField("samples", imported).Info("Seeded empty sample pool")
	return nil
}

// Ping implements api.Pinger over whichever store is active.
func (a *app) Ping(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Ping(ctx)
}

// close releases resources in reverse construction order.
func (a *app) close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	if err := a.store.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
	if a.db != nil {
		a.db.Close()
	}
}
