package troupe

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/troupe-ai/troupe/cache"
	"github.com/troupe-ai/troupe/config"
	"github.com/troupe-ai/troupe/conversation/sqlstore"
	"github.com/troupe-ai/troupe/logging"
	"github.com/troupe-ai/troupe/protocol"
)

// FromConfig translates a loaded configuration into constructor options:
//
//	cfg, err := config.Load("troupe.yaml")
//	opts, err := troupe.FromConfig(ctx, cfg)
//	orchestrator := troupe.New(opts...)
//
// The sql event store backend opens its database here; callers using it must
// import the database driver (the examples use modernc.org/sqlite).
func FromConfig(ctx context.Context, cfg config.Config) ([]func(o *Options), error) {
	opts := []func(o *Options){
		WithLogger(logging.New(&logging.Config{
			Level:  logging.ParseLevel(cfg.Logging.Level),
			Format: cfg.Logging.Format,
		})),
		WithAgentType(cfg.AgentType),
		WithEscalationThreshold(cfg.EscalationThreshold),
		WithCallTimeout(cfg.CallTimeout()),
	}

	if cfg.RateLimit.RequestsPerSecond > 0 {
		opts = append(opts, WithProtocolOptions(
			protocol.WithRateLimit(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)))
	}

	switch cfg.Cache.Backend {
	case "", "memory":
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		opts = append(opts, WithCache(cache.NewRedisCache(client)))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	switch cfg.EventStore.Backend {
	case "", "memory":
	case "sql":
		db, err := sql.Open("sqlite", cfg.EventStore.DSN)
		if err != nil {
			return nil, fmt.Errorf("open event store: %w", err)
		}
		store := sqlstore.New(db)
		if err := store.Init(ctx); err != nil {
			return nil, fmt.Errorf("init event store: %w", err)
		}
		opts = append(opts, WithEventStore(store))
	default:
		return nil, fmt.Errorf("unknown event store backend %q", cfg.EventStore.Backend)
	}

	return opts, nil
}
