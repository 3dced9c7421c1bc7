package cache

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a cache backend
type Config struct {
	Backend   string
	Namespace string
	TTL       time.Duration

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open connects to the configured backend. The returned close function releases its connections.
func Open(ctx context.Context, l log.Logger, cfg Config) (Repository, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryRepository(l, cfg.TTL), noop, nil
	case BackendSQLite:
		db, err := sqlx.Open("sqlite3", cfg.SQLitePath)
		if err != nil {
			return nil, noop, errors.Wrap(err, "opening database")
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, errors.Wrap(err, "pinging database")
		}
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
		if err := Migrate(db); err != nil {
			db.Close()
			return nil, noop, err
		}
		level.Info(l).Log("msg", "connected to cache database", "cache_backend", cfg.Backend, "path", cfg.SQLitePath)
		return NewSQLiteRepository(l, db, cfg.Namespace, cfg.TTL), db.Close, nil
	case BackendRedis:
		c := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := c.Ping(ctx).Err(); err != nil {
			c.Close()
			return nil, noop, errors.Wrap(err, "pinging redis")
		}
		level.Info(l).Log("msg", "connected to redis", "cache_backend", cfg.Backend, "addr", cfg.RedisAddr)
		return NewRedisRepository(l, c, cfg.Namespace, cfg.TTL), c.Close, nil
	default:
		return nil, noop, errors.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
