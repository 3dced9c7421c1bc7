package cache

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

type redisRepository struct {
	l         log.Logger
	c         *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedisRepository initializes a new cache repository storing each year under its own expiring key
func NewRedisRepository(l log.Logger, c *redis.Client, namespace string, ttl time.Duration) *redisRepository {
	namespace, ttl = orDefault(namespace, ttl)
	return &redisRepository{
		l:         l,
		c:         c,
		namespace: namespace,
		ttl:       ttl,
	}
}

// Get returns the cached records of a year, expiry is left to redis
func (s *redisRepository) Get(ctx context.Context, year int) ([]holiday.Record, bool, error) {
	data, err := s.c.Get(ctx, Key(s.namespace, year)).Bytes()
	if errors.Is(err, redis.Nil) {
		level.Debug(s.l).Log("msg", "cache key not found", "year", year)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "getting cache entry")
	}
	records, err := decode(data)
	if err != nil {
		return nil, false, errors.Wrap(err, "decoding cache entry")
	}
	return records, true, nil
}

// Set replaces the cached records of a year and restarts its TTL
func (s *redisRepository) Set(ctx context.Context, year int, records []holiday.Record) error {
	data, err := encode(records)
	if err != nil {
		return errors.Wrap(err, "encoding cache entry")
	}
	return errors.Wrap(s.c.Set(ctx, Key(s.namespace, year), data, s.ttl).Err(), "setting cache entry")
}
