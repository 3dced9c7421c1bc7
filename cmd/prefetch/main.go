package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/peterbourgon/ff/v3"

	"github.com/koreoxy/hari-libur-indonesia-api/cache"
	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
	"github.com/koreoxy/hari-libur-indonesia-api/service/provider"
	"github.com/koreoxy/hari-libur-indonesia-api/source"
)

// prefetch warms the cache for a range of years so the first requests after a
// deploy don't all hit the upstream site.
func main() {
	fs := flag.NewFlagSet("hari-libur-prefetch", flag.ExitOnError)
	var (
		from           = fs.Int("from", time.Now().Year(), "first year to prefetch")
		to             = fs.Int("to", time.Now().Year()+1, "last year to prefetch")
		delay          = fs.Duration("delay", 2*time.Second, "pause between upstream requests")
		sourceURL      = fs.String("source-url", source.DefaultURLTemplate, "the per-year holiday page, %d is replaced with the year")
		userAgent      = fs.String("user-agent", "hari-libur-indonesia-api", "the user agent sent upstream")
		cacheBackend   = fs.String("cache-backend", cache.BackendSQLite, "where parsed years are cached: sqlite or redis")
		cacheTTL       = fs.Duration("cache-ttl", cache.DefaultTTL, "how long a parsed year is served from the cache")
		cacheNamespace = fs.String("cache-namespace", cache.DefaultNamespace, "prefix for cache keys")
		sqlitePath     = fs.String("sqlite-path", "hari-libur.db", "the path to the sqlite cache database")
		redisAddr      = fs.String("redis-addr", "localhost:6379", "the redis address")
		redisPassword  = fs.String("redis-password", "", "the redis password")
		redisDB        = fs.Int("redis-db", 0, "the redis database")
	)
	ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("HL"),
	)

	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = level.NewFilter(l, level.AllowInfo())
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	if *from < holiday.MinYear || *to < *from {
		level.Error(l).Log("msg", "invalid year range", "from", *from, "to", *to)
		os.Exit(2)
	}

	ctx := context.Background()
	cr, closeCache, err := cache.Open(ctx, l, cache.Config{
		Backend:       *cacheBackend,
		Namespace:     *cacheNamespace,
		TTL:           *cacheTTL,
		SQLitePath:    *sqlitePath,
		RedisAddr:     *redisAddr,
		RedisPassword: *redisPassword,
		RedisDB:       *redisDB,
	})
	if err != nil {
		level.Error(l).Log("msg", "error setting up cache", "err", err)
		os.Exit(1)
	}
	defer closeCache()

	pp, err := source.NewParser(source.DefaultSelectors)
	if err != nil {
		level.Error(l).Log("msg", "error compiling selectors", "err", err)
		closeCache()
		os.Exit(1)
	}
	ps := provider.NewService(l, source.NewHTTPRepository(l, nil, *sourceURL, *userAgent), pp, cr)

	var failed int
	for year := *from; year <= *to; year++ {
		if year > *from {
			time.Sleep(*delay)
		}
		records, err := ps.Holidays(ctx, year)
		if err != nil {
			level.Error(l).Log("msg", "error prefetching year", "year", year, "err", err)
			failed++
			continue
		}
		level.Info(l).Log("msg", "prefetched year", "year", year, "records", len(records))
	}
	if failed > 0 {
		closeCache()
		os.Exit(1)
	}
}
