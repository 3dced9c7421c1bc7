package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/peterbourgon/ff/v3"

	"github.com/koreoxy/hari-libur-indonesia-api/cache"
	"github.com/koreoxy/hari-libur-indonesia-api/service/holidayapi"
	"github.com/koreoxy/hari-libur-indonesia-api/service/provider"
	"github.com/koreoxy/hari-libur-indonesia-api/source"
)

//go:embed docs.html
var docsHTML []byte

type serviceInfo struct {
	Name      string   `json:"name"`
	Source    string   `json:"source"`
	Docs      string   `json:"docs"`
	Endpoints []string `json:"endpoints"`
}

func main() {
	fs := flag.NewFlagSet("hari-libur", flag.ExitOnError)
	var (
		environment    = fs.String("environment", "develop", "the environment we are running in")
		port           = fs.String("port", "8080", "the port the api is running on")
		sourceURL      = fs.String("source-url", source.DefaultURLTemplate, "the per-year holiday page, %d is replaced with the year")
		sourceTimeout  = fs.Duration("source-timeout", source.DefaultTimeout, "timeout for a single upstream request")
		userAgent      = fs.String("user-agent", "hari-libur-indonesia-api", "the user agent sent upstream")
		cacheBackend   = fs.String("cache-backend", cache.BackendMemory, "where parsed years are cached: memory, sqlite or redis")
		cacheTTL       = fs.Duration("cache-ttl", cache.DefaultTTL, "how long a parsed year is served from the cache")
		cacheNamespace = fs.String("cache-namespace", cache.DefaultNamespace, "prefix for cache keys")
		sqlitePath     = fs.String("sqlite-path", "hari-libur.db", "the path to the sqlite cache database")
		redisAddr      = fs.String("redis-addr", "localhost:6379", "the redis address")
		redisPassword  = fs.String("redis-password", "", "the redis password")
		redisDB        = fs.Int("redis-db", 0, "the redis database")
		selectorEntry  = fs.String("selector-entry", source.DefaultSelectors.Entry, "css selector matching one holiday entry")
		selectorDate   = fs.String("selector-date", source.DefaultSelectors.Date, "css selector for the date inside an entry")
		selectorTitle  = fs.String("selector-title", source.DefaultSelectors.Title, "css selector for the title inside an entry")
	)

	ff.Parse(fs, os.Args[1:],
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithEnvVarPrefix("HL"),
	)

	// Most PaaS hosts only hand out a plain PORT
	if os.Getenv("PORT") != "" {
		*port = os.Getenv("PORT")
	}

	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	switch strings.ToLower(*environment) {
	case "development":
		l = level.NewFilter(l, level.AllowInfo())
	case "prod":
		l = level.NewFilter(l, level.AllowError())
	}
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	pp, err := source.NewParser(source.Selectors{
		Entry: *selectorEntry,
		Date:  *selectorDate,
		Title: *selectorTitle,
	})
	if err != nil {
		level.Error(l).Log("msg", "error compiling selectors", "err", err)
		return
	}

	cr, closeCache, err := cache.Open(context.Background(), l, cache.Config{
		Backend:       *cacheBackend,
		Namespace:     *cacheNamespace,
		TTL:           *cacheTTL,
		SQLitePath:    *sqlitePath,
		RedisAddr:     *redisAddr,
		RedisPassword: *redisPassword,
		RedisDB:       *redisDB,
	})
	if err != nil {
		level.Error(l).Log("msg", "error setting up cache", "cache_backend", *cacheBackend, "err", err)
		return
	}
	defer closeCache()

	sr := source.NewHTTPRepository(l, &http.Client{Timeout: *sourceTimeout}, *sourceURL, *userAgent)
	providerService := provider.NewService(l, sr, pp, cr)
	queryService := holidayapi.NewService(l, providerService)

	// Set up HTTP API
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(*sourceTimeout + 5*time.Second))
	r.Use(allowCORS)

	info := serviceInfo{
		Name:   "hari-libur-indonesia-api",
		Source: *sourceURL,
		Docs:   "/docs",
		Endpoints: []string{
			"GET /api/libur/{year}",
			"GET /api/libur/{year}/bulan/{bulan}",
			"GET /api/libur/{year}/tanggal/{tanggal}",
		},
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		holidayapi.WriteJSON(l, w, http.StatusOK, info)
	})
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(docsHTML)
	})

	r.Mount("/api/libur", holidayapi.NewHandler(l, queryService))

	level.Info(l).Log("msg", fmt.Sprintf("hari-libur-indonesia-api is running on :%s", *port), "environment", *environment, "cache_backend", *cacheBackend)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", *port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		level.Error(l).Log("err", err)
		return
	}
}

// allowCORS lets browsers call the read-only API from any origin
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
