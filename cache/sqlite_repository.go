package cache

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Entry is a row of the holiday_cache table
type Entry struct {
	Namespace string `db:"namespace"`
	Year      int    `db:"year"`
	Data      string `db:"data"`
	// CreatedAt is stored as unix nanoseconds
	CreatedAt int64 `db:"created_at"`
}

type sqliteRepository struct {
	l         log.Logger
	db        *sqlx.DB
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// Migrate brings the cache schema up to date
func Migrate(db *sqlx.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return errors.Wrap(err, "setting migration dialect")
	}
	return errors.Wrap(goose.Up(db.DB, "migrations"), "running migrations")
}

// NewSQLiteRepository initializes a new cache repository backed by the holiday_cache table
func NewSQLiteRepository(l log.Logger, db *sqlx.DB, namespace string, ttl time.Duration) *sqliteRepository {
	namespace, ttl = orDefault(namespace, ttl)
	return &sqliteRepository{
		l:         l,
		db:        db,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Get returns the cached records of a year if they haven't expired yet
func (s *sqliteRepository) Get(ctx context.Context, year int) ([]holiday.Record, bool, error) {
	var entry Entry
	err := s.db.GetContext(ctx, &entry, "SELECT * FROM holiday_cache WHERE namespace=$1 AND year=$2", s.namespace, year)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "selecting cache entry")
	}
	if s.now().Sub(time.Unix(0, entry.CreatedAt)) >= s.ttl {
		level.Debug(s.l).Log("msg", "cache entry expired", "year", year)
		return nil, false, nil
	}
	records, err := decode([]byte(entry.Data))
	if err != nil {
		return nil, false, errors.Wrap(err, "decoding cache entry")
	}
	return records, true, nil
}

// Set replaces the cached records of a year and restarts its TTL
func (s *sqliteRepository) Set(ctx context.Context, year int, records []holiday.Record) error {
	data, err := encode(records)
	if err != nil {
		return errors.Wrap(err, "encoding cache entry")
	}
	_, err = s.db.NamedExecContext(ctx, "INSERT OR REPLACE INTO holiday_cache (namespace, year, data, created_at) VALUES (:namespace, :year, :data, :created_at)",
		Entry{
			Namespace: s.namespace,
			Year:      year,
			Data:      string(data),
			CreatedAt: s.now().UnixNano(),
		})
	return errors.Wrap(err, "writing cache entry")
}
