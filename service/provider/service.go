package provider

import (
	"context"
	"strconv"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/singleflight"

	"github.com/koreoxy/hari-libur-indonesia-api/cache"
	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
	"github.com/koreoxy/hari-libur-indonesia-api/source"
)

// Service is an interface for getting the holidays of a year
type Service interface {
	Holidays(ctx context.Context, year int) ([]holiday.Record, error)
}

type service struct {
	l     log.Logger
	sr    source.Repository
	pp    source.PageParser
	cr    cache.Repository
	group singleflight.Group
}

// NewService initializes a new holiday provider. It is the only writer of the cache.
func NewService(l log.Logger, sr source.Repository, pp source.PageParser, cr cache.Repository) *service {
	return &service{
		l:  l,
		sr: sr,
		pp: pp,
		cr: cr,
	}
}

// Holidays returns the holidays of a year, from the cache if possible. On a
// miss the page is fetched and parsed once no matter how many callers are
// waiting for the same year, and only a fully parsed result is cached.
func (s *service) Holidays(ctx context.Context, year int) ([]holiday.Record, error) {
	records, ok, err := s.cr.Get(ctx, year)
	switch {
	case err != nil:
		level.Error(s.l).Log("msg", "reading cache failed, fetching instead", "year", year, "err", err)
	case ok:
		level.Debug(s.l).Log("msg", "cache hit", "year", year, "records", len(records))
		return records, nil
	}

	level.Debug(s.l).Log("msg", "cache miss", "year", year)
	// The upstream work outlives a caller that gives up, the next caller gets the cached result
	ch := s.group.DoChan(strconv.Itoa(year), func() (interface{}, error) {
		return s.load(context.WithoutCancel(ctx), year)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]holiday.Record), nil
	}
}

func (s *service) load(ctx context.Context, year int) ([]holiday.Record, error) {
	// A load that finished just before this one started has already cached the year
	if records, ok, err := s.cr.Get(ctx, year); err == nil && ok {
		return records, nil
	}

	page, err := s.sr.Page(ctx, year)
	if err != nil {
		level.Error(s.l).Log("msg", "fetching holiday page failed", "year", year, "err", err)
		return nil, err
	}
	records, err := s.pp.Parse(page)
	if err != nil {
		level.Error(s.l).Log("msg", "parsing holiday page failed", "year", year, "err", err)
		return nil, err
	}
	if len(records) == 0 {
		level.Warn(s.l).Log("msg", "holiday page has no entries, check selectors", "year", year)
	}

	if err := s.cr.Set(ctx, year, records); err != nil {
		level.Error(s.l).Log("msg", "writing cache failed", "year", year, "err", err)
	} else {
		level.Info(s.l).Log("msg", "cached holidays", "year", year, "records", len(records))
	}
	return records, nil
}
