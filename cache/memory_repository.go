package cache

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

type memoryEntry struct {
	records   []holiday.Record
	createdAt time.Time
}

type memoryRepository struct {
	l       log.Logger
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[int]memoryEntry
}

// NewMemoryRepository initializes a new in-process cache repository
func NewMemoryRepository(l log.Logger, ttl time.Duration) *memoryRepository {
	_, ttl = orDefault("", ttl)
	return &memoryRepository{
		l:       l,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[int]memoryEntry),
	}
}

// Get returns the cached records of a year if they haven't expired yet
func (s *memoryRepository) Get(_ context.Context, year int) ([]holiday.Record, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[year]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(e.createdAt) >= s.ttl {
		level.Debug(s.l).Log("msg", "cache entry expired", "year", year)
		return nil, false, nil
	}
	return append([]holiday.Record{}, e.records...), true, nil
}

// Set replaces the cached records of a year and restarts its TTL
func (s *memoryRepository) Set(_ context.Context, year int, records []holiday.Record) error {
	e := memoryEntry{
		records:   append([]holiday.Record{}, records...),
		createdAt: s.now(),
	}
	s.mu.Lock()
	s.entries[year] = e
	s.mu.Unlock()
	return nil
}
