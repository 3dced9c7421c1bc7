package cache

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

const (
	// DefaultTTL is how long a parsed year stays valid after it was written
	DefaultTTL = 24 * time.Hour
	// DefaultNamespace prefixes every cache key
	DefaultNamespace = "libur"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Repository is an interface for the year cache. Entries are whole snapshots of
// a year and expire a fixed time after they were written.
type Repository interface {
	Get(ctx context.Context, year int) ([]holiday.Record, bool, error)
	Set(ctx context.Context, year int, records []holiday.Record) error
}

// Key returns the key a year is stored under
func Key(namespace string, year int) string {
	return fmt.Sprintf("%s:%d", namespace, year)
}

func encode(records []holiday.Record) ([]byte, error) {
	if records == nil {
		records = []holiday.Record{}
	}
	return json.Marshal(records)
}

func decode(data []byte) ([]holiday.Record, error) {
	var records []holiday.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []holiday.Record{}
	}
	return records, nil
}

func orDefault(namespace string, ttl time.Duration) (string, time.Duration) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return namespace, ttl
}
