package source

import (
	"context"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

// Repository is an interface for retrieving the raw holiday page of a year
type Repository interface {
	Page(ctx context.Context, year int) ([]byte, error)
}

// PageParser is an interface for turning a raw holiday page into records
type PageParser interface {
	Parse(page []byte) ([]holiday.Record, error)
}
