package holidayapi

import (
	"context"

	"github.com/go-kit/log"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
	"github.com/koreoxy/hari-libur-indonesia-api/service/provider"
)

// Response is the payload of every holiday query
type Response struct {
	Year    int              `json:"year"`
	Bulan   string           `json:"bulan,omitempty"`
	Tanggal string           `json:"tanggal,omitempty"`
	Total   int              `json:"total"`
	Data    []holiday.Record `json:"data"`
}

// Service is an interface for querying holidays of a year
type Service interface {
	Year(ctx context.Context, year string) (*Response, error)
	Month(ctx context.Context, year string, month string) (*Response, error)
	Date(ctx context.Context, year string, prefix string) (*Response, error)
}

type service struct {
	l  log.Logger
	ps provider.Service
}

// NewService initializes a new holiday query service
func NewService(l log.Logger, ps provider.Service) *service {
	return &service{
		l:  l,
		ps: ps,
	}
}

// Year returns every holiday of a year
func (s *service) Year(ctx context.Context, year string) (*Response, error) {
	y, records, err := s.holidays(ctx, year)
	if err != nil {
		return nil, err
	}
	return newResponse(y, records), nil
}

// Month returns the holidays whose date mentions the month, e.g. "januari"
func (s *service) Month(ctx context.Context, year string, month string) (*Response, error) {
	month, err := token("bulan", month)
	if err != nil {
		return nil, err
	}
	y, records, err := s.holidays(ctx, year)
	if err != nil {
		return nil, err
	}
	resp := newResponse(y, holiday.FilterByMonth(records, month))
	resp.Bulan = month
	return resp, nil
}

// Date returns the holidays whose date starts with the prefix, e.g. "17 Agustus"
func (s *service) Date(ctx context.Context, year string, prefix string) (*Response, error) {
	prefix, err := token("tanggal", prefix)
	if err != nil {
		return nil, err
	}
	y, records, err := s.holidays(ctx, year)
	if err != nil {
		return nil, err
	}
	resp := newResponse(y, holiday.FilterByDatePrefix(records, prefix))
	resp.Tanggal = prefix
	return resp, nil
}

// holidays validates the year before anything touches the cache or upstream
func (s *service) holidays(ctx context.Context, year string) (int, []holiday.Record, error) {
	y, err := holiday.ParseYear(year)
	if err != nil {
		return 0, nil, err
	}
	records, err := s.ps.Holidays(ctx, y)
	if err != nil {
		return 0, nil, err
	}
	return y, records, nil
}

func token(field string, v string) (string, error) {
	if v == "" {
		return "", &holiday.InvalidInputError{Field: field, Value: v}
	}
	return v, nil
}

func newResponse(year int, records []holiday.Record) *Response {
	if records == nil {
		records = []holiday.Record{}
	}
	return &Response{
		Year:  year,
		Total: len(records),
		Data:  records,
	}
}
