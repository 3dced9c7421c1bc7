package holiday

import (
	"fmt"
	"net/http"
	"strconv"
)

// MinYear is the earliest year queries are accepted for
const MinYear = 1900

// InvalidInputError is returned when a query parameter is rejected before any I/O happens
type InvalidInputError struct {
	Field string
	Value string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// FetchError is returned when the source page for a year could not be retrieved
type FetchError struct {
	Year   int
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 && e.Err != nil {
		return fmt.Sprintf("fetching holidays for %d: upstream returned %d %s: %v", e.Year, e.Status, http.StatusText(e.Status), e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("fetching holidays for %d: upstream returned %d %s", e.Year, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("fetching holidays for %d: %v", e.Year, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError is returned when the source page can't be read as an HTML document
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing holiday page: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseYear validates a year path parameter
func ParseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < MinYear {
		return 0, &InvalidInputError{Field: "year", Value: s}
	}
	return year, nil
}
