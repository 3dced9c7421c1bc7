package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dghubble/sling"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

const (
	// DefaultURLTemplate is the per-year page on the upstream site, %d is replaced with the year
	DefaultURLTemplate = "https://www.liburnasional.com/kalender-%d/"
	// DefaultTimeout bounds a single upstream request
	DefaultTimeout = 15 * time.Second

	maxPageSize = 5 << 20
)

var errPageTooLarge = errors.Errorf("page exceeds %d bytes", maxPageSize)

// pageDecoder reads the raw body into a *[]byte, refusing pages over the size limit
type pageDecoder struct {
	limit int64
}

func (d pageDecoder) Decode(resp *http.Response, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, d.limit+1))
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	if int64(len(body)) > d.limit {
		return errPageTooLarge
	}
	*v.(*[]byte) = body
	return nil
}

type httpRepository struct {
	l           log.Logger
	c           *http.Client
	urlTemplate string
	userAgent   string
	maxSize     int64
}

// NewHTTPRepository initializes a new repository fetching pages from the upstream site
func NewHTTPRepository(l log.Logger, c *http.Client, urlTemplate string, userAgent string) *httpRepository {
	if c == nil {
		c = &http.Client{Timeout: DefaultTimeout}
	}
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &httpRepository{
		l:           l,
		c:           c,
		urlTemplate: urlTemplate,
		userAgent:   userAgent,
		maxSize:     maxPageSize,
	}
}

// URL returns the page URL for a given year
func (s *httpRepository) URL(year int) string {
	return fmt.Sprintf(s.urlTemplate, year)
}

// Page fetches the page for a year in a single attempt. Transport failures,
// non-2xx responses and unreadable or oversized bodies are returned as
// *holiday.FetchError, a partial page is never returned.
func (s *httpRepository) Page(ctx context.Context, year int) ([]byte, error) {
	sl := sling.New().
		Doer(s.c).
		ResponseDecoder(pageDecoder{limit: s.maxSize}).
		Set("Accept", "text/html")
	if s.userAgent != "" {
		sl = sl.Set("User-Agent", s.userAgent)
	}
	req, err := sl.Get(s.URL(year)).Request()
	if err != nil {
		return nil, &holiday.FetchError{Year: year, Err: errors.Wrap(err, "building request")}
	}

	level.Debug(s.l).Log("msg", "fetching holiday page", "year", year, "url", req.URL.String())
	var page []byte
	resp, err := sl.Do(req.WithContext(ctx), &page, nil)
	if resp == nil {
		return nil, &holiday.FetchError{Year: year, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &holiday.FetchError{Year: year, Status: resp.StatusCode}
	}
	if err != nil {
		return nil, &holiday.FetchError{Year: year, Status: resp.StatusCode, Err: err}
	}
	return page, nil
}
