package provider

import (
	"context"
	"net/http"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/pkg/errors"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
	"github.com/koreoxy/hari-libur-indonesia-api/source"
)

const page2024 = `<html><body><table>
<tr class="libnas-holiday"><td class="libnas-calendar-holiday-datemonth">1 Januari</td><td class="libnas-calendar-holiday-title">Libur Nasional Tahun Baru</td></tr>
<tr class="libnas-holiday"><td class="libnas-calendar-holiday-datemonth">10 April</td><td class="libnas-calendar-holiday-title">Cuti Bersama Idul Fitri</td></tr>
<tr class="libnas-holiday"><td class="libnas-calendar-holiday-datemonth">21 April</td><td class="libnas-calendar-holiday-title">Hari Kartini</td></tr>
</table></body></html>`

type fakeSource struct {
	calls   int32
	page    string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSource) Page(ctx context.Context, year int) ([]byte, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.page), nil
}

func (f *fakeSource) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}

type fakeCacheEntry struct {
	records []holiday.Record
	written time.Time
}

// fakeCache is an in-memory year cache with a controllable clock
type fakeCache struct {
	mu      sync.Mutex
	now     time.Time
	ttl     time.Duration
	entries map[int]fakeCacheEntry
	writes  int
	getErr  error
	// gets receives a value on every Get when set
	gets chan struct{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		now:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ttl:     24 * time.Hour,
		entries: make(map[int]fakeCacheEntry),
	}
}

func (c *fakeCache) Get(_ context.Context, year int) ([]holiday.Record, bool, error) {
	if c.gets != nil {
		c.gets <- struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	e, ok := c.entries[year]
	if !ok || c.now.Sub(e.written) >= c.ttl {
		return nil, false, nil
	}
	return e.records, true, nil
}

func (c *fakeCache) Set(_ context.Context, year int, records []holiday.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[year] = fakeCacheEntry{records: records, written: c.now}
	c.writes++
	return nil
}

func (c *fakeCache) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeCache) has(year int) bool {
	_, ok, _ := c.Get(context.Background(), year)
	return ok
}

func newTestService(t *testing.T, src *fakeSource, c *fakeCache) *service {
	t.Helper()
	pp, err := source.NewParser(source.DefaultSelectors)
	if err != nil {
		t.Fatal(err)
	}
	return NewService(log.NewNopLogger(), src, pp, c)
}

func TestService_HolidaysCachesResult(t *testing.T) {
	src := &fakeSource{page: page2024}
	c := newFakeCache()
	s := newTestService(t, src, c)
	ctx := context.Background()

	first, err := s.Holidays(ctx, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 {
		t.Fatalf("got %d records, want 3", len(first))
	}
	second, err := s.Holidays(ctx, 2024)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result differs: %+v vs %+v", first, second)
	}
	if src.Calls() != 1 {
		t.Errorf("got %d fetches, want 1", src.Calls())
	}
}

func TestService_HolidaysRefetchesAfterTTL(t *testing.T) {
	src := &fakeSource{page: page2024}
	c := newFakeCache()
	s := newTestService(t, src, c)
	ctx := context.Background()

	if _, err := s.Holidays(ctx, 2024); err != nil {
		t.Fatal(err)
	}
	c.advance(23 * time.Hour)
	if _, err := s.Holidays(ctx, 2024); err != nil {
		t.Fatal(err)
	}
	if src.Calls() != 1 {
		t.Fatalf("got %d fetches before TTL, want 1", src.Calls())
	}
	c.advance(2 * time.Hour)
	if _, err := s.Holidays(ctx, 2024); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Holidays(ctx, 2024); err != nil {
		t.Fatal(err)
	}
	if src.Calls() != 2 {
		t.Errorf("got %d fetches after TTL, want 2", src.Calls())
	}
}

func TestService_HolidaysErrorsAreNotCached(t *testing.T) {
	tests := []struct {
		name    string
		src     *fakeSource
		wantErr interface{}
	}{
		{"fetch error", &fakeSource{err: &holiday.FetchError{Year: 2024, Status: http.StatusBadGateway}}, &holiday.FetchError{}},
		{"parse error", &fakeSource{page: ""}, &holiday.ParseError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeCache()
			s := newTestService(t, tt.src, c)
			_, err := s.Holidays(context.Background(), 2024)
			if err == nil {
				t.Fatal("expected error")
			}
			switch tt.wantErr.(type) {
			case *holiday.FetchError:
				var fe *holiday.FetchError
				if !errors.As(err, &fe) {
					t.Errorf("got %T, want *holiday.FetchError", err)
				}
			case *holiday.ParseError:
				var pe *holiday.ParseError
				if !errors.As(err, &pe) {
					t.Errorf("got %T, want *holiday.ParseError", err)
				}
			}
			if c.writes != 0 || c.has(2024) {
				t.Errorf("failed load was written to the cache")
			}
			// The next call retries upstream
			s.Holidays(context.Background(), 2024)
			if tt.src.Calls() != 2 {
				t.Errorf("got %d fetches, want 2", tt.src.Calls())
			}
		})
	}
}

func TestService_HolidaysCacheReadErrorFallsBackToFetch(t *testing.T) {
	src := &fakeSource{page: page2024}
	c := newFakeCache()
	c.getErr = errors.New("database is locked")
	s := newTestService(t, src, c)

	records, err := s.Holidays(context.Background(), 2024)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 || src.Calls() != 1 {
		t.Errorf("got %d records and %d fetches, want 3 and 1", len(records), src.Calls())
	}
}

func TestService_HolidaysConcurrentMisses(t *testing.T) {
	const callers = 8
	src := &fakeSource{page: page2024, started: make(chan struct{}, callers), release: make(chan struct{})}
	c := newFakeCache()
	c.gets = make(chan struct{}, 4*callers)
	s := newTestService(t, src, c)

	var wg sync.WaitGroup
	results := make([][]holiday.Record, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Holidays(context.Background(), 2024)
		}(i)
	}

	<-src.started
	// Every caller has missed the cache and the load re-checked it once.
	// Callers that join the group after the load finishes find the cached year.
	for i := 0; i < callers+1; i++ {
		<-c.gets
	}
	close(src.release)
	wg.Wait()

	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if !reflect.DeepEqual(results[i], results[0]) {
			t.Errorf("caller %d got %+v, want %+v", i, results[i], results[0])
		}
	}
	if src.Calls() != 1 {
		t.Errorf("got %d fetches, want 1", src.Calls())
	}
	if c.writes != 1 || !c.has(2024) {
		t.Errorf("got %d cache writes, want exactly 1", c.writes)
	}
}

func TestService_HolidaysCallerCancellation(t *testing.T) {
	src := &fakeSource{page: page2024, started: make(chan struct{}, 1), release: make(chan struct{})}
	c := newFakeCache()
	s := newTestService(t, src, c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		_, err := s.Holidays(ctx, 2024)
		done <- err
	}()

	<-src.started
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}

	close(src.release)
	deadline := time.Now().Add(2 * time.Second)
	for !c.has(2024) {
		if time.Now().After(deadline) {
			t.Fatal("abandoned load never populated the cache")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := s.Holidays(context.Background(), 2024); err != nil {
		t.Fatal(err)
	}
	if src.Calls() != 1 {
		t.Errorf("got %d fetches, want 1", src.Calls())
	}
}
