package source

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/pkg/errors"

	"github.com/koreoxy/hari-libur-indonesia-api/holiday"
)

// Selectors describe where holiday entries live in the upstream markup. When
// the site changes its layout this is the only thing that needs to change.
type Selectors struct {
	// Entry matches one element per holiday
	Entry string
	// Date and Title are looked up inside each entry
	Date  string
	Title string
}

// DefaultSelectors matches the holiday table on the upstream calendar page
var DefaultSelectors = Selectors{
	Entry: "tr.libnas-holiday",
	Date:  ".libnas-calendar-holiday-datemonth",
	Title: ".libnas-calendar-holiday-title",
}

var errNotHTML = errors.New("document contains no markup")

// Parser extracts holiday records from a calendar page
type Parser struct {
	entry goquery.Matcher
	date  goquery.Matcher
	title goquery.Matcher
}

// NewParser returns a parser using the given selectors, empty fields fall
// back to DefaultSelectors. Selectors that don't compile are an error.
func NewParser(sel Selectors) (*Parser, error) {
	if sel.Entry == "" {
		sel.Entry = DefaultSelectors.Entry
	}
	if sel.Date == "" {
		sel.Date = DefaultSelectors.Date
	}
	if sel.Title == "" {
		sel.Title = DefaultSelectors.Title
	}
	entry, err := cascadia.Compile(sel.Entry)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling entry selector %q", sel.Entry)
	}
	date, err := cascadia.Compile(sel.Date)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling date selector %q", sel.Date)
	}
	title, err := cascadia.Compile(sel.Title)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling title selector %q", sel.Title)
	}
	return &Parser{entry: entry, date: date, title: title}, nil
}

// Parse returns the holiday records of a page in document order. Entries that
// are missing a date or title are skipped. A page with no matching entries
// yields an empty slice, input that isn't markup at all yields *holiday.ParseError.
func (p *Parser) Parse(page []byte) ([]holiday.Record, error) {
	if len(bytes.TrimSpace(page)) == 0 || !bytes.ContainsRune(page, '<') {
		return nil, &holiday.ParseError{Err: errNotHTML}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, &holiday.ParseError{Err: err}
	}

	records := []holiday.Record{}
	doc.FindMatcher(p.entry).Each(func(_ int, entry *goquery.Selection) {
		date := entry.FindMatcher(p.date).First()
		title := entry.FindMatcher(p.title).First()
		if date.Length() == 0 || title.Length() == 0 {
			return
		}
		if r, ok := holiday.NewRecord(date.Text(), title.Text()); ok {
			records = append(records, r)
		}
	})
	return records, nil
}
