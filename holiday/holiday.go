package holiday

import "strings"

// Category is the kind of day a holiday entry describes
type Category string

const (
	// NationalHoliday is a public holiday set by government decree
	NationalHoliday Category = "libur_nasional"
	// JointLeave is a collective leave day granted around a holiday
	JointLeave Category = "cuti_bersama"
	// Observance is a commemorated day that is not a day off
	Observance Category = "hari_besar"
)

const (
	nationalHolidayMarker = "libur nasional"
	jointLeaveMarker      = "cuti bersama"
)

// Record is a single holiday entry as extracted from the source page
type Record struct {
	Date     string   `json:"date"`
	Title    string   `json:"title"`
	Category Category `json:"type"`
}

// Classify maps a holiday title to its category. The joint leave check runs
// after the national holiday check and wins when both markers are present.
func Classify(title string) Category {
	t := strings.ToLower(title)
	c := Observance
	if strings.Contains(t, nationalHolidayMarker) {
		c = NationalHoliday
	}
	if strings.Contains(t, jointLeaveMarker) {
		c = JointLeave
	}
	return c
}

// NewRecord trims the raw date and title and classifies the title. It returns
// false if either value is empty after trimming.
func NewRecord(date, title string) (Record, bool) {
	date = strings.TrimSpace(date)
	title = strings.TrimSpace(title)
	if date == "" || title == "" {
		return Record{}, false
	}
	return Record{
		Date:     date,
		Title:    title,
		Category: Classify(title),
	}, true
}

// FilterByMonth keeps records whose date contains the month token, ignoring case
func FilterByMonth(records []Record, month string) []Record {
	month = strings.ToLower(month)
	return filter(records, func(r Record) bool {
		return strings.Contains(strings.ToLower(r.Date), month)
	})
}

// FilterByDatePrefix keeps records whose date starts with the given prefix
func FilterByDatePrefix(records []Record, prefix string) []Record {
	return filter(records, func(r Record) bool {
		return strings.HasPrefix(r.Date, prefix)
	})
}

func filter(records []Record, keep func(Record) bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
