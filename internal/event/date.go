package event

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the civil-date layout used for Record.Date
const DateLayout = "2006-01-02"

// Lisbon is the time zone fixture dates and kick-off times are expressed in
var Lisbon = loadLisbon()

func loadLisbon() *time.Location {
	loc, err := time.LoadLocation("Europe/Lisbon")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Day truncates t to midnight in Lisbon
func Day(t time.Time) time.Time {
	t = t.In(Lisbon)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Lisbon)
}

// FormatDate renders a date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

// ParseRecordDate parses a Record.Date value into a Lisbon midnight time.
// Returns the zero time for malformed input.
func ParseRecordDate(s string) time.Time {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), Lisbon)
	if err != nil {
		return time.Time{}
	}
	return t
}

var (
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	dmyDatePattern   = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-](\d{2,4})\b`)
	dmDatePattern    = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})\b`)
	clockTimePattern = regexp.MustCompile(`^([01]?\d|2[0-3])[:hH]([0-5]\d)$`)
)

// ParseFixtureDate extracts a calendar date from listing text.
// Supports "2024-05-10", "10/05/2024", "10-05-24" and "10/05" (year taken
// from ref, rolled into next year when the date would be more than six
// months in the past). Returns false when nothing parses.
func ParseFixtureDate(text string, ref time.Time) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}

	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := dmyDatePattern.FindStringSubmatch(text); m != nil {
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return civilDate(year, atoi(m[2]), atoi(m[1]))
	}

	if m := dmDatePattern.FindStringSubmatch(text); m != nil && !ref.IsZero() {
		ref = Day(ref)
		t, ok := civilDate(ref.Year(), atoi(m[2]), atoi(m[1]))
		if !ok {
			return time.Time{}, false
		}
		if t.Before(ref.AddDate(0, -6, 0)) {
			t = t.AddDate(1, 0, 0)
		}
		return t, true
	}

	return time.Time{}, false
}

// NormalizeClock validates a kick-off time. Empty or placeholder values map
// to TimeUnknown; anything else that is not a clock time is rejected.
func NormalizeClock(text string) (string, bool) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "", "--:--", "-", "tbd", "a definir", TimeUnknown:
		return TimeUnknown, true
	}
	m := clockTimePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	h := atoi(m[1])
	return strconv.Itoa(h/10) + strconv.Itoa(h%10) + ":" + m[2], true
}

// IsPast reports whether the record's date is before today
func (r Record) IsPast(today time.Time) bool {
	d := ParseRecordDate(r.Date)
	if d.IsZero() {
		return false // can't determine, keep it
	}
	return d.Before(Day(today))
}

// IsUpcoming reports whether the record's date is today or later
func (r Record) IsUpcoming(today time.Time) bool {
	d := ParseRecordDate(r.Date)
	if d.IsZero() {
		return false
	}
	return !d.Before(Day(today))
}

// WithinDays reports whether d falls in [today, today+days)
func WithinDays(d, today time.Time, days int) bool {
	start := Day(today)
	d = Day(d)
	return !d.Before(start) && d.Before(start.AddDate(0, 0, days))
}

func civilDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, Lisbon)
	if t.Day() != day {
		return time.Time{}, false // e.g. 31/02
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
