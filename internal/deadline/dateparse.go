package deadline

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrUnparsable is returned when a date or time phrase cannot be resolved.
var ErrUnparsable = errors.New("unparsable date/time phrase")

var (
	reMonthDayYear = regexp.MustCompile(`(?i)^([a-z]+)\.?\s+(\d{1,2}),?\s+(\d{4})$`)
	reNumericDate  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	reISODate      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	reOrdinalDate  = regexp.MustCompile(`(?i)^(\d{1,2})(?:st|nd|rd|th)\s+of\s+([a-z]+)\s+(\d{4})$`)
	reTimePhrase   = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s?(am|pm)?$`)
)

var monthNames = map[string]time.Month{
	"january":   time.January,
	"jan":       time.January,
	"february":  time.February,
	"feb":       time.February,
	"march":     time.March,
	"mar":       time.March,
	"april":     time.April,
	"apr":       time.April,
	"may":       time.May,
	"june":      time.June,
	"jun":       time.June,
	"july":      time.July,
	"jul":       time.July,
	"august":    time.August,
	"aug":       time.August,
	"september": time.September,
	"sep":       time.September,
	"sept":      time.September,
	"october":   time.October,
	"oct":       time.October,
	"november":  time.November,
	"nov":       time.November,
	"december":  time.December,
	"dec":       time.December,
}

// DateTimeParser resolves the date and time phrases found by the matcher
// into a timestamp. Known phrase shapes are parsed directly; anything else
// goes through a lenient general-purpose parser.
type DateTimeParser struct {
	loc         *time.Location
	defaultHour int
}

// NewDateTimeParser returns a parser producing times in loc (UTC when nil)
// and using defaultHour:00 when no time phrase is given.
func NewDateTimeParser(loc *time.Location, defaultHour int) *DateTimeParser {
	if loc == nil {
		loc = time.UTC
	}
	if defaultHour < 0 || defaultHour > 23 {
		defaultHour = 9
	}
	return &DateTimeParser{loc: loc, defaultHour: defaultHour}
}

// Location is the zone parsed timestamps are expressed in.
func (p *DateTimeParser) Location() *time.Location { return p.loc }

// Parse combines datePhrase with the optional timePhrase.
func (p *DateTimeParser) Parse(datePhrase, timePhrase string) (time.Time, error) {
	datePhrase = strings.TrimSpace(datePhrase)
	timePhrase = strings.TrimSpace(timePhrase)

	y, m, d, ok := parseDate(datePhrase)
	if !ok {
		return p.parseLenient(datePhrase, timePhrase)
	}
	hour, minute := p.defaultHour, 0
	if timePhrase != "" {
		var err error
		if hour, minute, err = parseClock(timePhrase); err != nil {
			return time.Time{}, err
		}
	}
	t := time.Date(y, m, d, hour, minute, 0, 0, p.loc)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrUnparsable, datePhrase)
	}
	return t, nil
}

func (p *DateTimeParser) parseLenient(datePhrase, timePhrase string) (time.Time, error) {
	phrase := strings.TrimSpace(datePhrase + " " + timePhrase)
	t, err := dateparse.ParseIn(phrase, p.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnparsable, phrase, err)
	}
	if timePhrase == "" {
		t = time.Date(t.Year(), t.Month(), t.Day(), p.defaultHour, 0, 0, 0, p.loc)
	}
	return t.In(p.loc), nil
}

func parseDate(s string) (int, time.Month, int, bool) {
	if m := reMonthDayYear.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])]
		if !ok {
			return 0, 0, 0, false
		}
		return atoi(m[3]), month, atoi(m[2]), true
	}
	if m := reNumericDate.FindStringSubmatch(s); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		// month first unless that is impossible and day first is not
		if a > 12 && b <= 12 {
			return atoi(m[3]), time.Month(b), a, true
		}
		if a < 1 || a > 12 {
			return 0, 0, 0, false
		}
		return atoi(m[3]), time.Month(a), b, true
	}
	if m := reISODate.FindStringSubmatch(s); m != nil {
		month := atoi(m[2])
		if month < 1 || month > 12 {
			return 0, 0, 0, false
		}
		return atoi(m[1]), time.Month(month), atoi(m[3]), true
	}
	if m := reOrdinalDate.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return 0, 0, 0, false
		}
		return atoi(m[3]), month, atoi(m[1]), true
	}
	return 0, 0, 0, false
}

// parseClock accepts "10:00 AM", "10am", "14:30" and similar.
func parseClock(s string) (hour, minute int, err error) {
	m := reTimePhrase.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: time %q", ErrUnparsable, s)
	}
	hour = atoi(m[1])
	if m[2] != "" {
		minute = atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: time %q", ErrUnparsable, s)
	}
	switch strings.ToLower(m[3]) {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: time %q", ErrUnparsable, s)
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: time %q", ErrUnparsable, s)
		}
		if hour != 12 {
			hour += 12
		}
	default:
		if m[2] == "" || hour > 23 {
			return 0, 0, fmt.Errorf("%w: time %q", ErrUnparsable, s)
		}
	}
	return hour, minute, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
