package deadline

import (
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

// DefaultTitleMax caps calendar event titles, in runes.
const DefaultTitleMax = 100

var caseNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Case\s+No\.?\s*:?\s*([A-Z0-9-]+)`),
	regexp.MustCompile(`(?i)Case\s+Number\s*:?\s*([A-Z0-9-]+)`),
}

// CaseNumber returns the first case number mentioned in text.
func CaseNumber(text string) (string, bool) {
	for _, re := range caseNumberPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// FormatEventTitle builds "{type}: {text}" truncated to max runes with "...".
func FormatEventTitle(eventType, text string, max int) string {
	if max <= 3 {
		max = DefaultTitleMax
	}
	title := eventType + ": " + text
	r := []rune(title)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return title
}

// TruncateTitle caps an existing title at max runes with "...".
func TruncateTitle(title string, max int) string {
	if max <= 3 {
		max = DefaultTitleMax
	}
	r := []rune(title)
	if len(r) > max {
		return strings.TrimSpace(string(r[:max-3])) + "..."
	}
	return title
}

// ValidateDate reports whether s is a strict YYYY-MM-DD date.
func ValidateDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsFutureDate reports whether s ("YYYY-MM-DD HH:MM" or "YYYY-MM-DD", read in
// loc) is not before now. Unparsable input is not future.
func IsFutureDate(s string, now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{entity.DatetimeLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return !t.Before(now)
		}
	}
	return false
}
