package deadline

import (
	"regexp"
	"unicode/utf8"
)

// ContextRadius is the number of characters kept on each side of a date match.
const ContextRadius = 80

// All matches from every date pattern are collected, in pattern order.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),                   // January 5, 2026
	regexp.MustCompile(`(?i)(\d{1,2}[/-]\d{1,2}[/-]\d{4})`),                     // 03/15/2024, 3-15-2024
	regexp.MustCompile(`(?i)(\d{4}-\d{1,2}-\d{1,2})`),                           // 2026-1-5
	regexp.MustCompile(`(?i)(\d{1,2}(?:st|nd|rd|th)\s+of\s+[A-Za-z]+\s+\d{4})`), // 5th of January 2026
}

// Tried in priority order; the first pattern with any hit wins.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}\s?(?:am|pm))\b`),
	regexp.MustCompile(`(?i)\b(\d{1,2}\s?(?:am|pm))\b`),
	regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`),
}

// Match is a date phrase found in text with its surrounding context window.
type Match struct {
	DatePhrase string
	TimePhrase string // empty when no time was found in the window
	Context    string // untrimmed window, ContextRadius chars either side
	Start, End int    // byte span of the date phrase in the scanned text
}

// FindCandidates scans text with every date pattern and attaches the first
// time phrase found in each match's context window.
func FindCandidates(text string) []Match {
	var out []Match
	for _, re := range datePatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2], loc[3]
			window := contextWindow(text, start, end, ContextRadius)
			out = append(out, Match{
				DatePhrase: text[start:end],
				TimePhrase: findTime(window),
				Context:    window,
				Start:      start,
				End:        end,
			})
		}
	}
	return out
}

func findTime(window string) string {
	for _, re := range timePatterns {
		if m := re.FindStringSubmatch(window); m != nil {
			return m[1]
		}
	}
	return ""
}

// contextWindow returns text from radius runes before start to radius runes
// after end, clipped to the text bounds.
func contextWindow(text string, start, end, radius int) string {
	lo := start
	for i := 0; i < radius && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < radius && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return text[lo:hi]
}
