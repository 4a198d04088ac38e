package constants

import (
	"strings"
)

// EventType is the closed set of labels a deadline candidate can carry.
type EventType string

const (
	Hearing    EventType = "Hearing"
	Deadline   EventType = "Deadline"
	Filing     EventType = "Filing"
	Response   EventType = "Response"
	Trial      EventType = "Trial"
	Deposition EventType = "Deposition"
	Conference EventType = "Conference"
)

// DefaultEventType is used when no keyword matches.
const DefaultEventType = Deadline

var allEventTypes = []EventType{
	Hearing,
	Deadline,
	Filing,
	Response,
	Trial,
	Deposition,
	Conference,
}

// EventTypes returns the labels in table order.
func EventTypes() []EventType {
	out := make([]EventType, len(allEventTypes))
	copy(out, allEventTypes)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allEventTypes))
	for i, et := range allEventTypes {
		result[i] = string(et)
	}
	return result
}

// Canonicalize maps a free-form label (as a model might return it) onto a known
// event type. The second return is false when the label is not recognised.
func Canonicalize(input string) (EventType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return DefaultEventType, false
	}

	synonyms := map[string]EventType{
		"court date":   Hearing,
		"appearance":   Hearing,
		"due date":     Deadline,
		"submission":   Filing,
		"answer":       Response,
		"reply":        Response,
		"trial date":   Trial,
		"depo":         Deposition,
		"meeting":      Conference,
		"status conf":  Conference,
		"pretrial":     Conference,
		"pre-trial":    Conference,
		"motion due":   Filing,
		"filing due":   Filing,
		"response due": Response,
	}
	if et, ok := synonyms[normalized]; ok {
		return et, true
	}

	for _, et := range allEventTypes {
		if normalized == strings.ToLower(string(et)) {
			return et, true
		}
	}
	return DefaultEventType, false
}

// KeywordRule binds an event type to its lowercase trigger substrings.
type KeywordRule struct {
	EventType EventType `yaml:"event_type" json:"event_type"`
	Keywords  []string  `yaml:"keywords" json:"keywords"`
}

// DefaultKeywordRules is the classifier table in priority order.
// The first rule with any keyword hit wins.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{EventType: Hearing, Keywords: []string{"hearing", "court date", "appearance"}},
		{EventType: Deadline, Keywords: []string{"deadline", "due", "must file", "required by"}},
		{EventType: Filing, Keywords: []string{"filing", "file by", "submit"}},
		{EventType: Response, Keywords: []string{"response", "answer", "reply"}},
		{EventType: Trial, Keywords: []string{"trial", "trial date"}},
		{EventType: Deposition, Keywords: []string{"deposition", "depo"}},
		{EventType: Conference, Keywords: []string{"conference", "meeting"}},
	}
}
