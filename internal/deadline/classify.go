package deadline

import (
	"strings"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// Classifier maps a context window to an event type by keyword lookup.
// The rule table is copied at construction and never mutated.
type Classifier struct {
	rules []constants.KeywordRule
}

// NewClassifier builds a classifier over rules in the given priority order.
// A nil or empty table falls back to constants.DefaultKeywordRules.
func NewClassifier(rules []constants.KeywordRule) *Classifier {
	if len(rules) == 0 {
		rules = constants.DefaultKeywordRules()
	}
	c := &Classifier{rules: make([]constants.KeywordRule, 0, len(rules))}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}
		c.rules = append(c.rules, constants.KeywordRule{EventType: r.EventType, Keywords: kws})
	}
	return c
}

// Classify returns the first event type (in table order) with a keyword
// contained in the lowercased context, or constants.DefaultEventType.
func (c *Classifier) Classify(context string) constants.EventType {
	lower := strings.ToLower(context)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return r.EventType
			}
		}
	}
	return constants.DefaultEventType
}

// Rules returns a copy of the table in priority order.
func (c *Classifier) Rules() []constants.KeywordRule {
	out := make([]constants.KeywordRule, len(c.rules))
	for i, r := range c.rules {
		out[i] = constants.KeywordRule{EventType: r.EventType, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
