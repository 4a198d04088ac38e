package deadline

import (
	"strings"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

const titleContextChars = 50

// RuleExtractor is the pattern-based strategy: match dates, parse them,
// drop past ones and classify the rest from their context.
type RuleExtractor struct {
	classifier *Classifier
	parser     *DateTimeParser
	now        func() time.Time
}

// RuleOption configures a RuleExtractor.
type RuleOption func(*RuleExtractor)

// WithClock overrides the time source used by the future-only filter.
func WithClock(now func() time.Time) RuleOption {
	return func(r *RuleExtractor) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRuleExtractor wires the classifier and parser; nil values get defaults
// (the default keyword table, UTC with 09:00).
func NewRuleExtractor(classifier *Classifier, parser *DateTimeParser, opts ...RuleOption) *RuleExtractor {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	if parser == nil {
		parser = NewDateTimeParser(time.UTC, 9)
	}
	r := &RuleExtractor{classifier: classifier, parser: parser, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Extract returns candidates for every date match that parses and is not in
// the past. Text is treated as already normalized.
func (r *RuleExtractor) Extract(text string) []entity.Candidate {
	now := r.now()
	var out []entity.Candidate
	for _, m := range FindCandidates(text) {
		dt, err := r.parser.Parse(m.DatePhrase, m.TimePhrase)
		if err != nil {
			continue
		}
		if dt.Before(now) {
			continue
		}
		ctx := strings.TrimSpace(m.Context)
		eventType := string(r.classifier.Classify(m.Context))
		out = append(out, entity.Candidate{
			Title:       eventType + ":" + firstRunes(ctx, titleContextChars),
			Text:        ctx,
			Datetime:    dt.Format(entity.DatetimeLayout),
			EventType:   eventType,
			Description: eventType,
		})
	}
	return out
}

// Location is the zone candidate datetimes are expressed in.
func (r *RuleExtractor) Location() *time.Location { return r.parser.Location() }

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
