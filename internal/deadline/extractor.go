package deadline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

// Observer receives one call per orchestrated extraction.
type Observer interface {
	ObserveExtraction(strategy constants.Strategy, model Outcome, candidates int, elapsed time.Duration)
}

// Extraction is the outcome of one Extract call.
type Extraction struct {
	Candidates []entity.Candidate
	Strategy   constants.Strategy
	Model      ModelResult
}

// Extractor tries the model first and falls back to the rule-based strategy.
// The two are never merged within one call.
type Extractor struct {
	model           *ModelAssisted
	rules           *RuleExtractor
	fallbackOnEmpty bool
	observer        Observer
	logger          *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithModel enables the model-assisted strategy.
func WithModel(m *ModelAssisted) Option {
	return func(e *Extractor) { e.model = m }
}

// WithFallbackOnEmpty controls whether a successful but empty model answer
// still runs the rule-based strategy. Defaults to true.
func WithFallbackOnEmpty(b bool) Option {
	return func(e *Extractor) { e.fallbackOnEmpty = b }
}

func WithObserver(o Observer) Option {
	return func(e *Extractor) { e.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewExtractor(rules *RuleExtractor, opts ...Option) *Extractor {
	if rules == nil {
		rules = NewRuleExtractor(nil, nil)
	}
	e := &Extractor{rules: rules, fallbackOnEmpty: true, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract runs the model strategy, falls back to rules when the model result
// is not usable, and deduplicates.
func (e *Extractor) Extract(ctx context.Context, text string) Extraction {
	start := time.Now()
	res := e.model.Run(ctx, text)

	var out Extraction
	out.Model = res
	if res.Usable(e.fallbackOnEmpty) {
		out.Strategy = constants.StrategyModel
		out.Candidates = Dedupe(res.Candidates)
	} else {
		out.Strategy = constants.StrategyRules
		out.Candidates = Dedupe(e.rules.Extract(text))
		if res.Outcome == OutcomeOK {
			e.logger.Debug("deadline.fallback.empty_model", "text_len", len(text))
		}
	}

	if e.observer != nil {
		e.observer.ObserveExtraction(out.Strategy, res.Outcome, len(out.Candidates), time.Since(start))
	}
	e.logger.Debug("deadline.extract.done",
		"strategy", out.Strategy,
		"model", res.Outcome.String(),
		"candidates", len(out.Candidates),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out
}

// ExtractDeadlines returns only the deduplicated candidates.
func (e *Extractor) ExtractDeadlines(ctx context.Context, text string) []entity.Candidate {
	return e.Extract(ctx, text).Candidates
}

// Rules exposes the fallback strategy.
func (e *Extractor) Rules() *RuleExtractor { return e.rules }
