package deadline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

// ErrModelDisabled marks a ModelAssisted with no backend configured.
var ErrModelDisabled = errors.New("model extraction disabled")

// ModelClient is implemented by generative-language backends. Implementations
// either return the full, validated list or an error; never a partial list.
type ModelClient interface {
	ExtractDeadlines(ctx context.Context, text string) ([]entity.Candidate, error)
	Name() string
}

// Outcome tags a model result.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeUnavailable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ModelResult distinguishes a successful answer (possibly empty) from an
// unavailable model.
type ModelResult struct {
	Outcome    Outcome
	Candidates []entity.Candidate
	Reason     error // set when Outcome is OutcomeUnavailable
}

func Ok(candidates []entity.Candidate) ModelResult {
	return ModelResult{Outcome: OutcomeOK, Candidates: candidates}
}

func Unavailable(reason error) ModelResult {
	return ModelResult{Outcome: OutcomeUnavailable, Reason: reason}
}

// Usable reports whether the orchestrator should take this result instead of
// running the rule-based strategy.
func (r ModelResult) Usable(fallbackOnEmpty bool) bool {
	if r.Outcome != OutcomeOK {
		return false
	}
	return len(r.Candidates) > 0 || !fallbackOnEmpty
}

// ModelAssisted turns a ModelClient call into a ModelResult. It makes one
// attempt, bounded by timeout, and never returns a partial list.
type ModelAssisted struct {
	client  ModelClient
	timeout time.Duration
	loc     *time.Location
	logger  *slog.Logger
}

func NewModelAssisted(client ModelClient, timeout time.Duration, loc *time.Location, logger *slog.Logger) *ModelAssisted {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ModelAssisted{client: client, timeout: timeout, loc: loc, logger: logger}
}

// Run asks the model for candidates in text.
func (m *ModelAssisted) Run(ctx context.Context, text string) ModelResult {
	if m == nil || m.client == nil {
		return Unavailable(ErrModelDisabled)
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	start := time.Now()
	cands, err := m.client.ExtractDeadlines(ctx, text)
	if err == nil {
		err = m.check(cands)
	}
	if err != nil {
		m.logger.Warn("deadline.model.unavailable",
			"backend", m.client.Name(),
			"reason", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return Unavailable(err)
	}
	m.logger.Debug("deadline.model.ok",
		"backend", m.client.Name(),
		"candidates", len(cands),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Ok(cands)
}

// check rejects the whole answer when any datetime is not a calendar timestamp.
func (m *ModelAssisted) check(cands []entity.Candidate) error {
	for i, c := range cands {
		if _, err := c.Time(m.loc); err != nil {
			return fmt.Errorf("candidate %d: bad datetime %q: %w", i, c.Datetime, err)
		}
	}
	return nil
}
