// Package pipeline turns a document into calendar-synced deadlines:
// text acquisition, normalization, chunking, per-chunk extraction,
// cross-chunk deduplication, calendar sync and persistence.
package pipeline

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/chunk"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/ocr"
	"github.com/joseph-ayodele/deadline-extractor/internal/repository"
)

// DefaultConcurrency bounds parallel chunk extraction.
const DefaultConcurrency = 4

// Processor coordinates text acquisition, extraction and calendar sync.
type Processor struct {
	logger      *slog.Logger
	text        TextSource
	extractor   *deadline.Extractor
	splitter    *chunk.Splitter
	calendar    calendar.Client
	timezone    string
	concurrency int
	observer    Observer

	docs      repository.DocumentRepository
	runs      repository.RunRepository
	deadlines repository.DeadlineRepository
}

type Option func(*Processor)

func WithSplitter(s *chunk.Splitter) Option {
	return func(p *Processor) {
		if s != nil {
			p.splitter = s
		}
	}
}

// WithCalendar sets the sync backend and the zone events are written in.
func WithCalendar(c calendar.Client, timezone string) Option {
	return func(p *Processor) {
		if c != nil {
			p.calendar = c
		}
		p.timezone = timezone
	}
}

func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithObserver(o Observer) Option {
	return func(p *Processor) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithRepositories enables persistence. Any of the three may be nil.
func WithRepositories(docs repository.DocumentRepository, runs repository.RunRepository, deadlines repository.DeadlineRepository) Option {
	return func(p *Processor) {
		p.docs = docs
		p.runs = runs
		p.deadlines = deadlines
	}
}

func NewProcessor(logger *slog.Logger, text TextSource, extractor *deadline.Extractor, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = deadline.NewExtractor(nil, deadline.WithLogger(logger))
	}
	p := &Processor{
		logger:      logger,
		text:        text,
		extractor:   extractor,
		splitter:    chunk.New(chunk.DefaultSize, chunk.DefaultOverlap),
		calendar:    calendar.NoopClient{},
		timezone:    "UTC",
		concurrency: DefaultConcurrency,
		observer:    noopObserver{},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type source struct {
	name   string
	path   string
	format string
	size   int64
	hash   []byte
}

// ProcessFile runs the whole pipeline on the document at path.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Result, error) {
	return p.processPath(ctx, path, filepath.Base(path))
}

// ProcessUpload validates an uploaded document, spools it to a temporary file
// and processes it under its original name.
func (p *Processor) ProcessUpload(ctx context.Context, filename string, content []byte) (*Result, error) {
	if err := common.ValidateUpload(filename, int64(len(content))); err != nil {
		p.logger.Warn("pipeline.upload.rejected", "filename", filename, "size", len(content), "error", err)
		return nil, err
	}
	dir, err := os.MkdirTemp("", "deadlines-upload-*")
	if err != nil {
		return nil, common.NewAppError("UPLOAD_ERROR", "create temp dir", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload"+filepath.Ext(filename))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return nil, common.NewAppError("UPLOAD_ERROR", "spool upload", err)
	}
	return p.processPath(ctx, path, filename)
}

// ProcessText runs the pipeline on text that needs no acquisition step.
func (p *Processor) ProcessText(ctx context.Context, name, text string) (*Result, error) {
	if name == "" {
		name = "inline.txt"
	}
	sum := sha256.Sum256([]byte(text))
	src := source{name: name, format: constants.TXT, size: int64(len(text)), hash: sum[:]}
	run, err := p.begin(ctx, src)
	if err != nil {
		return nil, err
	}
	return p.complete(ctx, run, text)
}

func (p *Processor) processPath(ctx context.Context, path, name string) (*Result, error) {
	format := constants.MapExtToFormat(filepath.Ext(name))
	if format == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, filepath.Ext(name))
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, path)
		}
		return nil, common.WrapError(err, "stat document")
	}
	if p.text == nil {
		return nil, common.NewAppError("CONFIG_ERROR", "no text source configured", common.ErrInternal)
	}

	src := source{name: name, path: path, format: format, size: info.Size()}
	if p.docs != nil {
		if src.hash, err = hashFile(path); err != nil {
			return nil, common.WrapError(err, "hash document")
		}
	}
	run, err := p.begin(ctx, src)
	if err != nil {
		return nil, err
	}

	res, err := p.text.Extract(ctx, path)
	if err != nil {
		p.logger.Error("pipeline.ocr.failed", "run_id", run.ID, "source", name, "error", err)
		return nil, p.fail(ctx, run, err)
	}
	p.logger.Info("pipeline.ocr.ok",
		"run_id", run.ID,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
	)
	return p.complete(ctx, run, res.Text)
}

// begin records the document and opens a run.
func (p *Processor) begin(ctx context.Context, src source) (*entity.Run, error) {
	run := &entity.Run{Source: src.name, Format: src.format, StartedAt: time.Now().UTC()}
	if p.docs != nil {
		doc, existed, err := p.docs.UpsertByHash(ctx, &entity.Document{
			SourcePath:  src.path,
			ContentHash: src.hash,
			Filename:    src.name,
			FileExt:     constants.NormalizeExt(filepath.Ext(src.name)),
			FileSize:    src.size,
		})
		if err != nil {
			return nil, err
		}
		run.DocumentID = &doc.ID
		p.logger.Debug("pipeline.document.ok", "document_id", doc.ID, "existed", existed)
	}
	if p.runs != nil {
		if err := p.runs.Start(ctx, run); err != nil {
			return nil, err
		}
	} else {
		run.ID = uuid.New()
		run.Status = string(constants.RunStatusRunning)
	}
	return run, nil
}

func (p *Processor) complete(ctx context.Context, run *entity.Run, raw string) (*Result, error) {
	ctx = common.WithRunID(ctx, run.ID.String())

	text := ocr.Normalize(raw)
	if text == "" {
		return nil, p.fail(ctx, run, common.ErrNoText)
	}
	run.TextChars = utf8.RuneCountInString(text)
	run.Status = string(constants.RunStatusTextOK)

	chunks := p.splitter.Split(text)
	run.ChunkCount = len(chunks)
	p.logger.Info("pipeline.text.ok", "run_id", run.ID, "chars", run.TextChars, "chunks", len(chunks))

	candidates, strategy, err := p.extractChunks(ctx, run, chunks)
	if err != nil {
		return nil, p.fail(ctx, run, err)
	}
	run.Strategy = string(strategy)
	run.Status = string(constants.RunStatusExtracted)
	run.CaseNumber, _ = deadline.CaseNumber(text)

	deadlines := make([]entity.Deadline, 0, len(candidates))
	for _, c := range candidates {
		deadlines = append(deadlines, entity.FromCandidate(run.ID, c))
	}

	if err := p.sync(ctx, run, deadlines); err != nil {
		return nil, p.fail(ctx, run, err)
	}
	if _, noop := p.calendar.(calendar.NoopClient); !noop {
		run.Status = string(constants.RunStatusSynced)
	}

	if p.deadlines != nil && len(deadlines) > 0 {
		if err := p.deadlines.InsertBatch(ctx, deadlines); err != nil {
			return nil, p.fail(ctx, run, err)
		}
	}
	if err := p.finish(ctx, run); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline.run.ok",
		"run_id", run.ID,
		"source", run.Source,
		"strategy", run.Strategy,
		"deadlines", len(deadlines),
		"case_number", run.CaseNumber,
	)
	return &Result{
		Status:        StatusSuccess,
		RunID:         run.ID,
		ExtractedText: text,
		CaseNumber:    run.CaseNumber,
		Strategy:      strategy,
		Chunks:        len(chunks),
		Deadlines:     deadlines,
	}, nil
}

// extractChunks runs the orchestrator on every chunk with bounded parallelism,
// concatenates in chunk order and deduplicates across chunks.
func (p *Processor) extractChunks(ctx context.Context, run *entity.Run, chunks []string) ([]entity.Candidate, constants.Strategy, error) {
	results := make([]deadline.Extraction, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, c := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.extractor.Extract(gctx, c)
			p.logger.Debug("pipeline.chunk.ok",
				"run_id", run.ID,
				"chunk", i,
				"strategy", results[i].Strategy,
				"candidates", len(results[i].Candidates),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, constants.StrategyNone, err
	}

	var all []entity.Candidate
	for _, r := range results {
		all = append(all, r.Candidates...)
	}
	return deadline.Dedupe(all), summarize(results), nil
}

// summarize reports the single strategy used by every chunk, mixed when they
// differ, none when there were no chunks.
func summarize(results []deadline.Extraction) constants.Strategy {
	s := constants.StrategyNone
	for _, r := range results {
		switch {
		case s == constants.StrategyNone:
			s = r.Strategy
		case s != r.Strategy:
			return constants.StrategyMixed
		}
	}
	return s
}

// sync creates one calendar event per deadline, stopping at the first failure.
func (p *Processor) sync(ctx context.Context, run *entity.Run, deadlines []entity.Deadline) error {
	backend := p.calendar.Name()
	for i := range deadlines {
		created, err := p.calendar.CreateEvent(ctx, calendar.EventFromDeadline(deadlines[i], p.timezone))
		p.observer.ObserveCalendar(backend, err)
		if err != nil {
			p.logger.Error("pipeline.calendar.failed",
				"run_id", run.ID,
				"backend", backend,
				"datetime", deadlines[i].Datetime,
				"error", err,
			)
			if errors.Is(err, common.ErrCalendar) {
				return err
			}
			return fmt.Errorf("%w: %v", common.ErrCalendar, err)
		}
		deadlines[i].CalendarEventID = created.ID
		deadlines[i].CalendarLink = created.Link
	}
	if len(deadlines) > 0 {
		p.logger.Info("pipeline.calendar.ok", "run_id", run.ID, "backend", backend, "events", len(deadlines))
	}
	return nil
}

func (p *Processor) finish(ctx context.Context, run *entity.Run) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	p.observer.ObserveRun(constants.RunStatus(run.Status), now.Sub(run.StartedAt))
	if p.runs == nil {
		return nil
	}
	// the run row is closed even when ctx was cancelled mid-run
	return p.runs.Finish(context.WithoutCancel(ctx), run)
}

// fail marks run FAILED and returns cause.
func (p *Processor) fail(ctx context.Context, run *entity.Run, cause error) error {
	run.Status = string(constants.RunStatusFailed)
	run.ErrorMessage = cause.Error()
	if err := p.finish(ctx, run); err != nil {
		p.logger.Error("pipeline.run.finish_failed", "run_id", run.ID, "error", err)
	}
	p.logger.Error("pipeline.run.failed", "run_id", run.ID, "source", run.Source, "error", cause)
	return cause
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
