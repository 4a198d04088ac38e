// Package app assembles the extraction pipeline from a loaded Config. The
// daemon and the command line tools share it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/chunk"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
	"github.com/joseph-ayodele/deadline-extractor/internal/llm/gemini"
	"github.com/joseph-ayodele/deadline-extractor/internal/llm/openai"
	"github.com/joseph-ayodele/deadline-extractor/internal/metrics"
	"github.com/joseph-ayodele/deadline-extractor/internal/ocr"
	"github.com/joseph-ayodele/deadline-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/deadline-extractor/internal/repository"
)

// Options are the optional collaborators of NewProcessor.
type Options struct {
	Recorder *metrics.Recorder // extraction, run and calendar metrics
	DB       *repo.DB          // enables document, run and deadline persistence
	Calendar calendar.Client   // overrides cfg.Calendar.Backend
}

// NewModelClient returns the configured generative backend, or nil when the
// model strategy is disabled or has no API key. Callers then run rules only.
func NewModelClient(ctx context.Context, cfg *common.Config, logger *slog.Logger) (deadline.ModelClient, error) {
	provider := strings.ToLower(cfg.LLM.Provider)
	if provider == "" || provider == "none" {
		logger.Info("model extraction disabled")
		return nil, nil
	}
	if cfg.LLM.APIKey == "" {
		logger.Warn("no API key for model provider, using rule-based extraction only", "provider", provider)
		return nil, nil
	}

	switch provider {
	case "gemini":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timezone:    cfg.Extraction.Timezone,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "openai":
		model := cfg.LLM.Model
		if strings.HasPrefix(model, "gemini") {
			model = ""
		}
		c, err := openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
			Timezone:    cfg.Extraction.Timezone,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+cfg.LLM.Provider, common.ErrInvalidInput)
	}
}

// NewExtractor builds the model-first, rules-fallback orchestrator.
func NewExtractor(ctx context.Context, cfg *common.Config, logger *slog.Logger, obs deadline.Observer) (*deadline.Extractor, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Extraction.Timezone, err)
	}
	rules := deadline.NewRuleExtractor(
		deadline.NewClassifier(cfg.KeywordRules()),
		deadline.NewDateTimeParser(loc, cfg.Extraction.DefaultHour),
	)

	opts := []deadline.Option{
		deadline.WithLogger(logger),
		deadline.WithFallbackOnEmpty(cfg.Extraction.FallbackOnEmpty),
	}
	if obs != nil {
		opts = append(opts, deadline.WithObserver(obs))
	}

	client, err := NewModelClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if client != nil {
		logger.Info("model extraction enabled", "model", client.Name())
		opts = append(opts, deadline.WithModel(deadline.NewModelAssisted(client, cfg.LLM.Timeout, loc, logger)))
	}
	return deadline.NewExtractor(rules, opts...), nil
}

// NewProcessor wires OCR, chunking, extraction, calendar sync and, when
// o.DB is set, persistence into one pipeline.
func NewProcessor(ctx context.Context, cfg *common.Config, logger *slog.Logger, o Options) (*pipeline.Processor, error) {
	var obs deadline.Observer
	if o.Recorder != nil {
		obs = o.Recorder
	}
	extractor, err := NewExtractor(ctx, cfg, logger, obs)
	if err != nil {
		return nil, err
	}

	cal := o.Calendar
	if cal == nil {
		cal, err = calendar.New(ctx, cfg.Calendar, logger)
		if err != nil {
			return nil, err
		}
	}
	logger.Info("calendar backend ready", "backend", cal.Name())

	text := ocr.NewExtractor(ocr.Config{
		TesseractLang:    cfg.OCR.TesseractLang,
		DPI:              cfg.OCR.DPI,
		MaxPages:         cfg.OCR.MaxPages,
		TessdataDir:      cfg.OCR.TessdataDir,
		HeicConverter:    cfg.OCR.HeicConverter,
		ArtifactCacheDir: cfg.OCR.ArtifactCacheDir,
	}, logger)

	opts := []pipeline.Option{
		pipeline.WithSplitter(chunk.New(cfg.Extraction.ChunkSize, cfg.Extraction.ChunkOverlap)),
		pipeline.WithConcurrency(cfg.Extraction.Concurrency),
		pipeline.WithCalendar(cal, cfg.Calendar.Timezone),
	}
	if o.Recorder != nil {
		opts = append(opts, pipeline.WithObserver(o.Recorder))
	}
	if o.DB != nil {
		opts = append(opts, pipeline.WithRepositories(
			repo.NewDocumentRepository(o.DB, logger),
			repo.NewRunRepository(o.DB, logger),
			repo.NewDeadlineRepository(o.DB, logger),
		))
	}
	return pipeline.NewProcessor(logger, text, extractor, opts...), nil
}
