package main

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/app"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
	"github.com/joseph-ayodele/deadline-extractor/internal/ocr"
)

// Runs the configured model several times over one text file and compares
// each answer with the rule-based strategy.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <text_file> [times]")
		os.Exit(2)
	}
	path := os.Args[1]
	times := 3
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read input", "path", path, "error", err)
		os.Exit(2)
	}
	text := ocr.Normalize(string(raw))

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(2)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error("load timezone", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()
	client, err := app.NewModelClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("model client", "error", err)
		os.Exit(1)
	}
	if client == nil {
		logger.Error("no model configured; set LLM_PROVIDER and an API key")
		os.Exit(2)
	}
	model := deadline.NewModelAssisted(client, cfg.LLM.Timeout, loc, logger)

	rules := deadline.NewRuleExtractor(
		deadline.NewClassifier(cfg.KeywordRules()),
		deadline.NewDateTimeParser(loc, cfg.Extraction.DefaultHour),
	)
	baseline := deadline.Dedupe(rules.Extract(text))
	logger.Info("rules.baseline", "candidates", len(baseline))

	for i := 1; i <= times; i++ {
		start := time.Now()
		res := model.Run(ctx, text)
		if res.Outcome != deadline.OutcomeOK {
			logger.Error("model.run.unavailable", "iter", i, "reason", res.Reason, "elapsed_ms", time.Since(start).Milliseconds())
			continue
		}
		got := deadline.Dedupe(res.Candidates)
		logger.Info("model.run.ok",
			"iter", i,
			"model", client.Name(),
			"candidates", len(got),
			"matches_rules", len(got) == len(baseline),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		for _, c := range got {
			logger.Info("model.candidate", "iter", i, "datetime", c.Datetime, "event_type", c.EventType, "title", c.Title)
		}
		time.Sleep(750 * time.Millisecond)
	}
}
