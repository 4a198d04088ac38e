package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/metrics"
	repo "github.com/joseph-ayodele/deadline-extractor/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	return &common.Config{
		LLM: common.LLMConfig{Provider: "none", Timeout: time.Second},
		Extraction: common.ExtractionConfig{
			ChunkSize:       2000,
			ChunkOverlap:    200,
			Concurrency:     2,
			DefaultHour:     9,
			Timezone:        "UTC",
			FallbackOnEmpty: true,
		},
		Calendar: common.CalendarConfig{
			Backend:  "ics",
			Timezone: "UTC",
			ICSDir:   filepath.Join(t.TempDir(), "calendar"),
		},
	}
}

func TestNewModelClient(t *testing.T) {
	logger := quietLogger()
	tests := []struct {
		name     string
		provider string
		key      string
		wantNil  bool
		wantErr  bool
	}{
		{name: "disabled", provider: "none", wantNil: true},
		{name: "empty provider", provider: "", wantNil: true},
		{name: "missing key", provider: "gemini", wantNil: true},
		{name: "openai", provider: "openai", key: "k"},
		{name: "unknown", provider: "llama", key: "k", wantNil: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.LLM.Provider = tt.provider
			cfg.LLM.APIKey = tt.key
			c, err := NewModelClient(context.Background(), cfg, logger)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (c == nil) != tt.wantNil {
				t.Errorf("client = %v, wantNil %v", c, tt.wantNil)
			}
		})
	}
}

func TestNewModelClientOpenAIDefaultsModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "k"
	cfg.LLM.Model = "gemini-2.0-flash"
	c, err := NewModelClient(context.Background(), cfg, quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "openai:gpt-4o-mini" {
		t.Errorf("name = %q", c.Name())
	}
}

func TestNewExtractorBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extraction.Timezone = "Mars/Olympus"
	if _, err := NewExtractor(context.Background(), cfg, quietLogger(), nil); err == nil {
		t.Fatal("expected timezone error")
	}
}

func TestNewExtractorCustomKeywords(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventKeywords = []constants.KeywordRule{
		{EventType: constants.Conference, Keywords: []string{"mediation"}},
	}
	ext, err := NewExtractor(context.Background(), cfg, quietLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := ext.ExtractDeadlines(context.Background(), "Mediation session on March 3, 2099 at 2:00 PM.")
	if len(got) != 1 || got[0].EventType != string(constants.Conference) || got[0].Datetime != "2099-03-03 14:00" {
		t.Errorf("candidates = %+v", got)
	}
}

func TestNewProcessorEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := quietLogger()
	cfg := testConfig(t)

	db, err := repo.Open(ctx, repo.Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(db.Close)

	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(reg)

	proc, err := NewProcessor(ctx, cfg, logger, Options{Recorder: rec, DB: db})
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}

	res, err := proc.ProcessText(ctx, "order.txt", "Trial set for June 1, 2099 at 9:30 AM in Department 4.")
	if err != nil {
		t.Fatalf("ProcessText: %v", err)
	}
	if len(res.Deadlines) != 1 || res.Deadlines[0].CalendarEventID == "" {
		t.Fatalf("deadlines = %+v", res.Deadlines)
	}
	if res.Strategy != constants.StrategyRules {
		t.Errorf("strategy = %q", res.Strategy)
	}

	entries, err := os.ReadDir(cfg.Calendar.ICSDir)
	if err != nil || len(entries) != 1 {
		t.Errorf("ics dir entries = %v, err %v", entries, err)
	}

	stored, err := repo.NewDeadlineRepository(db, logger).ListByRun(ctx, res.RunID)
	if err != nil || len(stored) != 1 {
		t.Errorf("stored = %v, err %v", stored, err)
	}

	if n, err := testutil.GatherAndCount(reg, "deadlines_runs_total"); err != nil || n != 1 {
		t.Errorf("runs_total series = %d, err %v", n, err)
	}
}

func TestNewProcessorBadCalendar(t *testing.T) {
	cfg := testConfig(t)
	cfg.Calendar.Backend = "outlook"
	_, err := NewProcessor(context.Background(), cfg, quietLogger(), Options{})
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
}
