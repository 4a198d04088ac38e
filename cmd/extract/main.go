package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/joseph-ayodele/deadline-extractor/internal/app"
	"github.com/joseph-ayodele/deadline-extractor/internal/async"
	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/export"
	"github.com/joseph-ayodele/deadline-extractor/internal/ingest"
	"github.com/joseph-ayodele/deadline-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/deadline-extractor/internal/repository"
	"github.com/joseph-ayodele/deadline-extractor/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// pathCollector gathers the files a directory scan accepts.
type pathCollector struct {
	mu    sync.Mutex
	paths []string
}

func (c *pathCollector) Enqueue(_ context.Context, job async.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, job.Path)
	return nil
}

func main() {
	var (
		dir      = flag.String("dir", "", "process every supported document under this directory")
		text     = flag.String("text", "", "extract from this text instead of files")
		icsOut   = flag.String("ics", "", "write all deadlines to this .ics file")
		xlsxOut  = flag.String("xlsx", "", "write all deadlines to this .xlsx file")
		backend  = flag.String("calendar", "none", "calendar backend: none | ics | google")
		persist  = flag.Bool("db", false, "record runs in the configured database (DB_URL)")
		asJSON   = flag.Bool("json", false, "print results as JSON")
		showText = flag.Bool("show-text", false, "include the extracted text in JSON output")
		verbose  = flag.Bool("v", false, "verbose logging")
	)
	flag.Usage = func() {
		printError("usage: extract [flags] [file ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dir == "" && *text == "" && flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	cfg.Calendar.Backend = *backend

	var db *repo.DB
	if *persist {
		db, err = server.ConnectDB(ctx, cfg.Database, logger)
		if err != nil {
			printError("Error: open database: %v\n", err)
			os.Exit(1)
		}
		defer server.CloseDB(db, logger)
	}

	processor, err := app.NewProcessor(ctx, cfg, logger, app.Options{DB: db})
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	paths := flag.Args()
	if *dir != "" {
		c := &pathCollector{}
		stats, err := ingest.EnqueueDirectory(ctx, c, *dir, true, logger)
		if err != nil {
			printError("Error: scan %s: %v\n", *dir, err)
			os.Exit(1)
		}
		logger.Info("directory scanned", "root", *dir, "matched", stats.Matched)
		paths = append(paths, c.paths...)
	}

	var (
		results []*pipeline.Result
		all     []entity.Deadline
		failed  int
	)
	collect := func(name string, res *pipeline.Result, err error) {
		if err != nil {
			failed++
			printError("%s: %v\n", name, err)
			return
		}
		if !*showText {
			res.ExtractedText = ""
		}
		results = append(results, res)
		all = append(all, res.Deadlines...)
		if !*asJSON {
			printResult(name, res)
		}
	}

	if *text != "" {
		res, err := processor.ProcessText(ctx, "inline.txt", *text)
		collect("inline", res, err)
	}
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		res, err := processor.ProcessFile(ctx, p)
		collect(p, res, err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			printError("Error: encode results: %v\n", err)
			os.Exit(1)
		}
	}

	if *icsOut != "" && len(all) > 0 {
		var buf bytes.Buffer
		if err := calendar.WriteICS(&buf, all, cfg.Calendar.Timezone); err != nil {
			printError("Error: build ics: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*icsOut, buf.Bytes(), 0o644); err != nil {
			printError("Error: write %s: %v\n", *icsOut, err)
			os.Exit(1)
		}
	}
	if *xlsxOut != "" {
		b, err := export.WriteDeadlinesXLSX(all)
		if err != nil {
			printError("Error: build xlsx: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsxOut, b, 0o644); err != nil {
			printError("Error: write %s: %v\n", *xlsxOut, err)
			os.Exit(1)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func printResult(name string, res *pipeline.Result) {
	fmt.Printf("%s: %d deadline(s), strategy=%s", name, len(res.Deadlines), res.Strategy)
	if res.CaseNumber != "" {
		fmt.Printf(", case=%s", res.CaseNumber)
	}
	fmt.Println()
	for _, d := range res.Deadlines {
		fmt.Printf("  %s  %-10s  %s\n", d.Datetime, d.EventType, d.Title)
	}
}
