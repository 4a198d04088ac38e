package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/deadline-extractor/internal/app"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/mcpserver"
	repo "github.com/joseph-ayodele/deadline-extractor/internal/repository"
)

var version = "dev"

func main() {
	// stdout carries the protocol; logs go to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("invalid timezone", "error", err)
		os.Exit(2)
	}

	ctx := context.Background()

	var db *repo.DB
	if os.Getenv("DB_URL") != "" {
		db, err = repo.Open(ctx, repo.Config{DSN: cfg.Database.DSN, DialTimeout: cfg.Database.DialTimeout}, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	processor, err := app.NewProcessor(ctx, cfg, logger, app.Options{DB: db})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	s := mcpserver.NewServer(mcpserver.Config{
		Processor: processor,
		Version:   version,
		Logger:    logger,
		Location:  loc,
	})
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
