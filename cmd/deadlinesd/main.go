package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/oauth2"

	"github.com/joseph-ayodele/deadline-extractor/internal/app"
	"github.com/joseph-ayodele/deadline-extractor/internal/async"
	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/export"
	"github.com/joseph-ayodele/deadline-extractor/internal/ingest"
	"github.com/joseph-ayodele/deadline-extractor/internal/metrics"
	repo "github.com/joseph-ayodele/deadline-extractor/internal/repository"
	"github.com/joseph-ayodele/deadline-extractor/internal/server"
)

func main() {
	// Structured logger without timestamps; the supervisor adds its own
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		os.Exit(1)
	}
	defer server.CloseDB(db, logger)

	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(reg)

	processor, err := app.NewProcessor(ctx, cfg, logger, app.Options{Recorder: recorder, DB: db})
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.Timeout),
		async.WithDepthObserver(recorder),
	)

	deadlines := repo.NewDeadlineRepository(db, logger)
	svc := server.NewDeadlinesService(processor, logger,
		server.WithStore(repo.NewRunRepository(db, logger), deadlines),
		server.WithExporter(export.NewService(deadlines, logger), cfg.Calendar.Timezone),
		server.WithQueue(queue),
	)

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := server.NewGRPCServer(svc, logger)

	// HTTP server
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr,
		Handler: server.NewHTTPHandler(svc, server.HTTPConfig{
			Gatherer:  reg,
			OAuth:     loadOAuth(cfg.Calendar, logger),
			TokenFile: cfg.Calendar.TokenFile,
			Health: func(ctx context.Context) error {
				return db.HealthCheck(ctx, 2*time.Second)
			},
		}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("deadlinesd listening", "grpc_addr", cfg.Server.GRPCAddr, "http_addr", cfg.Server.HTTPAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP serve error", "error", err)
			stop()
		}
	}()

	if len(cfg.Watch.Dirs) > 0 {
		go func() {
			err := ingest.Watch(ctx, ingest.WatchConfig{
				Roots:       cfg.Watch.Dirs,
				InitialScan: true,
				Debounce:    cfg.Watch.Debounce,
			}, queue, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	grpcServer.GracefulStop()
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

// loadOAuth enables the consent endpoints when a client secrets file exists.
func loadOAuth(cfg common.CalendarConfig, logger *slog.Logger) *oauth2.Config {
	if cfg.CredentialsFile == "" {
		return nil
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		if cfg.Backend == "google" {
			logger.Warn("Google credentials file not found, /connect disabled", "path", cfg.CredentialsFile)
		}
		return nil
	}
	oc, err := calendar.LoadOAuthConfig(cfg.CredentialsFile, cfg.RedirectURL)
	if err != nil {
		logger.Warn("failed to load Google credentials", "error", err)
		return nil
	}
	return oc
}
