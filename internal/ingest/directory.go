package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/async"
)

// EnqueueDirectory walks root and enqueues every document with an accepted
// extension. Walk errors on single entries are counted and skipped.
func EnqueueDirectory(ctx context.Context, q Enqueuer, root string, skipHidden bool, logger *slog.Logger) (DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return DirStats{}, errors.New("root path is required")
	}

	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("ingest.walk.failed", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path) {
			return nil
		}
		stats.Matched++

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if err := q.Enqueue(ctx, async.Job{Path: abs, SubmittedAt: time.Now()}); err != nil {
			logger.Error("ingest.enqueue.failed", "path", abs, "error", err)
			stats.Failed++
			return nil
		}
		stats.Enqueued++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walk: %w", err)
	}
	logger.Info("ingest.scan.ok",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"enqueued", stats.Enqueued,
		"failed", stats.Failed,
	)
	return stats, nil
}
