package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/deadline-extractor/internal/async"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid create/write bursts per file
}

// StartWatcher emits the path of every accepted document created or written
// under the roots. Paths are emitted once per quiet period of cfg.Debounce.
// Both channels are closed when ctx ends.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan string, <-chan error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		logger.Error("watcher.start.failed", "error", "no roots provided")
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("watcher.create.failed", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && isHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && allowed(path) && !isHidden(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("watcher.add_root.failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("watcher.started", "roots", cfg.Roots, "initial", len(initial), "debounce", cfg.Debounce)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher.close.failed", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]time.Time{}
		ticker := time.NewTicker(tickInterval(cfg.Debounce))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() && !isHidden(e.Name) {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("watcher.add_dir.failed", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if !allowed(e.Name) || isHidden(e.Name) {
					continue
				}
				if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
					if cfg.Debounce <= 0 {
						if !emit(e.Name) {
							return
						}
						continue
					}
					pending[e.Name] = time.Now()
				}
			case now := <-ticker.C:
				for p, last := range pending {
					if now.Sub(last) < cfg.Debounce {
						continue
					}
					delete(pending, p)
					if !emit(p) {
						return
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

func tickInterval(debounce time.Duration) time.Duration {
	if debounce <= 0 {
		return time.Second
	}
	if d := debounce / 4; d >= 10*time.Millisecond {
		return d
	}
	return 10 * time.Millisecond
}

// Watch feeds every path reported by StartWatcher into q until ctx ends.
func Watch(ctx context.Context, cfg WatchConfig, q Enqueuer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	paths, errs, err := StartWatcher(ctx, cfg, logger)
	if err != nil {
		return err
	}
	for {
		select {
		case p, ok := <-paths:
			if !ok {
				return ctx.Err()
			}
			if err := q.Enqueue(ctx, async.Job{Path: p, SubmittedAt: time.Now()}); err != nil {
				logger.Error("watcher.enqueue.failed", "path", p, "error", err)
				if errors.Is(err, async.ErrClosed) {
					return err
				}
			}
		case err, ok := <-errs:
			if ok {
				logger.Warn("watcher.event_error", "error", err)
			} else {
				errs = nil
			}
		}
	}
}
