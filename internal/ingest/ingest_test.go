package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/async"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []async.Job
	err  error
}

func (f *fakeQueue) Enqueue(_ context.Context, job async.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeQueue) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, j := range f.jobs {
		out = append(out, filepath.Base(j.Path))
	}
	sort.Strings(out)
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestEnqueueDirectory(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"a.pdf", "b.txt", "c.docx", ".hidden/x.pdf", ".notes.txt", "sub/d.PNG"} {
		touch(t, filepath.Join(root, p))
	}

	q := &fakeQueue{}
	stats, err := EnqueueDirectory(context.Background(), q, root, true, quietLogger())
	if err != nil {
		t.Fatalf("EnqueueDirectory: %v", err)
	}
	want := []string{"a.pdf", "b.txt", "d.PNG"}
	got := q.names()
	if len(got) != len(want) {
		t.Fatalf("enqueued %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("enqueued[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	if stats.Matched != 3 || stats.Enqueued != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	for _, j := range q.jobs {
		if !filepath.IsAbs(j.Path) || j.SubmittedAt.IsZero() {
			t.Errorf("job = %+v", j)
		}
	}
}

func TestEnqueueDirectoryCountsFailures(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))

	q := &fakeQueue{err: async.ErrClosed}
	stats, err := EnqueueDirectory(context.Background(), q, root, false, quietLogger())
	if err != nil {
		t.Fatalf("EnqueueDirectory: %v", err)
	}
	if stats.Failed != 1 || stats.Enqueued != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEnqueueDirectoryRequiresRoot(t *testing.T) {
	if _, err := EnqueueDirectory(context.Background(), &fakeQueue{}, "  ", false, quietLogger()); err == nil {
		t.Error("expected error for empty root")
	}
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func TestWatcherInitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.pdf"))
	touch(t, filepath.Join(root, "ignored.docx"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	paths, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond}, quietLogger())
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}
	if got := filepath.Base(receive(t, paths)); got != "existing.pdf" {
		t.Fatalf("initial = %s", got)
	}

	touch(t, filepath.Join(root, "skip.docx"))
	touch(t, filepath.Join(root, "order.txt"))
	if got := filepath.Base(receive(t, paths)); got != "order.txt" {
		t.Fatalf("new file = %s", got)
	}

	cancel()
	for range paths {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}, quietLogger()); err == nil {
		t.Error("expected error without roots")
	}
}

func TestWatchEnqueues(t *testing.T) {
	root := t.TempDir()
	q := &fakeQueue{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, WatchConfig{Roots: []string{root}}, q, quietLogger()) }()

	// give the watcher time to register the root
	deadline := time.Now().Add(3 * time.Second)
	for len(q.names()) == 0 && time.Now().Before(deadline) {
		touch(t, filepath.Join(root, "motion.pdf"))
		time.Sleep(50 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Watch returned %v", err)
	}
	if names := q.names(); len(names) == 0 || names[0] != "motion.pdf" {
		t.Errorf("enqueued %v", names)
	}
}
