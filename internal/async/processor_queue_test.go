package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/internal/pipeline"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
	block chan struct{}
	err   error
}

func (r *recordingProcessor) ProcessFile(ctx context.Context, path string) (*pipeline.Result, error) {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{Status: pipeline.StatusSuccess, RunID: uuid.New()}, nil
}

func (r *recordingProcessor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.paths...)
	sort.Strings(out)
	return out
}

type depthRecorder struct {
	mu     sync.Mutex
	values []int
}

func (d *depthRecorder) SetQueueDepth(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values = append(d.values, n)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueProcessesEveryJob(t *testing.T) {
	proc := &recordingProcessor{}
	depth := &depthRecorder{}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(3), WithQueueSize(8), WithDepthObserver(depth))

	want := []string{"a.pdf", "b.txt", "c.png", "d.jpg"}
	for _, p := range want {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	got := proc.seen()
	if len(got) != len(want) {
		t.Fatalf("processed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("processed[%d] = %s, want %s", i, got[i], want[i])
		}
	}
	depth.mu.Lock()
	defer depth.mu.Unlock()
	if len(depth.values) == 0 {
		t.Error("queue depth never reported")
	}
}

func TestQueueFailuresDoNotStopWorkers(t *testing.T) {
	proc := &recordingProcessor{err: errors.New("ocr failed")}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1))

	for _, p := range []string{"a.pdf", "b.pdf"} {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatal(err)
		}
	}
	q.Shutdown(context.Background())
	if got := proc.seen(); len(got) != 2 {
		t.Errorf("processed %v", got)
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&recordingProcessor{}, quietLogger())
	q.Shutdown(context.Background())
	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	// second shutdown is a no-op
	q.Shutdown(context.Background())
}

func TestEnqueueBackpressureHonoursContext(t *testing.T) {
	proc := &recordingProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(proc.block)
		q.Shutdown(context.Background())
	}()

	// one job held by the worker, one filling the buffer
	if err := q.Enqueue(context.Background(), Job{Path: "1.pdf"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for q.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := q.Enqueue(context.Background(), Job{Path: "2.pdf"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, Job{Path: "3.pdf"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestShutdownInterruptedByContext(t *testing.T) {
	proc := &recordingProcessor{block: make(chan struct{})}
	q := NewProcessorQueue(proc, quietLogger(), WithWorkers(1), WithProcessTimeout(time.Minute))
	if err := q.Enqueue(context.Background(), Job{Path: "slow.pdf"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	q.Shutdown(ctx)
	if time.Since(start) > time.Second {
		t.Error("Shutdown did not return when ctx ended")
	}
	close(proc.block)
}
