// Package ingest discovers documents on disk and hands them to the
// processing queue, either by walking a directory or by watching it.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/deadline-extractor/internal/async"
)

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Enqueued uint32
	Failed   uint32
}

// Enqueuer is satisfied by *async.ProcessorQueue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job async.Job) error
}
