package server

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/deadline-extractor/internal/ingest"
)

// IngestDirectory walks "root_path" and queues every accepted document for
// background processing. "skip_hidden" skips dot files and directories.
func (s *DeadlinesService) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.queue == nil {
		return nil, status.Error(codes.Unimplemented, "ingest queue is not configured")
	}
	root := strings.TrimSpace(stringField(req, "root_path"))
	if root == "" {
		s.logger.Error("ingest request missing root_path")
		return nil, status.Error(codes.InvalidArgument, "root_path is required")
	}

	s.logger.Info("ingest.directory.start", "root", root)
	stats, err := ingest.EnqueueDirectory(ctx, s.queue, root, boolField(req, "skip_hidden"), s.logger)
	if err != nil {
		s.logger.Error("ingest.directory.failed", "root", root, "error", err)
		return nil, status.Errorf(codes.InvalidArgument, "ingest: %v", err)
	}
	return structpb.NewStruct(map[string]any{
		"scanned":  float64(stats.Scanned),
		"matched":  float64(stats.Matched),
		"enqueued": float64(stats.Enqueued),
		"failed":   float64(stats.Failed),
	})
}
