package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
	"github.com/joseph-ayodele/deadline-extractor/internal/export"
)

// exportQuery parses the shared export parameters: an optional run id, an
// optional from date (YYYY-MM-DD, inclusive) and a row limit.
func exportQuery(runID, from string, limit int) (export.Query, error) {
	var q export.Query
	if strings.TrimSpace(runID) != "" {
		id, err := parseRunID(runID)
		if err != nil {
			return q, err
		}
		q.RunID = &id
	}
	if fd := strings.TrimSpace(from); fd != "" {
		if !deadline.ValidateDate(fd) {
			return q, common.InvalidArgumentError("from must be YYYY-MM-DD")
		}
		t, _ := time.Parse("2006-01-02", fd)
		q.From = &t
	}
	if limit < 0 {
		return q, common.InvalidArgumentError("limit must not be negative")
	}
	q.Limit = limit
	return q, nil
}

// ExportDeadlines renders an XLSX ("format" xlsx, default) or ICS report and
// returns it as {"filename", "content_type", "content_base64"}.
func (s *DeadlinesService) ExportDeadlines(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.exporter == nil {
		return nil, status.Error(codes.Unimplemented, "export is not configured")
	}
	q, err := exportQuery(stringField(req, "run_id"), stringField(req, "from"), int(numberField(req, "limit")))
	if err != nil {
		return nil, err
	}
	file, err := s.render(ctx, strings.ToLower(stringField(req, "format")), q)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(map[string]any{
		"filename":       file.name,
		"content_type":   file.contentType,
		"content_base64": base64.StdEncoding.EncodeToString(file.body),
	})
}

type rendered struct {
	name        string
	contentType string
	body        []byte
}

func (s *DeadlinesService) render(ctx context.Context, format string, q export.Query) (rendered, error) {
	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "", "xlsx":
		b, err := s.exporter.ExportDeadlinesXLSX(ctx, q)
		if err != nil {
			s.logger.Error("export.xlsx.failed", "error", err)
			return rendered{}, common.ToStatus(err)
		}
		return rendered{
			name:        fmt.Sprintf("deadlines-%s.xlsx", stamp),
			contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			body:        b,
		}, nil
	case "ics":
		b, err := s.exporter.ExportDeadlinesICS(ctx, q, s.timezone)
		if err != nil {
			s.logger.Error("export.ics.failed", "error", err)
			return rendered{}, common.ToStatus(err)
		}
		return rendered{
			name:        fmt.Sprintf("deadlines-%s.ics", stamp),
			contentType: "text/calendar; charset=utf-8",
			body:        b,
		}, nil
	default:
		return rendered{}, common.InvalidArgumentErrorf("unknown export format %q", format)
	}
}
