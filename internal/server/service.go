package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/export"
	"github.com/joseph-ayodele/deadline-extractor/internal/ingest"
	"github.com/joseph-ayodele/deadline-extractor/internal/pipeline"
	"github.com/joseph-ayodele/deadline-extractor/internal/repository"
)

// Processor is implemented by *pipeline.Processor.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*pipeline.Result, error)
	ProcessUpload(ctx context.Context, filename string, content []byte) (*pipeline.Result, error)
	ProcessText(ctx context.Context, name, text string) (*pipeline.Result, error)
}

// DeadlinesService serves document processing, run lookup, exports and
// directory ingestion. Requests and responses are structpb objects.
type DeadlinesService struct {
	proc      Processor
	runs      repository.RunRepository
	deadlines repository.DeadlineRepository
	exporter  *export.Service
	queue     ingest.Enqueuer
	timezone  string
	logger    *slog.Logger
}

type ServiceOption func(*DeadlinesService)

// WithStore enables GetRun and the run-scoped exports.
func WithStore(runs repository.RunRepository, deadlines repository.DeadlineRepository) ServiceOption {
	return func(s *DeadlinesService) {
		s.runs = runs
		s.deadlines = deadlines
	}
}

func WithExporter(e *export.Service, timezone string) ServiceOption {
	return func(s *DeadlinesService) {
		s.exporter = e
		s.timezone = timezone
	}
}

// WithQueue enables IngestDirectory.
func WithQueue(q ingest.Enqueuer) ServiceOption {
	return func(s *DeadlinesService) { s.queue = q }
}

func NewDeadlinesService(proc Processor, logger *slog.Logger, opts ...ServiceOption) *DeadlinesService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &DeadlinesService{proc: proc, timezone: "UTC", logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ProcessDocument accepts exactly one of "path", "text" or "content_base64".
// "filename" names inline text and is required with content_base64.
func (s *DeadlinesService) ProcessDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := strings.TrimSpace(stringField(req, "path"))
	text := stringField(req, "text")
	content := stringField(req, "content_base64")
	filename := strings.TrimSpace(stringField(req, "filename"))

	given := 0
	for _, v := range []string{path, text, content} {
		if v != "" {
			given++
		}
	}
	if given != 1 {
		s.logger.Warn("process.request.invalid", "given", given)
		return nil, common.InvalidArgumentError("exactly one of path, text or content_base64 is required")
	}

	var (
		res *pipeline.Result
		err error
	)
	switch {
	case path != "":
		s.logger.Info("process.path.start", "path", path)
		res, err = s.proc.ProcessFile(ctx, path)
	case text != "":
		s.logger.Info("process.text.start", "filename", filename, "chars", len(text))
		res, err = s.proc.ProcessText(ctx, filename, text)
	default:
		if filename == "" {
			return nil, common.InvalidArgumentError("filename is required with content_base64")
		}
		raw, derr := base64.StdEncoding.DecodeString(content)
		if derr != nil {
			return nil, common.InvalidArgumentErrorf("content_base64: %v", derr)
		}
		s.logger.Info("process.upload.start", "filename", filename, "size", len(raw))
		res, err = s.proc.ProcessUpload(ctx, filename, raw)
	}
	if err != nil {
		s.logger.Error("process.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(res)
}

// GetRun returns {"run": ..., "deadlines": [...]} for "run_id".
func (s *DeadlinesService) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.runs == nil || s.deadlines == nil {
		return nil, status.Error(codes.Unimplemented, "run storage is not configured")
	}
	id, err := parseRunID(stringField(req, "run_id"))
	if err != nil {
		return nil, err
	}
	run, deadlines, err := s.lookupRun(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.NotFoundError("run " + id.String() + " not found")
	}
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(runView{Run: run, Deadlines: deadlines})
}

type runView struct {
	Run       *entity.Run       `json:"run"`
	Deadlines []entity.Deadline `json:"deadlines"`
}

func (s *DeadlinesService) lookupRun(ctx context.Context, id uuid.UUID) (*entity.Run, []entity.Deadline, error) {
	run, err := s.runs.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("run.get.failed", "run_id", id, "error", err)
		}
		return nil, nil, err
	}
	deadlines, err := s.deadlines.ListByRun(ctx, id)
	if err != nil {
		s.logger.Error("run.deadlines.failed", "run_id", id, "error", err)
		return nil, nil, err
	}
	if deadlines == nil {
		deadlines = []entity.Deadline{}
	}
	return run, deadlines, nil
}

func parseRunID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, common.InvalidArgumentError("run_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.InvalidArgumentError("run_id must be a UUID")
	}
	return id, nil
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func numberField(s *structpb.Struct, key string) float64 {
	if s == nil {
		return 0
	}
	return s.GetFields()[key].GetNumberValue()
}

func boolField(s *structpb.Struct, key string) bool {
	if s == nil {
		return false
	}
	return s.GetFields()[key].GetBoolValue()
}

// toStruct converts a JSON-tagged value into a structpb object.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}
