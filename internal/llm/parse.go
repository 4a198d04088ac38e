package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

// ErrEmptyResponse is returned when the model answered with no text at all.
var ErrEmptyResponse = errors.New("empty model response")

// Parser turns raw model output into candidates. The whole payload is
// accepted or rejected; there is no per-item filtering.
type Parser struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

// NewParser compiles the deadline-list schema. A payload that fails
// validation gets one NormalizeCandidatesJSON shape repair and is then
// validated again; missing fields are never filled in.
func NewParser(logger *slog.Logger) (*Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := CompileSchema(BuildDeadlineListSchema())
	if err != nil {
		return nil, err
	}
	return &Parser{schema: schema, logger: logger}, nil
}

// Parse validates content and decodes it. Event types are mapped onto the
// known labels where possible; unknown labels are kept as given.
func (p *Parser) Parse(content string) ([]entity.Candidate, error) {
	raw := []byte(StripCodeFences(content))
	if len(raw) == 0 {
		return nil, ErrEmptyResponse
	}

	if err := validateWith(p.schema, raw); err != nil {
		cleaned, changed, sErr := NormalizeCandidatesJSON(raw, p.logger)
		if sErr != nil {
			return nil, fmt.Errorf("schema validation failed: %w (sanitize: %v)", err, sErr)
		}
		if vErr := validateWith(p.schema, cleaned); vErr != nil {
			return nil, fmt.Errorf("schema validation failed: %w", vErr)
		}
		p.logger.Warn("llm.extract.shape_repaired", "changed", len(changed))
		raw = cleaned
	}

	var out []entity.Candidate
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal candidates: %w", err)
	}
	for i := range out {
		if et, ok := constants.Canonicalize(out[i].EventType); ok {
			out[i].EventType = string(et)
		} else {
			out[i].EventType = strings.TrimSpace(out[i].EventType)
		}
	}
	if out == nil {
		out = []entity.Candidate{}
	}
	return out, nil
}
