// Package gemini is the Google generative-language backend for deadline
// extraction. Requests use structured output so the model answers with the
// deadline-list schema directly.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/llm"
)

const DefaultModel = "gemini-2.0-flash"

// Config for the Gemini client.
type Config struct {
	APIKey      string // if empty, falls back to env GEMINI_API_KEY then GOOGLE_API_KEY
	BaseURL     string // override for proxies and tests
	Model       string
	Temperature float32
	Timezone    string
}

// generator is the slice of *genai.Models the client uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	cfg    Config
	models generator
	parser *llm.Parser
	logger *slog.Logger
}

// NewClient builds a Gemini API client.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	gc, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return newWithGenerator(cfg, gc.Models, logger)
}

func newWithGenerator(cfg Config, g generator, logger *slog.Logger) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser, err := llm.NewParser(logger)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, models: g, parser: parser, logger: logger}, nil
}

func (c *Client) Name() string { return "gemini:" + c.cfg.Model }

// ExtractDeadlines implements llm.DeadlineExtractor.
func (c *Client) ExtractDeadlines(ctx context.Context, text string) ([]entity.Candidate, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text))

	prompt := llm.BuildPrompt(text, llm.PromptOptions{Timezone: c.cfg.Timezone})
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.cfg.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   DeadlineListSchema(),
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		c.logger.Error("llm.extract.api_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}
	if resp == nil {
		return nil, llm.ErrEmptyResponse
	}
	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != "" {
		return nil, fmt.Errorf("gemini: prompt blocked: %s", pf.BlockReason)
	}

	cands, err := c.parser.Parse(resp.Text())
	if err != nil {
		c.logger.Error("llm.extract.parse_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"candidates", len(cands),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cands, nil
}

// DeadlineListSchema mirrors llm.BuildDeadlineListSchema in genai's schema type.
func DeadlineListSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}
	dt := str("YYYY-MM-DD HH:MM")
	dt.Pattern = llm.DatetimePattern
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":       str("short calendar-friendly title"),
				"text":        str("exact snippet mentioning the date"),
				"datetime":    dt,
				"event_type":  str("Hearing, Deadline, Filing, Response, Trial, Deposition or Conference"),
				"description": str("1-3 sentence description"),
			},
			Required:         llm.CandidateFields,
			PropertyOrdering: llm.CandidateFields,
		},
	}
}
