package openai

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/llm"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// Config for the OpenAI-compatible chat completions client. Any server that
// implements /chat/completions with json_schema response formats works.
type Config struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // if empty, OPENAI_BASE_URL then DefaultBaseURL
	Model       string
	Temperature float32
	Timeout     time.Duration // whole request, default 30s
	Timezone    string        // prompt hint for times without a zone
}

type Client struct {
	cfg    Config
	http   *http.Client
	parser *llm.Parser
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	parser, err := llm.NewParser(logger)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		parser: parser,
		logger: logger,
	}, nil
}

func (c *Client) Name() string { return "openai:" + c.cfg.Model }
