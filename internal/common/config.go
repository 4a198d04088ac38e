package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	OCR        OCRConfig        `yaml:"ocr"`
	LLM        LLMConfig        `yaml:"llm"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Calendar   CalendarConfig   `yaml:"calendar"`
	Watch      WatchConfig      `yaml:"watch"`
	Queue      QueueConfig      `yaml:"queue"`

	// EventKeywords replaces the default classifier table when non-empty.
	EventKeywords []constants.KeywordRule `yaml:"event_keywords"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	TesseractLang    string `yaml:"tesseract_lang"`
	DPI              int    `yaml:"dpi"`
	MaxPages         int    `yaml:"max_pages"`
	HeicConverter    string `yaml:"heic_converter"`
	TessdataDir      string `yaml:"tessdata_dir"`
	ArtifactCacheDir string `yaml:"artifact_cache_dir"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // gemini | openai | none
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ExtractionConfig tunes chunking and the extraction strategies.
type ExtractionConfig struct {
	ChunkSize       int    `yaml:"chunk_size"`
	ChunkOverlap    int    `yaml:"chunk_overlap"`
	Concurrency     int    `yaml:"concurrency"`
	DefaultHour     int    `yaml:"default_hour"`
	Timezone        string `yaml:"timezone"`
	FallbackOnEmpty bool   `yaml:"fallback_on_empty"`
}

// CalendarConfig selects and configures the calendar backend.
type CalendarConfig struct {
	Backend         string `yaml:"backend"` // google | ics | none
	CalendarID      string `yaml:"calendar_id"`
	Timezone        string `yaml:"timezone"`
	TokenFile       string `yaml:"token_file"`
	CredentialsFile string `yaml:"credentials_file"`
	RedirectURL     string `yaml:"redirect_url"`
	ICSDir          string `yaml:"ics_dir"`
}

// WatchConfig configures the inbox watcher.
type WatchConfig struct {
	Dirs     []string      `yaml:"dirs"`
	Debounce time.Duration `yaml:"debounce"`
}

// QueueConfig configures the async worker pool.
type QueueConfig struct {
	Workers int           `yaml:"workers"`
	Size    int           `yaml:"size"`
	Timeout time.Duration `yaml:"timeout"`
}

// LoadConfig loads configuration from environment variables and, when
// DEADLINES_CONFIG points at a YAML file, overlays it.
func LoadConfig() (*Config, error) {
	cfg := loadFromEnv()
	if path := os.Getenv("DEADLINES_CONFIG"); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.fillDerived()
	return cfg, nil
}

// fillDerived sets defaults that depend on other settings. Calendar events
// take the extraction zone unless CALENDAR_TIMEZONE says otherwise, so
// wall-clock times land where they were read.
func (c *Config) fillDerived() {
	if strings.TrimSpace(c.Calendar.Timezone) == "" {
		c.Calendar.Timezone = c.Extraction.Timezone
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = "UTC"
	}
}

func loadFromEnv() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "file:deadlines.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8000"),
		},
		OCR: OCRConfig{
			TesseractLang:    getEnv("TESSERACT_LANG", "eng"),
			DPI:              getEnvAsInt("OCR_DPI", 300),
			MaxPages:         getEnvAsInt("OCR_MAX_PAGES", 0),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "gemini"),
			Model:       getEnv("LLM_MODEL", "gemini-2.0-flash"),
			APIKey:      firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY"),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Temperature: getEnvAsFloat32("LLM_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		Extraction: ExtractionConfig{
			ChunkSize:       getEnvAsInt("EXTRACT_CHUNK_SIZE", 2000),
			ChunkOverlap:    getEnvAsInt("EXTRACT_CHUNK_OVERLAP", 200),
			Concurrency:     getEnvAsInt("EXTRACT_CONCURRENCY", 4),
			DefaultHour:     getEnvAsInt("EXTRACT_DEFAULT_HOUR", 9),
			Timezone:        getEnv("EXTRACT_TIMEZONE", "UTC"),
			FallbackOnEmpty: getEnvAsBool("EXTRACT_FALLBACK_ON_EMPTY", true),
		},
		Calendar: CalendarConfig{
			Backend:         getEnv("CALENDAR_BACKEND", "none"),
			CalendarID:      getEnv("GOOGLE_CALENDAR_ID", "primary"),
			Timezone:        getEnv("CALENDAR_TIMEZONE", ""),
			TokenFile:       getEnv("GOOGLE_TOKEN_FILE", "token.json"),
			CredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", "credentials.json"),
			RedirectURL:     getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8000/callback"),
			ICSDir:          getEnv("CALENDAR_ICS_DIR", "./calendar"),
		},
		Watch: WatchConfig{
			Dirs:     getEnvAsList("WATCH_DIRS"),
			Debounce: getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Queue: QueueConfig{
			Workers: getEnvAsInt("QUEUE_WORKERS", 4),
			Size:    getEnvAsInt("QUEUE_SIZE", 256),
			Timeout: getEnvAsDuration("QUEUE_TIMEOUT", 3*time.Minute),
		},
	}
}

// MergeFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current values.
func (c *Config) MergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("read %s", path), err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}
	return nil
}

// KeywordRules returns the configured classifier table or the default one.
func (c *Config) KeywordRules() []constants.KeywordRule {
	if len(c.EventKeywords) > 0 {
		return c.EventKeywords
	}
	return constants.DefaultKeywordRules()
}

// Location resolves the extraction timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Extraction.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Extraction.Timezone)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	switch c.LLM.Provider {
	case "gemini", "openai":
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "an API key is required for provider "+c.LLM.Provider, ErrInvalidInput)
		}
	case "none", "":
	default:
		return NewAppError("CONFIG_ERROR", "unknown LLM_PROVIDER "+c.LLM.Provider, ErrInvalidInput)
	}
	switch c.Calendar.Backend {
	case "google", "ics", "none", "":
	default:
		return NewAppError("CONFIG_ERROR", "unknown CALENDAR_BACKEND "+c.Calendar.Backend, ErrInvalidInput)
	}
	if c.Extraction.ChunkSize <= 0 || c.Extraction.ChunkOverlap < 0 || c.Extraction.ChunkOverlap >= c.Extraction.ChunkSize {
		return NewAppError("CONFIG_ERROR", "chunk overlap must be smaller than chunk size", ErrInvalidInput)
	}
	if c.Extraction.DefaultHour < 0 || c.Extraction.DefaultHour > 23 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_DEFAULT_HOUR must be 0..23", ErrInvalidInput)
	}
	if _, err := c.Location(); err != nil {
		return NewAppError("CONFIG_ERROR", "invalid EXTRACT_TIMEZONE", err)
	}
	for _, r := range c.EventKeywords {
		if len(r.Keywords) == 0 {
			return NewAppError("CONFIG_ERROR", "event_keywords entry "+string(r.EventType)+" has no keywords", ErrInvalidInput)
		}
	}
	return nil
}
