// Package mcpserver exposes deadline extraction as Model Context Protocol
// tools so agents can pull dated obligations out of legal text.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
	"github.com/joseph-ayodele/deadline-extractor/internal/pipeline"
)

// Processor is implemented by *pipeline.Processor.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*pipeline.Result, error)
	ProcessText(ctx context.Context, name, text string) (*pipeline.Result, error)
}

// Config holds configuration for the MCP server.
type Config struct {
	Processor Processor
	Version   string // reported in server info
	Logger    *slog.Logger

	// Location reads deadline datetimes when flagging them upcoming; nil is UTC.
	Location *time.Location
	Now      func() time.Time
}

// NewServer creates an MCP server with the extraction tools registered.
func NewServer(cfg Config) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sum := summarizer{loc: cfg.Location, now: cfg.Now}
	if sum.loc == nil {
		sum.loc = time.UTC
	}
	if sum.now == nil {
		sum.now = time.Now
	}

	s := server.NewMCPServer(
		"deadline-extractor",
		ver,
		server.WithToolCapabilities(false),
	)
	registerExtractTool(s, cfg.Processor, sum, logger)
	registerProcessDocumentTool(s, cfg.Processor, sum, logger)
	registerCaseNumberTool(s)
	return s
}

// toolResult is the payload of the extraction tools.
type toolResult struct {
	RunID      string            `json:"run_id"`
	Strategy   string            `json:"strategy"`
	CaseNumber string            `json:"case_number,omitempty"`
	Deadlines  []deadlineSummary `json:"deadlines"`
}

type deadlineSummary struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	Datetime     string `json:"datetime"`
	EventType    string `json:"event_type"`
	Description  string `json:"description"`
	Upcoming     bool   `json:"upcoming"`
	CalendarLink string `json:"calendar_link,omitempty"`
}

type summarizer struct {
	loc *time.Location
	now func() time.Time
}

func (sm summarizer) summarize(res *pipeline.Result) toolResult {
	now := sm.now()
	out := toolResult{
		RunID:      res.RunID.String(),
		Strategy:   string(res.Strategy),
		CaseNumber: res.CaseNumber,
		Deadlines:  make([]deadlineSummary, 0, len(res.Deadlines)),
	}
	for _, d := range res.Deadlines {
		out.Deadlines = append(out.Deadlines, deadlineSummary{
			Title:        d.Title,
			Text:         d.Text,
			Datetime:     d.Datetime,
			EventType:    d.EventType,
			Description:  d.Description,
			Upcoming:     deadline.IsFutureDate(d.Datetime, now, sm.loc),
			CalendarLink: d.CalendarLink,
		})
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func registerExtractTool(s *server.MCPServer, proc Processor, sum summarizer, logger *slog.Logger) {
	tool := mcp.NewTool("extract_deadlines",
		mcp.WithDescription("Extract dated legal deadlines (hearings, filings, responses, trials, depositions, conferences) from document text. Returns one entry per distinct date and event type, future dates only."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text to scan"),
		),
		mcp.WithString("name",
			mcp.Description("Document name recorded on the run (default: inline.txt)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || strings.TrimSpace(text) == "" {
			return mcp.NewToolResultError("text is required"), nil
		}
		name := req.GetString("name", "")

		res, err := proc.ProcessText(ctx, name, text)
		if err != nil {
			logger.Warn("mcp.extract.failed", "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("extract error: %v", err)), nil
		}
		return jsonResult(sum.summarize(res))
	})
}

func registerProcessDocumentTool(s *server.MCPServer, proc Processor, sum summarizer, logger *slog.Logger) {
	tool := mcp.NewTool("process_document",
		mcp.WithDescription("Run OCR and deadline extraction on a PDF, image or text file on the server's filesystem, syncing results to the configured calendar."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Absolute path of the document"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil || strings.TrimSpace(path) == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		res, err := proc.ProcessFile(ctx, path)
		if err != nil {
			logger.Warn("mcp.process.failed", "path", path, "error", err)
			return mcp.NewToolResultError(fmt.Sprintf("process error: %v", err)), nil
		}
		return jsonResult(sum.summarize(res))
	})
}

func registerCaseNumberTool(s *server.MCPServer) {
	tool := mcp.NewTool("case_number",
		mcp.WithDescription("Find the first case number (\"Case No.\" or \"Case Number\") mentioned in text."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Document text to scan"),
		),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		n, ok := deadline.CaseNumber(text)
		return jsonResult(map[string]any{"found": ok, "case_number": n})
	})
}
