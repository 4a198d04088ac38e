package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/llm"
)

// ExtractDeadlines implements llm.DeadlineExtractor using chat/completions
// with a json_schema response format.
func (c *Client) ExtractDeadlines(ctx context.Context, text string) ([]entity.Candidate, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	prompt := llm.BuildPrompt(text, llm.PromptOptions{Timezone: c.cfg.Timezone})

	// Structured outputs require an object at the root, so the list is wrapped.
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "deadline_list",
				"strict": true,
				"schema": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties":           map[string]any{"deadlines": llm.BuildDeadlineListSchema()},
					"required":             []string{"deadlines"},
				},
			},
		},
		"messages": []map[string]any{
			{"role": "system", "content": "You extract legal deadlines. Return ONLY JSON that matches the provided schema."},
			{"role": "user", "content": prompt},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
	if err != nil {
		c.logger.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
				Refusal string `json:"refusal"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in openai response")
	}
	if r := cc.Choices[0].Message.Refusal; r != "" {
		return nil, fmt.Errorf("model refused: %s", r)
	}

	content := llm.StripCodeFences(cc.Choices[0].Message.Content)
	var wrapped struct {
		Deadlines json.RawMessage `json:"deadlines"`
	}
	if err := json.Unmarshal([]byte(content), &wrapped); err == nil && len(wrapped.Deadlines) > 0 {
		content = string(wrapped.Deadlines)
	}

	cands, err := c.parser.Parse(content)
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
