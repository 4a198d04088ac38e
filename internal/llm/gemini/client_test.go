package gemini

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"google.golang.org/genai"
)

type fakeGenerator struct {
	text   string
	err    error
	model  string
	prompt string
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

func newTestClient(t *testing.T, g *fakeGenerator) *Client {
	t.Helper()
	c, err := newWithGenerator(Config{Timezone: "UTC"}, g, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("newWithGenerator: %v", err)
	}
	return c
}

func TestExtractDeadlines(t *testing.T) {
	g := &fakeGenerator{text: `[{"title":"Hearing: MSJ","text":"hearing on January 5, 2026 at 10:00 AM","datetime":"2026-01-05 10:00","event_type":"Hearing","description":"Motion hearing."}]`}
	c := newTestClient(t, g)

	got, err := c.ExtractDeadlines(context.Background(), "The hearing is on January 5, 2026 at 10:00 AM.")
	if err != nil {
		t.Fatalf("ExtractDeadlines: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Hearing: MSJ" {
		t.Fatalf("got %+v", got)
	}
	if g.model != DefaultModel {
		t.Errorf("model = %q", g.model)
	}
	if g.config.ResponseMIMEType != "application/json" || g.config.ResponseSchema == nil {
		t.Errorf("structured output not requested: %+v", g.config)
	}
	if !strings.Contains(g.prompt, "January 5, 2026") {
		t.Errorf("prompt does not carry the text")
	}
	if c.Name() != "gemini:"+DefaultModel {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestExtractDeadlinesAPIError(t *testing.T) {
	c := newTestClient(t, &fakeGenerator{err: errors.New("quota exceeded")})
	if _, err := c.ExtractDeadlines(context.Background(), "x"); err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractDeadlinesMalformed(t *testing.T) {
	c := newTestClient(t, &fakeGenerator{text: `[{"datetime":"soon"}]`})
	got, err := c.ExtractDeadlines(context.Background(), "x")
	if err == nil || got != nil {
		t.Fatalf("got %+v, err %v", got, err)
	}
}

func TestDeadlineListSchema(t *testing.T) {
	s := DeadlineListSchema()
	if s.Type != genai.TypeArray || s.Items == nil || s.Items.Type != genai.TypeObject {
		t.Fatalf("schema = %+v", s)
	}
	if len(s.Items.Required) != 5 || s.Items.Properties["datetime"].Pattern == "" {
		t.Fatalf("items = %+v", s.Items)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	if _, err := NewClient(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected missing key error")
	}
}
