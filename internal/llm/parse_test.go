package llm

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

const validItem = `{"title":"Hearing: MSJ","text":"hearing on January 5, 2026","datetime":"2026-01-05 10:00","event_type":"Hearing","description":"Motion hearing."}`

func TestParserStrict(t *testing.T) {
	p, err := NewParser(quietLogger())
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	tests := []struct {
		name    string
		in      string
		wantN   int
		wantErr bool
	}{
		{"single item", "[" + validItem + "]", 1, false},
		{"fenced", "```json\n[" + validItem + "]\n```", 1, false},
		{"empty list", "[]", 0, false},
		{"bad datetime", `[{"title":"","text":"","datetime":"2026-01-05T10:00","event_type":"Hearing","description":""}]`, 0, true},
		{"missing field", `[{"title":"","text":"","datetime":"2026-01-05 10:00","event_type":"Hearing"}]`, 0, true},
		{"missing field after repair", `{"deadlines":[{"datetime":"2026-01-05 10:00","event_type":"Hearing"}]}`, 0, true},
		{"extra field dropped", `[{"title":"","text":"","datetime":"2026-01-05 10:00","event_type":"Hearing","description":"","x":1}]`, 1, false},
		{"wrapped empty list", `{"deadlines":[]}`, 0, false},
		{"object root", `{"foo":[]}`, 0, true},
		{"not json", "Sure! Here are the dates", 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := p.Parse(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && len(got) != tc.wantN {
				t.Fatalf("got %d candidates", len(got))
			}
		})
	}
}

func TestParserEmptyResponse(t *testing.T) {
	p, _ := NewParser(quietLogger())
	if _, err := p.Parse("   "); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("err = %v", err)
	}
}

func TestParserCanonicalizesEventType(t *testing.T) {
	p, _ := NewParser(quietLogger())
	in := `[{"title":"","text":"","datetime":"2026-01-05 10:00","event_type":"court date","description":""},` +
		`{"title":"","text":"","datetime":"2026-01-06 10:00","event_type":" Mediation ","description":""}]`
	got, err := p.Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got[0].EventType != "Hearing" {
		t.Errorf("first = %q", got[0].EventType)
	}
	if got[1].EventType != "Mediation" {
		t.Errorf("unknown label should be kept trimmed, got %q", got[1].EventType)
	}
}

func TestParserShapeRepair(t *testing.T) {
	p, _ := NewParser(quietLogger())
	in := `{"deadlines":[{"title":"Hearing","date_time":"2026-01-05 10:00","type":"Hearing","snippet":" hearing ","summary":"","confidence":0.9}]}`
	got, err := p.Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0].Datetime != "2026-01-05 10:00" || got[0].Text != "hearing" {
		t.Fatalf("got %+v", got)
	}

	// renaming keys never supplies a value that was not sent
	missing := `{"deadlines":[{"date_time":"2026-01-05 10:00","type":"Hearing","snippet":"hearing"}]}`
	if _, err := p.Parse(missing); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("missing title/description: err = %v", err)
	}

	// still all-or-nothing: a bad datetime is not repaired
	bad := `[` + validItem + `,{"title":"","text":"","datetime":"tomorrow","event_type":"Hearing","description":""}]`
	if _, err := p.Parse(bad); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("err = %v", err)
	}
}
