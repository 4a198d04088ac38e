package llm

import (
	"encoding/json"
	"testing"
)

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"[]":                   "[]",
		"```json\n[1]\n```":    "[1]",
		"```\n[2]\n```":        "[2]",
		"  ```json [3]```  ":   "[3]",
		"prefix ```json\n[]``": "prefix ```json\n[]``",
	}
	for in, want := range tests {
		if got := StripCodeFences(in); got != want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeCandidatesJSON(t *testing.T) {
	in := []byte(`{"items":[{"title":"Trial","snippet":"trial","date":"2026-01-05 10:00","eventType":"Trial","summary":" s ","extra":true}]}`)
	out, changed, err := NormalizeCandidatesJSON(in, quietLogger())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(changed) == 0 {
		t.Fatal("expected changes to be reported")
	}
	var items []map[string]any
	if err := json.Unmarshal(out, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"datetime":    "2026-01-05 10:00",
		"event_type":  "Trial",
		"description": "s",
		"title":       "Trial",
		"text":        "trial",
	}
	if len(items) != 1 || len(items[0]) != len(want) {
		t.Fatalf("items = %+v", items)
	}
	for k, v := range want {
		if items[0][k] != v {
			t.Errorf("%s = %v, want %v", k, items[0][k], v)
		}
	}
	if err := ValidateJSONAgainstSchema(BuildDeadlineListSchema(), out); err != nil {
		t.Errorf("normalized payload should validate: %v", err)
	}
}

func TestNormalizeCandidatesJSONLeavesMissingFields(t *testing.T) {
	in := []byte(`[{"date":"2026-01-05 10:00","type":"Hearing"}]`)
	out, _, err := NormalizeCandidatesJSON(in, quietLogger())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	var items []map[string]any
	if err := json.Unmarshal(out, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"title", "text", "description"} {
		if _, ok := items[0][k]; ok {
			t.Errorf("%s was filled in", k)
		}
	}
	if err := ValidateJSONAgainstSchema(BuildDeadlineListSchema(), out); err == nil {
		t.Error("payload with missing fields should still fail validation")
	}
}

func TestNormalizeCandidatesJSONRejectsScalars(t *testing.T) {
	for _, in := range []string{`"x"`, `[1,2]`, `{"foo":1}`} {
		if _, _, err := NormalizeCandidatesJSON([]byte(in), quietLogger()); err == nil {
			t.Errorf("expected error for %s", in)
		}
	}
}
