package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// StripCodeFences removes a surrounding ```json ... ``` block if present.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// keys models commonly use instead of ours
var fieldSynonyms = map[string]string{
	"date_time": "datetime",
	"date":      "datetime",
	"type":      "event_type",
	"eventType": "event_type",
	"snippet":   "text",
	"excerpt":   "text",
	"summary":   "description",
}

// NormalizeCandidatesJSON repairs shape problems without inventing values:
//   - unwraps {"deadlines": [...]} or {"items": [...]} into the bare array
//   - renames known synonyms (date_time -> datetime)
//   - trims strings and removes unknown keys
//
// A missing field stays missing so the schema check still rejects the
// payload. It returns the repaired document and a list of what changed.
func NormalizeCandidatesJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var changed []string
	if obj, ok := doc.(map[string]any); ok {
		for _, k := range []string{"deadlines", "items", "results"} {
			if arr, ok := obj[k].([]any); ok {
				doc = arr
				changed = append(changed, "unwrap("+k+")")
				break
			}
		}
	}
	items, ok := doc.([]any)
	if !ok {
		return nil, changed, fmt.Errorf("sanitize: expected a JSON array, got %T", doc)
	}

	allowed := make(map[string]struct{}, len(CandidateFields))
	for _, f := range CandidateFields {
		allowed[f] = struct{}{}
	}

	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			return nil, changed, fmt.Errorf("sanitize: item %d is %T, not an object", i, it)
		}
		for from, to := range fieldSynonyms {
			if v, ok := m[from]; ok {
				if _, exists := m[to]; !exists {
					m[to] = v
				}
				delete(m, from)
				changed = append(changed, fmt.Sprintf("[%d]%s->%s", i, from, to))
			}
		}
		for k, v := range m {
			if _, ok := allowed[k]; !ok {
				delete(m, k)
				changed = append(changed, fmt.Sprintf("[%d]%s(unknown)", i, k))
				continue
			}
			if s, ok := v.(string); ok {
				m[k] = strings.TrimSpace(s)
			}
		}
	}

	out, err := json.Marshal(items)
	if err != nil {
		return nil, changed, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(changed) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "changed", changed)
	}
	return out, changed, nil
}
