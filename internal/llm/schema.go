package llm

// DatetimePattern constrains the datetime field to "YYYY-MM-DD HH:MM".
const DatetimePattern = `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`

// CandidateFields lists the keys of one deadline item, in prompt order.
var CandidateFields = []string{"title", "text", "datetime", "event_type", "description"}

// BuildDeadlineListSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is sent as the structured output constraint and used locally to validate.
func BuildDeadlineListSchema() map[string]any {
	props := map[string]any{
		"title":       map[string]any{"type": "string"},
		"text":        map[string]any{"type": "string"},
		"datetime":    map[string]any{"type": "string", "pattern": DatetimePattern},
		"event_type":  map[string]any{"type": "string", "minLength": 1},
		"description": map[string]any{"type": "string"},
	}
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties":           props,
			"required":             CandidateFields,
		},
	}
}
