package llm

import (
	"strings"

	"github.com/joseph-ayodele/deadline-extractor/constants"
)

// BuildPrompt composes the single-turn instruction for one chunk of text.
func BuildPrompt(text string, opts PromptOptions) string {
	types := opts.EventTypes
	if len(types) == 0 {
		types = constants.AsStringSlice()
	}

	var b strings.Builder
	b.WriteString("Extract all legal deadlines and hearing-related dates with times from the following document.\n\n")
	b.WriteString("For each item, provide:\n")
	b.WriteString("1. title: a concise, calendar-friendly title\n")
	b.WriteString("2. text: the exact snippet mentioning the date/time\n")
	b.WriteString("3. datetime: in 'YYYY-MM-DD HH:MM' format (24-hour clock)\n")
	b.WriteString("4. event_type: one of " + strings.Join(types, ", ") + "\n")
	b.WriteString("5. description: a concise 1-3 sentence calendar-friendly description\n\n")
	if tz := strings.TrimSpace(opts.Timezone); tz != "" {
		b.WriteString("Interpret times without a zone as " + tz + ".\n")
	}
	b.WriteString("If no time is stated, use 09:00.\n\n")
	b.WriteString("TEXT:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn ONLY a JSON array. Return [] when there are no dates.\n")
	return b.String()
}
