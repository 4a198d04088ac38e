package llm

import (
	"context"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

// DeadlineExtractor is implemented by every model backend. It returns the
// complete validated list or an error, never a partial list.
type DeadlineExtractor interface {
	ExtractDeadlines(ctx context.Context, text string) ([]entity.Candidate, error)
	Name() string
}

// PromptOptions tune the instruction text sent with a chunk.
type PromptOptions struct {
	Timezone   string   // hint for ambiguous times, e.g. "America/New_York"
	EventTypes []string // labels offered to the model; defaults to constants.AsStringSlice()
}
