package deadline

import "github.com/joseph-ayodele/deadline-extractor/internal/entity"

type dedupeKey struct {
	datetime  string
	eventType string
}

// Dedupe keeps the first candidate for each (datetime, event type) pair,
// preserving input order.
func Dedupe(candidates []entity.Candidate) []entity.Candidate {
	if len(candidates) == 0 {
		return candidates
	}
	seen := make(map[dedupeKey]struct{}, len(candidates))
	out := make([]entity.Candidate, 0, len(candidates))
	for _, c := range candidates {
		k := dedupeKey{c.Datetime, c.EventType}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
