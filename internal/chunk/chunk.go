// Package chunk splits long documents into overlapping pieces that are
// small enough for a single extraction call.
package chunk

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 2000
	DefaultOverlap = 200
)

// DefaultSeparators are tried in order: paragraphs, lines, sentences, words,
// then single characters.
var DefaultSeparators = []string{"\n\n", "\n", ".", "!", "?", " ", ""}

// Splitter is a recursive character splitter. Sizes are counted in runes.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// New returns a Splitter with the default separators. Non-positive size
// means DefaultSize; an overlap outside [0, size) is reset to size/10.
func New(size, overlap int) *Splitter {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 10
	}
	return &Splitter{size: size, overlap: overlap, separators: DefaultSeparators}
}

// Split splits text with the default size and overlap.
func Split(text string) []string {
	return New(DefaultSize, DefaultOverlap).Split(text)
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns trimmed, non-empty chunks in document order.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, cand := range separators {
		if cand == "" {
			sep = cand
			break
		}
		if strings.Contains(text, cand) {
			sep = cand
			rest = separators[i+1:]
			break
		}
	}

	var out, good []string
	for _, piece := range splitKeep(text, sep) {
		if utf8.RuneCountInString(piece) < s.size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			out = append(out, s.merge(good)...)
			good = nil
		}
		if len(rest) == 0 {
			if t := strings.TrimSpace(piece); t != "" {
				out = append(out, t)
			}
		} else {
			out = append(out, s.split(piece, rest)...)
		}
	}
	if len(good) > 0 {
		out = append(out, s.merge(good)...)
	}
	return out
}

// merge packs pieces into chunks of at most size runes, carrying up to
// overlap runes of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var (
		out     []string
		current []string
		total   int
	)
	for _, p := range pieces {
		n := utf8.RuneCountInString(p)
		if total+n > s.size && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				out = append(out, doc)
			}
			for total > s.overlap || (total+n > s.size && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		out = append(out, doc)
	}
	return out
}

// splitKeep splits on sep and keeps sep at the start of each following
// piece, so joining the pieces restores the text. Empty sep splits runes.
func splitKeep(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
