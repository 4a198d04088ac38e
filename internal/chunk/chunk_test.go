package chunk

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortText(t *testing.T) {
	got := Split("  Hearing on January 5, 2026.  ")
	if len(got) != 1 || got[0] != "Hearing on January 5, 2026." {
		t.Fatalf("Split() = %q", got)
	}
}

func TestSplitEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\n\n\n"} {
		if got := Split(in); len(got) != 0 {
			t.Errorf("Split(%q) = %q", in, got)
		}
	}
}

func TestSplitNoSeparators(t *testing.T) {
	text := strings.Repeat("a", 5000)
	got := Split(text)
	want := []int{2000, 2000, 1400}
	if len(got) != len(want) {
		t.Fatalf("got %d chunks", len(got))
	}
	for i, c := range got {
		if len(c) != want[i] {
			t.Errorf("chunk %d len = %d, want %d", i, len(c), want[i])
		}
	}
}

func TestSplitParagraphs(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, fmt.Sprintf("Paragraph %02d. %s", i, strings.Repeat("word ", 30)))
	}
	text := strings.Join(paras, "\n\n")
	got := New(500, 100).Split(text)
	if len(got) < 2 {
		t.Fatalf("expected several chunks, got %d", len(got))
	}
	for i, c := range got {
		if n := utf8.RuneCountInString(c); n > 500 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
		if c != strings.TrimSpace(c) || c == "" {
			t.Errorf("chunk %d not trimmed: %q", i, c)
		}
	}
	// every paragraph label survives, in order
	joined := strings.Join(got, "\n")
	last := -1
	for i := 0; i < 40; i++ {
		idx := strings.Index(joined, fmt.Sprintf("Paragraph %02d.", i))
		if idx < 0 {
			t.Fatalf("paragraph %d lost", i)
		}
		if idx < last {
			t.Fatalf("paragraph %d out of order", i)
		}
		last = idx
	}
}

func TestSplitOverlap(t *testing.T) {
	var words []string
	for i := 0; i < 400; i++ {
		words = append(words, fmt.Sprintf("w%03d", i))
	}
	got := New(200, 50).Split(strings.Join(words, " "))
	if len(got) < 2 {
		t.Fatalf("got %d chunks", len(got))
	}
	for i := 1; i < len(got); i++ {
		prev := strings.Fields(got[i-1])
		first := strings.Fields(got[i])[0]
		found := false
		for _, w := range prev {
			if w == first {
				found = true
			}
		}
		if !found {
			t.Errorf("chunk %d does not start inside the previous chunk's tail", i)
		}
	}
}

func TestNewClampsOverlap(t *testing.T) {
	s := New(100, 500)
	if s.Size() != 100 || s.Overlap() != 10 {
		t.Fatalf("size=%d overlap=%d", s.Size(), s.Overlap())
	}
	if d := New(0, -1); d.Size() != DefaultSize {
		t.Fatalf("size=%d", d.Size())
	}
}

func TestSplitKeepRoundTrip(t *testing.T) {
	text := "a. b.. c."
	if got := strings.Join(splitKeep(text, "."), ""); got != text {
		t.Fatalf("roundtrip = %q", got)
	}
}
