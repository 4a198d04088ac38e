package deadline

import (
	"errors"
	"testing"
	"time"
)

func TestDateTimeParserParse(t *testing.T) {
	p := NewDateTimeParser(time.UTC, 9)
	tests := []struct {
		date, clock string
		want        string
	}{
		{"January 5, 2026", "10:00 AM", "2026-01-05 10:00"},
		{"January 5, 2026", "", "2026-01-05 09:00"},
		{"jan 5 2026", "3 pm", "2026-01-05 15:00"},
		{"Sept 30, 2026", "12 PM", "2026-09-30 12:00"},
		{"Sept 30, 2026", "12:15am", "2026-09-30 00:15"},
		{"03/15/2026", "14:30", "2026-03-15 14:30"},
		{"15/03/2026", "", "2026-03-15 09:00"},
		{"3-4-2026", "", "2026-03-04 09:00"},
		{"2026-1-5", "7:05 PM", "2026-01-05 19:05"},
		{"5th of January 2026", "", "2026-01-05 09:00"},
		{"22nd of march 2027", "9am", "2027-03-22 09:00"},
		{"2026/02/03", "", "2026-02-03 09:00"},
	}
	for _, tt := range tests {
		t.Run(tt.date+" "+tt.clock, func(t *testing.T) {
			got, err := p.Parse(tt.date, tt.clock)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if s := got.Format("2006-01-02 15:04"); s != tt.want {
				t.Errorf("got %s, want %s", s, tt.want)
			}
		})
	}
}

func TestDateTimeParserRejects(t *testing.T) {
	p := NewDateTimeParser(time.UTC, 9)
	tests := []struct{ date, clock string }{
		{"February 30, 2026", ""},
		{"13/13/2026", ""},
		{"2026-13-01", ""},
		{"99/99/2026", ""},
		{"January 5, 2026", "13 PM"},
		{"January 5, 2026", "25:00"},
		{"January 5, 2026", "10:75"},
		{"32nd of January 2026", ""},
	}
	for _, tt := range tests {
		t.Run(tt.date+" "+tt.clock, func(t *testing.T) {
			if _, err := p.Parse(tt.date, tt.clock); !errors.Is(err, ErrUnparsable) {
				t.Fatalf("Parse(%q, %q) err = %v, want ErrUnparsable", tt.date, tt.clock, err)
			}
		})
	}
}

func TestDateTimeParserLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	p := NewDateTimeParser(loc, 8)
	got, err := p.Parse("January 5, 2026", "")
	if err != nil {
		t.Fatal(err)
	}
	if got.Location() != loc || got.Hour() != 8 {
		t.Errorf("got %v", got)
	}
}
