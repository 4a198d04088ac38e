package entity

import (
	"time"

	"github.com/google/uuid"
)

// DatetimeLayout is the lexical form of Candidate.Datetime.
const DatetimeLayout = "2006-01-02 15:04"

// Candidate is an extracted, not yet deduplicated deadline record.
type Candidate struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	Datetime    string `json:"datetime"`
	EventType   string `json:"event_type"`
	Description string `json:"description"`
}

// Time parses Datetime in loc.
func (c Candidate) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(DatetimeLayout, c.Datetime, loc)
}

// Deadline is a candidate after calendar sync, as persisted and returned.
type Deadline struct {
	ID              uuid.UUID `json:"id"`
	RunID           uuid.UUID `json:"run_id"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	Datetime        string    `json:"datetime"`
	EventType       string    `json:"event_type"`
	Description     string    `json:"description"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	CalendarLink    string    `json:"calendar_link,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// FromCandidate copies the candidate fields into a new Deadline.
func FromCandidate(runID uuid.UUID, c Candidate) Deadline {
	return Deadline{
		ID:          uuid.New(),
		RunID:       runID,
		Title:       c.Title,
		Text:        c.Text,
		Datetime:    c.Datetime,
		EventType:   c.EventType,
		Description: c.Description,
	}
}
