// Package calendar writes extracted deadlines to a calendar. Every backend
// creates one-hour events and reports the created event's id and link.
package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/deadline"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

// EventDuration is the length of every created event.
const EventDuration = time.Hour

// Event is what gets written for one deadline.
type Event struct {
	Title       string
	Description string
	Datetime    string // "YYYY-MM-DD HH:MM", wall time in Timezone
	Timezone    string // IANA name; UTC when empty
}

// Created identifies an event in the backend. Both fields are empty for the
// no-op backend.
type Created struct {
	ID   string
	Link string
}

// Client is implemented by every backend.
type Client interface {
	CreateEvent(ctx context.Context, e Event) (Created, error)
	Name() string
}

// New builds the backend selected by cfg.Backend.
func New(ctx context.Context, cfg common.CalendarConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(cfg.Backend) {
	case "google":
		c, err := NewGoogleClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "ics":
		c, err := NewICSClient(cfg.ICSDir, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "", "none":
		return NoopClient{}, nil
	default:
		return nil, common.NewAppError("CONFIG_ERROR", "unknown calendar backend "+cfg.Backend, common.ErrInvalidInput)
	}
}

// EventFromDeadline maps a deadline onto a calendar event. Titles are capped
// at deadline.DefaultTitleMax runes; an empty one is built from type and text.
func EventFromDeadline(d entity.Deadline, tz string) Event {
	title := strings.TrimSpace(d.Title)
	if title == "" {
		title = deadline.FormatEventTitle(d.EventType, d.Text, deadline.DefaultTitleMax)
	} else {
		title = deadline.TruncateTitle(title, deadline.DefaultTitleMax)
	}
	return Event{Title: title, Description: d.Description, Datetime: d.Datetime, Timezone: tz}
}

// eventTimes resolves the start and end of e in its zone.
func eventTimes(e Event) (start, end time.Time, loc *time.Location, err error) {
	tz := strings.TrimSpace(e.Timezone)
	if tz == "" {
		tz = "UTC"
	}
	loc, err = time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: timezone %q: %v", common.ErrCalendar, tz, err)
	}
	start, err = time.ParseInLocation(entity.DatetimeLayout, e.Datetime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("%w: datetime %q: %v", common.ErrCalendar, e.Datetime, err)
	}
	return start, start.Add(EventDuration), loc, nil
}

// NoopClient accepts every event and records nothing.
type NoopClient struct{}

func (NoopClient) CreateEvent(_ context.Context, e Event) (Created, error) {
	if _, _, _, err := eventTimes(e); err != nil {
		return Created{}, err
	}
	return Created{}, nil
}

func (NoopClient) Name() string { return "none" }
