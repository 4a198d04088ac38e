package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

const productID = "-//deadline-extractor//EN"

// ICSClient writes each event to its own .ics file in a directory.
type ICSClient struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

func NewICSClient(dir string, logger *slog.Logger) (*ICSClient, error) {
	if dir == "" {
		dir = "calendar"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: ics dir: %v", common.ErrCalendar, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ICSClient{dir: abs, now: time.Now, logger: logger}, nil
}

func (c *ICSClient) Name() string { return "ics" }

// CreateEvent writes <uid>.ics and returns the uid and a file:// link.
func (c *ICSClient) CreateEvent(_ context.Context, e Event) (Created, error) {
	start, end, _, err := eventTimes(e)
	if err != nil {
		return Created{}, err
	}
	uid := uuid.NewString()
	cal := newCalendar()
	cal.Children = append(cal.Children, newEvent(uid, e.Title, e.Description, start, end, c.now()).Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return Created{}, fmt.Errorf("%w: encode ics: %v", common.ErrCalendar, err)
	}
	path := filepath.Join(c.dir, uid+".ics")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return Created{}, fmt.Errorf("%w: write ics: %v", common.ErrCalendar, err)
	}
	c.logger.Info("calendar.ics.written", "path", path, "start", e.Datetime)
	return Created{ID: uid, Link: "file://" + filepath.ToSlash(path)}, nil
}

// WriteICS encodes deadlines as a single VCALENDAR. Events already synced
// keep their calendar id as UID.
func WriteICS(w io.Writer, deadlines []entity.Deadline, tz string) error {
	cal := newCalendar()
	now := time.Now()
	for _, d := range deadlines {
		e := EventFromDeadline(d, tz)
		start, end, _, err := eventTimes(e)
		if err != nil {
			return err
		}
		uid := d.CalendarEventID
		if uid == "" {
			uid = d.ID.String()
		}
		ev := newEvent(uid, e.Title, e.Description, start, end, now)
		ev.Props.SetText(ical.PropCategories, d.EventType)
		cal.Children = append(cal.Children, ev.Component)
	}
	return ical.NewEncoder(w).Encode(cal)
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

func newEvent(uid, title, description string, start, end, stamp time.Time) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, uid)
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ev.Props.SetDateTime(ical.PropDateTimeStart, start)
	ev.Props.SetDateTime(ical.PropDateTimeEnd, end)
	ev.Props.SetText(ical.PropSummary, title)
	if description != "" {
		ev.Props.SetText(ical.PropDescription, description)
	}
	return ev
}
