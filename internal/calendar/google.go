package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
)

var calendarBaseURL = "https://www.googleapis.com/calendar/v3"

// GoogleClient inserts events through the Calendar v3 REST API.
type GoogleClient struct {
	http       *http.Client
	calendarID string
	logger     *slog.Logger
}

// NewGoogleClient loads the token file written by calendar-auth. Refreshed
// tokens are written back to the same file.
func NewGoogleClient(ctx context.Context, cfg common.CalendarConfig, logger *slog.Logger) (*GoogleClient, error) {
	st, err := LoadToken(cfg.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v (authenticate with calendar-auth)", common.ErrCalendar, err)
	}
	oc, tok := st.OAuth2()
	ts := &persistingTokenSource{
		base:   oc.TokenSource(ctx, tok),
		path:   cfg.TokenFile,
		stored: *st,
		save:   SaveToken,
	}
	hc := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, ts))
	hc.Timeout = 30 * time.Second
	return newGoogleClientWithHTTP(hc, cfg.CalendarID, logger), nil
}

func newGoogleClientWithHTTP(hc *http.Client, calendarID string, logger *slog.Logger) *GoogleClient {
	if calendarID == "" {
		calendarID = "primary"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleClient{http: hc, calendarID: calendarID, logger: logger}
}

func (c *GoogleClient) Name() string { return "google" }

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type insertRequest struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Start       eventTime `json:"start"`
	End         eventTime `json:"end"`
}

type insertResponse struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// CreateEvent inserts a one-hour event. Any failure wraps common.ErrCalendar.
func (c *GoogleClient) CreateEvent(ctx context.Context, e Event) (Created, error) {
	start, end, loc, err := eventTimes(e)
	if err != nil {
		return Created{}, err
	}
	const wall = "2006-01-02T15:04:05"
	body := insertRequest{
		Summary:     e.Title,
		Description: e.Description,
		Start:       eventTime{DateTime: start.Format(wall), TimeZone: loc.String()},
		End:         eventTime{DateTime: end.Format(wall), TimeZone: loc.String()},
	}
	bs, err := json.Marshal(body)
	if err != nil {
		return Created{}, fmt.Errorf("%w: encode: %v", common.ErrCalendar, err)
	}

	endpoint := calendarBaseURL + "/calendars/" + url.PathEscape(c.calendarID) + "/events"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bs))
	if err != nil {
		return Created{}, fmt.Errorf("%w: %v", common.ErrCalendar, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("calendar.insert.failed", "calendar_id", c.calendarID, "error", err)
		return Created{}, fmt.Errorf("%w: %v", common.ErrCalendar, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode/100 != 2 {
		c.logger.Error("calendar.insert.failed", "calendar_id", c.calendarID, "status", resp.StatusCode)
		return Created{}, fmt.Errorf("%w: status %d: %s", common.ErrCalendar, resp.StatusCode, bytes.TrimSpace(raw))
	}
	var out insertResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Created{}, fmt.Errorf("%w: decode: %v", common.ErrCalendar, err)
	}
	c.logger.Info("calendar.insert.ok", "calendar_id", c.calendarID, "event_id", out.ID, "start", e.Datetime)
	return Created{ID: out.ID, Link: out.HTMLLink}, nil
}
