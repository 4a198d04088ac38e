package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

type fakeDeadlines struct {
	byRun    []entity.Deadline
	upcoming []entity.Deadline
	from     time.Time
	err      error
}

func (f *fakeDeadlines) InsertBatch(context.Context, []entity.Deadline) error { return nil }

func (f *fakeDeadlines) ListByRun(context.Context, uuid.UUID) ([]entity.Deadline, error) {
	return f.byRun, f.err
}

func (f *fakeDeadlines) ListUpcoming(_ context.Context, from time.Time, _ int) ([]entity.Deadline, error) {
	f.from = from
	return f.upcoming, f.err
}

func readRows(t *testing.T, b []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestExportByRun(t *testing.T) {
	repo := &fakeDeadlines{byRun: []entity.Deadline{{
		Title: "Hearing: MSJ", Datetime: "2026-01-05 10:00", EventType: "Hearing",
		Description: "Hearing", Text: "The hearing is scheduled...", CalendarEventID: "evt1",
		CalendarLink: "https://calendar.example/evt1",
	}}}
	svc := NewService(repo, nil)
	id := uuid.New()
	b, err := svc.ExportDeadlinesXLSX(context.Background(), Query{RunID: &id})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	rows := readRows(t, b)
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "Date/Time" || rows[1][0] != "2026-01-05 10:00" || rows[1][2] != "Hearing: MSJ" || rows[1][6] != "https://calendar.example/evt1" {
		t.Errorf("row = %v", rows[1])
	}
}

func TestExportUpcomingDefaultsToNow(t *testing.T) {
	repo := &fakeDeadlines{}
	svc := NewService(repo, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	b, err := svc.ExportDeadlinesXLSX(context.Background(), Query{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !repo.from.Equal(now) {
		t.Errorf("from = %v", repo.from)
	}
	if rows := readRows(t, b); len(rows) != 1 {
		t.Errorf("expected header only, got %v", rows)
	}
}

func TestExportError(t *testing.T) {
	svc := NewService(&fakeDeadlines{err: errors.New("db down")}, nil)
	if _, err := svc.ExportDeadlinesXLSX(context.Background(), Query{}); err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("err = %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("héllo", 3); got != "hé…" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestExportICS(t *testing.T) {
	repo := &fakeDeadlines{byRun: []entity.Deadline{{
		ID: uuid.New(), Title: "Hearing: MSJ", Datetime: "2026-01-05 10:00", EventType: "Hearing",
		Description: "Hearing",
	}}}
	svc := NewService(repo, nil)
	id := uuid.New()
	b, err := svc.ExportDeadlinesICS(context.Background(), Query{RunID: &id}, "America/Chicago")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := string(b)
	for _, want := range []string{"BEGIN:VCALENDAR", "SUMMARY:Hearing: MSJ", "America/Chicago"} {
		if !strings.Contains(out, want) {
			t.Errorf("ics missing %q:\n%s", want, out)
		}
	}
}

func TestExportICSEmpty(t *testing.T) {
	svc := NewService(&fakeDeadlines{}, nil)
	id := uuid.New()
	if _, err := svc.ExportDeadlinesICS(context.Background(), Query{RunID: &id}, "UTC"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
