package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/deadline-extractor/internal/calendar"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/repository"
)

const sheet = "Deadlines"

// Query selects what to export: one run, or upcoming deadlines from From.
type Query struct {
	RunID *uuid.UUID
	From  *time.Time
	Limit int
}

// Service is a tiny facade over repositories that produces XLSX bytes for exports.
type Service struct {
	deadlines repository.DeadlineRepository
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(deadlines repository.DeadlineRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deadlines: deadlines, now: time.Now, logger: logger}
}

// ExportDeadlinesXLSX returns an XLSX workbook (as bytes).
// With RunID set  -> every deadline of that run.
// Otherwise       -> upcoming deadlines from From (default now), soonest first.
func (s *Service) ExportDeadlinesXLSX(ctx context.Context, q Query) ([]byte, error) {
	start := time.Now()
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	out, err := WriteDeadlinesXLSX(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// ExportDeadlinesICS selects like ExportDeadlinesXLSX and renders one
// VCALENDAR with events in tz.
func (s *Service) ExportDeadlinesICS(ctx context.Context, q Query, tz string) ([]byte, error) {
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no deadlines to export", common.ErrNotFound)
	}
	var buf bytes.Buffer
	if err := calendar.WriteICS(&buf, rows, tz); err != nil {
		return nil, fmt.Errorf("write ics: %w", err)
	}
	s.logger.Info("export.ics.ok", "rows", len(rows))
	return buf.Bytes(), nil
}

func (s *Service) query(ctx context.Context, q Query) ([]entity.Deadline, error) {
	if s.deadlines == nil {
		return nil, errors.New("export: no deadline repository")
	}
	var (
		rows []entity.Deadline
		err  error
	)
	if q.RunID != nil {
		rows, err = s.deadlines.ListByRun(ctx, *q.RunID)
	} else {
		from := s.now().UTC()
		if q.From != nil {
			from = *q.From
		}
		rows, err = s.deadlines.ListUpcoming(ctx, from, q.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query deadlines: %w", err)
	}
	return rows, nil
}

// WriteDeadlinesXLSX renders deadlines into a single-sheet workbook.
func WriteDeadlinesXLSX(deadlines []entity.Deadline) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{
		"Date/Time",
		"Event Type",
		"Title",
		"Description",
		"Source Text",
		"Calendar Event ID",
		"Calendar Link",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}

	for i, d := range deadlines {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, d.Datetime)
		write(2, d.EventType)
		write(3, d.Title)
		write(4, truncate(d.Description, 280))
		write(5, truncate(d.Text, 280))
		write(6, d.CalendarEventID)
		if d.CalendarLink != "" {
			cell, _ := excelize.CoordinatesToCellName(7, row)
			_ = f.SetCellValue(sheet, cell, d.CalendarLink)
			_ = f.SetCellHyperLink(sheet, cell, d.CalendarLink, "External")
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 18) // datetime
	_ = f.SetColWidth(sheet, "B", "B", 14) // type
	_ = f.SetColWidth(sheet, "C", "C", 40) // title
	_ = f.SetColWidth(sheet, "D", "E", 60)
	_ = f.SetColWidth(sheet, "F", "G", 30)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
