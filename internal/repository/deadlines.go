package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

type DeadlineRepository interface {
	// InsertBatch stores all deadlines in one transaction.
	InsertBatch(ctx context.Context, deadlines []entity.Deadline) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.Deadline, error)
	// ListUpcoming returns deadlines due at or after from, soonest first.
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]entity.Deadline, error)
}

type deadlineRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDeadlineRepository(db *DB, logger *slog.Logger) DeadlineRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &deadlineRepo{db: db, logger: logger}
}

const deadlineColumns = `id, run_id, title, snippet, due, event_type, description, calendar_event_id, calendar_link, created_at`

func (r *deadlineRepo) InsertBatch(ctx context.Context, deadlines []entity.Deadline) error {
	if len(deadlines) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.db.rebind(`INSERT INTO deadlines (`+deadlineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return dbErr("prepare", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range deadlines {
		d := &deadlines[i]
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		if d.CreatedAt.IsZero() {
			d.CreatedAt = now
		}
		if _, err := stmt.ExecContext(ctx, d.ID, d.RunID, d.Title, d.Text, d.Datetime, d.EventType, d.Description,
			d.CalendarEventID, d.CalendarLink, d.CreatedAt); err != nil {
			r.logger.Error("failed to insert deadline", "run_id", d.RunID, "datetime", d.Datetime, "error", err)
			return dbErr("insert deadline", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return dbErr("commit", err)
	}
	return nil
}

func (r *deadlineRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]entity.Deadline, error) {
	return r.query(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE run_id = ? ORDER BY due, event_type`, runID)
}

func (r *deadlineRepo) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]entity.Deadline, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.query(ctx, `SELECT `+deadlineColumns+` FROM deadlines WHERE due >= ? ORDER BY due, event_type LIMIT ?`,
		from.Format(entity.DatetimeLayout), limit)
}

func (r *deadlineRepo) query(ctx context.Context, q string, args ...any) ([]entity.Deadline, error) {
	rows, err := r.db.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, dbErr("query deadlines", err)
	}
	defer rows.Close()

	var out []entity.Deadline
	for rows.Next() {
		var d entity.Deadline
		if err := rows.Scan(&d.ID, &d.RunID, &d.Title, &d.Text, &d.Datetime, &d.EventType, &d.Description,
			&d.CalendarEventID, &d.CalendarLink, &d.CreatedAt); err != nil {
			return nil, dbErr("scan deadline", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
