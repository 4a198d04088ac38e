package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

type RunRepository interface {
	// Start inserts run with status RUNNING, assigning an ID and start time
	// when missing.
	Start(ctx context.Context, run *entity.Run) error
	// Finish records the terminal state of run.
	Finish(ctx context.Context, run *entity.Run) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	List(ctx context.Context, limit int) ([]*entity.Run, error)
}

type runRepo struct {
	db  *DB
	log *slog.Logger
}

func NewRunRepository(db *DB, log *slog.Logger) RunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &runRepo{db: db, log: log}
}

const runColumns = `id, document_id, source, format, status, strategy, text_chars, chunk_count, case_number, error_message, started_at, finished_at`

func (r *runRepo) Start(ctx context.Context, run *entity.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = string(constants.RunStatusRunning)

	var docID sql.NullString
	if run.DocumentID != nil {
		docID = sql.NullString{String: run.DocumentID.String(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(`INSERT INTO runs (id, document_id, source, format, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`),
		run.ID, docID, run.Source, run.Format, run.Status, run.StartedAt)
	if err != nil {
		r.log.Error("run start failed", "source", run.Source, "err", err)
		return dbErr("insert run", err)
	}
	r.log.Info("run started", "run_id", run.ID, "source", run.Source, "format", run.Format)
	return nil
}

func (r *runRepo) Finish(ctx context.Context, run *entity.Run) error {
	now := time.Now().UTC()
	if run.FinishedAt == nil {
		run.FinishedAt = &now
	}
	res, err := r.db.ExecContext(ctx, r.db.rebind(`UPDATE runs SET status = ?, strategy = ?, text_chars = ?, chunk_count = ?, case_number = ?, error_message = ?, finished_at = ? WHERE id = ?`),
		run.Status, run.Strategy, run.TextChars, run.ChunkCount, run.CaseNumber, run.ErrorMessage, *run.FinishedAt, run.ID)
	if err != nil {
		r.log.Error("run finish failed", "run_id", run.ID, "err", err)
		return dbErr("update run", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	r.log.Info("run finished", "run_id", run.ID, "status", run.Status, "strategy", run.Strategy)
	return nil
}

func (r *runRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, dbErr("get run", err)
	}
	return run, nil
}

func (r *runRepo) List(ctx context.Context, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, r.db.rebind(`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, dbErr("list runs", err)
	}
	defer rows.Close()

	var out []*entity.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, dbErr("scan run", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*entity.Run, error) {
	var (
		run      entity.Run
		docID    sql.NullString
		finished sql.NullTime
	)
	err := s.Scan(&run.ID, &docID, &run.Source, &run.Format, &run.Status, &run.Strategy,
		&run.TextChars, &run.ChunkCount, &run.CaseNumber, &run.ErrorMessage, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if docID.Valid {
		id, err := uuid.Parse(docID.String)
		if err != nil {
			return nil, err
		}
		run.DocumentID = &id
	}
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}
