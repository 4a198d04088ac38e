package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{DSN: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestOpenMigratesAndPings(t *testing.T) {
	db := openTestDB(t)
	if db.Dialect != SQLite {
		t.Fatalf("dialect = %v", db.Dialect)
	}
	if err := db.HealthCheck(context.Background(), time.Second); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	// idempotent
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	if got := pg.rebind(`SELECT a FROM t WHERE x = ? AND y = ?`); got != `SELECT a FROM t WHERE x = $1 AND y = $2` {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &DB{Dialect: SQLite}
	if got := lite.rebind(`x = ?`); got != `x = ?` {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestIsPostgresDSN(t *testing.T) {
	for dsn, want := range map[string]bool{
		"postgres://u@h/db":   true,
		"postgresql://u@h/db": true,
		"file:deadlines.db":   false,
		":memory:":            false,
	} {
		if got := IsPostgresDSN(dsn); got != want {
			t.Errorf("IsPostgresDSN(%q) = %v", dsn, got)
		}
	}
}

func TestDocumentUpsertByHash(t *testing.T) {
	db := openTestDB(t)
	repo := NewDocumentRepository(db, nil)
	ctx := context.Background()

	doc := &entity.Document{SourcePath: "/in/order.pdf", ContentHash: []byte{0xde, 0xad}, Filename: "order.pdf", FileExt: "pdf", FileSize: 42}
	first, existed, err := repo.UpsertByHash(ctx, doc)
	if err != nil || existed {
		t.Fatalf("first upsert: existed=%v err=%v", existed, err)
	}
	second, existed, err := repo.UpsertByHash(ctx, &entity.Document{SourcePath: "/in/copy.pdf", ContentHash: []byte{0xde, 0xad}, Filename: "copy.pdf", FileExt: "pdf"})
	if err != nil || !existed {
		t.Fatalf("second upsert: existed=%v err=%v", existed, err)
	}
	if second.ID != first.ID || second.Filename != "order.pdf" {
		t.Fatalf("second = %+v", second)
	}

	got, err := repo.GetByID(ctx, first.ID)
	if err != nil || string(got.ContentHash) != string([]byte{0xde, 0xad}) || got.FileSize != 42 {
		t.Fatalf("GetByID = %+v, %v", got, err)
	}
	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing doc err = %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	db := openTestDB(t)
	docs := NewDocumentRepository(db, nil)
	runs := NewRunRepository(db, nil)
	ctx := context.Background()

	doc, _, err := docs.UpsertByHash(ctx, &entity.Document{SourcePath: "a.txt", ContentHash: []byte("h"), Filename: "a.txt", FileExt: "txt"})
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	run := &entity.Run{DocumentID: &doc.ID, Source: "a.txt", Format: constants.TXT}
	if err := runs.Start(ctx, run); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if run.ID == uuid.Nil || run.Status != string(constants.RunStatusRunning) {
		t.Fatalf("run after start = %+v", run)
	}

	run.Status = string(constants.RunStatusSynced)
	run.Strategy = string(constants.StrategyRules)
	run.TextChars = 120
	run.ChunkCount = 1
	run.CaseNumber = "2024-CV-001"
	if err := runs.Finish(ctx, run); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := runs.Get(ctx, run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != "SYNCED" || got.Strategy != "rules" || got.TextChars != 120 || got.CaseNumber != "2024-CV-001" {
		t.Errorf("got = %+v", got)
	}
	if got.DocumentID == nil || *got.DocumentID != doc.ID || got.FinishedAt == nil {
		t.Errorf("document/finished not stored: %+v", got)
	}

	list, err := runs.List(ctx, 10)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}
	if err := runs.Finish(ctx, &entity.Run{ID: uuid.New(), Status: "FAILED"}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("finish unknown run err = %v", err)
	}
	if _, err := runs.Get(ctx, uuid.New()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("get unknown run err = %v", err)
	}
}

func TestDeadlines(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunRepository(db, nil)
	repo := NewDeadlineRepository(db, nil)
	ctx := context.Background()

	run := &entity.Run{Source: "inline", Format: constants.TXT}
	if err := runs.Start(ctx, run); err != nil {
		t.Fatalf("Start: %v", err)
	}
	batch := []entity.Deadline{
		entity.FromCandidate(run.ID, entity.Candidate{Title: "Trial", Datetime: "2026-04-07 13:30", EventType: "Trial"}),
		entity.FromCandidate(run.ID, entity.Candidate{Title: "Hearing", Text: "snippet", Datetime: "2026-01-05 10:00", EventType: "Hearing"}),
		entity.FromCandidate(run.ID, entity.Candidate{Title: "Old", Datetime: "2025-01-01 09:00", EventType: "Deadline"}),
	}
	batch[1].CalendarEventID = "evt1"
	if err := repo.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}

	got, err := repo.ListByRun(ctx, run.ID)
	if err != nil || len(got) != 3 {
		t.Fatalf("ListByRun = %v, %v", got, err)
	}
	if got[1].Title != "Hearing" || got[1].Text != "snippet" || got[1].CalendarEventID != "evt1" {
		t.Errorf("ordered by due: %+v", got)
	}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	upcoming, err := repo.ListUpcoming(ctx, from, 1)
	if err != nil || len(upcoming) != 1 || upcoming[0].Datetime != "2026-01-05 10:00" {
		t.Fatalf("ListUpcoming = %+v, %v", upcoming, err)
	}
}

func TestInsertBatchRollsBack(t *testing.T) {
	db := openTestDB(t)
	repo := NewDeadlineRepository(db, nil)
	ctx := context.Background()

	// run_id has no runs row; the foreign key rejects the batch
	orphan := []entity.Deadline{entity.FromCandidate(uuid.New(), entity.Candidate{Datetime: "2026-01-05 10:00", EventType: "Hearing"})}
	if err := repo.InsertBatch(ctx, orphan); !errors.Is(err, common.ErrDatabase) {
		t.Fatalf("err = %v", err)
	}
	if got, _ := repo.ListByRun(ctx, orphan[0].RunID); len(got) != 0 {
		t.Fatalf("rolled back batch left rows: %+v", got)
	}
}
