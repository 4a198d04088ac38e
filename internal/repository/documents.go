package repository

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/internal/common"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
)

type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, hash []byte) (*entity.Document, error)
	// UpsertByHash returns the existing row for the same content, or inserts
	// doc. The bool reports whether the row already existed.
	UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error)
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

const documentColumns = `id, source_path, content_hash, filename, file_ext, file_size, uploaded_at`

func (r *documentRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+documentColumns+` FROM documents WHERE id = ?`), id)
	return scanDocument(row)
}

func (r *documentRepo) GetByHash(ctx context.Context, hash []byte) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(`SELECT `+documentColumns+` FROM documents WHERE content_hash = ?`), hex.EncodeToString(hash))
	return scanDocument(row)
}

func (r *documentRepo) UpsertByHash(ctx context.Context, doc *entity.Document) (*entity.Document, bool, error) {
	if existing, err := r.GetByHash(ctx, doc.ContentHash); err == nil {
		return existing, true, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		r.logger.Error("failed to get document by hash", "filename", doc.Filename, "error", err)
		return nil, false, err
	}

	out := *doc
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.UploadedAt.IsZero() {
		out.UploadedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(`INSERT INTO documents (`+documentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		out.ID, out.SourcePath, hex.EncodeToString(out.ContentHash), out.Filename, out.FileExt, out.FileSize, out.UploadedAt)
	if err != nil {
		r.logger.Error("failed to upsert document by hash", "source_path", doc.SourcePath, "filename", doc.Filename, "error", err)
		return nil, false, dbErr("insert document", err)
	}
	return &out, false, nil
}

func scanDocument(row *sql.Row) (*entity.Document, error) {
	var (
		d       entity.Document
		hashHex string
	)
	err := row.Scan(&d.ID, &d.SourcePath, &hashHex, &d.Filename, &d.FileExt, &d.FileSize, &d.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if d.ContentHash, err = hex.DecodeString(hashHex); err != nil {
		return nil, err
	}
	return &d, nil
}
