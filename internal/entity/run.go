package entity

import (
	"time"

	"github.com/google/uuid"
)

// Run represents one extraction pass over a document.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	DocumentID   *uuid.UUID `json:"document_id,omitempty"`
	Source       string     `json:"source"`
	Format       string     `json:"format"`
	Status       string     `json:"status"`
	Strategy     string     `json:"strategy,omitempty"`
	TextChars    int        `json:"text_chars"`
	ChunkCount   int        `json:"chunk_count"`
	CaseNumber   string     `json:"case_number,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
