package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/deadline-extractor/constants"
	"github.com/joseph-ayodele/deadline-extractor/internal/entity"
	"github.com/joseph-ayodele/deadline-extractor/internal/ocr"
)

// TextSource is stage 1: file -> text. *ocr.Extractor satisfies it.
type TextSource interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// Observer receives run level measurements. *metrics.Recorder satisfies it.
type Observer interface {
	ObserveRun(status constants.RunStatus, elapsed time.Duration)
	ObserveCalendar(backend string, err error)
}

// StatusSuccess is the Result.Status of every completed run.
const StatusSuccess = "success"

// Result is returned for every successfully processed document.
type Result struct {
	Status        string             `json:"status"`
	RunID         uuid.UUID          `json:"run_id"`
	ExtractedText string             `json:"extracted_text"`
	CaseNumber    string             `json:"case_number,omitempty"`
	Strategy      constants.Strategy `json:"strategy"`
	Chunks        int                `json:"chunks"`
	Deadlines     []entity.Deadline  `json:"deadlines"`
}

type noopObserver struct{}

func (noopObserver) ObserveRun(constants.RunStatus, time.Duration) {}
func (noopObserver) ObserveCalendar(string, error)                 {}
