package pipeline

import (
	"errors"
	"fmt"
)

// ErrFileNotFound is returned when the referenced upload no longer exists or
// is not an upload of the store.
var ErrFileNotFound = errors.New("File not found. It may have been auto-deleted.")

// Stage names a step of the processing pipeline.
type Stage string

const (
	StageOCR       Stage = "ocr"
	StageSummarize Stage = "summarize"
)

// StageError reports which stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageOCR:
		return fmt.Sprintf("OCR failed: %v", e.Err)
	case StageSummarize:
		return fmt.Sprintf("Summarization failed: %v", e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
}

func (e *StageError) Unwrap() error {
	return e.Err
}
