package summarizer

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when no Gemini API key is configured.
	ErrMissingAPIKey = errors.New("Missing GEMINI_API_KEY environment variable")

	// ErrEmptyResponse is returned when the model answers without any choice.
	ErrEmptyResponse = errors.New("model returned no response")
)

// SummaryError wraps a summarization failure with the failing operation.
type SummaryError struct {
	Op      string
	Err     error
	Details string
}

func (e *SummaryError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Details)
	}
	return e.Err.Error()
}

// LogString includes the operation.
func (e *SummaryError) LogString() string {
	return fmt.Sprintf("summarizer: %s failed: %s", e.Op, e.Error())
}

func (e *SummaryError) Unwrap() error {
	return e.Err
}

func (e *SummaryError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapSummaryError wraps err unless it already is a SummaryError.
func WrapSummaryError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var sumErr *SummaryError
	if errors.As(err, &sumErr) {
		return err
	}

	return &SummaryError{Op: op, Err: err, Details: details}
}
