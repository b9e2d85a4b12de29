package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrPDFTooLarge is returned when the PDF exceeds the 20MB limit of the
	// synchronous provider APIs.
	ErrPDFTooLarge = errors.New("PDF file size exceeds the maximum limit (20MB)")

	// ErrInvalidPDF is returned when the provided data is not a PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrOCRFailed is returned when the remote service fails to process the document.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingConfiguration is returned when Document AI is selected but the
	// project id or processor id is not configured.
	ErrMissingConfiguration = errors.New("Missing GOOGLE_PROJECT_ID or DOCUMENT_AI_PROCESSOR_ID environment variables")

	// ErrMissingAPIKey is returned when the OpenRouter provider is selected
	// without an API key.
	ErrMissingAPIKey = errors.New("Missing OPENROUTER_API_KEY")

	// ErrTooManyPages is returned when Cloud Vision is given more pages than
	// its synchronous API accepts.
	ErrTooManyPages = errors.New("PDF has too many pages (maximum 5 pages for synchronous processing)")

	// ErrEmptyDocument is returned when the provider reports no text at all.
	ErrEmptyDocument = errors.New("Document AI returned empty result")
)

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Provider is the provider that failed ("documentai", "gemini", "vision").
	Provider string

	// Op is the operation that failed (e.g., "Extract", "NewDocumentAIProvider").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error returns the underlying message and details, which is what the
// process endpoint shows after "OCR failed: ". LogString adds Op and Provider.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Details)
	}
	return e.Err.Error()
}

// LogString includes the operation and provider.
func (e *OCRError) LogString() string {
	return fmt.Sprintf("ocr(%s): %s failed: %s", e.Provider, e.Op, e.Error())
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewOCRError creates a new OCRError.
func NewOCRError(provider, op string, err error, details string) *OCRError {
	return &OCRError{
		Provider: provider,
		Op:       op,
		Err:      err,
		Details:  details,
	}
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(provider, op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err // Already wrapped
	}

	return NewOCRError(provider, op, err, details)
}
