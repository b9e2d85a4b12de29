// Package pipeline runs an uploaded PDF through OCR, cleaning and
// summarization and assembles the analysis returned to the client.
package pipeline

import (
	"context"
	"errors"
	"math"
	"time"

	"scribeai/internal/logger"
	"scribeai/internal/ocr"
	"scribeai/internal/storage"
	"scribeai/internal/summarizer"
	"scribeai/internal/textclean"
	"scribeai/pkg/models"
)

// defaultPageConfidence stands in for a page that reports no confidence.
const defaultPageConfidence = 0.9

// Request selects an upload and the OCR provider to run on it.
type Request struct {
	FilePath    string          `json:"filePath"`
	OCRProvider string          `json:"ocrProvider,omitempty"`
	DocAICreds  *ocr.DocAICreds `json:"docAiCreds,omitempty"`
}

// Uploads is the part of storage.Store the processor needs.
type Uploads interface {
	Exists(path string) bool
	Open(path string) ([]byte, error)
	Remove(path string) error
}

// Processor runs the analysis pipeline. Each call is independent.
type Processor struct {
	uploads    Uploads
	providers  ocr.Factory
	summarizer summarizer.Factory
}

// NewProcessor wires a processor to its upload store and the factories that
// build OCR providers and summarizers per request.
func NewProcessor(uploads Uploads, providers ocr.Factory, summarizers summarizer.Factory) *Processor {
	return &Processor{
		uploads:    uploads,
		providers:  providers,
		summarizer: summarizers,
	}
}

// Process runs OCR on the upload, cleans the text, summarizes it and removes
// the upload. The upload is kept when a stage fails.
func (p *Processor) Process(ctx context.Context, req Request) (*models.AnalysisResponse, error) {
	log := logger.FromContext(ctx, "pipeline")

	if !p.uploads.Exists(req.FilePath) {
		return nil, ErrFileNotFound
	}
	pdf, err := p.uploads.Open(req.FilePath)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrOutsideStore) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}

	providerName := ocr.ParseProviderName(req.OCRProvider)

	start := time.Now()
	ocrResult, err := p.extract(ctx, providerName, req.DocAICreds, pdf)
	if err != nil {
		log.Error().
			Err(err).
			Str("provider", string(providerName)).
			Str("detail", errorDetail(err)).
			Msg("OCR stage failed")
		return nil, &StageError{Stage: StageOCR, Err: err}
	}
	log.Info().
		Str("provider", string(providerName)).
		Int("pages", len(ocrResult.Pages)).
		Dur("duration", time.Since(start)).
		Msg("OCR stage completed")

	cleaned := textclean.Clean(ocrResult.RawText)
	wordCount := textclean.WordCount(cleaned)

	start = time.Now()
	summary, err := p.summarize(ctx, cleaned)
	if err != nil {
		log.Error().Err(err).Str("detail", errorDetail(err)).Msg("Summarize stage failed")
		return nil, &StageError{Stage: StageSummarize, Err: err}
	}
	log.Info().
		Int("word_count", wordCount).
		Dur("duration", time.Since(start)).
		Msg("Summarize stage completed")

	if err := p.uploads.Remove(req.FilePath); err != nil {
		log.Warn().Err(err).Str("path", req.FilePath).Msg("Failed to remove processed upload")
	}

	pages := ocrResult.Pages
	if pages == nil {
		pages = []models.Page{}
	}

	return &models.AnalysisResponse{
		RawText:      ocrResult.RawText,
		CleanExtract: cleaned,
		Pages:        pages,
		WordCount:    wordCount,
		Confidence:   AverageConfidence(pages),
		Summary:      *summary,
	}, nil
}

func (p *Processor) extract(ctx context.Context, name ocr.ProviderName, creds *ocr.DocAICreds, pdf []byte) (*models.OCRResult, error) {
	provider, err := p.providers.NewProvider(ctx, name, creds)
	if err != nil {
		return nil, err
	}
	defer provider.Close()

	return provider.Extract(ctx, pdf)
}

func (p *Processor) summarize(ctx context.Context, text string) (*models.SummaryResult, error) {
	s, err := p.summarizer(ctx)
	if err != nil {
		return nil, err
	}
	return s.Summarize(ctx, text)
}

// errorDetail returns the operation-qualified form of an OCR or summarizer
// error for logs, or the plain message for any other error.
func errorDetail(err error) string {
	var ocrErr *ocr.OCRError
	if errors.As(err, &ocrErr) {
		return ocrErr.LogString()
	}
	var sumErr *summarizer.SummaryError
	if errors.As(err, &sumErr) {
		return sumErr.LogString()
	}
	return err.Error()
}

// AverageConfidence is the mean page confidence rounded to two decimals. A
// page reporting 0 counts as 0.9; no pages gives 0.
func AverageConfidence(pages []models.Page) float64 {
	if len(pages) == 0 {
		return 0
	}
	var total float64
	for _, page := range pages {
		if page.Confidence == 0 {
			total += defaultPageConfidence
			continue
		}
		total += page.Confidence
	}
	return math.Round(total/float64(len(pages))*100) / 100
}
