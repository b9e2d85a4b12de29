package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"scribeai/internal/logger"
	"scribeai/internal/ocr"
	"scribeai/internal/storage"
	"scribeai/internal/summarizer"
	"scribeai/pkg/models"
)

type stubProvider struct {
	result *models.OCRResult
	err    error
	closed bool
}

func (s *stubProvider) Name() ocr.ProviderName { return ocr.ProviderGemini }

func (s *stubProvider) Extract(_ context.Context, _ []byte) (*models.OCRResult, error) {
	return s.result, s.err
}

func (s *stubProvider) Close() error {
	s.closed = true
	return nil
}

type stubSummarizer struct {
	got    string
	result *models.SummaryResult
	err    error
}

func (s *stubSummarizer) Summarize(_ context.Context, text string) (*models.SummaryResult, error) {
	s.got = text
	return s.result, s.err
}

func providerFactory(p *stubProvider, selected *ocr.ProviderName) ocr.Factory {
	return ocr.FactoryFunc(func(_ context.Context, name ocr.ProviderName, _ *ocr.DocAICreds) (ocr.Provider, error) {
		if selected != nil {
			*selected = name
		}
		return p, nil
	})
}

func summarizerFactory(s *stubSummarizer) summarizer.Factory {
	return func(context.Context) (summarizer.Summarizer, error) { return s, nil }
}

func setupUpload(t *testing.T) (*storage.Store, *models.UploadedFile) {
	store, err := storage.New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	file, err := store.Save("notes.pdf", 8, strings.NewReader("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Failed to save upload: %v", err)
	}
	return store, file
}

func TestProcessEndToEnd(t *testing.T) {
	store, file := setupUpload(t)

	provider := &stubProvider{result: &models.OCRResult{
		RawText: "Hello\n\n\nWorld",
		Pages:   []models.Page{{PageNumber: 1, Text: "Hello\n\n\nWorld", Confidence: 0.95}},
	}}
	summary := models.EmptySummary()
	summary.ExecutiveSummary = "A greeting."
	summary.BulletPoints = []string{"Hello", "World"}
	sum := &stubSummarizer{result: &summary}

	var selected ocr.ProviderName
	processor := NewProcessor(store, providerFactory(provider, &selected), summarizerFactory(sum))

	resp, err := processor.Process(context.Background(), Request{FilePath: file.Path})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if resp.RawText != "Hello\n\n\nWorld" {
		t.Errorf("Unexpected raw text %q", resp.RawText)
	}
	if resp.CleanExtract != "Hello\n\nWorld" {
		t.Errorf("Expected clean extract %q, got %q", "Hello\n\nWorld", resp.CleanExtract)
	}
	if resp.WordCount != 2 {
		t.Errorf("Expected word count 2, got %d", resp.WordCount)
	}
	if resp.Confidence != 0.95 {
		t.Errorf("Expected confidence 0.95, got %v", resp.Confidence)
	}
	if resp.Summary.ExecutiveSummary != "A greeting." || len(resp.Summary.BulletPoints) != 2 {
		t.Errorf("Unexpected summary %+v", resp.Summary)
	}
	if sum.got != "Hello\n\nWorld" {
		t.Errorf("Expected summarizer to receive cleaned text, got %q", sum.got)
	}
	if selected != ocr.ProviderGemini {
		t.Errorf("Expected default provider gemini, got %s", selected)
	}
	if !provider.closed {
		t.Error("Expected provider to be closed")
	}
	if store.Exists(file.Path) {
		t.Error("Expected upload to be removed after processing")
	}
}

func TestProcessSelectsProvider(t *testing.T) {
	store, file := setupUpload(t)
	provider := &stubProvider{result: &models.OCRResult{RawText: "x"}}
	summary := models.EmptySummary()

	var selected ocr.ProviderName
	processor := NewProcessor(store, providerFactory(provider, &selected), summarizerFactory(&stubSummarizer{result: &summary}))

	resp, err := processor.Process(context.Background(), Request{FilePath: file.Path, OCRProvider: "documentai"})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if selected != ocr.ProviderDocumentAI {
		t.Errorf("Expected documentai, got %s", selected)
	}
	if resp.Pages == nil {
		t.Error("Pages must not be nil")
	}
	if resp.Confidence != 0 {
		t.Errorf("Expected confidence 0 without pages, got %v", resp.Confidence)
	}
}

func TestProcessFileNotFound(t *testing.T) {
	store, _ := setupUpload(t)
	processor := NewProcessor(store, providerFactory(&stubProvider{}, nil), summarizerFactory(&stubSummarizer{}))

	for _, path := range []string{"", "/does/not/exist.pdf", "/etc/passwd", store.Dir() + "/scribeai_1_abcdef0.pdf"} {
		_, err := processor.Process(context.Background(), Request{FilePath: path})
		if !errors.Is(err, ErrFileNotFound) {
			t.Errorf("path %q: expected ErrFileNotFound, got %v", path, err)
		}
	}
}

func TestProcessStageErrors(t *testing.T) {
	t.Run("ocr", func(t *testing.T) {
		store, file := setupUpload(t)
		provider := &stubProvider{err: errors.New("Document AI returned empty result")}
		processor := NewProcessor(store, providerFactory(provider, nil), summarizerFactory(&stubSummarizer{}))

		_, err := processor.Process(context.Background(), Request{FilePath: file.Path})

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageOCR {
			t.Fatalf("Expected OCR stage error, got %v", err)
		}
		if err.Error() != "OCR failed: Document AI returned empty result" {
			t.Errorf("Unexpected message %q", err.Error())
		}
		if !store.Exists(file.Path) {
			t.Error("Upload must be kept when OCR fails")
		}
	})

	t.Run("provider configuration", func(t *testing.T) {
		store, file := setupUpload(t)
		factory := ocr.FactoryFunc(func(context.Context, ocr.ProviderName, *ocr.DocAICreds) (ocr.Provider, error) {
			return nil, ocr.ErrMissingAPIKey
		})
		processor := NewProcessor(store, factory, summarizerFactory(&stubSummarizer{}))

		_, err := processor.Process(context.Background(), Request{FilePath: file.Path})
		if err == nil || err.Error() != "OCR failed: Missing OPENROUTER_API_KEY" {
			t.Fatalf("Unexpected error %v", err)
		}
	})

	t.Run("summarize", func(t *testing.T) {
		store, file := setupUpload(t)
		provider := &stubProvider{result: &models.OCRResult{RawText: "text"}}
		failing := func(context.Context) (summarizer.Summarizer, error) {
			return nil, summarizer.ErrMissingAPIKey
		}
		processor := NewProcessor(store, providerFactory(provider, nil), failing)

		_, err := processor.Process(context.Background(), Request{FilePath: file.Path})

		var stageErr *StageError
		if !errors.As(err, &stageErr) || stageErr.Stage != StageSummarize {
			t.Fatalf("Expected summarize stage error, got %v", err)
		}
		if err.Error() != "Summarization failed: Missing GEMINI_API_KEY environment variable" {
			t.Errorf("Unexpected message %q", err.Error())
		}
		if !errors.Is(err, summarizer.ErrMissingAPIKey) {
			t.Error("Expected the cause to be preserved")
		}
	})
}

func TestErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ocr", ocr.NewOCRError("gemini", "Extract", ocr.ErrOCRFailed, "bad reply"), "ocr(gemini): Extract failed: OCR processing failed: bad reply"},
		{"summarizer", &summarizer.SummaryError{Op: "Summarize", Err: summarizer.ErrEmptyResponse}, "summarizer: Summarize failed: model returned no response"},
		{"plain", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorDetail(tt.err); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestProcessLogsStageDetail(t *testing.T) {
	store, file := setupUpload(t)
	provider := &stubProvider{err: ocr.NewOCRError("gemini", "Extract", ocr.ErrOCRFailed, "bad reply")}
	p := NewProcessor(store, providerFactory(provider, nil), summarizerFactory(&stubSummarizer{}))

	var buf bytes.Buffer
	ctx := logger.NewContext(context.Background(), zerolog.New(&buf))

	if _, err := p.Process(ctx, Request{FilePath: file.Path}); err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(buf.String(), `"detail":"ocr(gemini): Extract failed`) {
		t.Errorf("Expected operation detail in log, got %s", buf.String())
	}
}

func TestAverageConfidence(t *testing.T) {
	tests := []struct {
		name  string
		pages []models.Page
		want  float64
	}{
		{"empty", nil, 0},
		{"two pages", []models.Page{{Confidence: 1.0}, {Confidence: 0.5}}, 0.75},
		{"missing confidence", []models.Page{{Confidence: 0}, {Confidence: 0.7}}, 0.8},
		{"rounded", []models.Page{{Confidence: 0.333}, {Confidence: 0.333}, {Confidence: 0.334}}, 0.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AverageConfidence(tt.pages); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
