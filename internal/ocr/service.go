// Package ocr extracts page-structured text from PDF documents through remote
// recognition services.
//
// Three providers are available:
//   - gemini: a multimodal model reached through OpenRouter (default)
//   - documentai: Google Cloud Document AI
//   - vision: Google Cloud Vision document text detection
//
// Required configuration depends on the provider:
//   - gemini: OPENROUTER_API_KEY
//   - documentai: GOOGLE_PROJECT_ID and DOCUMENT_AI_PROCESSOR_ID,
//     optionally GOOGLE_LOCATION (default "us")
//   - documentai, vision: GOOGLE_CREDENTIALS (inline JSON) or
//     GOOGLE_APPLICATION_CREDENTIALS, else application default credentials
//
// Configuration is checked when a provider is built, not at startup. Every
// provider returns the same result shape: raw text plus 1-based pages with a
// confidence between 0 and 1.
package ocr

import (
	"context"
	"fmt"
	"io"
	"math"

	"scribeai/internal/config"
	"scribeai/pkg/models"
)

const (
	// MaxFileSizeBytes is the maximum file size for synchronous processing (20MB)
	MaxFileSizeBytes = 20 * 1024 * 1024
)

// ProviderName selects an OCR provider.
type ProviderName string

const (
	ProviderGemini     ProviderName = "gemini"
	ProviderDocumentAI ProviderName = "documentai"
	ProviderVision     ProviderName = "vision"
)

// ParseProviderName maps a request value to a provider. Empty and unknown
// values select gemini.
func ParseProviderName(s string) ProviderName {
	switch ProviderName(s) {
	case ProviderDocumentAI:
		return ProviderDocumentAI
	case ProviderVision:
		return ProviderVision
	default:
		return ProviderGemini
	}
}

// Provider extracts text from a PDF.
type Provider interface {
	// Name identifies the provider in logs and errors.
	Name() ProviderName

	// Extract runs recognition on a whole PDF document.
	Extract(ctx context.Context, pdf []byte) (*models.OCRResult, error)

	io.Closer
}

// DocAICreds overrides the Document AI settings for a single request. Empty
// fields fall back to the environment.
type DocAICreds struct {
	ProjectID       string `json:"projectId"`
	Location        string `json:"location"`
	ProcessorID     string `json:"processorId"`
	CredentialsJSON string `json:"credentialsJson"`
}

// Factory builds the provider a request asked for.
type Factory interface {
	NewProvider(ctx context.Context, name ProviderName, override *DocAICreds) (Provider, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, name ProviderName, override *DocAICreds) (Provider, error)

// NewProvider calls f.
func (f FactoryFunc) NewProvider(ctx context.Context, name ProviderName, override *DocAICreds) (Provider, error) {
	return f(ctx, name, override)
}

// EnvFactory builds providers from settings resolved from the environment at
// call time.
type EnvFactory struct {
	// Settings, when set, replaces config.LoadProviders.
	Settings func() config.ProviderSettings
}

// NewProvider resolves the current settings and builds the named provider.
func (f EnvFactory) NewProvider(ctx context.Context, name ProviderName, override *DocAICreds) (Provider, error) {
	load := f.Settings
	if load == nil {
		load = config.LoadProviders
	}
	return NewProvider(ctx, name, load(), override)
}

// NewProvider builds the named provider from settings. Missing required
// configuration fails here, before any remote call.
func NewProvider(ctx context.Context, name ProviderName, settings config.ProviderSettings, override *DocAICreds) (Provider, error) {
	switch name {
	case ProviderDocumentAI:
		cfg := DocumentAIConfigFromSettings(settings)
		cfg.apply(override)
		return NewDocumentAIProvider(ctx, cfg)
	case ProviderVision:
		return NewVisionProvider(ctx, settings)
	default:
		return NewOpenRouterProvider(OpenRouterConfigFromSettings(settings))
	}
}

// validatePDF applies the limits shared by every provider.
func validatePDF(provider ProviderName, op string, pdf []byte) error {
	if len(pdf) > MaxFileSizeBytes {
		return NewOCRError(string(provider), op, ErrPDFTooLarge, fmt.Sprintf("file size: %d bytes", len(pdf)))
	}
	if len(pdf) < 4 || string(pdf[:4]) != "%PDF" {
		return NewOCRError(string(provider), op, ErrInvalidPDF, "missing PDF header")
	}
	return nil
}

// round2 rounds to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
