package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"scribeai/internal/config"
	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

const (
	// parsedPageConfidence is reported for pages of a well-formed model
	// response; the model returns no real confidence.
	parsedPageConfidence = 0.9

	// fallbackPageConfidence is reported when the response was not JSON and
	// the whole reply is used as page 1.
	fallbackPageConfidence = 0.8
)

const extractionPrompt = `Extract all text from this document. Preserve the layout as much as possible.
    Return the result in JSON format:
    {
        "rawText": "The full extracted text...",
        "pages": [
            { "pageNumber": 1, "text": "Page 1 text..." }
        ]
    }
    If you cannot distinguish pages, just put everything in page 1.`

// OpenRouterConfig configures the multimodal OCR provider.
type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	AppURL  string // sent as HTTP-Referer
	Timeout time.Duration

	// HTTPClient overrides the transport (tests). The attribution headers
	// are added on top of it.
	HTTPClient *http.Client
}

// OpenRouterConfigFromSettings picks the OpenRouter fields out of settings.
func OpenRouterConfigFromSettings(s config.ProviderSettings) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:  s.OpenRouterAPIKey,
		Model:   s.OpenRouterModel,
		BaseURL: s.OpenRouterBaseURL,
		AppURL:  s.AppURL,
		Timeout: 120 * time.Second,
	}
}

// OpenRouterProvider implements Provider by asking a multimodal chat model to
// transcribe the PDF.
type OpenRouterProvider struct {
	client *openai.Client
	model  string
	log    zerolog.Logger
}

// NewOpenRouterProvider fails with ErrMissingAPIKey when no key is configured.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	const op = "NewOpenRouterProvider"

	if cfg.APIKey == "" {
		return nil, NewOCRError(string(ProviderGemini), op, ErrMissingAPIKey, "")
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultOpenRouterModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultOpenRouterBaseURL
	}
	if cfg.AppURL == "" {
		cfg.AppURL = config.DefaultAppURL
	}

	base := cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: cfg.Timeout}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	clientConfig.HTTPClient = &http.Client{
		Timeout: base.Timeout,
		Transport: &attributionTransport{
			next:    transport,
			referer: cfg.AppURL,
			title:   "ScribeAI",
		},
	}

	return &OpenRouterProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		log:    logger.WithComponent("ocr-openrouter"),
	}, nil
}

// Name implements Provider.
func (p *OpenRouterProvider) Name() ProviderName { return ProviderGemini }

// Extract sends the PDF as a data URL together with the extraction prompt.
func (p *OpenRouterProvider) Extract(ctx context.Context, pdf []byte) (*models.OCRResult, error) {
	const op = "Extract"
	provider := string(ProviderGemini)

	if err := validatePDF(ProviderGemini, op, pdf); err != nil {
		return nil, err
	}

	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(pdf)

	p.log.Debug().
		Str("model", p.model).
		Int("bytes", len(pdf)).
		Msg("Sending document to OpenRouter")

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: extractionPrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, NewOCRError(provider, op, fmt.Errorf("OpenRouter API Error %d: %s", apiErr.HTTPStatusCode, apiErr.Message), "")
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return nil, NewOCRError(provider, op, fmt.Errorf("OpenRouter API Error %d: %v", reqErr.HTTPStatusCode, reqErr.Err), "")
		}
		return nil, WrapOCRError(provider, op, err, "")
	}

	content := ""
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	result := ParseTranscription(content)

	p.log.Info().
		Int("pages", len(result.Pages)).
		Int("text_length", len(result.RawText)).
		Msg("OpenRouter extraction completed")

	return result, nil
}

// Close implements Provider. The HTTP client holds nothing to release.
func (p *OpenRouterProvider) Close() error { return nil }

type transcription struct {
	RawText string `json:"rawText"`
	Pages   []struct {
		PageNumber int      `json:"pageNumber"`
		Text       string   `json:"text"`
		Confidence *float64 `json:"confidence"`
	} `json:"pages"`
}

// ParseTranscription turns a model reply into an OCRResult. Markdown fences
// are removed first. A reply that is not the requested JSON becomes a single
// page holding the whole reply.
func ParseTranscription(content string) *models.OCRResult {
	cleaned := strings.ReplaceAll(content, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")

	var parsed transcription
	if err := json.Unmarshal([]byte(strings.TrimSpace(cleaned)), &parsed); err != nil {
		return &models.OCRResult{
			RawText: content,
			Pages:   []models.Page{{PageNumber: 1, Text: content, Confidence: fallbackPageConfidence}},
		}
	}

	rawText := parsed.RawText
	if rawText == "" {
		rawText = content
	}

	if len(parsed.Pages) == 0 {
		return &models.OCRResult{
			RawText: rawText,
			Pages:   []models.Page{{PageNumber: 1, Text: rawText, Confidence: parsedPageConfidence}},
		}
	}

	// Page numbers from the model are not trusted; pages keep their order
	// and are renumbered from 1.
	pages := make([]models.Page, 0, len(parsed.Pages))
	for i, pg := range parsed.Pages {
		confidence := parsedPageConfidence
		if pg.Confidence != nil && *pg.Confidence > 0 && *pg.Confidence <= 1 {
			confidence = *pg.Confidence
		}
		pages = append(pages, models.Page{
			PageNumber: i + 1,
			Text:       pg.Text,
			Confidence: confidence,
		})
	}

	return &models.OCRResult{RawText: rawText, Pages: pages}
}

// attributionTransport adds the headers OpenRouter uses to attribute traffic.
type attributionTransport struct {
	next    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", t.referer)
	req.Header.Set("X-Title", t.title)
	return t.next.RoundTrip(req)
}
