package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"scribeai/internal/config"
	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

// DocumentAIConfig holds configuration for Google Document AI processing.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	// Should match where your Document AI processor is created.
	Location string

	// ProcessorID is the Document AI OCR processor ID.
	ProcessorID string

	// CredentialsJSON and CredentialsFile select explicit credentials.
	// Both empty uses application default credentials.
	CredentialsJSON string
	CredentialsFile string

	// Timeout is the maximum time to wait for processing.
	// Default: 60 seconds.
	Timeout time.Duration
}

// DocumentAIConfigFromSettings picks the Document AI fields out of settings.
func DocumentAIConfigFromSettings(s config.ProviderSettings) DocumentAIConfig {
	return DocumentAIConfig{
		ProjectID:       s.GoogleProjectID,
		Location:        s.GoogleLocation,
		ProcessorID:     s.DocumentAIProcessorID,
		CredentialsJSON: s.GoogleCredentialsJSON,
		CredentialsFile: s.GoogleCredentialsFile,
		Timeout:         60 * time.Second,
	}
}

func (c *DocumentAIConfig) apply(o *DocAICreds) {
	if o == nil {
		return
	}
	if o.ProjectID != "" {
		c.ProjectID = o.ProjectID
	}
	if o.Location != "" {
		c.Location = o.Location
	}
	if o.ProcessorID != "" {
		c.ProcessorID = o.ProcessorID
	}
	if o.CredentialsJSON != "" {
		c.CredentialsJSON = o.CredentialsJSON
		c.CredentialsFile = ""
	}
}

// ProcessorName returns the full resource name of the processor.
func (c DocumentAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// documentProcessor is the subset of the Document AI client used here.
type documentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIProvider implements Provider using Google Document AI.
type DocumentAIProvider struct {
	client documentProcessor
	config DocumentAIConfig
	log    zerolog.Logger
}

// NewDocumentAIProvider creates a provider with its own client. It fails with
// ErrMissingConfiguration when the project or processor id is missing.
func NewDocumentAIProvider(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIProvider, error) {
	const op = "NewDocumentAIProvider"

	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, NewOCRError(string(ProviderDocumentAI), op, ErrMissingConfiguration, "")
	}
	if cfg.Location == "" {
		cfg.Location = config.DefaultGoogleLocation
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	var clientOptions []option.ClientOption

	// The default endpoint serves "us"; other locations need their regional endpoint.
	if cfg.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	if cfg.CredentialsJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	} else if cfg.CredentialsFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapOCRError(string(ProviderDocumentAI), op, err, fmt.Sprintf("failed to create Document AI client for location: %s", cfg.Location))
	}

	return NewDocumentAIProviderWithClient(cfg, client), nil
}

// NewDocumentAIProviderWithClient creates a provider with an explicit client (for testing).
func NewDocumentAIProviderWithClient(cfg DocumentAIConfig, client documentProcessor) *DocumentAIProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &DocumentAIProvider{
		client: client,
		config: cfg,
		log:    logger.WithComponent("ocr-documentai"),
	}
}

// Name implements Provider.
func (p *DocumentAIProvider) Name() ProviderName { return ProviderDocumentAI }

// Extract sends the PDF to the configured processor and rebuilds per-page text
// from the layout anchors of the response.
func (p *DocumentAIProvider) Extract(ctx context.Context, pdf []byte) (*models.OCRResult, error) {
	const op = "Extract"
	provider := string(ProviderDocumentAI)

	if err := validatePDF(ProviderDocumentAI, op, pdf); err != nil {
		return nil, err
	}

	processCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: p.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  pdf,
				MimeType: models.ContentTypePDF,
			},
		},
	}

	p.log.Debug().
		Str("processor", req.Name).
		Int("bytes", len(pdf)).
		Msg("Sending document to Document AI")

	resp, err := p.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, p.handleProcessingError(op, err)
	}

	if resp.GetDocument() == nil || resp.GetDocument().GetText() == "" {
		return nil, NewOCRError(provider, op, ErrEmptyDocument, "")
	}

	result := DocumentToResult(resp.GetDocument())

	p.log.Info().
		Int("pages", len(result.Pages)).
		Int("text_length", len(result.RawText)).
		Msg("Document AI extraction completed")

	return result, nil
}

// handleProcessingError converts Document AI errors to OCR errors with a
// readable message.
func (p *DocumentAIProvider) handleProcessingError(op string, err error) error {
	provider := string(ProviderDocumentAI)
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return NewOCRError(provider, op, ErrOCRFailed, "insufficient permissions for Document AI")
	case strings.Contains(errStr, "QUOTA_EXCEEDED"), strings.Contains(errStr, "ResourceExhausted"):
		return NewOCRError(provider, op, ErrOCRFailed, "Document AI API quota exceeded")
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return NewOCRError(provider, op, ErrOCRFailed, fmt.Sprintf("processor not found: %s", p.config.ProcessorID))
	case strings.Contains(errStr, "INVALID_ARGUMENT"), strings.Contains(errStr, "InvalidArgument"):
		return NewOCRError(provider, op, ErrInvalidPDF, "document format not supported or corrupted")
	case strings.Contains(errStr, "DeadlineExceeded"), strings.Contains(errStr, "context deadline exceeded"):
		return NewOCRError(provider, op, context.DeadlineExceeded, "processing timeout")
	case strings.Contains(errStr, "Canceled"), strings.Contains(errStr, "context canceled"):
		return NewOCRError(provider, op, context.Canceled, "processing was canceled")
	default:
		return NewOCRError(provider, op, ErrOCRFailed, fmt.Sprintf("Document AI error: %v", err))
	}
}

// Close closes the underlying Document AI client.
func (p *DocumentAIProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// DocumentToResult rebuilds page text from a Document AI document.
//
// Each page's text is the concatenation of the full-text ranges addressed by
// its blocks; when that yields nothing the paragraphs are used instead. The
// page confidence is the mean of the non-zero layout confidences seen,
// rounded to two decimals. A page with no recoverable text gets a placeholder,
// and one with no scored layout gets confidence 0.
func DocumentToResult(doc *documentaipb.Document) *models.OCRResult {
	rawText := doc.GetText()
	pages := make([]models.Page, 0, len(doc.GetPages()))

	for i, page := range doc.GetPages() {
		var text strings.Builder
		var total float64
		var scored int

		for _, block := range page.GetBlocks() {
			text.WriteString(anchorText(rawText, block.GetLayout()))
			if c := block.GetLayout().GetConfidence(); c != 0 {
				total += float64(c)
				scored++
			}
		}

		if text.Len() == 0 {
			for _, paragraph := range page.GetParagraphs() {
				text.WriteString(anchorText(rawText, paragraph.GetLayout()))
				if c := paragraph.GetLayout().GetConfidence(); c != 0 {
					total += float64(c)
					scored++
				}
			}
		}

		pageText := text.String()
		if pageText == "" {
			pageText = fmt.Sprintf("[Page %d text extraction unavailable]", i+1)
		}

		confidence := 0.0
		if scored > 0 {
			confidence = round2(total / float64(scored))
		}

		pages = append(pages, models.Page{
			PageNumber: i + 1,
			Text:       pageText,
			Confidence: confidence,
		})
	}

	return &models.OCRResult{RawText: rawText, Pages: pages}
}

// anchorText returns the text addressed by a layout's segments. Offsets are
// clamped to the document text.
func anchorText(full string, layout *documentaipb.Document_Page_Layout) string {
	var b strings.Builder
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		start := clamp(seg.GetStartIndex(), len(full))
		end := clamp(seg.GetEndIndex(), len(full))
		if end > start {
			b.WriteString(full[start:end])
		}
	}
	return b.String()
}

func clamp(v int64, n int) int {
	if v < 0 {
		return 0
	}
	if v > int64(n) {
		return n
	}
	return int(v)
}
