package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"scribeai/internal/config"
	"scribeai/internal/logger"
	"scribeai/pkg/models"
)

// MaxPagesSync is the maximum number of pages for synchronous processing
const MaxPagesSync = 5

type fileAnnotator interface {
	BatchAnnotateFiles(ctx context.Context, req *visionpb.BatchAnnotateFilesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error)
	Close() error
}

// VisionProvider implements Provider using Google Cloud Vision document text detection.
type VisionProvider struct {
	client fileAnnotator
	log    zerolog.Logger
}

// NewVisionProvider creates a provider using the Google credentials in settings,
// falling back to application default credentials.
func NewVisionProvider(ctx context.Context, settings config.ProviderSettings) (*VisionProvider, error) {
	const op = "NewVisionProvider"

	var opts []option.ClientOption
	if settings.GoogleCredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(settings.GoogleCredentialsJSON)))
	} else if settings.GoogleCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(settings.GoogleCredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, WrapOCRError(string(ProviderVision), op, err, "failed to create Vision client")
	}

	return NewVisionProviderWithClient(client), nil
}

// NewVisionProviderWithClient creates a provider with an explicit client (for testing).
func NewVisionProviderWithClient(client fileAnnotator) *VisionProvider {
	return &VisionProvider{
		client: client,
		log:    logger.WithComponent("ocr-vision"),
	}
}

// Name implements Provider.
func (v *VisionProvider) Name() ProviderName { return ProviderVision }

// Extract runs DOCUMENT_TEXT_DETECTION over every page of the PDF.
func (v *VisionProvider) Extract(ctx context.Context, pdf []byte) (*models.OCRResult, error) {
	const op = "Extract"
	provider := string(ProviderVision)

	if err := validatePDF(ProviderVision, op, pdf); err != nil {
		return nil, err
	}

	req := &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{
			{
				InputConfig: &visionpb.InputConfig{
					Content:  pdf,
					MimeType: models.ContentTypePDF,
				},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, req)
	if err != nil {
		return nil, NewOCRError(provider, op, ErrOCRFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, NewOCRError(provider, op, ErrOCRFailed, "no response from Vision API")
	}

	fileResp := resp.GetResponses()[0]
	if fileResp.GetError() != nil {
		return nil, NewOCRError(provider, op, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", fileResp.GetError().GetMessage()))
	}

	result, err := FileResponseToResult(fileResp)
	if err != nil {
		return nil, WrapOCRError(provider, op, err, "")
	}

	v.log.Info().
		Int("pages", len(result.Pages)).
		Int("text_length", len(result.RawText)).
		Msg("Vision extraction completed")

	return result, nil
}

// FileResponseToResult converts one file annotation into an OCRResult. Each
// image response is a page; its confidence is the mean of the detected page
// confidences, rounded to two decimals.
func FileResponseToResult(fileResp *visionpb.AnnotateFileResponse) (*models.OCRResult, error) {
	responses := fileResp.GetResponses()
	if len(responses) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(responses) > MaxPagesSync {
		return nil, fmt.Errorf("%w: document has %d pages", ErrTooManyPages, len(responses))
	}

	pages := make([]models.Page, 0, len(responses))
	texts := make([]string, 0, len(responses))

	for i, page := range responses {
		if page.GetError() != nil {
			return nil, fmt.Errorf("%w: page %d: %s", ErrOCRFailed, i+1, page.GetError().GetMessage())
		}

		annotation := page.GetFullTextAnnotation()
		text := annotation.GetText()

		var total float64
		var scored int
		for _, p := range annotation.GetPages() {
			if c := p.GetConfidence(); c > 0 {
				total += float64(c)
				scored++
			}
		}
		confidence := 0.0
		if scored > 0 {
			confidence = round2(total / float64(scored))
		}

		if text == "" {
			text = fmt.Sprintf("[Page %d text extraction unavailable]", i+1)
		} else {
			texts = append(texts, annotation.GetText())
		}

		pages = append(pages, models.Page{
			PageNumber: i + 1,
			Text:       text,
			Confidence: confidence,
		})
	}

	rawText := strings.Join(texts, "\n\n")
	if strings.TrimSpace(rawText) == "" {
		return nil, ErrEmptyDocument
	}

	return &models.OCRResult{RawText: rawText, Pages: pages}, nil
}

// Close closes the underlying Vision client.
func (v *VisionProvider) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
