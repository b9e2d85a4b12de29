package ocr

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/genproto/googleapis/rpc/status"
)

type stubAnnotator struct {
	req  *visionpb.BatchAnnotateFilesRequest
	resp *visionpb.BatchAnnotateFilesResponse
	err  error
}

func (s *stubAnnotator) BatchAnnotateFiles(_ context.Context, req *visionpb.BatchAnnotateFilesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateFilesResponse, error) {
	s.req = req
	return s.resp, s.err
}

func (s *stubAnnotator) Close() error { return nil }

func imageResponse(text string, confidences ...float32) *visionpb.AnnotateImageResponse {
	pages := make([]*visionpb.Page, 0, len(confidences))
	for _, c := range confidences {
		pages = append(pages, &visionpb.Page{Confidence: c})
	}
	return &visionpb.AnnotateImageResponse{
		FullTextAnnotation: &visionpb.TextAnnotation{Text: text, Pages: pages},
	}
}

func TestFileResponseToResult(t *testing.T) {
	resp := &visionpb.AnnotateFileResponse{
		Responses: []*visionpb.AnnotateImageResponse{
			imageResponse("First page", 0.9, 0.7),
			imageResponse(""),
			imageResponse("Third page", 0.5),
		},
	}

	result, err := FileResponseToResult(resp)
	if err != nil {
		t.Fatalf("FileResponseToResult failed: %v", err)
	}

	if result.RawText != "First page\n\nThird page" {
		t.Errorf("Unexpected raw text %q", result.RawText)
	}
	if len(result.Pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(result.Pages))
	}
	if result.Pages[0].Confidence != 0.8 {
		t.Errorf("Expected page 1 confidence 0.8, got %v", result.Pages[0].Confidence)
	}
	if result.Pages[1].Text != "[Page 2 text extraction unavailable]" || result.Pages[1].Confidence != 0 {
		t.Errorf("Unexpected page 2: %+v", result.Pages[1])
	}
	if result.Pages[2].PageNumber != 3 {
		t.Errorf("Expected page number 3, got %d", result.Pages[2].PageNumber)
	}
}

func TestFileResponseToResultErrors(t *testing.T) {
	tooMany := &visionpb.AnnotateFileResponse{}
	for i := 0; i < MaxPagesSync+1; i++ {
		tooMany.Responses = append(tooMany.Responses, imageResponse("page", 0.9))
	}

	tests := []struct {
		name string
		resp *visionpb.AnnotateFileResponse
		want error
	}{
		{"no pages", &visionpb.AnnotateFileResponse{}, ErrEmptyDocument},
		{"blank pages", &visionpb.AnnotateFileResponse{Responses: []*visionpb.AnnotateImageResponse{imageResponse("")}}, ErrEmptyDocument},
		{"too many pages", tooMany, ErrTooManyPages},
		{"page error", &visionpb.AnnotateFileResponse{Responses: []*visionpb.AnnotateImageResponse{
			{Error: &status.Status{Code: 3, Message: "bad image"}},
		}}, ErrOCRFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FileResponseToResult(tt.resp)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVisionExtract(t *testing.T) {
	stub := &stubAnnotator{
		resp: &visionpb.BatchAnnotateFilesResponse{
			Responses: []*visionpb.AnnotateFileResponse{
				{Responses: []*visionpb.AnnotateImageResponse{imageResponse("Hello", 0.95)}},
			},
		},
	}
	provider := NewVisionProviderWithClient(stub)

	result, err := provider.Extract(context.Background(), samplePDF)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	req := stub.req.GetRequests()[0]
	if req.GetInputConfig().GetMimeType() != "application/pdf" {
		t.Errorf("Unexpected mime type %q", req.GetInputConfig().GetMimeType())
	}
	if req.GetFeatures()[0].GetType() != visionpb.Feature_DOCUMENT_TEXT_DETECTION {
		t.Errorf("Unexpected feature %v", req.GetFeatures()[0].GetType())
	}
	if result.RawText != "Hello" || result.Pages[0].Confidence != 0.95 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if provider.Name() != ProviderVision {
		t.Errorf("Expected provider name vision, got %s", provider.Name())
	}
}

func TestVisionExtractAPIError(t *testing.T) {
	provider := NewVisionProviderWithClient(&stubAnnotator{err: errors.New("unavailable")})

	_, err := provider.Extract(context.Background(), samplePDF)
	if !errors.Is(err, ErrOCRFailed) {
		t.Fatalf("Expected ErrOCRFailed, got %v", err)
	}

	var ocrErr *OCRError
	if !errors.As(err, &ocrErr) || ocrErr.Provider != "vision" {
		t.Errorf("Expected OCRError from vision, got %#v", err)
	}
}
