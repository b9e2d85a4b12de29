package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribeai/internal/auth"
	"scribeai/internal/db"
	"scribeai/internal/pipeline"
	"scribeai/internal/storage"
	"scribeai/pkg/models"
)

type stubProcessor struct {
	got  pipeline.Request
	resp *models.AnalysisResponse
	err  error
}

func (s *stubProcessor) Process(_ context.Context, req pipeline.Request) (*models.AnalysisResponse, error) {
	s.got = req
	return s.resp, s.err
}

type testServer struct {
	router    http.Handler
	store     *storage.Store
	processor *stubProcessor
	auth      *auth.Service
}

func setupTestServer(t *testing.T) *testServer {
	store, err := storage.New(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	tokens, err := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("Failed to create token issuer: %v", err)
	}
	authService := auth.NewService(db.NewRepository(database), tokens)

	processor := &stubProcessor{}
	pages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("page " + r.URL.Path))
	})

	return &testServer{
		router:    NewRouter(NewHandler(store, processor, authService), pages),
		store:     store,
		processor: processor,
		auth:      authService,
	}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, filename, contentType string, content []byte) *http.Request {
	if filename == "" {
		return formRequest(t, "other", "", "", []byte("value"))
	}
	return formRequest(t, "file", filename, contentType, content)
}

// formRequest builds a multipart upload with a single part.
func formRequest(t *testing.T, field, filename, contentType string, content []byte) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	disposition := `form-data; name="` + field + `"`
	if filename != "" {
		disposition += `; filename="` + filename + `"`
	}
	h.Set("Content-Disposition", disposition)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart failed: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func pdfBytes(size int) []byte {
	b := bytes.Repeat([]byte("0"), size)
	copy(b, "%PDF-1.4")
	return b
}

func TestUpload(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(uploadRequest(t, "notes.pdf", "application/pdf", pdfBytes(19*1024*1024)))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	file := decode[models.UploadedFile](t, rec)
	if file.Name != "notes.pdf" || file.Size != 19*1024*1024 {
		t.Errorf("Unexpected upload %+v", file)
	}
	if !strings.HasPrefix(file.ID, "scribeai_") {
		t.Errorf("Unexpected id %q", file.ID)
	}
	if !srv.store.Exists(file.Path) {
		t.Error("Expected the upload to be stored")
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a request id header")
	}
}

func TestUploadAtLimit(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(uploadRequest(t, "exact.pdf", "application/pdf", pdfBytes(20*1024*1024)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if file := decode[models.UploadedFile](t, rec); file.Size != 20*1024*1024 {
		t.Errorf("Expected size %d, got %d", 20*1024*1024, file.Size)
	}
}

func TestUploadRejects(t *testing.T) {
	srv := setupTestServer(t)

	tests := []struct {
		name string
		req  *http.Request
		msg  string
	}{
		{"no file", uploadRequest(t, "", "", nil), "No file provided"},
		{"not multipart", jsonRequest(t, http.MethodPost, "/api/upload", map[string]string{}), "No file provided"},
		{"wrong type", uploadRequest(t, "notes.txt", "text/plain", []byte("hi")), "Only PDF files are accepted"},
		{"pdf with parameters", uploadRequest(t, "notes.pdf", "application/pdf; x=y", pdfBytes(10)), "Only PDF files are accepted"},
		{"too large", uploadRequest(t, "big.pdf", "application/pdf", pdfBytes(21*1024*1024)), "File size exceeds 20MB limit"},
		{"just over limit", uploadRequest(t, "big.pdf", "application/pdf", pdfBytes(20*1024*1024+1)), "File size exceeds 20MB limit"},
		{"large wrong type", uploadRequest(t, "big.txt", "text/plain", pdfBytes(25*1024*1024)), "Only PDF files are accepted"},
		{"large form without file", formRequest(t, "other", "big.pdf", "application/pdf", pdfBytes(25*1024*1024)), "No file provided"},
		{"file field without name", formRequest(t, "file", "", "application/pdf", pdfBytes(10)), "No file provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(tt.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := decode[errorResponse](t, rec).Error; got != tt.msg {
				t.Errorf("Expected %q, got %q", tt.msg, got)
			}
		})
	}
}

func TestProcess(t *testing.T) {
	srv := setupTestServer(t)
	srv.processor.resp = &models.AnalysisResponse{
		RawText:      "Hello\n\n\nWorld",
		CleanExtract: "Hello\n\nWorld",
		Pages:        []models.Page{{PageNumber: 1, Text: "Hello\n\n\nWorld", Confidence: 0.95}},
		WordCount:    2,
		Confidence:   0.95,
		Summary:      models.EmptySummary(),
	}

	rec := srv.do(jsonRequest(t, http.MethodPost, "/api/process", map[string]any{
		"filePath":    "/tmp/scribeai_1_abcdef0.pdf",
		"ocrProvider": "documentai",
		"docAiCreds":  map[string]string{"projectId": "p", "processorId": "q"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if srv.processor.got.OCRProvider != "documentai" || srv.processor.got.DocAICreds.ProjectID != "p" {
		t.Errorf("Unexpected request %+v", srv.processor.got)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	for _, key := range []string{"rawText", "cleanExtract", "pages", "wordCount", "confidence", "summary"} {
		if _, ok := body[key]; !ok {
			t.Errorf("Expected key %q in response", key)
		}
	}
}

func TestProcessErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
		msg    string
	}{
		{"no path", map[string]string{}, nil, http.StatusBadRequest, "No file path provided"},
		{"missing file", map[string]string{"filePath": "/nope.pdf"}, pipeline.ErrFileNotFound, http.StatusNotFound, "File not found. It may have been auto-deleted."},
		{"ocr", map[string]string{"filePath": "/x.pdf"}, &pipeline.StageError{Stage: pipeline.StageOCR, Err: errors.New("quota")}, http.StatusInternalServerError, "OCR failed: quota"},
		{"summarize", map[string]string{"filePath": "/x.pdf"}, &pipeline.StageError{Stage: pipeline.StageSummarize, Err: errors.New("down")}, http.StatusInternalServerError, "Summarization failed: down"},
		{"unexpected", map[string]string{"filePath": "/x.pdf"}, errors.New("disk"), http.StatusInternalServerError, "An unexpected error occurred"},
		{"bad json", "not an object", nil, http.StatusInternalServerError, "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := setupTestServer(t)
			srv.processor.err = tt.err

			rec := srv.do(jsonRequest(t, http.MethodPost, "/api/process", tt.body))

			if rec.Code != tt.status {
				t.Fatalf("Expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if got := decode[errorResponse](t, rec).Error; got != tt.msg {
				t.Errorf("Expected %q, got %q", tt.msg, got)
			}
		})
	}
}

func TestProcessMethodNotAllowed(t *testing.T) {
	srv := setupTestServer(t)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/process", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}
