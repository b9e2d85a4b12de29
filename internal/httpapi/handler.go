// Package httpapi serves the JSON API: upload, process and the credential
// auth routes.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"scribeai/internal/auth"
	"scribeai/internal/logger"
	"scribeai/internal/pipeline"
	"scribeai/pkg/models"
)

const (
	msgUnexpected = "An unexpected error occurred"
	msgSomething  = "Something went wrong"
)

// Uploads stores incoming files.
type Uploads interface {
	Save(name string, size int64, r io.Reader) (*models.UploadedFile, error)
	MaxSize() int64
}

// Processor runs the analysis pipeline.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*models.AnalysisResponse, error)
}

// Handler holds the dependencies of the API routes.
type Handler struct {
	uploads   Uploads
	processor Processor
	auth      *auth.Service
}

// NewHandler wires the API handlers.
func NewHandler(uploads Uploads, processor Processor, authService *auth.Service) *Handler {
	return &Handler{
		uploads:   uploads,
		processor: processor,
		auth:      authService,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("http")
		log.Warn().Err(err).Msg("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func requestLogger(r *http.Request) zerolog.Logger {
	return logger.FromContext(r.Context(), "http")
}
