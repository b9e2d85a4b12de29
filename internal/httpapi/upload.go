package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"scribeai/internal/storage"
	"scribeai/pkg/models"
)

// multipartOverhead is allowed on top of the file size for headers,
// boundaries and other form fields.
const multipartOverhead = 1 << 20

// Upload accepts a multipart form with one PDF in the "file" field.
//
// The form is streamed. Part headers are checked before the body is read, so
// a missing file is reported first, then a wrong content type, then the size.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	maxSize := h.uploads.MaxSize()
	sizeMessage := fmt.Sprintf("File size exceeds %dMB limit", maxSize/(1024*1024))

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}

	part, err := nextFilePart(mr)
	if err != nil {
		if errors.Is(err, io.EOF) || isBodyTooLarge(err) {
			writeError(w, http.StatusBadRequest, "No file provided")
			return
		}
		log.Error().Err(err).Msg("Failed to parse upload")
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}
	defer part.Close()

	if part.Header.Get("Content-Type") != models.ContentTypePDF {
		writeError(w, http.StatusBadRequest, "Only PDF files are accepted")
		return
	}

	uploaded, err := h.uploads.Save(part.FileName(), 0, part)
	if errors.Is(err, storage.ErrTooLarge) || isBodyTooLarge(err) {
		writeError(w, http.StatusBadRequest, sizeMessage)
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to store upload")
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	log.Info().
		Str("file_id", uploaded.ID).
		Int64("bytes", uploaded.Size).
		Msg("File uploaded")

	writeJSON(w, http.StatusOK, uploaded)
}

// nextFilePart skips form parts until the "file" field with a file name.
// It returns io.EOF when the form has none.
func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

func isBodyTooLarge(err error) bool {
	if err == nil {
		return false
	}
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}
