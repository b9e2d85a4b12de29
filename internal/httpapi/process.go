package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"scribeai/internal/pipeline"
)

// Process runs the pipeline on a previously uploaded file.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	var req pipeline.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid process request body")
		writeError(w, http.StatusInternalServerError, msgUnexpected)
		return
	}
	if req.FilePath == "" {
		writeError(w, http.StatusBadRequest, "No file path provided")
		return
	}

	resp, err := h.processor.Process(r.Context(), req)
	if err != nil {
		var stageErr *pipeline.StageError
		switch {
		case errors.Is(err, pipeline.ErrFileNotFound):
			writeError(w, http.StatusNotFound, pipeline.ErrFileNotFound.Error())
		case errors.As(err, &stageErr):
			writeError(w, http.StatusInternalServerError, stageErr.Error())
		default:
			log.Error().Err(err).Msg("Process failed")
			writeError(w, http.StatusInternalServerError, msgUnexpected)
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
