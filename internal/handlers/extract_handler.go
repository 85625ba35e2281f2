package handlers

import (
	"io"
	"net/http"

	"github.com/courseloom/backend/internal/extract"
	"github.com/courseloom/backend/internal/middleware"
)

// ExtractHandler turns an uploaded document into prompt-ready text that the
// client can pass back as source_text on a generate request.
type ExtractHandler struct {
	Extractor extract.DocumentExtractor
}

// Extract handles POST /v1/extract. The document is the raw request body;
// its Content-Type header selects the extractor behavior.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, extract.MaxSourceBytes+1))
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	doc, err := h.Extractor.Extract(r.Context(), data, r.Header.Get("Content-Type"))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
