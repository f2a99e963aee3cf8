package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/estate-listings/internal/domain"
)

// MediaHandler serves images kept in the local blob store.
type MediaHandler struct {
	files domain.FileStore
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(files domain.FileStore) *MediaHandler {
	return &MediaHandler{files: files}
}

// HandleServe writes the stored bytes with their recorded content type.
// Keys are random and never reused, so responses may be cached forever.
// GET /media/{key}
func (h *MediaHandler) HandleServe(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := h.files.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeServiceError(w, "serve media", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
