package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/storage"
	"github.com/go-chi/chi/v5"
)

// FileHandler serves selfies and attachments stored by key. Keys embed a random UUID and
// are only handed out in authenticated responses.
type FileHandler struct {
	storage storage.FileStorage
}

func NewFileHandler(storage storage.FileStorage) *FileHandler {
	return &FileHandler{storage: storage}
}

func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	f, err := h.storage.Open(r.Context(), key)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrInvalidPath) {
			response.NotFound(w, "File not found")
			return
		}
		response.HandleError(w, err)
		return
	}
	defer f.Close()

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = io.Copy(w, f)
}
