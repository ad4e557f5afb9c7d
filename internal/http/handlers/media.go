package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/signalix/phoneauth/internal/media"
	"go.uber.org/zap"
)

const maxUploadBytes = 10 << 20

// MediaHandler exposes the media store over HTTP.
type MediaHandler struct {
	store  media.Store
	logger *zap.Logger
}

// NewMediaHandler creates a MediaHandler
func NewMediaHandler(store media.Store, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{store: store, logger: logger.Named("media_handler")}
}

// HandleUpload handles POST /media (multipart field "file").
func (h *MediaHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	name, data, ok := h.readFile(w, r)
	if !ok {
		return
	}

	key, err := h.store.Upload(r.Context(), name, data)
	if err != nil {
		h.logger.Error("upload failed", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "failed to upload file")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "successfully loaded object", "key": key})
}

// HandleReplace handles PUT /media/{key}.
func (h *MediaHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	_, data, ok := h.readFile(w, r)
	if !ok {
		return
	}

	key, err := h.store.Replace(r.Context(), chi.URLParam(r, "key"), data)
	if err != nil {
		h.logger.Error("replace failed", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "failed to update file")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "successfully replaced object", "key": key})
}

// HandleGet handles GET /media/{key}.
func (h *MediaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	data, err := h.store.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			RespondWithError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("get failed", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "failed to get file")
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleList handles GET /media.
func (h *MediaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	objects, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("list failed", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	if objects == nil {
		objects = []media.Object{}
	}
	respondJSON(w, http.StatusOK, objects)
}

// HandleDelete handles DELETE /media/{key}.
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		h.logger.Error("delete failed", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "failed to delete file")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "successfully deleted object"})
}

func (h *MediaHandler) readFile(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "file is required")
		return "", nil, false
	}
	defer file.Close()

	if header.Filename == "" {
		RespondWithError(w, http.StatusBadRequest, "filename not provided")
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "failed to read file")
		return "", nil, false
	}
	return header.Filename, data, true
}
