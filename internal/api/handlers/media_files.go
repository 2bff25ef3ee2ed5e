package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/project"
	"github.com/video-stream/editor/internal/store"
)

type MediaFileHandler struct {
	store    store.Store
	validate *validator.Validate
	log      logrus.FieldLogger
}

func NewMediaFileHandler(st store.Store, validate *validator.Validate, log logrus.FieldLogger) *MediaFileHandler {
	return &MediaFileHandler{store: st, validate: validate, log: log}
}

type createMediaFileRequest struct {
	Name     string          `json:"name" validate:"required,max=255"`
	Type     string          `json:"type" validate:"required,oneof=video audio image"`
	FileName string          `json:"fileName" validate:"required,max=255"`
	FileSize *int64          `json:"fileSize" validate:"required,gte=0"`
	Duration *float64        `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Metadata models.Metadata `json:"metadata,omitempty"`
}

// List returns the caller's media files, newest first.
func (h *MediaFileHandler) List(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	files, err := h.store.ListMediaFiles(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, files, http.StatusOK)
}

func (h *MediaFileHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)

	var req createMediaFileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if err := project.Validate(h.validate, req); err != nil {
		writeError(w, h.log, err)
		return
	}

	f := &models.MediaFile{
		UserID:    id.UserID,
		Name:      req.Name,
		Type:      models.MediaType(req.Type),
		FileName:  req.FileName,
		FileSize:  *req.FileSize,
		Duration:  req.Duration,
		Metadata:  req.Metadata,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if f.Metadata == nil {
		f.Metadata = models.Metadata{}
	}
	if err := h.store.CreateMediaFile(r.Context(), f); err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, f, http.StatusCreated)
}

// Delete removes one of the caller's files. Someone else's file is a 404.
func (h *MediaFileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		jsonError(w, "not found", http.StatusNotFound)
		return
	}
	if err := h.store.DeleteMediaFile(r.Context(), id.UserID, fileID); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
