package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/auth"
	"github.com/video-stream/editor/internal/editor"
	"github.com/video-stream/editor/internal/pipeline"
	"github.com/video-stream/editor/internal/project"
	"github.com/video-stream/editor/internal/store"
)

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, map[string]string{"error": msg}, status)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeBodyError reports a body that could not be decoded.
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid request body", http.StatusBadRequest)
}

// writeError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var ve *project.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonResponse(w, map[string]interface{}{
			"error":  "validation failed",
			"errors": ve.Errors,
		}, http.StatusBadRequest)
	case errors.Is(err, editor.ErrIndexOutOfRange):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrPasswordTooLong):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrConflict):
		jsonError(w, "username or email already exists", http.StatusBadRequest)
	case errors.Is(err, auth.ErrInvalidCredentials):
		jsonError(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthenticated):
		jsonError(w, "authentication required", http.StatusUnauthorized)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, pipeline.ErrNoRun):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		log.WithError(err).Error("request failed")
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}
