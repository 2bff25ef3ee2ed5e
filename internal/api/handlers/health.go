package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/store"
)

type HealthHandler struct {
	store   store.Store
	backend string
	log     logrus.FieldLogger
}

func NewHealthHandler(st store.Store, backend string, log logrus.FieldLogger) *HealthHandler {
	return &HealthHandler{store: st, backend: backend, log: log}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("health check: store unreachable")
		jsonResponse(w, map[string]string{"status": "unavailable", "storage": h.backend}, http.StatusServiceUnavailable)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok", "storage": h.backend}, http.StatusOK)
}
