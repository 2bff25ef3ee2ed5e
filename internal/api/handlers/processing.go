package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/pipeline"
	"github.com/video-stream/editor/internal/project"
)

const wsWriteTimeout = 10 * time.Second

type ProcessingHandler struct {
	projects *project.Service
	runner   *pipeline.Runner
	accept   *websocket.AcceptOptions
	log      logrus.FieldLogger
}

// NewProcessingHandler builds the handler. allowedOrigins follows the CORS
// configuration; "*" accepts websocket upgrades from any origin.
func NewProcessingHandler(projects *project.Service, runner *pipeline.Runner, allowedOrigins []string, log logrus.FieldLogger) *ProcessingHandler {
	return &ProcessingHandler{
		projects: projects,
		runner:   runner,
		accept:   acceptOptions(allowedOrigins),
		log:      log,
	}
}

func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	for _, o := range origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			opts.OriginPatterns = append(opts.OriginPatterns, u.Host)
		} else {
			opts.OriginPatterns = append(opts.OriginPatterns, o)
		}
	}
	return opts
}

// Start launches the pipeline for the project and returns 202 with the run.
func (h *ProcessingHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	p, err := h.projects.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	run, err := h.runner.Start(r.Context(), id.UserID, p)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, run.Info(), http.StatusAccepted)
}

// Status returns the latest run of the project.
func (h *ProcessingHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	info, err := h.runner.Latest(id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, info, http.StatusOK)
}

func (h *ProcessingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	projectID := chi.URLParam(r, "id")
	if _, err := h.projects.Get(r.Context(), id.UserID, projectID); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.runner.Cancel(id.UserID, projectID)
	w.WriteHeader(http.StatusNoContent)
}

// Stream upgrades to a websocket and sends every ProcessingState of the
// project's latest run as a JSON text message, then closes normally.
func (h *ProcessingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	projectID := chi.URLParam(r, "id")

	states, unsubscribe, err := h.runner.Subscribe(id.UserID, projectID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, h.accept)
	if err != nil {
		h.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	// The client never sends; CloseRead handles its close frame and
	// cancels ctx when it goes away.
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-states:
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "processing finished")
				return
			}
			if err := writeJSON(ctx, conn, s); err != nil {
				h.log.WithError(err).WithField("project_id", projectID).Debug("websocket write failed")
				return
			}
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, v)
}
