package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/video-stream/editor/internal/api/middleware"
	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/editor"
	"github.com/video-stream/editor/internal/pipeline"
	"github.com/video-stream/editor/internal/project"
)

type ProjectHandler struct {
	projects *project.Service
	runner   *pipeline.Runner
	log      logrus.FieldLogger
}

func NewProjectHandler(projects *project.Service, runner *pipeline.Runner, log logrus.FieldLogger) *ProjectHandler {
	return &ProjectHandler{projects: projects, runner: runner, log: log}
}

// List returns the caller's projects, newest first.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	projects, err := h.projects.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, projects, http.StatusOK)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	p, err := h.projects.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	var in project.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		writeBodyError(w, err)
		return
	}
	p, err := h.projects.Create(r.Context(), id.UserID, in)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, p, http.StatusCreated)
}

// Update applies a partial update (PATCH).
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	var patch project.Patch
	if err := decodeJSON(r, &patch); err != nil {
		writeBodyError(w, err)
		return
	}
	p, err := h.projects.Update(r.Context(), id.UserID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	projectID := chi.URLParam(r, "id")
	if err := h.projects.Delete(r.Context(), id.UserID, projectID); err != nil {
		writeError(w, h.log, err)
		return
	}
	if h.runner != nil {
		h.runner.Forget(id.UserID, projectID)
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	Index *int `json:"index"`
}

// ToggleWord flips isDeleted on one transcript word.
func (h *ProjectHandler) ToggleWord(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Index == nil {
		writeError(w, h.log, &project.ValidationError{Errors: []string{"Field 'index' failed on the 'required' tag"}})
		return
	}
	p, err := h.projects.ToggleWord(r.Context(), id.UserID, chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

type transcriptResponse struct {
	*models.VideoProject
	Warnings []string `json:"warnings,omitempty"`
}

// ReplaceTranscript stores a whole new transcript (PUT). Segments that are
// out of order are stored as sent and reported in warnings.
func (h *ProjectHandler) ReplaceTranscript(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	var t models.Transcript
	if err := decodeJSON(r, &t); err != nil {
		writeBodyError(w, err)
		return
	}
	p, err := h.projects.ReplaceTranscript(r.Context(), id.UserID, chi.URLParam(r, "id"), t)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	resp := transcriptResponse{VideoProject: p}
	if err := editor.CheckOrdering(p.Transcript); err != nil {
		resp.Warnings = []string{err.Error()}
	}
	jsonResponse(w, resp, http.StatusOK)
}

func (h *ProjectHandler) RestoreAll(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	p, err := h.projects.RestoreAll(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

func (h *ProjectHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	st, err := h.projects.Stats(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, st, http.StatusOK)
}

// ReconcileCuts rebuilds filler and manual cuts from the deleted words.
func (h *ProjectHandler) ReconcileCuts(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	p, err := h.projects.ReconcileCuts(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	jsonResponse(w, p, http.StatusOK)
}

// Timeline renders the editor view of a project: ticks for the requested
// zoom, the word under the playhead at t, and the length left after cuts.
// Query: zoom (1-100), t (seconds), playing, export.
func (h *ProjectHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	q, err := parseTimelineQuery(r)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	p, err := h.projects.Get(r.Context(), id.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}

	var latest *models.ProcessingState
	if h.runner != nil {
		if info, err := h.runner.Latest(id.UserID, p.ID); err == nil {
			latest = &info.State
		}
	}
	st := editor.Resume(p, latest)
	pb := st.Playback.SetZoom(q.zoom).Seek(q.at)
	if q.playing {
		pb = pb.Play()
	} else {
		pb = pb.Pause()
	}
	st = st.WithPlayback(pb).ShowExport(q.export)
	jsonResponse(w, st.View(), http.StatusOK)
}

type timelineQuery struct {
	zoom    int
	at      float64
	playing bool
	export  bool
}

func parseTimelineQuery(r *http.Request) (timelineQuery, error) {
	q := timelineQuery{zoom: editor.DefaultZoom}
	values := r.URL.Query()
	var errs []string
	if v := values.Get("zoom"); v != "" {
		z, err := cast.ToIntE(v)
		if err != nil {
			errs = append(errs, "Field 'zoom' failed on the 'numeric' tag")
		}
		q.zoom = z
	}
	if v := values.Get("t"); v != "" {
		t, err := cast.ToFloat64E(v)
		if err != nil {
			errs = append(errs, "Field 't' failed on the 'numeric' tag")
		}
		q.at = t
	}
	if v := values.Get("playing"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			errs = append(errs, "Field 'playing' failed on the 'boolean' tag")
		}
		q.playing = b
	}
	if v := values.Get("export"); v != "" {
		b, err := cast.ToBoolE(v)
		if err != nil {
			errs = append(errs, "Field 'export' failed on the 'boolean' tag")
		}
		q.export = b
	}
	if len(errs) > 0 {
		return q, &project.ValidationError{Errors: errs}
	}
	return q, nil
}
