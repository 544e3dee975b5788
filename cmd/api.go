package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Integer-Logic/power-transitions-dashboard/internal/model"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/override"
	"github.com/Integer-Logic/power-transitions-dashboard/internal/store"
)

type api struct {
	svc *override.Service
	st  store.Store
}

func newAPI(svc *override.Service, st store.Store) *api {
	return &api{svc: svc, st: st}
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.st.ListProjects(r.Context(), 500)
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (a *api) getProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := a.st.GetProject(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if p == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "project not found"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// computeScores evaluates composites for display. Nothing is persisted.
func (a *api) computeScores(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawFields map[string]any `json:"raw_fields"`
		CoLocate  string         `json:"co_locate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	fields := req.RawFields
	if fields == nil {
		fields = map[string]any{}
	}
	if req.CoLocate != "" {
		fields["co_locate"] = req.CoLocate
	}

	writeJSON(w, http.StatusOK, a.svc.Compute(fields))
}

func (a *api) saveScores(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RawFields        map[string]any               `json:"raw_fields"`
		CoLocate         string                       `json:"co_locate"`
		Interconnections []model.InterconnectionPoint `json:"interconnections"`
		Editor           string                       `json:"editor"`
		ChangeSummary    string                       `json:"change_summary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rec, err := a.svc.Save(r.Context(), override.SaveRequest{
		ProjectID:        chi.URLParam(r, "id"),
		RawFields:        req.RawFields,
		CoLocate:         req.CoLocate,
		Interconnections: req.Interconnections,
		Editor:           req.Editor,
		ChangeSummary:    req.ChangeSummary,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) getScores(w http.ResponseWriter, r *http.Request) {
	rec, err := a.svc.Current(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *api) scoreHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []model.ScoreHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (a *api) replaceInterconnections(w http.ResponseWriter, r *http.Request) {
	var points []model.InterconnectionPoint
	if err := json.NewDecoder(r.Body).Decode(&points); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if points == nil {
		points = []model.InterconnectionPoint{}
	}

	id := chi.URLParam(r, "id")
	if err := a.svc.ReplaceInterconnections(r.Context(), id, points); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": len(points)})
}

func (a *api) listInterconnections(w http.ResponseWriter, r *http.Request) {
	points, err := a.svc.Interconnections(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if points == nil {
		points = []model.InterconnectionPoint{}
	}
	writeJSON(w, http.StatusOK, points)
}

// writeError maps the error taxonomy onto status codes: validation failures
// are 400, a missing record is 404, everything else is a storage fault.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, override.ErrInvalidProjectID) || eris.Is(err, store.ErrTooManyPoints):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case eris.Is(err, override.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
