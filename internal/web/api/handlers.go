package api

import (
	"bytes"
	"net/http"

	"github.com/buemura/contractlens/internal/engine"
	"github.com/buemura/contractlens/internal/output"
	"github.com/buemura/contractlens/internal/rules"
	"github.com/buemura/contractlens/internal/web/sessions"
	"github.com/go-chi/chi/v5"
)

var contentTypes = map[string]string{
	"json":     "application/json",
	"yaml":     "application/yaml",
	"markdown": "text/markdown; charset=utf-8",
	"html":     "text/html; charset=utf-8",
	"table":    "text/plain; charset=utf-8",
	"sarif":    "application/sarif+json",
}

// Handlers holds dependencies for the REST API handlers.
type Handlers struct {
	Manager  *sessions.Manager
	Registry *rules.Registry
}

// NewHandlers creates API handlers with the given dependencies.
func NewHandlers(manager *sessions.Manager, registry *rules.Registry) *Handlers {
	return &Handlers{Manager: manager, Registry: registry}
}

func (h *Handlers) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, bool) {
	s, err := h.Manager.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return s, true
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	source, p, err := decodeCreateSessionRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.Manager.Create(source, p)
	if err != nil {
		if _, ok := engine.CodeOf(err); ok {
			writeEngineError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":    s.ID,
		"state": s.Engine.State().String(),
	})
}

// ListSessions handles GET /api/v1/sessions.
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	list := h.Manager.List()
	infos := make([]sessions.Info, len(list))
	for i, s := range list {
		infos[i] = s.Info()
	}
	writeJSON(w, http.StatusOK, infos)
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Info())
}

// PutSource handles PUT /api/v1/sessions/{id}/source. The new text is
// analyzed after the debounce delay.
func (h *Handlers) PutSource(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	source, err := decodeSourceRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.SetSource(source); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":    s.ID,
		"state": s.Engine.State().String(),
	})
}

// Analyze handles POST /api/v1/sessions/{id}/analyze and runs a scan of the
// buffer immediately.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	report, err := s.Engine.PerformAnalysis(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetReport handles GET /api/v1/sessions/{id}/report. The format query
// parameter selects any output format; JSON is the default.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	report := s.Engine.Current()
	if report == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" || format == "json" {
		writeJSON(w, http.StatusOK, report)
		return
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, []output.FileReport{{Path: s.ID, Report: report}}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ClearReport handles DELETE /api/v1/sessions/{id}/report.
func (h *Handlers) ClearReport(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Engine.ClearResults(); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PatchConfig handles PATCH /api/v1/sessions/{id}/config.
func (h *Handlers) PatchConfig(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	p, err := decodeConfigRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Engine.UpdateConfig(p); err != nil {
		if _, ok := engine.CodeOf(err); ok {
			writeEngineError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Engine.Config())
}

// Fix handles POST /api/v1/sessions/{id}/fix.
func (h *Handlers) Fix(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	issue, err := decodeIssueRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	applied, err := s.Engine.AutoFixIssue(issue)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applied": applied,
		"source":  s.Buffer.Text(),
	})
}

// Jump handles POST /api/v1/sessions/{id}/jump and moves the session
// selection to the issue range.
func (h *Handlers) Jump(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	issue, err := decodeIssueRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Engine.JumpToIssue(issue); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"selection": s.Buffer.Selection(),
	})
}

// DeleteSession handles DELETE /api/v1/sessions/{id}.
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Manager.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRules handles GET /api/v1/rules.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	all := h.Registry.All()
	metas := make([]rules.Meta, len(all))
	for i, rule := range all {
		metas[i] = rule.Meta
	}
	writeJSON(w, http.StatusOK, metas)
}
