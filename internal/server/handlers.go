package server

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/spacetime/pkg/buildinfo"
	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/errors"
	"github.com/matzehuels/spacetime/pkg/interaction"
	"github.com/matzehuels/spacetime/pkg/render/scene"
	"github.com/matzehuels/spacetime/pkg/render/sink"
)

//go:embed static/index.html
var indexHTML []byte

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type sessionBody struct {
	ID    string      `json:"id"`
	Scene scene.Scene `json:"scene"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidGrid, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidPath, errors.ErrCodeInvalidColor, errors.ErrCodeInvalidConfig,
		errors.ErrCodeInvalidScenario, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnreachable:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		s.log.Error("Request failed", "path", r.URL.Path, "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Code: string(code), Message: msg})
}

// =============================================================================
// Pages
// =============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.len(),
		"build":    buildinfo.Current(),
	})
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) newDiagram() diagram.Diagram {
	return diagram.New(s.opts.Grid, diagram.WithPalette(s.opts.Palette))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.create(r.Context(), s.newDiagram())
	sess.mu.Lock()
	body := sessionBody{ID: sess.id, Scene: sess.sceneLocked(s.opts.Pitch)}
	sess.mu.Unlock()
	w.Header().Set("Location", "/api/sessions/"+sess.id)
	writeJSON(w, http.StatusCreated, body)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	body := sessionBody{ID: sess.id, Scene: sess.sceneLocked(s.opts.Pitch)}
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type placeRequest struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Fresh bool `json:"fresh"`
}

// handlePlace is a click on cell (x, y) without the pointer round trip.
func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req placeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	cell := interaction.Cell{X: req.X, Y: req.Y}
	sess.ctrl.Press(cell, req.Fresh)
	if err := sess.ctrl.Release(cell); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionBody{ID: sess.id, Scene: sess.sceneLocked(s.opts.Pitch)})
}

func (s *Server) handleStartWorldline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ctrl.StartWorldline()
	writeJSON(w, http.StatusOK, sessionBody{ID: sess.id, Scene: sess.sceneLocked(s.opts.Pitch)})
}

func (s *Server) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	label, err := strconv.Atoi(chi.URLParam(r, "label"))
	if err != nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid label %q", chi.URLParam(r, "label")))
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.ctrl.Delete(label)
	writeJSON(w, http.StatusOK, sessionBody{ID: sess.id, Scene: sess.sceneLocked(s.opts.Pitch)})
}

// =============================================================================
// Artifacts
// =============================================================================

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	format := chi.URLParam(r, "format")
	if err := errors.ValidateFormat(format, sink.ValidFormats); err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	keyOpts := cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: q.Get("detailed") == "true",
		Title:    q.Get("title"),
		Report:   q.Get("report") == "true",
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 || scale > 8 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "scale must be in (0, 8]"))
			return
		}
		keyOpts.Scale = scale
	}

	sess.mu.Lock()
	sc := sess.sceneLocked(s.opts.Pitch)
	sess.mu.Unlock()
	sc.Hover = nil

	opts := sink.Options{Detailed: keyOpts.Detailed}
	if keyOpts.Title != "" {
		opts.SVG = append(opts.SVG, sink.WithTitle(keyOpts.Title))
	}
	if keyOpts.Scale > 0 {
		opts.PNG = append(opts.PNG, sink.WithScale(keyOpts.Scale))
	}
	if keyOpts.Report {
		opts.PDF = append(opts.PDF, sink.WithReport())
	}

	key := s.opts.Keyer.ArtifactKey(sc.Hash(), keyOpts)
	data, err := cache.Fetch(r.Context(), s.opts.Cache, key, "artifact", s.opts.CacheTTL, func() ([]byte, error) {
		return sink.Render(r.Context(), sc, format, opts)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", sink.ContentType(format))
	w.Header().Set("Content-Disposition", `inline; filename="diagram.`+sink.Extension(format)+`"`)
	_, _ = w.Write(data)
}
