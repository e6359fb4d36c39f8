package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kintree/pkg/buildinfo"
	kerrors "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/pipeline"
	"github.com/matzehuels/kintree/pkg/render"
)

// layoutResponse is the layout document plus the engine's selection and
// last gather error.
type layoutResponse struct {
	render.Document
	Actual int    `json:"actual"`
	Error  string `json:"error,omitempty"`
}

type errorResponse struct {
	Code    kerrors.Code `json:"code"`
	Message string       `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.writeLayout(w)
}

func (s *Server) writeLayout(w http.ResponseWriter) {
	snap := s.engine.Snapshot()
	resp := layoutResponse{
		Document: render.Export(snap.Layout, s.labels),
		Actual:   snap.Actual,
	}
	if snap.Err != nil {
		resp.Error = kerrors.UserMessage(pipeline.Coded(snap.Err))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	artifacts, _, err := s.runner.Render(r.Context(), s.gedcom, s.engine.Layout(), pipeline.Options{
		Formats: []string{pipeline.FormatSVG},
		Logger:  s.logger,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

func (s *Server) handleLinkAt(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		s.writeError(w, kerrors.New(kerrors.ErrCodeInvalidInput, "x and y must be integers"))
		return
	}
	i, ok := s.engine.Layout().LinkAt(x, y)
	if !ok {
		s.writeError(w, kerrors.New(kerrors.ErrCodeNotFound, "no link at %d,%d", x, y))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"index": i})
}

func (s *Server) handleSetRoot(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := kerrors.ValidateEntityID(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.engine.SetRoot(kerrors.NormalizeID(id)); err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r.Context())
	s.writeLayout(w)
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := kerrors.ValidateEntityID(id); err != nil {
		s.writeError(w, err)
		return
	}
	id = kerrors.NormalizeID(id)
	if _, err := s.gedcom.Entity(id); err != nil {
		s.writeError(w, err)
		return
	}
	collapsed, err := s.engine.ToggleCollapse(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.persist(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "collapsed": collapsed})
}

func (s *Server) handleClick(double bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		i, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			s.writeError(w, kerrors.New(kerrors.ErrCodeInvalidInput, "link index must be an integer"))
			return
		}
		if double {
			err = s.engine.DoubleClick(i)
		} else {
			err = s.engine.Click(i)
		}
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.persist(r.Context())
		s.writeLayout(w)
	}
}

// writeError maps err onto a status code and writes it as JSON.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	err = pipeline.Coded(err)
	code := kerrors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: kerrors.UserMessage(err)})
}

func statusFor(code kerrors.Code) int {
	switch code {
	case kerrors.ErrCodeInvalidInput, kerrors.ErrCodeInvalidFormat, kerrors.ErrCodeInvalidSize:
		return http.StatusBadRequest
	case kerrors.ErrCodeNotFound, kerrors.ErrCodeEntityNotFound, kerrors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case kerrors.ErrCodeAmbiguousID:
		return http.StatusConflict
	case kerrors.ErrCodeCyclicRelationship:
		return http.StatusUnprocessableEntity
	case kerrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
