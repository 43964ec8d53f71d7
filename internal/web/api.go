package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/game/scene"
	"github.com/cory-johannsen/mudmap/internal/game/session"
	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/game/world"
)

//go:embed static/index.html
var indexHTML []byte

type errorResponse struct {
	Error string `json:"error"`
}

type sourcesResponse struct {
	Default string   `json:"default"`
	Sources []string `json:"sources"`
}

type areasResponse struct {
	Source string             `json:"source"`
	Areas  []world.AreaOption `json:"areas"`
}

type areaInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Rooms       int    `json:"rooms"`
	Levels      []int  `json:"levels"`
}

type sceneResponse struct {
	State view.State   `json:"state"`
	Area  areaInfo     `json:"area"`
	Scene *scene.Scene `json:"scene"`
	Panel *scene.Panel `json:"panel,omitempty"`
}

type sessionsResponse struct {
	Count   int              `json:"count"`
	Viewers []session.Viewer `json:"viewers"`
}

// requestError carries the HTTP status a query failure maps to.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := readToken(r); !ok {
		http.SetCookie(w, newTokenCookie())
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sourcesResponse{
		Default: s.defaults.Source,
		Sources: s.catalog.Sources(),
	})
}

func (s *Server) handleAreas(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")
	if source == "" {
		source = r.URL.Query().Get("source")
	}
	if source == "" {
		source = s.defaults.Source
	}
	ds, _, ok := s.catalog.Dataset(source)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown map source %q", source))
		return
	}
	writeJSON(w, http.StatusOK, areasResponse{Source: source, Areas: world.AreaOptions(ds)})
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	st, area, sc, err := s.render(r.URL.Query())
	if err != nil {
		s.writeRenderError(w, err)
		return
	}
	resp := sceneResponse{
		State: st,
		Area: areaInfo{
			ID:          area.ID,
			Name:        area.Name,
			DisplayName: world.DisplayName(area.Name),
			Rooms:       len(area.Rooms),
			Levels:      area.Levels,
		},
		Scene: sc,
	}
	if p, ok := scene.HoverPanel(sc, st.Hover); ok {
		resp.Panel = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	st, area, sc, err := s.render(r.URL.Query())
	if err != nil {
		s.writeRenderError(w, err)
		return
	}
	f := view.Frame{State: st, Scene: sc, Levels: area.Levels}
	if p, ok := scene.HoverPanel(sc, st.Hover); ok {
		f.Panel = &p
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(s.svg.Render(f))
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	viewers := s.viewers.List()
	writeJSON(w, http.StatusOK, sessionsResponse{Count: len(viewers), Viewers: viewers})
}

// render builds the scene selected by the query parameters source, area,
// level, zoom, panX, panY and hover. Missing parameters take the defaults.
func (s *Server) render(q url.Values) (view.State, *world.Area, *scene.Scene, error) {
	st, err := s.stateFromQuery(q)
	if err != nil {
		return view.State{}, nil, nil, err
	}
	if _, _, ok := s.catalog.Dataset(st.Source); !ok {
		return st, nil, nil, &requestError{status: http.StatusNotFound, msg: fmt.Sprintf("unknown map source %q", st.Source)}
	}
	area, sc, err := view.Render(s.catalog, s.preparer, s.builder, st)
	if err != nil {
		if world.IsAreaNotFound(err) {
			return st, nil, nil, &requestError{status: http.StatusNotFound, msg: err.Error()}
		}
		return st, nil, nil, err
	}
	return st, area, sc, nil
}

func (s *Server) stateFromQuery(q url.Values) (view.State, error) {
	st := view.State{
		Source: q.Get("source"),
		AreaID: q.Get("area"),
		Zoom:   1,
		Hover:  q.Get("hover"),
	}
	if st.Source == "" {
		st.Source = s.defaults.Source
	}
	if st.AreaID == "" {
		st.AreaID = s.defaults.AreaID
	}

	if raw := q.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			return st, badRequest("level must be an integer")
		}
		st.Level = level
	}
	var err error
	if st.Zoom, err = floatParam(q, "zoom", 1); err != nil {
		return st, err
	}
	if st.Zoom < view.MinZoom || st.Zoom > view.MaxZoom {
		return st, badRequest(fmt.Sprintf("zoom must be within [%g, %g]", view.MinZoom, view.MaxZoom))
	}
	if st.Pan.X, err = floatParam(q, "panX", 0); err != nil {
		return st, err
	}
	if st.Pan.Y, err = floatParam(q, "panY", 0); err != nil {
		return st, err
	}
	return st, nil
}

func floatParam(q url.Values, name string, def float64) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, badRequest(name + " must be a finite number")
	}
	return v, nil
}

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

func (s *Server) writeRenderError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeError(w, re.status, re.msg)
		return
	}
	s.logger.Error("rendering scene", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// writeJSON encodes v before anything is written, so an encoding failure
// still reaches the client as a 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Error: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
