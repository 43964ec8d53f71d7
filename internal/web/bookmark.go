package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudmap/internal/game/view"
	"github.com/cory-johannsen/mudmap/internal/storage"
)

// TokenCookie names the cookie holding a browser's bookmark token.
const TokenCookie = "mudmap_token"

const (
	tokenMaxAge     = 365 * 24 * time.Hour
	bookmarkTimeout = 2 * time.Second
)

func readToken(r *http.Request) (string, bool) {
	c, err := r.Cookie(TokenCookie)
	if err != nil || !storage.ValidToken(c.Value) {
		return "", false
	}
	return c.Value, true
}

func newTokenCookie() *http.Cookie {
	return &http.Cookie{
		Name:     TokenCookie,
		Value:    storage.NewToken(),
		Path:     "/",
		MaxAge:   int(tokenMaxAge / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// initialState picks the start selection of a new web viewer. A stored
// bookmark restores source and area; a parseable anchor then overrides the
// area. Without either the defaults apply.
func (s *Server) initialState(ctx context.Context, token, anchor string) view.State {
	st := view.Initial(anchor, s.defaults)
	if token == "" {
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, bookmarkTimeout)
	defer cancel()
	b, err := s.bookmarks.Get(ctx, token)
	switch {
	case errors.Is(err, storage.ErrBookmarkNotFound):
		return st
	case err != nil:
		s.logger.Warn("restoring bookmark", zap.Error(err))
		return st
	}
	if _, _, ok := s.catalog.Dataset(b.Source); !ok {
		s.logger.Debug("bookmark names an unloaded source", zap.String("source", b.Source))
		return st
	}
	st.Source = b.Source
	if _, ok := view.ParseAnchor(anchor); !ok {
		st.AreaID = b.AreaID
	}
	return st
}

// saveBookmark records the viewer's selection. Failures are logged only.
func (s *Server) saveBookmark(ctx context.Context, token string, st view.State, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, bookmarkTimeout)
	defer cancel()
	_, err := s.bookmarks.Save(ctx, storage.Bookmark{Token: token, Source: st.Source, AreaID: st.AreaID})
	if err != nil {
		logger.Warn("saving bookmark", zap.Error(err))
	}
}

type bookmarkResponse struct {
	Source string `json:"source"`
	Area   string `json:"area"`
}

// handleBookmark reports the selection stored for the browser's token.
func (s *Server) handleBookmark(w http.ResponseWriter, r *http.Request) {
	token, ok := readToken(r)
	if !ok {
		writeError(w, http.StatusNotFound, "no bookmark")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), bookmarkTimeout)
	defer cancel()
	b, err := s.bookmarks.Get(ctx, token)
	switch {
	case errors.Is(err, storage.ErrBookmarkNotFound):
		writeError(w, http.StatusNotFound, "no bookmark")
	case err != nil:
		s.logger.Warn("reading bookmark", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "bookmarks unavailable")
	default:
		writeJSON(w, http.StatusOK, bookmarkResponse{Source: b.Source, Area: b.AreaID})
	}
}

// handleForget deletes the browser's bookmark, so the next visit starts at
// the defaults. Forgetting a missing bookmark succeeds.
func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	token, ok := readToken(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), bookmarkTimeout)
	defer cancel()
	if err := s.bookmarks.Delete(ctx, token); err != nil {
		s.logger.Warn("deleting bookmark", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "bookmarks unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
