// Package httpapi is the HTTP surface of the repository bridge: the fixed
// OAuth redirect endpoint plus listing/search/login/logout endpoints for the
// host's repository UI. The host identifies the user session via the
// X-Session-ID header; the OAuth callback instead recovers the session from
// the signed-over state parameter, since the provider redirect carries no
// host headers.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mytubelab/mytube/internal/engine"
)

const sessionHeader = "X-Session-ID"

// Server bundles the handlers around one repository instance.
type Server struct {
	repo *engine.Repository
}

// NewRouter builds the chi router for the given repository.
func NewRouter(repo *engine.Repository) http.Handler {
	s := &Server{repo: repo}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(engine.FormatMetrics()))
	})
	r.Get(engine.CallbackPath, s.handleCallback)
	r.Route("/repo/{repoID}", func(r chi.Router) {
		r.Get("/listing", s.handleListing)
		r.Get("/search", s.handleSearch)
		r.Get("/login", s.handleLogin)
		r.Get("/capabilities", s.handleCapabilities)
		r.Post("/logout", s.handleLogout)
	})
	return r
}

// handleCallback receives the provider redirect, verifies the state, runs
// the code exchange, and resumes the caller's original destination. Exchange
// failures are logged but still redirect: the missing token is discovered
// lazily on the next listing request, which re-triggers login.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if state == "" || code == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	st, err := s.repo.Auth().ConsumeState(r.Context(), state)
	if err != nil {
		slog.Warn("oauth callback state rejected", slog.Any("error", err))
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}

	if err := s.repo.Auth().Authenticate(r.Context(), st.SessionID, code); err != nil {
		slog.Error("authorization code exchange failed", slog.Any("error", err))
	}

	returnTo := st.ReturnTo
	if returnTo == "" {
		returnTo = "/"
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.session(w, r)
	if !ok {
		return
	}
	result, err := s.repo.GetListing(r.Context(), sessionID, r.URL.Query().Get("path"), queryPage(r))
	s.writePage(w, result, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := s.repo.Search(r.Context(), sessionID, q.Get("q"), q.Get("sort"), queryPage(r))
	s.writePage(w, result, err)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.session(w, r)
	if !ok {
		return
	}
	url, err := s.repo.Auth().AuthURL(r.Context(), sessionID, r.URL.Query().Get("return"))
	if err != nil {
		http.Error(w, "login unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"login_url": url})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.repo.Auth().Logout(r.Context(), sessionID); err != nil {
		http.Error(w, "logout failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.repo.Capabilities())
}

// session extracts the host session ID and checks the repo ID in the path.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, bool) {
	if chi.URLParam(r, "repoID") != s.repo.ID {
		http.Error(w, "unknown repository", http.StatusNotFound)
		return "", false
	}
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		http.Error(w, "missing "+sessionHeader, http.StatusBadRequest)
		return "", false
	}
	return sessionID, true
}

// writePage renders a PageResult. A nil result means the session is stale:
// 204 tells the host to show its login affordance.
func (s *Server) writePage(w http.ResponseWriter, result *engine.PageResult, err error) {
	if err != nil {
		var perr *engine.ProviderError
		if errors.As(err, &perr) {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": perr.Message})
			return
		}
		slog.Error("page request failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if result == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// queryPage parses the page query parameter; anything non-numeric is 0 and
// gets coerced to page 1 by the engine.
func queryPage(r *http.Request) int {
	n, _ := strconv.Atoi(r.URL.Query().Get("page"))
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", slog.Any("error", err))
	}
}
