package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luxoras/storefront/internal/api"
	"github.com/luxoras/storefront/internal/authcookie"
	"github.com/luxoras/storefront/internal/session"
	"github.com/luxoras/storefront/internal/tokenstore"
)

// maxCookieBody bounds the cookie endpoint's request body.
const maxCookieBody = 16 << 10

// CookieRequest is the body of POST /auth/cookie. An empty token clears the cookie.
type CookieRequest struct {
	Token string `json:"tk"`
}

// SuccessResponse acknowledges a cookie update.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// requestSession creates a session whose cookie copy is the response's Set-Cookie header.
// The store is request-scoped: the server never holds tokens across requests.
func (s *Server) requestSession(w http.ResponseWriter, r *http.Request, token string) (*session.Manager, error) {
	cookie := s.cookieFor(r)
	syncer := session.CookieSyncerFunc(func(_ context.Context, token string) error {
		if token == "" {
			cookie.Clear(w)
			return nil
		}
		cookie.Set(w, token)
		return nil
	})
	return session.New(tokenstore.NewMemoryStore(token), s.clientFor(r), session.WithCookieSyncer(syncer))
}

// handleAuthRedirect sends the browser to the API's OAuth entry point for the provider.
func (s *Server) handleAuthRedirect(w http.ResponseWriter, r *http.Request) {
	provider, err := api.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeJSON(r.Context(), w, api.Error{Code: http.StatusNotFound, Message: "unknown provider"}, http.StatusNotFound)
		return
	}

	http.Redirect(w, r, s.clientFor(r).Endpoint(provider).AuthURL, http.StatusFound)
}

// handleAuthCallback exchanges the code from the provider redirect and sets the auth cookie
// before sending the browser to an authenticated page.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	provider := chi.URLParam(r, "provider")
	query := r.URL.Query()

	sess, err := s.requestSession(w, r, "")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := sess.Exchange(ctx, query.Get("code"), query.Get("state"), provider); err != nil {
		slog.WarnContext(ctx, "oauth exchange failed", "provider", provider, "error", err)
		http.Redirect(w, r, s.failurePath, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, s.successPath, http.StatusSeeOther)
}

// handleSetCookie stores the posted token in the auth cookie. Only JSON bodies are accepted.
func (s *Server) handleSetCookie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		writeError(ctx, w, &api.Error{
			Kind:    api.KindValidation,
			Code:    http.StatusUnsupportedMediaType,
			Message: "content type must be application/json",
		})
		return
	}

	var body CookieRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCookieBody)).Decode(&body); err != nil {
		writeError(ctx, w, api.ValidationError("invalid cookie request"))
		return
	}

	cookie := s.cookieFor(r)
	if body.Token == "" {
		cookie.Clear(w)
	} else {
		cookie.Set(w, body.Token)
	}

	writeJSON(ctx, w, SuccessResponse{Success: true}, http.StatusOK)
}

// handleLogout invalidates the session on the API and always clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := s.cookie.Extract(r)
	if !ok {
		s.cookieFor(r).Clear(w)
		writeJSON(ctx, w, SuccessResponse{Success: true}, http.StatusOK)
		return
	}

	sess, err := s.requestSession(w, r, token)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := sess.Logout(ctx); err != nil {
		slog.WarnContext(ctx, "api logout failed", "error", err)
		s.cookieFor(r).Clear(w)
	}

	writeJSON(ctx, w, SuccessResponse{Success: true}, http.StatusOK)
}

// tokenFrom returns the token carried by the request's auth cookie.
func tokenFrom(codec *authcookie.Codec, r *http.Request) string {
	token, _ := codec.Extract(r)
	return token
}
