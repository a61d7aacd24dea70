package server

import (
	"log/slog"
	"net/http"

	"github.com/luxoras/storefront/internal/api"
)

// Recovery recovers from panics in HTTP handlers and returns HTTP 500 to the client.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.ErrorContext(r.Context(), "handler panic", "panic", rec, "path", r.URL.Path)
				writeJSON(r.Context(), w, api.Error{
					Code:    http.StatusInternalServerError,
					Message: http.StatusText(http.StatusInternalServerError),
				}, http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CrossOriginProtection rejects state-changing requests that a browser sends from another origin,
// judged by the Sec-Fetch-Site and Origin headers. Requests carrying neither, such as the CLI's, pass.
func CrossOriginProtection() func(http.Handler) http.Handler {
	cop := http.NewCrossOriginProtection()
	cop.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.WarnContext(r.Context(), "cross-origin request rejected", "path", r.URL.Path, "origin", r.Header.Get("Origin"))
		writeError(r.Context(), w, api.AuthError(http.StatusForbidden, "cross-origin request rejected"))
	}))
	return cop.Handler
}
