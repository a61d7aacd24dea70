package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/luxoras/storefront/internal/api"
)

// writeJSON writes a JSON response with the given status code.
// Logs encoding failures internally using the provided context.
func writeJSON(ctx context.Context, w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	// Headers and status are written before encoding to avoid buffering.
	// If encoding fails, the client may receive a partial response.
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.ErrorContext(ctx, "failed to encode JSON response", "error", err)
	}
}

// writeError writes err in the API's {code, message} shape.
// Errors that are not *api.Error are reported as 500 without their details.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		slog.ErrorContext(ctx, "request failed", "error", err)
		apiErr = &api.Error{Code: http.StatusInternalServerError, Message: http.StatusText(http.StatusInternalServerError)}
	}

	status := apiErr.Code
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	writeJSON(ctx, w, api.Error{Code: apiErr.Code, Message: apiErr.Message}, status)
}
