package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the index error taxonomy onto HTTP status codes.
// Internal failures are logged with their cause but surfaced opaquely.
func (app *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	message := err.Error()

	switch {
	case errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, models.ErrTransient):
		status = http.StatusServiceUnavailable
		message = "store temporarily unavailable"
	default:
		status = http.StatusInternalServerError
		message = "internal error"
		app.Log.Error("request failed",
			zap.String("request_id", requestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeJSON(w, status, map[string]string{"error": message})
}
