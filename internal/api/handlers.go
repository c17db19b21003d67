package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/recapd/recapd/internal/models"
	"github.com/recapd/recapd/internal/search"
)

type tagsRequest struct {
	Tags []string `json:"tags"`
}

func (app *App) AddTagsHandler(w http.ResponseWriter, r *http.Request) {
	kind, id, body, err := parseTagCall(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	added, err := app.Tags.Add(r.Context(), kind, id, body.Tags)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "added": added})
}

func (app *App) RemoveTagsHandler(w http.ResponseWriter, r *http.Request) {
	kind, id, body, err := parseTagCall(r)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	removed, err := app.Tags.Remove(r.Context(), kind, id, body.Tags)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "removed": removed})
}

func parseTagCall(r *http.Request) (kind string, id int64, body tagsRequest, err error) {
	kind = chi.URLParam(r, "kind")

	id, err = strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return "", 0, body, fmt.Errorf("%w: invalid target id %q", models.ErrBadRequest, chi.URLParam(r, "id"))
	}

	if err = json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", 0, body, fmt.Errorf("%w: malformed request body", models.ErrBadRequest)
	}
	return kind, id, body, nil
}

func (app *App) SearchHandler(w http.ResponseWriter, r *http.Request) {
	q, err := search.ParseQuery(r.URL.Query(), app.Limits)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	resp, err := app.Search.Search(r.Context(), q)
	if err != nil {
		app.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (app *App) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.DB.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
