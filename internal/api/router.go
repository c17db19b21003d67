package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/database"
	"github.com/recapd/recapd/internal/ingest"
	"github.com/recapd/recapd/internal/metrics"
	"github.com/recapd/recapd/internal/search"
	"github.com/recapd/recapd/internal/tags"
)

// App wires the query surface to the tag manager, search engine and
// ingest service. It holds no state of its own.
type App struct {
	DB     *database.DB
	Tags   *tags.Manager
	Search *search.Engine
	Ingest *ingest.Service
	Limits search.Limits
	Log    *zap.Logger
}

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(requestLogger(app.Log))
	r.Use(metrics.Middleware())

	r.Get("/health", app.HealthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/tags/{kind}/{id}", app.AddTagsHandler)
	r.Delete("/tags/{kind}/{id}", app.RemoveTagsHandler)
	r.Get("/search", app.SearchHandler)

	r.Post("/ingest/vision", app.IngestVisionHandler)
	r.Post("/ingest/audio", app.IngestAudioHandler)
	r.Post("/ingest/video-chunks", app.IngestVideoChunkHandler)
	r.Post("/ingest/ui", app.IngestUIHandler)

	return r
}
