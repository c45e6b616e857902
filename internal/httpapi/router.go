// Package httpapi provides the public HTTP surface of the transcription
// service.
package httpapi

import (
	"net/http"

	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/events"
	"audio-transcription-service/internal/observability"
	"audio-transcription-service/internal/service/batch"
	"audio-transcription-service/internal/service/engine"
	"audio-transcription-service/internal/service/ingest"
	"audio-transcription-service/internal/service/scheduler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API wires the pipeline components behind the HTTP handlers.
type API struct {
	cfg       *config.Configuration
	ingest    *ingest.Ingest
	sched     *scheduler.Scheduler
	batch     *batch.Coordinator
	handle    *engine.Handle
	publisher *events.Publisher
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

// New constructs the API from its collaborators.
func New(
	cfg *config.Configuration,
	ing *ingest.Ingest,
	sched *scheduler.Scheduler,
	bc *batch.Coordinator,
	handle *engine.Handle,
	publisher *events.Publisher,
	m *observability.Metrics,
) *API {
	return &API{
		cfg:       cfg,
		ingest:    ing,
		sched:     sched,
		batch:     bc,
		handle:    handle,
		publisher: publisher,
		metrics:   m,
		logger:    log.With().Str("component", "httpapi").Logger(),
	}
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: api.cfg.Service.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/", api.handleRoot)
	r.Get("/health", api.handleHealth)
	r.Post("/transcribe", api.handleTranscribe)
	r.Post("/transcribe-batch", api.handleTranscribeBatch)

	return r
}
