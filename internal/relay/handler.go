// Package relay serves the generation and history endpoints. A generation
// request resolves the image reference, sends it in a response header,
// streams the explanation fragment by fragment and persists the result once
// the stream has ended cleanly.
package relay

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/tjfontaine/mindspark/internal/core/ports"
	"github.com/tjfontaine/mindspark/internal/server"
	"github.com/tjfontaine/mindspark/internal/telemetry"
	"github.com/tjfontaine/mindspark/internal/tokens"
)

const (
	// DefaultPersistTimeout bounds the history write after a stream.
	DefaultPersistTimeout = 5 * time.Second

	// DefaultPageSize caps GET /api/history.
	DefaultPageSize = 10

	maxRequestBody = 64 << 10
)

// Handler serves the relay endpoints.
type Handler struct {
	resolver ports.MetadataResolver
	producer ports.ChunkProducer
	store    ports.HistoryStore

	logger         *slog.Logger
	tracer         trace.Tracer
	counter        tokens.Counter
	persistTimeout time.Duration
	pageSize       int
	now            func() time.Time
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithTracer overrides the global relay tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(h *Handler) {
		h.tracer = tracer
	}
}

// WithTokenCounter enables completion token accounting.
func WithTokenCounter(counter tokens.Counter) Option {
	return func(h *Handler) {
		h.counter = counter
	}
}

// WithPersistTimeout overrides DefaultPersistTimeout.
func WithPersistTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.persistTimeout = d
		}
	}
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

// WithClock replaces time.Now for result timestamps.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// NewHandler creates a relay handler.
func NewHandler(resolver ports.MetadataResolver, producer ports.ChunkProducer, store ports.HistoryStore, opts ...Option) *Handler {
	h := &Handler{
		resolver:       resolver,
		producer:       producer,
		store:          store,
		logger:         slog.Default(),
		tracer:         telemetry.Tracer(),
		persistTimeout: DefaultPersistTimeout,
		pageSize:       DefaultPageSize,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers the relay routes on r. The API routes require a bearer
// credential accepted by verifier.
func (h *Handler) Mount(r chi.Router, verifier ports.IdentityVerifier) {
	r.Get("/healthz", h.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(server.AuthMiddleware(verifier))
		r.Post("/api/generate", h.HandleGenerate)
		r.Get("/api/history", h.HandleHistory)
	})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
