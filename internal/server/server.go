// Package server exposes the current dataset's views over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
	"github.com/chrisdamba/darkstoremetrics/internal/logging"
)

// Refresher rebuilds the published dataset on demand.
type Refresher interface {
	Refresh(ctx context.Context) (*dataset.Dataset, error)
}

// Defaults are the filters applied when a request does not name its own.
type Defaults struct {
	Store     string
	Brand     string
	StartDate string
	EndDate   string
}

type Handlers struct {
	store     *dataset.Store
	refresher Refresher
	location  *time.Location
	defaults  Defaults
	logger    *zap.Logger
}

type Option func(*Handlers)

func WithRefresher(r Refresher) Option {
	return func(h *Handlers) {
		h.refresher = r
	}
}

// WithLocation sets the zone used to read start/end filter dates.
func WithLocation(loc *time.Location) Option {
	return func(h *Handlers) {
		if loc != nil {
			h.location = loc
		}
	}
}

func WithDefaults(d Defaults) Option {
	return func(h *Handlers) {
		h.defaults = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(h *Handlers) {
		h.logger = logging.OrNop(logger)
	}
}

func New(store *dataset.Store, opts ...Option) *Handlers {
	h := &Handlers{
		store:    store,
		location: time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.logger = h.logger.Named("http")
	return h
}

// Router builds the full HTTP handler with middleware.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, newError(http.StatusNotFound, "not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, newError(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed"))
	})

	r.Get("/healthz", h.healthz)
	r.Route("/api/v1", h.Routes)
	return r
}

// Routes registers the dataset endpoints against r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/dataset", h.getDataset)
	r.Get("/summary", h.getSummary)
	r.Get("/metrics", h.listMetrics)
	r.Get("/metrics/{metric}", h.getMetric)
	r.Get("/metrics/{metric}/buckets/{bucket}/orders", h.listBucketOrders)
	r.Get("/orders", h.listOrders)
	r.Get("/filters", h.getFilters)
	r.Get("/export", h.export)
	r.Post("/refresh", h.refresh)
}

func (h *Handlers) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
