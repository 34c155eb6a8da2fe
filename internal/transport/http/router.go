package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/get_run"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/list_price_history"
	"github.com/light-bringer/dynprice-service/internal/app/pricing/queries/preview_rules"
	"github.com/light-bringer/dynprice-service/internal/pkg/clock"
)

const requestTimeout = 60 * time.Second

// RunTrigger starts an on-demand catalog run.
type RunTrigger interface {
	Trigger(ctx context.Context, catalogID string) (*domain.EvaluationRun, error)
}

// Options wires the HTTP API to the application layer.
type Options struct {
	Preview         *preview_rules.Query
	GetRun          *get_run.Query
	PriceHistory    *list_price_history.Query
	Runs            RunTrigger
	Metrics         http.Handler // served at /metrics when set
	DefaultTimezone string       // run lookups without ?timezone=
	Clock           clock.Clock
	Logger          *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	opts   Options
	router *chi.Mux
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	if opts.Clock == nil {
		opts.Clock = clock.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "America/New_York"
	}
	s := &Server{opts: opts}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Post("/preview", s.handlePreview)
		r.Get("/products/{productID}/price-history", s.handlePriceHistory)

		r.Route("/catalogs/{catalogID}/runs", func(r chi.Router) {
			r.Post("/", s.handleTriggerRun)
			r.Get("/{runDate}", s.handleGetRun)
		})
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// logRequests logs one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
