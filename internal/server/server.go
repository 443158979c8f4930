// Package server exposes coverage summaries and dataset state over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/coverage-cli/internal/analysis"
	"github.com/sells-group/coverage-cli/internal/dataset"
	"github.com/sells-group/coverage-cli/internal/metrics"
)

// Config controls the HTTP surface.
type Config struct {
	Port            int
	CORSOrigins     []string
	RatePerSec      float64
	Burst           int
	RequestTimeout  time.Duration
	DefaultRadiusKM float64
}

// Server wires the analysis engine and dataset holder to a chi router.
type Server struct {
	cfg     Config
	engine  *analysis.Engine
	holder  *dataset.Holder
	loader  dataset.SnapshotLoader
	metrics *metrics.Collector
	router  *chi.Mux
}

// New builds the router. loader may be nil, in which case reload requests
// are rejected. m may be nil.
func New(cfg Config, engine *analysis.Engine, holder *dataset.Holder, loader dataset.SnapshotLoader, m *metrics.Collector) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		holder:  holder,
		loader:  loader,
		metrics: m,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Session-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RatePerSec > 0 {
			r.Use(rateLimit(s.cfg.RatePerSec, s.cfg.Burst))
		}
		if s.cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.RequestTimeout))
		}

		r.Get("/coverage", s.handleCoverage)
		r.Get("/coverage.csv", s.handleCoverageCSV)
		r.Get("/coverage.geojson", s.handleCoverageGeoJSON)
		r.Get("/demand.geojson", s.handleDemandGeoJSON)
		r.Get("/dataset", s.handleDataset)
		r.Post("/dataset/reload", s.handleReload)
		r.Get("/cache", s.handleCacheStats)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server: listening", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

// rateLimit applies one global token bucket to every request.
func rateLimit(perSec float64, burst int) func(http.Handler) http.Handler {
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("component", "server"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
