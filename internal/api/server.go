// Package api exposes the sale service over HTTP. Request identities are
// taken at face value; callers are expected to sit behind an authenticating
// gateway.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"walienPool/internal/sale"
)

// Config captures the dependencies required to construct the server.
type Config struct {
	Service  *sale.Service
	Logger   *zap.Logger
	Gatherer prometheus.Gatherer
}

// Server serves the sale operations and views.
type Server struct {
	svc    *sale.Service
	logger *zap.Logger
	router http.Handler
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{svc: cfg.Service, logger: logger}
	srv.router = srv.buildRouter(cfg.Gatherer)
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(api chi.Router) {
		api.Get("/pool", s.GetPool)
		api.Get("/quote", s.GetQuote)
		api.Get("/audit", s.GetAudit)
		api.Post("/buy", s.PostBuy)
		api.Get("/positions/{index}", s.GetPosition)
		api.Post("/positions/{index}/claim", s.PostClaim)
		api.Post("/positions/{index}/withdraw", s.PostWithdraw)
		api.Post("/positions/{index}/rollback", s.PostRollback)
		api.Get("/summaries/{owner}", s.GetSummary)
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// ListenAndServe runs the server until ctx is cancelled, then shuts it down.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, readTimeout, writeTimeout time.Duration, logger *zap.Logger) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("http shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	}
}
