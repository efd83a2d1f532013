package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/services"
)

// Options tunes the server. Zero values pick defaults.
type Options struct {
	Logger       *log.Logger
	RateLimit    ratelimit.Config
	RecentLimit  int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server exposes the dashboard view state and its mutations as a JSON API.
type Server struct {
	http.Server
	dash         *services.Dashboard
	logger       *log.Logger
	limiter      *ratelimit.Limiter
	recent       int
	shutdownOnce sync.Once
}

func NewServer(addr string, dash *services.Dashboard, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}

	s := &Server{
		dash:    dash,
		logger:  logger.WithComponent(log.ComponentHTTP),
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		recent:  opts.RecentLimit,
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       opts.ReadTimeout,
		WriteTimeout:      opts.WriteTimeout,
	}
	return s
}

func (s *Server) routes() http.Handler {
	clientIP := security.NewClientIP()
	tracer := trace.NewMiddleware(s.logger, clientIP.Extract)

	r := chi.NewRouter()
	r.Use(tracer.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, _ *http.Request) {
		NewResponse().Status(http.StatusTooManyRequests).Failure("Too many requests. Please try again later.").Write(w)
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", s.handleDashboard)
		r.Post("/dashboard/refresh", s.handleDashboardRefresh)

		r.Route("/{kind}", func(r chi.Router) {
			r.Use(s.withService)
			r.Get("/", s.handleList)
			r.Post("/", s.handleAdd)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/series", s.handleSeries)
			r.Post("/export", s.handleExport)

			r.Get("/deletion", s.handleDeletion)
			r.Post("/deletion/confirm", s.handleConfirmDelete)
			r.Post("/deletion/cancel", s.handleCancelDelete)

			// Both only open the confirmation step; removal happens on confirm.
			r.Post("/{id}/delete", s.handleRequestDelete)
			r.Delete("/{id}", s.handleRequestDelete)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		NotFound("Not found.").Write(w)
	})
	return r
}

// Shutdown stops background routines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
