// Package server serves diagrams to a browser.
//
// Each browser tab opens a websocket and gets its own diagram, discarded
// when the socket closes. Pointer events arrive as JSON messages; after
// every mutation the server pushes the re-rendered board. A small REST
// API creates longer-lived sessions and exports their artifacts.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/spacetime/pkg/cache"
	"github.com/matzehuels/spacetime/pkg/diagram"
	"github.com/matzehuels/spacetime/pkg/gesture"
	"github.com/matzehuels/spacetime/pkg/interaction"
	"github.com/matzehuels/spacetime/pkg/observability"
)

// Options configures a Server.
type Options struct {
	Grid      diagram.Grid
	Palette   []diagram.Color
	Pitch     int
	HoldDelay time.Duration
	Cache     cache.Cache
	Keyer     cache.Keyer
	CacheTTL  time.Duration
	Logger    *log.Logger
}

func (o *Options) setDefaults() {
	if o.Grid.Cells == 0 || o.Grid.Rows == 0 {
		o.Grid = diagram.Grid{Cells: 24, Rows: 24}
	}
	if o.Pitch <= 0 {
		o.Pitch = interaction.DefaultPitch
	}
	if o.HoldDelay <= 0 {
		o.HoldDelay = gesture.DefaultDelay
	}
	if o.Cache == nil {
		o.Cache = cache.NewNullCache()
	}
	if o.Keyer == nil {
		o.Keyer = cache.NewDefaultKeyer()
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

// Server is the HTTP front-end.
type Server struct {
	opts     Options
	log      *log.Logger
	sessions *sessionStore
	registry *prometheus.Registry
	router   chi.Router
}

// New builds a server and registers its Prometheus hooks.
func New(opts Options) *Server {
	opts.setDefaults()
	s := &Server{
		opts:     opts,
		log:      opts.Logger,
		sessions: newSessionStore(),
		registry: prometheus.NewRegistry(),
	}

	m := newMetrics(s.registry, s.sessions)
	observability.SetInteractionHooks(m)
	observability.SetRenderHooks(m)
	observability.SetCacheHooks(m)
	observability.SetSessionHooks(m)

	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metricsHandler(s.registry))
	r.Get("/ws", s.handleEphemeralSocket)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/points", s.handlePlace)
			r.Post("/worldlines", s.handleStartWorldline)
			r.Delete("/points/{label}", s.handleDeletePoint)
			r.Get("/diagram.{format}", s.handleArtifact)
			r.Get("/ws", s.handleSessionSocket)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("Listening", "addr", "http://"+ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// requestLogger logs one line per request with the shared logger.
func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("HTTP",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(ww.Status()),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
