package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/service"
	"github.com/autopeer-io/roverhub/pkg/log"
	"github.com/autopeer-io/roverhub/pkg/options"
)

// ReadinessCheck reports whether a dependency is ready to serve.
type ReadinessCheck func() error

// Server carries the REST API, the real-time channel, metrics and health checks.
type Server struct {
	server  *http.Server
	options *options.HttpOptions
	svc     *service.Service
	checks  []ReadinessCheck
	log     log.Logger
}

// NewServer wires the routes. realtime serves GET /ws.
func NewServer(opts *options.HttpOptions, svc *service.Service, realtime http.Handler, checks ...ReadinessCheck) *Server {
	s := &Server{
		options: opts,
		svc:     svc,
		checks:  checks,
		log:     log.WithName("http"),
	}

	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(realtime),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return s
}

func (s *Server) routes(realtime http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(s.recoverer, cors(s.options.AllowedOrigin))

	r.HandleFunc("/mission/start", s.startMission).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/mission/complete", s.completeMission).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/rover/control", s.controlRover).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/status", s.status).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/status/", s.status).Methods(http.MethodGet, http.MethodOptions)

	if realtime != nil {
		r.Handle("/ws", realtime).Methods(http.MethodGet)
	}

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)

	return r
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting HTTP Server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		s.log.Info("Shutting down HTTP Server")
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	for _, check := range s.checks {
		if err := check(); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
