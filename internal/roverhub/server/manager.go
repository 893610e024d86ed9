package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/service"
	"github.com/autopeer-io/roverhub/internal/roverhub/server/http"
	"github.com/autopeer-io/roverhub/internal/roverhub/server/ws"
	"github.com/autopeer-io/roverhub/pkg/log"
)

// Server defines the common interface for all sub-servers (http, mqtt).
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of all protocol servers.
type Manager struct {
	servers  []Server
	realtime *ws.Handler
	registry *broadcast.Registry
	svc      *service.Service
}

// NewManager creates a new server manager and initializes all sub-servers.
func NewManager(cfg *Config, svc *service.Service) *Manager {
	var servers []Server

	realtime := ws.NewHandler(cfg.WebSocketOptions, svc, cfg.Broadcaster)

	var checks []http.ReadinessCheck
	if cfg.RoverLink != nil {
		servers = append(servers, cfg.RoverLink)
		checks = append(checks, cfg.RoverLink.Ready)
	}
	servers = append(servers, http.NewServer(cfg.HttpOptions, svc, realtime, checks...))

	return &Manager{
		servers:  servers,
		realtime: realtime,
		registry: cfg.Registry,
		svc:      svc,
	}
}

// Start launches all servers in parallel and waits for termination. On the
// way out it stops taking distress reports, lets accepted ones reach the
// observers, and only then drops every observer.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...")
	err := g.Wait()

	m.realtime.Shutdown()
	m.svc.Wait()
	m.registry.CloseAll()
	log.Info("All servers stopped")
	return err
}
