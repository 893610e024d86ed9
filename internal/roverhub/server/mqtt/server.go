package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/roverhub/internal/pkg/mqtt/payload"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/service"
	"github.com/autopeer-io/roverhub/pkg/log"
	pkgmqtt "github.com/autopeer-io/roverhub/pkg/mqtt"
	"github.com/autopeer-io/roverhub/pkg/mqtt/topic"
)

const statusQoS = 1

// Outbound drains queued rover link messages once the client is started.
type Outbound interface {
	Start(ctx context.Context) error
}

// Server implements the MQTT side of the rover link. It owns the client
// connection, ingests rover status reports and runs the outbound queue.
type Server struct {
	client   pkgmqtt.Client
	topics   *topic.Builder
	svc      *service.Service
	outbound Outbound
	log      log.Logger
}

// NewServer creates the rover link server. outbound may be nil.
func NewServer(client pkgmqtt.Client, builder *topic.Builder, svc *service.Service, outbound Outbound) *Server {
	return &Server{
		client:   client,
		topics:   builder,
		svc:      svc,
		outbound: outbound,
		log:      log.WithName("rover-link"),
	}
}

// Start connects to the broker and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	// Start the connection manager (non-blocking)
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	g, ctx := errgroup.WithContext(ctx)
	if s.outbound != nil {
		g.Go(func() error { return s.outbound.Start(ctx) })
	}
	g.Go(func() error {
		s.log.Info("Waiting for MQTT connection...")
		if err := s.client.AwaitConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.log.Info("MQTT Connected")

		if err := s.subscribe(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return nil
	})
	return g.Wait()
}

// Ready reports whether the broker connection is up.
func (s *Server) Ready() error {
	if !s.client.IsConnected() {
		return errors.New("mqtt broker not connected")
	}
	return nil
}

func (s *Server) subscribe(ctx context.Context) error {
	filter := s.topics.StatusWildcard()
	if err := s.client.Subscribe(ctx, filter, statusQoS, s.handleStatus); err != nil {
		return fmt.Errorf("failed to subscribe to topic: %s, err: %w", filter, err)
	}
	return nil
}

// handleStatus applies a rover status report, including the broker
// delivered last will of a rover that went away.
func (s *Server) handleStatus(ctx context.Context, t string, raw []byte) {
	roverID, err := s.topics.RoverID(topic.SegmentStatus, t)
	if err != nil {
		s.log.Warn("Ignoring status on unexpected topic", "topic", t)
		return
	}

	status, err := payload.DecodeStatus(raw)
	if err != nil {
		s.log.Error(err, "Ignoring malformed status report", "rover", roverID)
		return
	}

	if err := s.svc.ReportRoverStatus(ctx, roverID, status.Status); err != nil {
		if errors.Is(err, core.ErrInvalidRover) || errors.Is(err, core.ErrValidation) {
			s.log.Warn("Ignoring status report", "rover", roverID, "error", err.Error())
			return
		}
		s.log.Error(err, "Failed to apply status report", "rover", roverID)
	}
}
