package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/service"
	"github.com/autopeer-io/roverhub/pkg/log"
	"github.com/autopeer-io/roverhub/pkg/options"
)

// Inbound event names.
const (
	EventDistressSignal = "distress_signal"
	EventMissionStart   = "mission_start"
	EventRoverControl   = "rover_control"
)

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type eventHandler func(ctx context.Context, c *Client, data json.RawMessage) error

var errShuttingDown = errors.New("hub is shutting down")

// Handler upgrades GET /ws and serves the real-time channel.
type Handler struct {
	upgrader    websocket.Upgrader
	opts        *options.WebSocketOptions
	svc         *service.Service
	broadcaster *broadcast.Broadcaster
	events      map[string]eventHandler
	log         log.Logger

	mu       sync.Mutex
	closing  bool
	inflight sync.WaitGroup
}

func NewHandler(opts *options.WebSocketOptions, svc *service.Service, b *broadcast.Broadcaster) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		opts:        opts,
		svc:         svc,
		broadcaster: b,
		log:         log.WithName("ws"),
	}
	h.events = map[string]eventHandler{
		EventDistressSignal: h.onDistress,
		EventMissionStart:   h.onMissionStart,
		EventRoverControl:   h.onRoverControl,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.isClosing() {
		http.Error(w, "hub is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err.Error())
		return
	}

	c := newClient(uuid.NewString(), conn, h.opts)
	if !h.broadcaster.Register(c) {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h.dispatch, func(c *Client) { h.broadcaster.Unregister(c.ID()) })
}

// Shutdown stops accepting connections and distress reports, then waits
// until the accepted reports are broadcast. Observers stay registered so
// they still receive those alerts.
func (h *Handler) Shutdown() {
	h.mu.Lock()
	h.closing = true
	h.mu.Unlock()

	h.inflight.Wait()
}

func (h *Handler) isClosing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

func (h *Handler) dispatch(c *Client, frame []byte) {
	var in inbound
	if err := json.Unmarshal(frame, &in); err != nil {
		c.Deliver(broadcast.ErrorMessage("Invalid JSON frame"))
		return
	}

	handle, ok := h.events[in.Event]
	if !ok {
		c.Deliver(broadcast.ErrorMessage(fmt.Sprintf("Unknown event %q", in.Event)))
		return
	}
	// Events are not tied to the connection's lifetime.
	if err := handle(context.Background(), c, in.Data); err != nil {
		c.log.Debug("Inbound event rejected", "event", in.Event, "error", err.Error())
		c.Deliver(broadcast.ErrorMessage(errorText(err)))
	}
}

// onDistress runs the pipeline off the read loop; the alert reaches every
// observer even if this connection drops meanwhile. A report without data
// still raises an alert with default fields.
func (h *Handler) onDistress(ctx context.Context, c *Client, data json.RawMessage) error {
	var ev model.DistressEvent
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Errorf("%w: %w", core.ErrValidation, err)
		}
	}

	h.mu.Lock()
	if h.closing {
		h.mu.Unlock()
		return errShuttingDown
	}
	h.inflight.Add(1)
	h.mu.Unlock()

	c.log.Info("Distress signal received", "trigger", ev.Trigger, "audio", ev.Audio)
	go func() {
		defer h.inflight.Done()
		h.svc.HandleDistress(ctx, ev)
	}()
	return nil
}

func (h *Handler) onMissionStart(ctx context.Context, _ *Client, data json.RawMessage) error {
	var params model.MissionParams
	if err := decodeData(data, &params); err != nil {
		return err
	}
	_, err := h.svc.StartMission(ctx, params)
	return err
}

func (h *Handler) onRoverControl(ctx context.Context, _ *Client, data json.RawMessage) error {
	var req model.ControlRequest
	if err := decodeData(data, &req); err != nil {
		return err
	}
	_, err := h.svc.ControlRover(ctx, req.RoverID, req.Command)
	return err
}

func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", core.ErrValidation)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", core.ErrValidation, err)
	}
	return nil
}

// errorText matches the messages of the REST API.
func errorText(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidRover):
		return "Invalid or missing rover_id"
	case errors.Is(err, core.ErrInvalidCommand):
		return "Invalid command"
	case errors.Is(err, errShuttingDown):
		return "Hub is shutting down, distress signal not accepted"
	default:
		return err.Error()
	}
}
