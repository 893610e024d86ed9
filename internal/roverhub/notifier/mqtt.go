package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/pkg/mqtt/payload"
	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/pkg/log"
	pkgmqtt "github.com/autopeer-io/roverhub/pkg/mqtt"
	"github.com/autopeer-io/roverhub/pkg/mqtt/topic"
)

const publishTimeout = 5 * time.Second

var (
	_ core.RoverNotifier = (*MQTTNotifier)(nil)
	_ broadcast.Mirror   = (*MQTTNotifier)(nil)
)

type outbound struct {
	topic   string
	qos     int
	retain  bool
	payload []byte
}

// MQTTNotifier is the outbound side of the rover link. It forwards rover
// commands and mirrors state and alerts. Callers never wait on the broker:
// messages go through a bounded queue drained by a single worker, and are
// dropped when the queue is full.
type MQTTNotifier struct {
	client pkgmqtt.Client
	topics *topic.Builder
	now    func() time.Time
	log    log.Logger

	queue chan outbound
}

func NewMQTTNotifier(client pkgmqtt.Client, topics *topic.Builder, queueSize int) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		topics: topics,
		now:    time.Now,
		log:    log.WithName("notifier"),
		queue:  make(chan outbound, queueSize),
	}
}

// Start drains the queue until ctx is done.
func (n *MQTTNotifier) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-n.queue:
			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := n.client.Publish(pubCtx, msg.topic, msg.qos, msg.retain, msg.payload); err != nil {
				n.log.Error(err, "Failed to publish to the rover link", "topic", msg.topic)
			}
			cancel()
		}
	}
}

func (n *MQTTNotifier) NotifyCommand(_ context.Context, roverID string, cmd model.RoverCommand, pos model.Position) {
	n.enqueue(n.topics.Command(roverID), 1, false, payload.Command{
		RoverID:  roverID,
		Command:  string(cmd),
		Lat:      pos.Lat,
		Lon:      pos.Lon,
		IssuedAt: n.now().UTC().Format(time.RFC3339),
	})
}

// MirrorState publishes the snapshot retained so late subscribers get the
// current state right away.
func (n *MQTTNotifier) MirrorState(snap model.Snapshot) {
	n.enqueue(n.topics.State(), 1, true, snap.State)
}

func (n *MQTTNotifier) MirrorAlert(alert *model.AlertRecord) {
	n.enqueue(n.topics.Alert(), 1, false, alert)
}

func (n *MQTTNotifier) enqueue(topic string, qos int, retain bool, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		n.log.Error(err, "Failed to encode rover link message", "topic", topic)
		return
	}

	select {
	case n.queue <- outbound{topic: topic, qos: qos, retain: retain, payload: body}:
	default:
		metrics.MirrorDroppedTotal.Inc()
		n.log.Warn("Rover link queue full, dropping message", "topic", topic)
	}
}
