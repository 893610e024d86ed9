package broadcast

import (
	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/pkg/log"
)

// Mirror receives a copy of everything broadcast, e.g. the MQTT rover link.
// It must not block.
type Mirror interface {
	MirrorState(snap model.Snapshot)
	MirrorAlert(alert *model.AlertRecord)
}

var _ core.Publisher = (*Broadcaster)(nil)

// Broadcaster encodes state and alerts once and fans them out to the
// registry and the mirrors.
type Broadcaster struct {
	registry *Registry
	state    core.StateStore
	mirrors  []Mirror
	log      log.Logger
}

func NewBroadcaster(registry *Registry, state core.StateStore, mirrors ...Mirror) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		state:    state,
		mirrors:  mirrors,
		log:      log.WithName("broadcaster"),
	}
}

// Register adds obs and sends it the current state.
func (b *Broadcaster) Register(obs Observer) bool {
	return b.registry.Register(obs, func() *Message {
		msg, err := StateMessage(b.state.Read())
		if err != nil {
			b.log.Error(err, "Failed to encode initial state", "observer", obs.ID())
			return nil
		}
		return msg
	})
}

func (b *Broadcaster) Unregister(id string) {
	b.registry.Unregister(id)
}

func (b *Broadcaster) PublishState(snap model.Snapshot) {
	msg, err := StateMessage(snap)
	if err != nil {
		b.log.Error(err, "Failed to encode state", "version", snap.Version)
		return
	}
	b.registry.Publish(msg)
	metrics.BroadcastsTotal.WithLabelValues(EventStatusUpdate).Inc()

	for _, m := range b.mirrors {
		m.MirrorState(snap)
	}
}

func (b *Broadcaster) PublishAlert(alert *model.AlertRecord) {
	msg, err := NewMessage(EventAlert, 0, alert)
	if err != nil {
		b.log.Error(err, "Failed to encode alert", "alert", alert.ID)
		return
	}
	b.registry.Publish(msg)
	metrics.BroadcastsTotal.WithLabelValues(EventAlert).Inc()

	for _, m := range b.mirrors {
		m.MirrorAlert(alert)
	}
}

// StateMessage encodes a snapshot as a status update.
func StateMessage(snap model.Snapshot) (*Message, error) {
	return NewMessage(EventStatusUpdate, snap.Version, snap.State)
}
