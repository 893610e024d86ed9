package core

import (
	"context"

	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

// Publisher fans state and alerts out to every connected observer.
// Implementations must not block the caller.
type Publisher interface {
	PublishState(snap model.Snapshot)
	PublishAlert(alert *model.AlertRecord)
}

// RoverNotifier forwards an accepted motion command to the physical rover.
// In roverhub this is implemented by the MQTT outbound adapter.
type RoverNotifier interface {
	NotifyCommand(ctx context.Context, roverID string, cmd model.RoverCommand, pos model.Position)
}
