package server

import (
	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/internal/roverhub/server/mqtt"
	"github.com/autopeer-io/roverhub/pkg/options"
)

type Config struct {
	HttpOptions      *options.HttpOptions
	WebSocketOptions *options.WebSocketOptions

	Registry    *broadcast.Registry
	Broadcaster *broadcast.Broadcaster

	// RoverLink is nil when the MQTT rover link is disabled.
	RoverLink *mqtt.Server
}
