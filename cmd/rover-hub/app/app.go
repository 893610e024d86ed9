package app

import (
	"fmt"

	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/roverhub/cmd/rover-hub/app/options"
	"github.com/autopeer-io/roverhub/pkg/app"
	"github.com/autopeer-io/roverhub/pkg/log"
)

const (
	commandName = "rover-hub"
	commandDesc = `The rover hub keeps the shared mission state of a rover fleet.

It accepts mission and rover commands over HTTP, distress signals and commands
over WebSocket, and pushes every state change and alert to all connected
observers. Rover commands and state can optionally be mirrored to an MQTT
broker, and distress audio archived to S3.`
)

func NewApp() *app.App {
	opts := options.NewHubOptions()
	application := app.NewApp(
		commandName,
		"Launch the rover fleet mission hub",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithEnvPrefix("ROVERHUB"),
		app.WithConfigWatch(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.HubOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer func() { _ = log.Sync() }()

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewHubServer()
		if err != nil {
			return fmt.Errorf("failed to create hub server: %w", err)
		}

		return server.Run(ctx)
	}
}
