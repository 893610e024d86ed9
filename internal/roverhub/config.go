package roverhub

import (
	"fmt"
	"os"

	"github.com/autopeer-io/roverhub/internal/roverhub/broadcast"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/service"
	"github.com/autopeer-io/roverhub/internal/roverhub/notifier"
	"github.com/autopeer-io/roverhub/internal/roverhub/server"
	mqttserver "github.com/autopeer-io/roverhub/internal/roverhub/server/mqtt"
	"github.com/autopeer-io/roverhub/internal/roverhub/storage"
	"github.com/autopeer-io/roverhub/internal/roverhub/store"
	"github.com/autopeer-io/roverhub/internal/roverhub/transcription"
	"github.com/autopeer-io/roverhub/pkg/log"
	pkgmqtt "github.com/autopeer-io/roverhub/pkg/mqtt"
	"github.com/autopeer-io/roverhub/pkg/mqtt/topic"
	"github.com/autopeer-io/roverhub/pkg/options"
)

type Config struct {
	HttpOptions          *options.HttpOptions
	WebSocketOptions     *options.WebSocketOptions
	FleetOptions         *options.FleetOptions
	TranscriptionOptions *options.TranscriptionOptions
	MqttOptions          *options.MqttOptions
	S3Options            *options.S3Options
}

func (cfg *Config) NewHubServer() (*HubServer, error) {
	// 1. State
	st := store.NewMemory(model.NewSystemState(cfg.FleetOptions.Rovers, cfg.FleetOptions.Battery))

	// 2. Rover link (optional)
	var (
		roverLink *mqttserver.Server
		link      *notifier.MQTTNotifier
		mirrors   []broadcast.Mirror
		svcOpts   []service.Option
	)
	var mqttClient pkgmqtt.Client
	if cfg.MqttOptions.Enabled {
		client, err := InitializeMQTTClient(cfg.MqttOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt client: %w", err)
		}
		mqttClient = client
		topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)
		link = notifier.NewMQTTNotifier(client, topics, cfg.MqttOptions.QueueSize)
		mirrors = append(mirrors, link)
		svcOpts = append(svcOpts, service.WithNotifier(link))
	}

	// 3. Fan-out
	registry := broadcast.NewRegistry()
	broadcaster := broadcast.NewBroadcaster(registry, st, mirrors...)

	// 4. Transcription
	var resolverOpts []transcription.Option
	if w := transcription.NewWisprFlow(cfg.TranscriptionOptions, nil); w != nil {
		resolverOpts = append(resolverOpts, transcription.WithTranscriber(w, cfg.TranscriptionOptions.Timeout))
	}
	resolver := transcription.NewResolver(resolverOpts...)

	// 5. Audio archive (optional)
	var archive *storage.MinIO
	if cfg.S3Options.Enabled {
		var err error
		if archive, err = storage.NewMinIO(cfg.S3Options); err != nil {
			return nil, err
		}
		svcOpts = append(svcOpts, service.WithArchive(archive))
	}

	// 6. Core service
	svc := service.New(st, broadcaster, resolver, svcOpts...)

	// 7. Ingress servers
	if mqttClient != nil {
		roverLink = mqttserver.NewServer(mqttClient, topic.NewBuilder(cfg.MqttOptions.TopicRoot), svc, link)
	}
	srvManager := server.NewManager(&server.Config{
		HttpOptions:      cfg.HttpOptions,
		WebSocketOptions: cfg.WebSocketOptions,
		Registry:         registry,
		Broadcaster:      broadcaster,
		RoverLink:        roverLink,
	}, svc)

	return &HubServer{
		serverManager: srvManager,
		archive:       archive,
	}, nil
}

// InitializeMQTTClient builds the hub's broker client.
func InitializeMQTTClient(opts *options.MqttOptions) (pkgmqtt.Client, error) {
	cfg := opts.ToClientConfig()

	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = fmt.Sprintf("roverhub-%s", hostname)
	}

	client, err := pkgmqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "failed to new mqtt client")
		return nil, err
	}
	return client, nil
}
