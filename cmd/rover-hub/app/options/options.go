package options

import (
	"os"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/roverhub/internal/roverhub"
	"github.com/autopeer-io/roverhub/pkg/app"
	"github.com/autopeer-io/roverhub/pkg/log"
	"github.com/autopeer-io/roverhub/pkg/options"
)

// APIKeyEnv is read when no transcription API key is configured.
const APIKeyEnv = "WISPRFLOW_API_KEY"

type HubOptions struct {
	HttpOptions          *options.HttpOptions          `json:"http" mapstructure:"http"`
	WebSocketOptions     *options.WebSocketOptions     `json:"ws" mapstructure:"ws"`
	FleetOptions         *options.FleetOptions         `json:"fleet" mapstructure:"fleet"`
	TranscriptionOptions *options.TranscriptionOptions `json:"transcription" mapstructure:"transcription"`
	MqttOptions          *options.MqttOptions          `json:"mqtt" mapstructure:"mqtt"`
	S3Options            *options.S3Options            `json:"s3" mapstructure:"s3"`
	Log                  *log.Options                  `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*HubOptions)(nil)

func NewHubOptions() *HubOptions {
	o := &HubOptions{
		HttpOptions:          options.NewHttpOptions(),
		WebSocketOptions:     options.NewWebSocketOptions(),
		FleetOptions:         options.NewFleetOptions(),
		TranscriptionOptions: options.NewTranscriptionOptions(),
		MqttOptions:          options.NewMqttOptions(),
		S3Options:            options.NewS3Options(),
		Log:                  log.NewOptions(),
	}

	return o
}

func (o *HubOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.WebSocketOptions.AddFlags(fss.FlagSet("ws"))
	o.FleetOptions.AddFlags(fss.FlagSet("fleet"))
	o.TranscriptionOptions.AddFlags(fss.FlagSet("transcription"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.S3Options.AddFlags(fss.FlagSet("s3"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *HubOptions) Complete() error {
	if o.TranscriptionOptions.APIKey == "" {
		o.TranscriptionOptions.APIKey = os.Getenv(APIKeyEnv)
	}
	return nil
}

func (o *HubOptions) Validate() error {
	errs := []error{}
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.WebSocketOptions.Validate()...)
	errs = append(errs, o.FleetOptions.Validate()...)
	errs = append(errs, o.TranscriptionOptions.Validate()...)
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.S3Options.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return utilerrors.NewAggregate(errs)
}

func (o *HubOptions) Config() (*roverhub.Config, error) {
	return &roverhub.Config{
		HttpOptions:          o.HttpOptions,
		WebSocketOptions:     o.WebSocketOptions,
		FleetOptions:         o.FleetOptions,
		TranscriptionOptions: o.TranscriptionOptions,
		MqttOptions:          o.MqttOptions,
		S3Options:            o.S3Options,
	}, nil
}
