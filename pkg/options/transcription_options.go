package options

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*TranscriptionOptions)(nil)

// TranscriptionOptions configures the speech-to-text provider used for
// distress audio. An empty APIKey keeps the resolver in mock mode.
type TranscriptionOptions struct {
	Endpoint string        `json:"endpoint" mapstructure:"endpoint"`
	APIKey   string        `json:"api-key" mapstructure:"api-key"`
	Model    string        `json:"model" mapstructure:"model"`
	Language string        `json:"language" mapstructure:"language"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

func NewTranscriptionOptions() *TranscriptionOptions {
	return &TranscriptionOptions{
		Endpoint: "https://transcribe.wisprflow.ai/v1/audio/transcriptions",
		Model:    "whisper-large-v3",
		Language: "en",
		Timeout:  30 * time.Second,
	}
}

func (o *TranscriptionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if _, err := url.ParseRequestURI(o.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("--transcription.endpoint: %w", err))
	}
	if o.Timeout <= 0 || o.Timeout > 30*time.Second {
		errs = append(errs, fmt.Errorf("--transcription.timeout must be within (0s, 30s], got %s", o.Timeout))
	}
	return errs
}

func (o *TranscriptionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Endpoint, "transcription.endpoint", o.Endpoint, "Speech-to-text endpoint.")
	fs.StringVar(&o.APIKey, "transcription.api-key", o.APIKey, "Speech-to-text API key (also read from WISPRFLOW_API_KEY). Empty means mock transcripts.")
	fs.StringVar(&o.Model, "transcription.model", o.Model, "Transcription model name.")
	fs.StringVar(&o.Language, "transcription.language", o.Language, "Spoken language hint.")
	fs.DurationVar(&o.Timeout, "transcription.timeout", o.Timeout, "Upper bound for one transcription request.")
}

// Enabled reports whether a credential was supplied.
func (o *TranscriptionOptions) Enabled() bool {
	return o.APIKey != ""
}
