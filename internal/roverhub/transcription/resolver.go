package transcription

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/pkg/log"
)

// MockTranscripts are used when no real transcript can be obtained.
var MockTranscripts = []string{
	"We are trapped and need medical help urgently",
	"Building collapsed, need rescue team",
	"Injured person here, please send ambulance",
	"Need water and food supplies",
	"Fire spreading, evacuate immediately",
	"Help! Help! We need assistance urgently!",
}

// Transcriber turns recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

var _ core.TranscriptResolver = (*Resolver)(nil)

// Resolver picks the transcript of a distress report: the client's own text
// first, then the transcription provider, then a mock transcript.
type Resolver struct {
	transcriber Transcriber
	timeout     time.Duration
	pick        func(n int) int
	log         log.Logger
}

type Option func(*Resolver)

// WithTranscriber enables the provider step. Without it the resolver stays in
// mock mode.
func WithTranscriber(t Transcriber, timeout time.Duration) Option {
	return func(r *Resolver) {
		r.transcriber = t
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithPicker replaces the random choice of mock transcript.
func WithPicker(pick func(n int) int) Option {
	return func(r *Resolver) { r.pick = pick }
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		timeout: 30 * time.Second,
		pick:    rand.IntN,
		log:     log.WithName("transcription"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.transcriber == nil {
		r.log.Info("No transcription credential configured, using mock transcripts")
	}
	return r
}

// Resolve never fails; every failure falls through to the next source.
func (r *Resolver) Resolve(ctx context.Context, clientTranscript string, audio []byte) (string, core.TranscriptSource) {
	if model.UsableTranscript(clientTranscript) {
		return clientTranscript, core.SourceClient
	}

	if len(audio) > 0 && r.transcriber != nil {
		if text, err := r.transcribe(ctx, audio); err != nil {
			r.log.Error(err, "Transcription failed, using mock transcript", "bytes", len(audio))
		} else if text != "" {
			return text, core.SourceService
		} else {
			r.log.Warn("Transcription returned no text, using mock transcript")
		}
	}

	return MockTranscripts[r.pick(len(MockTranscripts))], core.SourceFallback
}

func (r *Resolver) transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		metrics.TranscriptionLatency.Observe(time.Since(start).Seconds())
	}()

	return r.transcriber.Transcribe(ctx, audio)
}
