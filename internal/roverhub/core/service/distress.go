package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

const (
	defaultDistressSource  = "user_panel"
	unknownLocationLabel   = "Unknown"
	unknownLocationMessage = "Unknown Location"

	archiveTimeout = 30 * time.Second
)

// HandleDistress turns a client distress report into a critical alert and
// broadcasts it. It never fails: bad audio or an unreachable transcription
// provider only degrade the transcript. The alert is not stored.
func (s *Service) HandleDistress(ctx context.Context, ev model.DistressEvent) *model.AlertRecord {
	where := unknownLocationMessage
	location := ev.Location
	if location.IsZero() {
		location = model.LabelLocation(unknownLocationLabel)
	} else {
		where = location.String()
	}

	alert := &model.AlertRecord{
		ID:        s.newID(),
		Type:      model.AlertDistress,
		Level:     model.LevelCritical,
		Message:   "🚨 EMERGENCY DISTRESS SIGNAL from " + where,
		Timestamp: valueOr(ev.Timestamp, s.now()),
		Source:    valueOr(ev.Source, defaultDistressSource),
		Trigger:   valueOr(ev.Trigger, model.TriggerManual),
		Location:  location,
		Audio:     ev.Audio,
	}

	switch {
	case ev.Audio:
		audio := s.decodeAudio(ev.AudioData)
		text, source := s.resolver.Resolve(ctx, ev.Transcript, audio)
		alert.Transcript = &text
		alert.AudioData = ev.AudioData

		metrics.TranscriptSourceTotal.WithLabelValues(string(source)).Inc()
		s.log.Info("Distress transcript resolved", "alert", alert.ID, "source", string(source))

		if len(audio) > 0 {
			s.archiveAudio(ctx, alert, audio)
		}
	case model.UsableTranscript(ev.Transcript):
		text := ev.Transcript
		alert.Transcript = &text
		metrics.TranscriptSourceTotal.WithLabelValues(string(core.SourceClient)).Inc()
	}

	s.publisher.PublishAlert(alert)
	metrics.DistressAlertsTotal.WithLabelValues(alert.Trigger).Inc()
	s.log.Info("Distress alert broadcast", "alert", alert.ID, "location", where, "trigger", alert.Trigger, "audio", alert.Audio)

	return alert
}

// decodeAudio returns the raw audio of a distress report, or nil when there
// is nothing usable. The mock blob of test clients counts as no audio.
func (s *Service) decodeAudio(data string) []byte {
	if data == "" || data == model.MockAudioBlob {
		return nil
	}
	// Browsers may hand over a full data URL.
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}

	audio, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		s.log.Error(fmt.Errorf("%w: %w", core.ErrAudioDecode, err), "Ignoring distress audio", "size", len(data))
		return nil
	}
	return audio
}

// archiveAudio uploads audio in the background. The upload outlives the
// request that carried it.
func (s *Service) archiveAudio(ctx context.Context, alert *model.AlertRecord, audio []byte) {
	if s.archive == nil {
		return
	}

	key := fmt.Sprintf("%s/%s.webm", s.clock.Now().UTC().Format("2006/01/02"), alert.ID)
	ctx = context.WithoutCancel(ctx)

	s.archiving.Add(1)
	go func() {
		defer s.archiving.Done()

		ctx, cancel := context.WithTimeout(ctx, archiveTimeout)
		defer cancel()
		if err := s.archive.Archive(ctx, key, audio); err != nil {
			s.log.Error(err, "Failed to archive distress audio", "alert", alert.ID, "key", key)
			return
		}
		s.log.Debug("Distress audio archived", "alert", alert.ID, "key", key, "bytes", len(audio))
	}()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
