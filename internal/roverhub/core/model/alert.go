package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type AlertType string

const (
	AlertDistress AlertType = "DISTRESS"
	AlertInfo     AlertType = "INFO"
)

type AlertLevel string

const (
	LevelCritical AlertLevel = "critical"
	LevelInfo     AlertLevel = "info"
)

const (
	TriggerManual = "Manual"
	TriggerVoice  = "Voice Activation"
)

// AlertRecord is a point event sent to every observer. It is built,
// broadcast and dropped; nothing keeps it.
type AlertRecord struct {
	ID        string     `json:"id"`
	Type      AlertType  `json:"type"`
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	Timestamp string     `json:"timestamp"`
	Source    string     `json:"source,omitempty"`
	Trigger   string     `json:"trigger,omitempty"`
	Location  *Location  `json:"location,omitempty"`

	Transcript *string `json:"transcript,omitempty"`
	Audio      bool    `json:"audio"`
	AudioData  string  `json:"audio_data,omitempty"`
}

// Location is either a coordinate pair or a free-text description, as sent
// by the reporting client.
type Location struct {
	Coordinates *Position
	Label       string
}

func LabelLocation(label string) *Location {
	return &Location{Label: label}
}

func CoordinateLocation(lat, lon float64) *Location {
	return &Location{Coordinates: &Position{Lat: lat, Lon: lon}}
}

// IsZero reports whether no location was given.
func (l *Location) IsZero() bool {
	return l == nil || (l.Coordinates == nil && l.Label == "")
}

// String renders the location for human-readable alert messages.
func (l *Location) String() string {
	switch {
	case l.IsZero():
		return ""
	case l.Coordinates != nil:
		return strconv.FormatFloat(l.Coordinates.Lat, 'f', 6, 64) + ", " +
			strconv.FormatFloat(l.Coordinates.Lon, 'f', 6, 64)
	default:
		return l.Label
	}
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l.Coordinates != nil {
		return json.Marshal(l.Coordinates)
	}
	return json.Marshal(l.Label)
}

// UnmarshalJSON accepts "text", an object carrying lat/lon (also lng,
// latitude, longitude; numbers or numeric strings), or null. Any other value
// is kept as an opaque label holding its JSON text.
func (l *Location) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = Location{}

	switch {
	case isNull(data):
		return nil
	case data[0] == '"':
		if err := json.Unmarshal(data, &l.Label); err == nil {
			return nil
		}
	case data[0] == '{':
		if pos, ok := decodePosition(data); ok {
			l.Coordinates = pos
			return nil
		}
	}
	l.Label = compactJSON(data)
	return nil
}

func decodePosition(data []byte) (*Position, bool) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	fields := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		fields[strings.ToLower(k)] = v
	}

	lat, okLat := firstNumber(fields, "lat", "latitude")
	lon, okLon := firstNumber(fields, "lon", "lng", "longitude")
	if !okLat || !okLon {
		return nil, false
	}
	return &Position{Lat: lat, Lon: lon}, true
}

func firstNumber(fields map[string]json.RawMessage, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := number(fields[k]); ok {
			return f, true
		}
	}
	return 0, false
}

// number reads a JSON number or a numeric string.
func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// DistressEvent is a distress report as received from a client.
type DistressEvent struct {
	Location   *Location `json:"location"`
	Timestamp  string    `json:"timestamp"`
	Trigger    string    `json:"trigger"`
	Source     string    `json:"source"`
	Audio      bool      `json:"audio"`
	AudioData  string    `json:"audio_data"`
	Transcript string    `json:"transcript"`
}

// UnmarshalJSON decodes a report field by field without rejecting loosely
// typed values: a numeric timestamp keeps its text, an unknown location
// shape becomes a label and audio is read as a truthy flag. Only a value
// that is not a JSON object fails.
func (e *DistressEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Location   json.RawMessage `json:"location"`
		Timestamp  json.RawMessage `json:"timestamp"`
		Trigger    json.RawMessage `json:"trigger"`
		Source     json.RawMessage `json:"source"`
		Audio      json.RawMessage `json:"audio"`
		AudioData  json.RawMessage `json:"audio_data"`
		Transcript json.RawMessage `json:"transcript"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("distress report must be a JSON object: %w", err)
	}

	*e = DistressEvent{
		Timestamp:  timestampText(raw.Timestamp),
		Trigger:    text(raw.Trigger),
		Source:     text(raw.Source),
		Audio:      truthy(raw.Audio),
		AudioData:  text(raw.AudioData),
		Transcript: text(raw.Transcript),
	}
	if !isNull(bytes.TrimSpace(raw.Location)) {
		e.Location = &Location{}
		if err := e.Location.UnmarshalJSON(raw.Location); err != nil {
			return err
		}
	}
	return nil
}

// timestampText keeps string and numeric timestamps as text; anything else
// counts as absent.
func timestampText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return ""
	}
	if c := raw[0]; c == '"' || c == '-' || (c >= '0' && c <= '9') {
		return text(raw)
	}
	return ""
}

// text returns the value of a JSON string, or the JSON text of any other
// non-null value.
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return compactJSON(raw)
}

// truthy reads a loosely typed flag: true, a non-zero number, a non-empty
// container, or a non-empty string other than a false literal ("false", "0").
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if isNull(raw) {
		return false
	}

	switch raw[0] {
	case 't':
		return true
	case 'f':
		return false
	case '"':
		s := strings.TrimSpace(text(raw))
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
		return s != ""
	case '{', '[':
		c := compactJSON(raw)
		return c != "{}" && c != "[]"
	default:
		f, err := strconv.ParseFloat(string(raw), 64)
		return err == nil && f != 0
	}
}

func isNull(raw []byte) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

const (
	// PlaceholderTranscript is what clients send when they have no real transcript.
	PlaceholderTranscript = "Emergency distress signal"

	// MockAudioBlob is sent by test clients in place of recorded audio.
	MockAudioBlob = "mock_audio_blob_5s"
)

// UsableTranscript reports whether a client supplied transcript carries content.
func UsableTranscript(s string) bool {
	return s != "" && s != PlaceholderTranscript
}
