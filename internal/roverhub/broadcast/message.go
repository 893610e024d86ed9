package broadcast

import (
	"encoding/json"
	"fmt"
)

// Event names of real-time frames.
const (
	EventStatusUpdate = "status_update"
	EventAlert        = "alert"
	EventError        = "error"
)

// Envelope is the JSON frame exchanged with observers.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Message is an encoded frame ready for delivery. Version is set for
// status updates only and orders them per observer.
type Message struct {
	Event   string
	Version uint64
	Payload []byte
}

// NewMessage encodes data under event.
func NewMessage(event string, version uint64, data any) (*Message, error) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return &Message{Event: event, Version: version, Payload: payload}, nil
}

var errorFramePrefix = []byte(`{"event":"` + EventError + `","data":{"message":`)

// ErrorMessage builds the reply sent to a single observer after a bad frame.
func ErrorMessage(msg string) *Message {
	// Encoding a string cannot fail; invalid UTF-8 is replaced.
	quoted, _ := json.Marshal(msg)

	payload := make([]byte, 0, len(errorFramePrefix)+len(quoted)+2)
	payload = append(payload, errorFramePrefix...)
	payload = append(payload, quoted...)
	payload = append(payload, "}}"...)
	return &Message{Event: EventError, Payload: payload}
}
