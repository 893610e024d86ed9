// Package payload defines the JSON bodies exchanged over the rover link.
// Topic layout lives in pkg/mqtt/topic.
package payload

import (
	"encoding/json"
	"fmt"
)

// Command is published by the hub on {root}/command/{roverID}.
type Command struct {
	RoverID  string  `json:"rover_id"`
	Command  string  `json:"command"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	IssuedAt string  `json:"issued_at"`
}

// Status is published by a rover on {root}/status/{roverID}. Rovers register
// {"status": "offline"} as their last will.
type Status struct {
	Status string `json:"status"`
}

// DecodeStatus accepts a JSON Status body or a bare status label.
func DecodeStatus(raw []byte) (Status, error) {
	var s Status
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return Status{}, fmt.Errorf("decode status: %w", err)
		}
		return s, nil
	}
	s.Status = string(raw)
	return s, nil
}
