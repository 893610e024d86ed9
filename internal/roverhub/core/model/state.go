package model

import "maps"

// MissionState is the lifecycle phase of the current mission.
type MissionState string

const (
	MissionIdle      MissionState = "idle"
	MissionActive    MissionState = "active"
	MissionCompleted MissionState = "completed"
)

const (
	RoverStatusOffline = "offline"
	RoverStatusOnline  = "online"
)

// RoverState is the hub's view of one rover.
type RoverState struct {
	// Status is a free-form label reported by the rover (online, offline, error...).
	Status    string  `json:"status"`
	Moving    bool    `json:"moving"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	CameraURL string  `json:"camera_url"`
}

// Position is a lat/lon pair in degrees.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (r RoverState) Position() Position {
	return Position{Lat: r.Lat, Lon: r.Lon}
}

// SystemState is the single mission/rover aggregate.
type SystemState struct {
	MissionState MissionState `json:"mission_state"`

	// Battery is kept for schema compatibility; nothing updates it.
	Battery int `json:"battery"`

	Payload  *string `json:"payload"`
	Priority *string `json:"priority"`

	// Lat/Lon are the mission target given at mission start. They are not a
	// rover position and stay absent until the first mission start.
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`

	Rovers map[string]RoverState `json:"rovers"`
}

// NewSystemState returns the startup state for the given fleet
// (rover id -> camera URL).
func NewSystemState(fleet map[string]string, battery int) SystemState {
	rovers := make(map[string]RoverState, len(fleet))
	for id, cameraURL := range fleet {
		rovers[id] = RoverState{
			Status:    RoverStatusOffline,
			CameraURL: cameraURL,
		}
	}
	return SystemState{
		MissionState: MissionIdle,
		Battery:      battery,
		Rovers:       rovers,
	}
}

// Clone returns a deep copy that shares no memory with s.
func (s SystemState) Clone() SystemState {
	out := s
	out.Payload = clonePtr(s.Payload)
	out.Priority = clonePtr(s.Priority)
	out.Lat = clonePtr(s.Lat)
	out.Lon = clonePtr(s.Lon)
	out.Rovers = maps.Clone(s.Rovers)
	if out.Rovers == nil {
		out.Rovers = map[string]RoverState{}
	}
	return out
}

// HasRover reports whether id belongs to the fleet.
func (s SystemState) HasRover(id string) bool {
	_, ok := s.Rovers[id]
	return ok
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Snapshot is an immutable, versioned copy of SystemState. Version grows by
// one with every committed mutation.
type Snapshot struct {
	Version uint64
	State   SystemState
}
