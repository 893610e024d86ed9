package model

import "slices"

// RoverCommand is a motion command for a single rover.
type RoverCommand string

const (
	CommandForward  RoverCommand = "forward"
	CommandBackward RoverCommand = "backward"
	CommandLeft     RoverCommand = "left"
	CommandRight    RoverCommand = "right"
	CommandStop     RoverCommand = "stop"
)

// StepDegrees is the coordinate delta of one directional command.
const StepDegrees = 0.0001

var roverCommands = []RoverCommand{CommandForward, CommandBackward, CommandLeft, CommandRight, CommandStop}

// RoverCommands lists the accepted commands.
func RoverCommands() []RoverCommand {
	return slices.Clone(roverCommands)
}

func (c RoverCommand) Valid() bool {
	return slices.Contains(roverCommands, c)
}

// Delta returns the lat/lon change caused by c and whether the rover moves.
// forward/backward move along lat, right/left along lon.
func (c RoverCommand) Delta() (dLat, dLon float64, moving bool) {
	switch c {
	case CommandForward:
		return StepDegrees, 0, true
	case CommandBackward:
		return -StepDegrees, 0, true
	case CommandRight:
		return 0, StepDegrees, true
	case CommandLeft:
		return 0, -StepDegrees, true
	default:
		return 0, 0, false
	}
}

// Apply returns r after executing c.
func (c RoverCommand) Apply(r RoverState) RoverState {
	dLat, dLon, moving := c.Delta()
	r.Lat += dLat
	r.Lon += dLon
	r.Moving = moving
	return r
}

// MissionParams is the body of a mission start. Pointer fields distinguish
// "missing" from a zero value.
type MissionParams struct {
	Lat      *float64 `json:"lat"`
	Lon      *float64 `json:"lon"`
	Payload  *string  `json:"payload"`
	Priority *string  `json:"priority"`
}

// Missing lists the absent fields in wire order.
func (p MissionParams) Missing() []string {
	var missing []string
	if p.Lat == nil {
		missing = append(missing, "lat")
	}
	if p.Lon == nil {
		missing = append(missing, "lon")
	}
	if p.Payload == nil {
		missing = append(missing, "payload")
	}
	if p.Priority == nil {
		missing = append(missing, "priority")
	}
	return missing
}

// ControlRequest is the body of a rover control command.
type ControlRequest struct {
	RoverID string       `json:"rover_id"`
	Command RoverCommand `json:"command"`
}

// ControlResult is what a caller learns about an accepted rover command.
type ControlResult struct {
	RoverID     string       `json:"rover_id"`
	Command     RoverCommand `json:"command"`
	NewPosition Position     `json:"new_position"`
	Moving      bool         `json:"-"`
}
