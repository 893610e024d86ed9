package topic

import (
	"fmt"
	"strings"
)

// Segments of the rover link. They are the contract between the hub and the
// rovers; renaming one breaks deployed rovers.
const (
	// SegmentCommand carries hub -> rover motion commands.
	// Structure: {root}/command/{roverID}
	SegmentCommand = "command"

	// SegmentStatus carries rover -> hub status reports and the rover's last will.
	// Structure: {root}/status/{roverID}
	SegmentStatus = "status"

	// SegmentState is the retained latest SystemState snapshot.
	// Structure: {root}/state
	SegmentState = "state"

	// SegmentAlert carries every alert broadcast by the hub.
	// Structure: {root}/alert
	SegmentAlert = "alert"
)

// Builder constructs rover link topics under a fixed root.
type Builder struct {
	root string
}

// NewBuilder returns a Builder for root (e.g. "roverhub/v1").
// Trailing slashes are trimmed.
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimRight(root, "/")}
}

// Command is the hub -> rover command topic.
func (b *Builder) Command(roverID string) string {
	return b.build(SegmentCommand, roverID)
}

// Status is the rover -> hub status topic.
func (b *Builder) Status(roverID string) string {
	return b.build(SegmentStatus, roverID)
}

// StatusWildcard subscribes to the status reports of every rover.
func (b *Builder) StatusWildcard() string {
	return b.build(SegmentStatus, Wildcard)
}

func (b *Builder) State() string {
	return b.build(SegmentState)
}

func (b *Builder) Alert() string {
	return b.build(SegmentAlert)
}

// RoverID extracts the rover id from a concrete {root}/{segment}/{roverID} topic.
func (b *Builder) RoverID(segment, topic string) (string, error) {
	prefix := b.build(segment) + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", fmt.Errorf("topic %q is not under %q", topic, prefix)
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("topic %q does not end in a rover id", topic)
	}
	return id, nil
}

func (b *Builder) build(parts ...string) string {
	return b.root + "/" + strings.Join(parts, "/")
}
