package core

import "github.com/autopeer-io/roverhub/internal/roverhub/core/model"

// StateStore holds the single authoritative system state.
type StateStore interface {
	// Read returns a consistent copy of the current state.
	Read() model.Snapshot

	// Mutate applies fn to a working copy of the state and commits it only if
	// fn returns nil. Every commit increments the snapshot version.
	Mutate(fn func(*model.SystemState) error) (model.Snapshot, error)
}
