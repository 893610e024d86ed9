package store

import (
	"sync"

	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

var _ core.StateStore = (*Memory)(nil)

// Memory is an in-process StateStore. Readers never see a half-applied
// mutation because every mutation runs on a private copy.
type Memory struct {
	mu      sync.RWMutex
	version uint64
	state   model.SystemState
}

// NewMemory returns a store seeded with initial at version 0.
func NewMemory(initial model.SystemState) *Memory {
	return &Memory{state: initial.Clone()}
}

func (m *Memory) Read() model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.Snapshot{Version: m.version, State: m.state.Clone()}
}

func (m *Memory) Mutate(fn func(*model.SystemState) error) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	working := m.state.Clone()
	if err := fn(&working); err != nil {
		return model.Snapshot{Version: m.version, State: m.state.Clone()}, err
	}

	m.state = working
	m.version++
	return model.Snapshot{Version: m.version, State: m.state.Clone()}, nil
}
