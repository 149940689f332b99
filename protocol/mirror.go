package protocol

import (
	"fmt"
	"sync"

	"github.com/emilianodevborn/Snake-Red/constants"
	"github.com/emilianodevborn/Snake-Red/models"
)

// Mirror is a client's read-only copy of the host's state. Each snapshot
// replaces the previous one wholesale; nothing is merged.
type Mirror struct {
	mu      sync.RWMutex
	state   *models.GameState
	applied uint64
}

// Apply decodes a raw gameState message and replaces the mirrored state.
func (m *Mirror) Apply(raw []byte) error {
	msg, err := Decode[GameState](raw)
	if err != nil {
		return err
	}
	if msg.Type != constants.MSG_GAME_STATE {
		return fmt.Errorf("mirror: unexpected message type %q", msg.Type)
	}
	if msg.State == nil {
		return fmt.Errorf("mirror: gameState without state")
	}
	m.Replace(msg.State)
	return nil
}

func (m *Mirror) Replace(gs *models.GameState) {
	m.mu.Lock()
	m.state = gs
	m.applied++
	m.mu.Unlock()
}

// Snapshot returns the latest state, or nil before the first snapshot.
func (m *Mirror) Snapshot() *models.GameState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Applied counts snapshots received so far.
func (m *Mirror) Applied() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}
