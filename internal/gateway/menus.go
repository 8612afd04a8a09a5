package gateway

import (
	"sync"

	"github.com/mimedicina/portal/internal/roster"
)

// menuRegistry holds one press tracker per session, so each medic's
// long-press gesture and context menu are independent.
type menuRegistry struct {
	mu       sync.Mutex
	trackers map[string]*roster.PressTracker
}

func newMenuRegistry() *menuRegistry {
	return &menuRegistry{trackers: make(map[string]*roster.PressTracker)}
}

func (m *menuRegistry) tracker(sessionID string) *roster.PressTracker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trackers[sessionID]
	if !ok {
		t = roster.NewPressTracker(0)
		m.trackers[sessionID] = t
	}
	return t
}

func (m *menuRegistry) drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trackers, sessionID)
}
