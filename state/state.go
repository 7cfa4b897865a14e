// Package state holds the shared application state for one running session:
// the bridge configuration and per-user dashboard preferences. Access goes
// through a mutex-guarded store with snapshot-read semantics so multi-field
// reads and updates are atomic.
package state

import (
	"sync"

	"github.com/kradalby/hue-web/bridge"
)

// Preferences are one user's dashboard settings.
type Preferences struct {
	ShowUnreachable  bool `json:"show_unreachable"`
	SortLightsByName bool `json:"sort_lights_by_name"`
}

// DefaultPreferences apply to users that never saved any.
func DefaultPreferences() Preferences {
	return Preferences{
		ShowUnreachable:  true,
		SortLightsByName: true,
	}
}

// AppState aggregates the persisted preference data and the bridge
// configuration for the lifetime of one application run.
type AppState struct {
	Prefs  map[string]Preferences
	Bridge *bridge.Config
}

// Store guards AppState. View and Update run their function under the lock,
// so reads composed inside one View are isolated from concurrent updates.
type Store struct {
	mu    sync.RWMutex
	state AppState
}

// NewStore creates a store seeded with the bridge configuration.
func NewStore(cfg *bridge.Config) *Store {
	return &Store{
		state: AppState{
			Prefs:  make(map[string]Preferences),
			Bridge: cfg,
		},
	}
}

// View runs fn with a read-locked view of the state. fn must not retain or
// mutate what it is given.
func (s *Store) View(fn func(AppState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Update runs fn with exclusive access to the state.
func (s *Store) Update(fn func(*AppState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// UserPrefs returns a snapshot of one user's preferences, falling back to
// the defaults for unknown users.
func (s *Store) UserPrefs(userID string) Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, ok := s.state.Prefs[userID]
	if !ok {
		return DefaultPreferences()
	}
	return prefs
}

// SetUserPrefs replaces one user's preferences.
func (s *Store) SetUserPrefs(userID string, prefs Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Prefs[userID] = prefs
}

// BridgeConfig returns the stored bridge configuration.
func (s *Store) BridgeConfig() *bridge.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Bridge
}
