package bridge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// Snapshot is one full view of a bridge: its configuration plus the lights
// and groups it knows about. It is what the dashboard renders from.
type Snapshot struct {
	Config Config           `json:"config"`
	Lights map[string]Light `json:"lights"`
	Groups Groups           `json:"groups"`
}

// LoadFixture reads and validates a HuJSON bridge snapshot file. The fixture
// stands in for a live bridge when running without one.
func LoadFixture(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bridge fixture file: %w", err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to standardize HuJSON: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(standardized, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bridge fixture: %w", err)
	}

	if len(snap.Lights) == 0 {
		return nil, fmt.Errorf("no lights in fixture")
	}

	for id, light := range snap.Lights {
		if id == "" {
			return nil, fmt.Errorf("fixture has a light with an empty ID")
		}
		if light.Name == "" {
			return nil, fmt.Errorf("light %s has no name", id)
		}
	}

	for name, members := range snap.Groups {
		if name == "" {
			return nil, fmt.Errorf("fixture has a group with an empty name")
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("group %q has no members", name)
		}
		// Members pointing at unknown lights are allowed; renderers skip them.
	}

	return &snap, nil
}
