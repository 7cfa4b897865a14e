package bridge

// LightState is the mutable part of a light as reported by the bridge.
type LightState struct {
	On         bool `json:"on"`
	Brightness int  `json:"bri"` // 0-254 bridge scale
	Reachable  bool `json:"reachable"`
}

// Light is one light as reported by the bridge's lights endpoint. Lights are
// keyed by their bridge-assigned ID, which only contains identifier-safe
// characters.
type Light struct {
	State   LightState `json:"state"`
	Name    string     `json:"name"`
	ModelID string     `json:"modelid"`
	Type    string     `json:"type"`
}

// Groups maps a free-form group name to the IDs of its member lights.
type Groups map[string][]string

// AnyLightsOn reports whether any light in the mapping is on.
func AnyLightsOn(lights map[string]Light) bool {
	for _, light := range lights {
		if light.State.On {
			return true
		}
	}
	return false
}

// AnyLightsInGroup reports whether pred holds for at least one light of the
// named group that is present in the light mapping. An unknown group is
// false, and group members missing from the mapping are skipped, neither is
// an error.
func AnyLightsInGroup(groupName string, groups Groups, lights map[string]Light, pred func(Light) bool) bool {
	members, ok := groups[groupName]
	if !ok {
		return false
	}

	for _, id := range members {
		light, ok := lights[id]
		if !ok {
			continue
		}
		if pred(light) {
			return true
		}
	}

	return false
}

// Bridge brightness (0-254) to percent (0-100).
func BriToPercent(bri int) int {
	if bri <= 0 {
		return 0
	}
	if bri >= 254 {
		return 100
	}
	return int(float64(bri) * 100.0 / 254.0)
}

// Percent (0-100) to bridge brightness (0-254).
func PercentToBri(pct int) int {
	if pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return 254
	}
	return int(float64(pct) * 254.0 / 100.0)
}
