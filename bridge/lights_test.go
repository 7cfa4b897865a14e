package bridge

import "testing"

func testLights() map[string]Light {
	return map[string]Light{
		"1": {Name: "Desk", State: LightState{On: true, Brightness: 200, Reachable: true}},
		"2": {Name: "Shelf", State: LightState{On: false, Brightness: 0, Reachable: true}},
		"3": {Name: "Hallway", State: LightState{On: false, Brightness: 127, Reachable: false}},
	}
}

func TestAnyLightsOn(t *testing.T) {
	tests := []struct {
		name   string
		lights map[string]Light
		want   bool
	}{
		{"nil map", nil, false},
		{"empty map", map[string]Light{}, false},
		{"one on", testLights(), true},
		{
			"all off",
			map[string]Light{
				"1": {State: LightState{On: false}},
				"2": {State: LightState{On: false}},
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyLightsOn(tt.lights); got != tt.want {
				t.Errorf("AnyLightsOn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnyLightsInGroup(t *testing.T) {
	lights := testLights()
	groups := Groups{
		"Living Room": {"1", "2"},
		"Hallway":     {"3"},
		"Garage":      {"99"},
		"Empty":       {},
	}

	isOn := func(l Light) bool { return l.State.On }
	isReachable := func(l Light) bool { return l.State.Reachable }

	tests := []struct {
		name  string
		group string
		pred  func(Light) bool
		want  bool
	}{
		{"group with light on", "Living Room", isOn, true},
		{"group with lights off", "Hallway", isOn, false},
		{"unknown group", "Attic", isOn, false},
		{"empty group", "Empty", isOn, false},
		{"members missing from mapping", "Garage", isOn, false},
		{"unreachable member", "Hallway", isReachable, false},
		{"reachable member", "Living Room", isReachable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AnyLightsInGroup(tt.group, groups, lights, tt.pred); got != tt.want {
				t.Errorf("AnyLightsInGroup(%q) = %v, want %v", tt.group, got, tt.want)
			}
		})
	}
}

func TestAnyLightsInGroupSkipsMissingMembers(t *testing.T) {
	lights := map[string]Light{
		"2": {State: LightState{On: true}},
	}
	groups := Groups{"Mixed": {"missing", "2"}}

	if !AnyLightsInGroup("Mixed", groups, lights, func(l Light) bool { return l.State.On }) {
		t.Error("missing member should be skipped, not end the scan")
	}
}

func TestBriToPercent(t *testing.T) {
	tests := []struct {
		bri  int
		want int
	}{
		{-10, 0},
		{0, 0},
		{127, 50},
		{254, 100},
		{300, 100},
	}

	for _, tt := range tests {
		if got := BriToPercent(tt.bri); got != tt.want {
			t.Errorf("BriToPercent(%d) = %d, want %d", tt.bri, got, tt.want)
		}
	}
}

func TestPercentToBri(t *testing.T) {
	tests := []struct {
		pct  int
		want int
	}{
		{-5, 0},
		{0, 0},
		{50, 127},
		{100, 254},
		{120, 254},
	}

	for _, tt := range tests {
		if got := PercentToBri(tt.pct); got != tt.want {
			t.Errorf("PercentToBri(%d) = %d, want %d", tt.pct, got, tt.want)
		}
	}
}
