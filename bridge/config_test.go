package bridge

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func fullConfigObject() map[string]any {
	return map[string]any{
		"name":             "Philips hue",
		"zigbeechannel":    15,
		"bridgeid":         "001788FFFE09ABCD",
		"mac":              "00:17:88:09:ab:cd",
		"ipaddress":        "192.168.1.2",
		"netmask":          "255.255.255.0",
		"gateway":          "192.168.1.1",
		"modelid":          "BSB002",
		"swversion":        "01041302",
		"apiversion":       "1.15.0",
		"linkbutton":       false,
		"portalservices":   true,
		"portalconnection": "connected",
		"factorynew":       false,
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal test input: %v", err)
	}
	return data
}

func TestDecodeConfigRequiredFields(t *testing.T) {
	cfg, err := DecodeConfig(mustJSON(t, fullConfigObject()))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}

	if cfg.Name != "Philips hue" {
		t.Errorf("Name = %q, want %q", cfg.Name, "Philips hue")
	}
	if cfg.ZigbeeChannel != 15 {
		t.Errorf("ZigbeeChannel = %d, want 15", cfg.ZigbeeChannel)
	}
	if cfg.BridgeID != "001788FFFE09ABCD" {
		t.Errorf("BridgeID = %q, want %q", cfg.BridgeID, "001788FFFE09ABCD")
	}
	if cfg.IPAddress != "192.168.1.2" {
		t.Errorf("IPAddress = %q, want %q", cfg.IPAddress, "192.168.1.2")
	}
	if !cfg.PortalServices {
		t.Error("PortalServices = false, want true")
	}
	if cfg.PortalConnection != "connected" {
		t.Errorf("PortalConnection = %q, want %q", cfg.PortalConnection, "connected")
	}
	if cfg.LinkButton {
		t.Error("LinkButton = true, want false")
	}
	if cfg.FactoryNew {
		t.Error("FactoryNew = true, want false")
	}
}

func TestDecodeConfigOptionalFieldsAbsent(t *testing.T) {
	cfg, err := DecodeConfig(mustJSON(t, fullConfigObject()))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}

	if cfg.SWUpdate != nil {
		t.Errorf("SWUpdate = %+v, want nil", cfg.SWUpdate)
	}
	if cfg.PortalState != nil {
		t.Errorf("PortalState = %+v, want nil", cfg.PortalState)
	}
}

func TestDecodeConfigOptionalFieldsPresent(t *testing.T) {
	obj := fullConfigObject()
	obj["swupdate"] = map[string]any{
		"updatestate":    2,
		"checkforupdate": true,
		"url":            "http://example.com/fw",
		"text":           "firmware 1.2",
		"notify":         false,
	}
	obj["portalstate"] = map[string]any{
		"signedon":      true,
		"incoming":      false,
		"outgoing":      true,
		"communication": "disconnected",
	}

	cfg, err := DecodeConfig(mustJSON(t, obj))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}

	if cfg.SWUpdate == nil {
		t.Fatal("SWUpdate = nil, want value")
	}
	if cfg.SWUpdate.UpdateState != 2 {
		t.Errorf("SWUpdate.UpdateState = %d, want 2", cfg.SWUpdate.UpdateState)
	}
	if !cfg.SWUpdate.CheckForUpdate {
		t.Error("SWUpdate.CheckForUpdate = false, want true")
	}
	if cfg.SWUpdate.URL != "http://example.com/fw" {
		t.Errorf("SWUpdate.URL = %q, want %q", cfg.SWUpdate.URL, "http://example.com/fw")
	}

	if cfg.PortalState == nil {
		t.Fatal("PortalState = nil, want value")
	}
	if !cfg.PortalState.SignedOn {
		t.Error("PortalState.SignedOn = false, want true")
	}
	if cfg.PortalState.Communication != "disconnected" {
		t.Errorf("PortalState.Communication = %q, want %q", cfg.PortalState.Communication, "disconnected")
	}
}

func TestDecodeConfigMissingRequiredKey(t *testing.T) {
	for _, key := range []string{
		"name", "zigbeechannel", "bridgeid", "mac", "ipaddress",
		"netmask", "gateway", "modelid", "swversion", "apiversion",
		"linkbutton", "portalservices", "portalconnection", "factorynew",
	} {
		t.Run(key, func(t *testing.T) {
			obj := fullConfigObject()
			delete(obj, key)

			_, err := DecodeConfig(mustJSON(t, obj))
			if err == nil {
				t.Fatalf("DecodeConfig() without %q succeeded, want error", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error %q does not name missing key %q", err, key)
			}
		})
	}
}

func TestDecodeConfigWrongShape(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"string channel", "zigbeechannel", "fifteen"},
		{"float channel", "zigbeechannel", 5.5},
		{"numeric name", "name", 42},
		{"string linkbutton", "linkbutton", "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := fullConfigObject()
			obj[tt.key] = tt.value

			_, err := DecodeConfig(mustJSON(t, obj))
			if err == nil {
				t.Fatalf("DecodeConfig() with %s = %v succeeded, want error", tt.key, tt.value)
			}
			if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("error %q does not name key %q", err, tt.key)
			}
		})
	}
}

func TestDecodeConfigMalformedOptional(t *testing.T) {
	obj := fullConfigObject()
	obj["swupdate"] = map[string]any{
		"updatestate": 1,
		// remaining required swupdate keys missing
	}

	_, err := DecodeConfig(mustJSON(t, obj))
	if err == nil {
		t.Fatal("DecodeConfig() with partial swupdate succeeded, want error")
	}
	if !strings.Contains(err.Error(), "checkforupdate") {
		t.Errorf("error %q does not name missing nested key", err)
	}
}

func TestDecodeConfigNonObject(t *testing.T) {
	for _, input := range []string{`[1, 2, 3]`, `"config"`, `42`} {
		if _, err := DecodeConfig([]byte(input)); err == nil {
			t.Errorf("DecodeConfig(%s) succeeded, want error", input)
		}
	}
}

func TestDecodeConfigRoundTrip(t *testing.T) {
	obj := fullConfigObject()
	obj["swupdate"] = map[string]any{
		"updatestate":    0,
		"checkforupdate": false,
		"url":            "",
		"text":           "",
		"notify":         true,
	}

	first, err := DecodeConfig(mustJSON(t, obj))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}

	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	second, err := DecodeConfig(encoded)
	if err != nil {
		t.Fatalf("DecodeConfig(re-encoded) error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip mismatch:\nfirst  = %+v\nsecond = %+v", first, second)
	}
	if second.PortalState != nil {
		t.Error("PortalState should stay absent through a round trip")
	}
}

func TestDecodeConfigNoWhitelist(t *testing.T) {
	cfg, err := DecodeConfigNoWhitelist([]byte(`{
		"swversion": "01041302",
		"apiversion": "1.15.0",
		"name": "Philips hue",
		"mac": "00:17:88:09:ab:cd"
	}`))
	if err != nil {
		t.Fatalf("DecodeConfigNoWhitelist() error = %v", err)
	}

	if cfg.SWVersion != "01041302" {
		t.Errorf("SWVersion = %q, want %q", cfg.SWVersion, "01041302")
	}
	if cfg.APIVersion != "1.15.0" {
		t.Errorf("APIVersion = %q, want %q", cfg.APIVersion, "1.15.0")
	}
	if cfg.Name != "Philips hue" {
		t.Errorf("Name = %q, want %q", cfg.Name, "Philips hue")
	}
	if cfg.MAC != "00:17:88:09:ab:cd" {
		t.Errorf("MAC = %q, want %q", cfg.MAC, "00:17:88:09:ab:cd")
	}
}

func TestDecodeConfigNoWhitelistMissingKey(t *testing.T) {
	for _, key := range []string{"swversion", "apiversion", "name", "mac"} {
		t.Run(key, func(t *testing.T) {
			obj := map[string]any{
				"swversion":  "01041302",
				"apiversion": "1.15.0",
				"name":       "Philips hue",
				"mac":        "00:17:88:09:ab:cd",
			}
			delete(obj, key)

			_, err := DecodeConfigNoWhitelist(mustJSON(t, obj))
			if err == nil {
				t.Fatalf("DecodeConfigNoWhitelist() without %q succeeded, want error", key)
			}
			if !strings.Contains(err.Error(), key) {
				t.Errorf("error %q does not name missing key %q", err, key)
			}
		})
	}
}
