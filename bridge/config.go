// Package bridge holds the wire types for the lighting bridge's HTTP API:
// the configuration endpoints, the light and group shapes, and the HuJSON
// fixture loader used when running without a real bridge.
package bridge

import (
	"encoding/json"
	"fmt"
)

// ConfigNoWhitelist is the configuration a bridge returns to clients that
// have not completed the pairing flow. All fields are required.
type ConfigNoWhitelist struct {
	SWVersion  string `json:"swversion"`
	APIVersion string `json:"apiversion"`
	Name       string `json:"name"`
	MAC        string `json:"mac"`
}

// SWUpdate describes the bridge's firmware update status.
type SWUpdate struct {
	UpdateState    int    `json:"updatestate"`
	CheckForUpdate bool   `json:"checkforupdate"`
	URL            string `json:"url"`
	Text           string `json:"text"`
	Notify         bool   `json:"notify"`
}

// PortalState describes the bridge's connection to the vendor portal.
type PortalState struct {
	SignedOn      bool   `json:"signedon"`
	Incoming      bool   `json:"incoming"`
	Outgoing      bool   `json:"outgoing"`
	Communication string `json:"communication"`
}

// Config is the full bridge descriptor returned to whitelisted clients.
// SWUpdate and PortalState are optional on the wire; every other field is
// required and decoding fails if one is missing or has the wrong shape.
// No validation beyond shape is done: the zigbee channel is any integer,
// IP and MAC strings are any string.
type Config struct {
	Name             string       `json:"name"`
	ZigbeeChannel    int          `json:"zigbeechannel"`
	BridgeID         string       `json:"bridgeid"`
	MAC              string       `json:"mac"`
	IPAddress        string       `json:"ipaddress"`
	Netmask          string       `json:"netmask"`
	Gateway          string       `json:"gateway"`
	ModelID          string       `json:"modelid"`
	SWVersion        string       `json:"swversion"`
	APIVersion       string       `json:"apiversion"`
	SWUpdate         *SWUpdate    `json:"swupdate,omitempty"`
	LinkButton       bool         `json:"linkbutton"`
	PortalServices   bool         `json:"portalservices"`
	PortalConnection string       `json:"portalconnection"`
	PortalState      *PortalState `json:"portalstate,omitempty"`
	FactoryNew       bool         `json:"factorynew"`
}

// decodeObject parses data as a JSON object keyed by raw values, so the
// required-field helpers can report which key was missing or malformed.
func decodeObject(data []byte, what string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%s: expected JSON object: %w", what, err)
	}
	return obj, nil
}

// required decodes a mandatory key and fails with the key name when it is
// absent or not of type T.
func required[T any](obj map[string]json.RawMessage, what, key string) (T, error) {
	var v T
	raw, ok := obj[key]
	if !ok {
		return v, fmt.Errorf("%s: missing required key %q", what, key)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%s: key %q: expected %T: %w", what, key, v, err)
	}
	return v, nil
}

// optional decodes a key into *T when present, nil when absent. A present
// but malformed value is still an error.
func optional[T any](obj map[string]json.RawMessage, what, key string) (*T, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return nil, fmt.Errorf("%s: key %q: %w", what, key, err)
	}
	return v, nil
}

// UnmarshalJSON decodes the no-whitelist configuration, failing on any
// missing or mismatched required key.
func (c *ConfigNoWhitelist) UnmarshalJSON(data []byte) error {
	const what = "bridge config (no whitelist)"

	obj, err := decodeObject(data, what)
	if err != nil {
		return err
	}

	var cfg ConfigNoWhitelist
	if cfg.SWVersion, err = required[string](obj, what, "swversion"); err != nil {
		return err
	}
	if cfg.APIVersion, err = required[string](obj, what, "apiversion"); err != nil {
		return err
	}
	if cfg.Name, err = required[string](obj, what, "name"); err != nil {
		return err
	}
	if cfg.MAC, err = required[string](obj, what, "mac"); err != nil {
		return err
	}

	*c = cfg
	return nil
}

// UnmarshalJSON decodes the firmware update status; all keys are required.
func (s *SWUpdate) UnmarshalJSON(data []byte) error {
	const what = "bridge swupdate"

	obj, err := decodeObject(data, what)
	if err != nil {
		return err
	}

	var sw SWUpdate
	if sw.UpdateState, err = required[int](obj, what, "updatestate"); err != nil {
		return err
	}
	if sw.CheckForUpdate, err = required[bool](obj, what, "checkforupdate"); err != nil {
		return err
	}
	if sw.URL, err = required[string](obj, what, "url"); err != nil {
		return err
	}
	if sw.Text, err = required[string](obj, what, "text"); err != nil {
		return err
	}
	if sw.Notify, err = required[bool](obj, what, "notify"); err != nil {
		return err
	}

	*s = sw
	return nil
}

// UnmarshalJSON decodes the portal state; all keys are required.
func (p *PortalState) UnmarshalJSON(data []byte) error {
	const what = "bridge portalstate"

	obj, err := decodeObject(data, what)
	if err != nil {
		return err
	}

	var ps PortalState
	if ps.SignedOn, err = required[bool](obj, what, "signedon"); err != nil {
		return err
	}
	if ps.Incoming, err = required[bool](obj, what, "incoming"); err != nil {
		return err
	}
	if ps.Outgoing, err = required[bool](obj, what, "outgoing"); err != nil {
		return err
	}
	if ps.Communication, err = required[string](obj, what, "communication"); err != nil {
		return err
	}

	*p = ps
	return nil
}

// UnmarshalJSON decodes the whitelisted configuration. swupdate and
// portalstate are nil when absent; every other key is required and the
// decode fails immediately, with no partial record, when one is violated.
func (c *Config) UnmarshalJSON(data []byte) error {
	const what = "bridge config"

	obj, err := decodeObject(data, what)
	if err != nil {
		return err
	}

	var cfg Config
	if cfg.Name, err = required[string](obj, what, "name"); err != nil {
		return err
	}
	if cfg.ZigbeeChannel, err = required[int](obj, what, "zigbeechannel"); err != nil {
		return err
	}
	if cfg.BridgeID, err = required[string](obj, what, "bridgeid"); err != nil {
		return err
	}
	if cfg.MAC, err = required[string](obj, what, "mac"); err != nil {
		return err
	}
	if cfg.IPAddress, err = required[string](obj, what, "ipaddress"); err != nil {
		return err
	}
	if cfg.Netmask, err = required[string](obj, what, "netmask"); err != nil {
		return err
	}
	if cfg.Gateway, err = required[string](obj, what, "gateway"); err != nil {
		return err
	}
	if cfg.ModelID, err = required[string](obj, what, "modelid"); err != nil {
		return err
	}
	if cfg.SWVersion, err = required[string](obj, what, "swversion"); err != nil {
		return err
	}
	if cfg.APIVersion, err = required[string](obj, what, "apiversion"); err != nil {
		return err
	}
	if cfg.LinkButton, err = required[bool](obj, what, "linkbutton"); err != nil {
		return err
	}
	if cfg.PortalServices, err = required[bool](obj, what, "portalservices"); err != nil {
		return err
	}
	if cfg.PortalConnection, err = required[string](obj, what, "portalconnection"); err != nil {
		return err
	}
	if cfg.FactoryNew, err = required[bool](obj, what, "factorynew"); err != nil {
		return err
	}
	if cfg.SWUpdate, err = optional[SWUpdate](obj, what, "swupdate"); err != nil {
		return err
	}
	if cfg.PortalState, err = optional[PortalState](obj, what, "portalstate"); err != nil {
		return err
	}

	*c = cfg
	return nil
}

// DecodeConfig parses a whitelisted configuration response.
func DecodeConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DecodeConfigNoWhitelist parses an unauthenticated configuration response.
func DecodeConfigNoWhitelist(data []byte) (*ConfigNoWhitelist, error) {
	var cfg ConfigNoWhitelist
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
