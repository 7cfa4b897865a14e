package events

import (
	"time"
)

// LightStateEvent carries light state for SSE subscribers and metrics.
type LightStateEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	LightID   string    `json:"light_id"`
	Name      string    `json:"name"`

	// Pointers distinguish unset from zero
	On         *bool `json:"on,omitempty"`
	Brightness *int  `json:"brightness,omitempty"` // 0-254 bridge scale
	Reachable  *bool `json:"reachable,omitempty"`
}

// Equals determines whether two events carry the same logical state
// (ignoring timestamp/source).
func (e LightStateEvent) Equals(other LightStateEvent) bool {
	return e.LightID == other.LightID &&
		e.Name == other.Name &&
		ptrBoolEqual(e.On, other.On) &&
		ptrIntEqual(e.Brightness, other.Brightness) &&
		ptrBoolEqual(e.Reachable, other.Reachable)
}

func ptrBoolEqual(a, b *bool) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

func ptrIntEqual(a, b *int) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// UIEventKind names the DOM event that triggered a dispatched callback.
type UIEventKind string

const (
	UIEventClick     UIEventKind = "click"
	UIEventMouseDown UIEventKind = "mousedown"
)

// UIEvent records one dispatched page callback, for metrics and debugging.
type UIEvent struct {
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id"`
	ElementID string      `json:"element_id"`
	Kind      UIEventKind `json:"kind"`
	X         int         `json:"x,omitempty"`
	Y         int         `json:"y,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ConnectionStatusEvent conveys component lifecycle information (web,
// bridge, etc.).
type ConnectionStatusEvent struct {
	Timestamp  time.Time        `json:"timestamp"`
	Component  string           `json:"component"`
	Status     ConnectionStatus `json:"status"`
	Error      string           `json:"error"`
	Reconnects int              `json:"reconnects"`
}

// ConnectionStatus represents lifecycle state for a component.
type ConnectionStatus string

const (
	ConnectionStatusDisconnected ConnectionStatus = "disconnected"
	ConnectionStatusConnecting   ConnectionStatus = "connecting"
	ConnectionStatusConnected    ConnectionStatus = "connected"
	ConnectionStatusReconnecting ConnectionStatus = "reconnecting"
	ConnectionStatusFailed       ConnectionStatus = "failed"
)
