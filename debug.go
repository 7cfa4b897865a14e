package hueweb

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kradalby/hue-web/events"
	"github.com/kradalby/hue-web/page"
)

// UIDebugInfo summarizes the page-session registry and component lifecycle
// state for the debug endpoint.
type UIDebugInfo struct {
	Sessions   []page.SessionDebugInfo        `json:"sessions"`
	Components []events.ConnectionStatusEvent `json:"components"`
	LightState []events.LightStateEvent       `json:"light_state"`
}

// SetupDebugHandlers registers the UI debug handler.
func SetupDebugHandlers(kraWeb interface {
	Handle(pattern string, handler http.Handler)
}, registry *page.Registry, ws *WebServer) {
	kraWeb.Handle("/debug/ui", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		debugInfo := UIDebugInfo{
			Sessions:   registry.DebugInfo(),
			Components: ws.snapshotStatuses(),
			LightState: ws.snapshotState(),
		}

		data, err := json.MarshalIndent(debugInfo, "", "  ")
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to marshal debug info: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			return
		}
	}))
}
