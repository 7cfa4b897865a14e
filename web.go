package hueweb

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/kradalby/kra/web"
	"tailscale.com/util/eventbus"

	"github.com/kradalby/hue-web/bridge"
	"github.com/kradalby/hue-web/events"
	"github.com/kradalby/hue-web/page"
	"github.com/kradalby/hue-web/state"
)

//go:embed assets/style.css
var cssContent string

//go:embed assets/script.js
var jsContent string

// brightnessBarWidth is the rendered width of the brightness bar in pixels.
// It matches the bridge brightness scale so the mousedown x coordinate maps
// directly to a brightness value.
const brightnessBarWidth = 254

type lightStateProvider interface {
	Snapshot() (map[string]bridge.Light, bridge.Groups)
	Light(string) (bridge.Light, bool)
}

// LightController is the boundary to the bridge-communication layer.
type LightController interface {
	SetPower(ctx context.Context, lightID string, on bool) error
	SetBrightness(ctx context.Context, lightID string, bri int) error
	SetGroupPower(ctx context.Context, groupName string, on bool) error
	DeleteGroup(ctx context.Context, groupName string) error
}

// WebServer manages the dashboard UI.
type WebServer struct {
	logger           *slog.Logger
	kraweb           *web.KraWeb
	lightProvider    lightStateProvider
	controller       LightController
	store            *state.Store
	registry         *page.Registry
	eventLog         []string
	eventBus         *events.Bus
	client           *eventbus.Client
	uiClient         *eventbus.Client
	stateSubscriber  *eventbus.Subscriber[events.LightStateEvent]
	statusSubscriber *eventbus.Subscriber[events.ConnectionStatusEvent]
	currentState     map[string]events.LightStateEvent
	connectionState  map[string]events.ConnectionStatusEvent
	stateMu          sync.RWMutex
	statusMu         sync.RWMutex
	sseClients       map[chan events.LightStateEvent]struct{}
	sseClientsMu     sync.RWMutex
	dashboardName    string
	ctx              context.Context
}

// NewWebServer creates a new web server.
func NewWebServer(
	logger *slog.Logger,
	lightProvider lightStateProvider,
	controller LightController,
	store *state.Store,
	registry *page.Registry,
	bus *events.Bus,
	kraweb *web.KraWeb,
	dashboardName string,
) *WebServer {
	client, err := bus.Client(events.ClientWeb)
	if err != nil {
		panic(fmt.Sprintf("failed to create web client: %v", err))
	}
	uiClient, err := bus.Client(events.ClientUI)
	if err != nil {
		panic(fmt.Sprintf("failed to create ui client: %v", err))
	}

	return &WebServer{
		logger:           logger,
		kraweb:           kraweb,
		lightProvider:    lightProvider,
		controller:       controller,
		store:            store,
		registry:         registry,
		eventLog:         make([]string, 0, 100),
		eventBus:         bus,
		client:           client,
		uiClient:         uiClient,
		stateSubscriber:  eventbus.Subscribe[events.LightStateEvent](client),
		statusSubscriber: eventbus.Subscribe[events.ConnectionStatusEvent](client),
		currentState:     make(map[string]events.LightStateEvent),
		connectionState:  make(map[string]events.ConnectionStatusEvent),
		sseClients:       make(map[chan events.LightStateEvent]struct{}),
		dashboardName:    dashboardName,
		ctx:              context.Background(),
	}
}

// LogEvent adds an event to the log
func (ws *WebServer) LogEvent(event string) {
	ws.eventLog = append(ws.eventLog, fmt.Sprintf("%s: %s", time.Now().Format("15:04:05"), event))
	if len(ws.eventLog) > 100 {
		ws.eventLog = ws.eventLog[1:]
	}
}

func (ws *WebServer) Start(ctx context.Context) {
	ws.ctx = ctx
	go ws.processStateChanges(ctx)
	go ws.processConnectionStatuses(ctx)
	ws.publishConnectionStatus(events.ConnectionStatusConnecting, "")

	go func() {
		if ws.kraweb == nil {
			return
		}
		ws.logger.Info("Starting web interface")
		ws.publishConnectionStatus(events.ConnectionStatusConnected, "")
		if err := ws.kraweb.ListenAndServe(ctx); err != nil {
			ws.logger.Error("Web server error", slog.Any("error", err))
			if errors.Is(err, context.Canceled) {
				ws.publishConnectionStatus(events.ConnectionStatusDisconnected, "")
			} else {
				ws.publishConnectionStatus(events.ConnectionStatusFailed, err.Error())
			}
			return
		}
		ws.publishConnectionStatus(events.ConnectionStatusDisconnected, "")
	}()
}

func (ws *WebServer) Close() {
	ws.stateSubscriber.Close()
	ws.statusSubscriber.Close()

	// Each SSE handler owns and closes its channel; dropping the map here
	// only stops further broadcasts.
	ws.sseClientsMu.Lock()
	ws.sseClients = make(map[chan events.LightStateEvent]struct{})
	ws.sseClientsMu.Unlock()
}

func (ws *WebServer) publishConnectionStatus(status events.ConnectionStatus, errMsg string) {
	if ws.eventBus == nil || ws.client == nil {
		return
	}

	ws.eventBus.PublishConnectionStatus(ws.client, events.ConnectionStatusEvent{
		Timestamp: time.Now(),
		Component: "web",
		Status:    status,
		Error:     errMsg,
	})
}

func (ws *WebServer) processStateChanges(ctx context.Context) {
	for {
		select {
		case event := <-ws.stateSubscriber.Events():
			ws.stateMu.Lock()
			ws.currentState[event.LightID] = event
			ws.stateMu.Unlock()

			ws.logger.Debug("Web UI: Light state received", "light_id", event.LightID)
			ws.broadcastSSE(event)
		case <-ctx.Done():
			return
		}
	}
}

func (ws *WebServer) processConnectionStatuses(ctx context.Context) {
	for {
		select {
		case event := <-ws.statusSubscriber.Events():
			ws.statusMu.Lock()
			ws.connectionState[event.Component] = event
			ws.statusMu.Unlock()
		case <-ctx.Done():
			return
		}
	}
}

func (ws *WebServer) broadcastSSE(event events.LightStateEvent) {
	ws.sseClientsMu.RLock()
	defer ws.sseClientsMu.RUnlock()

	for client := range ws.sseClients {
		select {
		case client <- event:
		default:
		}
	}
}

func (ws *WebServer) snapshotState() []events.LightStateEvent {
	ws.stateMu.RLock()
	defer ws.stateMu.RUnlock()

	snapshot := make([]events.LightStateEvent, 0, len(ws.currentState))
	for _, evt := range ws.currentState {
		snapshot = append(snapshot, evt)
	}

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].LightID < snapshot[j].LightID
	})

	return snapshot
}

func (ws *WebServer) snapshotStatuses() []events.ConnectionStatusEvent {
	ws.statusMu.RLock()
	defer ws.statusMu.RUnlock()

	statuses := make([]events.ConnectionStatusEvent, 0, len(ws.connectionState))
	for _, evt := range ws.connectionState {
		statuses = append(statuses, evt)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Component < statuses[j].Component
	})

	return statuses
}

func (ws *WebServer) renderPage(title, sessionID string, content elem.Node) string {
	doc := elem.Html(attrs.Props{},
		elem.Head(attrs.Props{},
			elem.Meta(attrs.Props{attrs.Charset: "utf-8"}),
			elem.Meta(attrs.Props{attrs.Name: "viewport", attrs.Content: "width=device-width, initial-scale=1"}),
			elem.Title(attrs.Props{}, elem.Text(title)),
			elem.Style(attrs.Props{}, elem.Text(cssContent)),
			elem.Script(attrs.Props{}, elem.Raw(jsContent)),
		),
		elem.Body(attrs.Props{"data-session": sessionID}, content),
	)
	return doc.Render()
}

// userID identifies the preference record for a request. Authentication is
// out of scope, so everything falls back to a single shared user unless a
// proxy in front sets the header.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-Hue-Web-User"); id != "" {
		return id
	}
	return "default"
}

func (ws *WebServer) renderLightTile(s *page.Session, b *page.Builder, lightID string, light bridge.Light) {
	tileID := page.BuildLightID(lightID, "tile")
	switchID := page.BuildLightID(lightID, "on-switch")
	barID := page.BuildLightID(lightID, "brightness-bar")
	valueID := page.BuildLightID(lightID, "brightness-value")

	for _, id := range []string{tileID, switchID, barID, valueID} {
		s.TrackElement(id)
	}

	statusClass := "off"
	if light.State.On {
		statusClass = "on"
	}
	reachClass := "reachable"
	if !light.State.Reachable {
		reachClass = "unreachable"
	}

	pct := bridge.BriToPercent(light.State.Brightness)

	b.AddTile(elem.Div(
		attrs.Props{
			attrs.ID:        tileID,
			attrs.Class:     "tile light " + statusClass + " " + reachClass,
			"data-light-id": lightID,
		},
		elem.Div(attrs.Props{attrs.Class: "tile-header"},
			elem.Span(attrs.Props{attrs.Class: "tile-name"}, elem.Text(light.Name)),
			elem.Span(attrs.Props{attrs.Class: "tile-model"}, elem.Text(light.ModelID)),
		),
		elem.Button(
			attrs.Props{attrs.ID: switchID, attrs.Type: "button", attrs.Class: "on-switch"},
			elem.Text("On/Off"),
		),
		elem.Div(
			attrs.Props{
				attrs.ID:    barID,
				attrs.Class: "brightness-bar",
				attrs.Style: fmt.Sprintf("width: %dpx;", brightnessBarWidth),
			},
			elem.Div(attrs.Props{
				attrs.Class: "brightness-fill",
				attrs.Style: fmt.Sprintf("width: %d%%;", pct),
			}),
		),
		elem.Span(
			attrs.Props{attrs.ID: valueID, attrs.Class: "brightness-value"},
			elem.Text(fmt.Sprintf("%d%%", pct)),
		),
	))

	page.OnElementIDClick(s, b, switchID, func(ctx context.Context) (bool, error) {
		current, ok := ws.lightProvider.Light(lightID)
		if !ok {
			return false, fmt.Errorf("light %s not found", lightID)
		}
		if err := ws.controller.SetPower(ctx, lightID, !current.State.On); err != nil {
			return false, err
		}
		ws.LogEvent(fmt.Sprintf("Web UI: Toggle %s -> %v", lightID, !current.State.On))
		return false, nil
	})

	// The bar is exactly as wide as the brightness scale, so x is the value.
	page.OnElementIDMouseDown(s, b, barID, func(ctx context.Context, x, y int) error {
		if err := ws.controller.SetBrightness(ctx, lightID, x); err != nil {
			return err
		}
		ws.LogEvent(fmt.Sprintf("Web UI: Brightness %s -> %d", lightID, x))
		return nil
	})
}

func (ws *WebServer) renderGroupTile(s *page.Session, b *page.Builder, groupName string, groups bridge.Groups, lights map[string]bridge.Light) {
	tileID := page.BuildGroupID(groupName, "tile")
	allOnID := page.BuildGroupID(groupName, "all-on")
	allOffID := page.BuildGroupID(groupName, "all-off")
	membersID := page.BuildGroupID(groupName, "members")
	editDeleteID := page.BuildGroupID(groupName, "edit-delete")
	confirmDivID := page.BuildGroupID(groupName, "delete-confirm")
	confirmBtnID := page.BuildGroupID(groupName, "delete-confirm-btn")

	for _, id := range []string{tileID, allOnID, allOffID, membersID, confirmBtnID} {
		s.TrackElement(id)
	}

	anyOn := bridge.AnyLightsInGroup(groupName, groups, lights, func(l bridge.Light) bool {
		return l.State.On
	})
	statusClass := "off"
	if anyOn {
		statusClass = "on"
	}

	var memberItems []elem.Node
	for _, id := range groups[groupName] {
		light, ok := lights[id]
		if !ok {
			continue
		}
		memberItems = append(memberItems, elem.Li(attrs.Props{}, elem.Text(light.Name)))
	}

	b.AddTile(elem.Div(
		attrs.Props{attrs.ID: tileID, attrs.Class: "tile group " + statusClass},
		elem.Div(attrs.Props{attrs.Class: "tile-header"},
			elem.Span(attrs.Props{attrs.Class: "tile-name"}, elem.Text(groupName)),
		),
		elem.Button(attrs.Props{attrs.ID: allOnID, attrs.Type: "button"}, elem.Text("All On")),
		elem.Button(attrs.Props{attrs.ID: allOffID, attrs.Type: "button"}, elem.Text("All Off")),
		elem.Ul(attrs.Props{attrs.ID: membersID, attrs.Class: "group-members", attrs.Style: "display: none;"},
			memberItems...,
		),
		page.EditAndDeleteButton(
			editDeleteID,
			fmt.Sprintf("var m = document.getElementById('%s'); m.style.display = m.style.display === 'none' ? '' : 'none';", membersID),
			confirmDivID,
			confirmBtnID,
		),
	))

	page.OnElementIDClick(s, b, allOnID, func(ctx context.Context) (bool, error) {
		if err := ws.controller.SetGroupPower(ctx, groupName, true); err != nil {
			return false, err
		}
		ws.LogEvent(fmt.Sprintf("Web UI: Group %q all on", groupName))
		return true, nil
	})

	page.OnElementIDClick(s, b, allOffID, func(ctx context.Context) (bool, error) {
		if err := ws.controller.SetGroupPower(ctx, groupName, false); err != nil {
			return false, err
		}
		ws.LogEvent(fmt.Sprintf("Web UI: Group %q all off", groupName))
		return true, nil
	})

	page.OnElementIDClick(s, b, confirmBtnID, func(ctx context.Context) (bool, error) {
		if err := ws.controller.DeleteGroup(ctx, groupName); err != nil {
			return false, err
		}
		ws.LogEvent(fmt.Sprintf("Web UI: Deleted group %q", groupName))
		return true, nil
	})
}

// HandleIndex renders the dashboard: tiles first, in one document, then the
// deferred wiring actions run before the page is written so every callback
// is registered before the client can fire it.
func (ws *WebServer) HandleIndex(w http.ResponseWriter, r *http.Request) {
	lights, groups := ws.lightProvider.Snapshot()
	prefs := ws.store.UserPrefs(userID(r))

	s := ws.registry.NewSession()
	b := page.NewBuilder()

	groupNames := make([]string, 0, len(groups))
	for name := range groups {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	if len(groupNames) > 0 {
		b.AddTile(elem.H2(attrs.Props{}, elem.Text("Groups")))
		for _, name := range groupNames {
			ws.renderGroupTile(s, b, name, groups, lights)
		}
	}

	lightIDs := make([]string, 0, len(lights))
	for id := range lights {
		if !prefs.ShowUnreachable && !lights[id].State.Reachable {
			continue
		}
		lightIDs = append(lightIDs, id)
	}
	if prefs.SortLightsByName {
		sort.Slice(lightIDs, func(i, j int) bool {
			return lights[lightIDs[i]].Name < lights[lightIDs[j]].Name
		})
	} else {
		sort.Strings(lightIDs)
	}

	b.AddTile(elem.H2(attrs.Props{}, elem.Text("Lights")))
	for _, id := range lightIDs {
		ws.renderLightTile(s, b, id, lights[id])
	}

	var eventElements []elem.Node
	for i := len(ws.eventLog) - 1; i >= 0 && i >= len(ws.eventLog)-20; i-- {
		eventElements = append(eventElements, elem.Div(attrs.Props{attrs.Class: "event"}, elem.Text(ws.eventLog[i])))
	}

	onCount := 0
	if bridge.AnyLightsOn(lights) {
		for _, light := range lights {
			if light.State.On {
				onCount++
			}
		}
	}

	content := elem.Div(attrs.Props{},
		elem.H1(attrs.Props{}, elem.Text(ws.dashboardName)),
		elem.P(attrs.Props{}, elem.Text(fmt.Sprintf("%d lights, %d on, %d groups", len(lights), onCount, len(groups)))),
		elem.Div(attrs.Props{attrs.Class: "tiles-grid"}, b.Tiles()...),
		elem.Div(attrs.Props{attrs.Class: "events"},
			elem.H2(attrs.Props{}, elem.Text("Recent Events")),
			elem.Div(attrs.Props{}, eventElements...),
		),
	)

	html := ws.renderPage(ws.dashboardName, s.ID(), content)

	// Wire before write: registration happens-before any invocation.
	b.RunActions()

	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, html); err != nil {
		ws.logger.Error("Failed to write response", slog.Any("error", err))
	}
}

// HandleUIEvent dispatches one posted page callback, addressed as
// /ui/event/<session>/<token>. Mousedown events carry x and y form values.
func (ws *WebServer) HandleUIEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/ui/event/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		http.Error(w, "Bad event path", http.StatusBadRequest)
		return
	}
	sessionID, token := parts[0], parts[1]

	session, ok := ws.registry.Session(sessionID)
	if !ok {
		http.Error(w, "Session expired", http.StatusNotFound)
		return
	}

	x, _ := strconv.Atoi(r.FormValue("x"))
	y, _ := strconv.Atoi(r.FormValue("y"))

	res, err := session.Dispatch(r.Context(), token, x, y)

	evt := events.UIEvent{
		Timestamp: time.Now(),
		SessionID: sessionID,
		ElementID: res.ElementID,
		Kind:      res.Kind,
		X:         x,
		Y:         y,
	}
	if err != nil {
		evt.Error = err.Error()
	}
	ws.eventBus.PublishUIEvent(ws.uiClient, evt)

	if err != nil {
		if res.ElementID == "" {
			http.Error(w, "Unknown callback", http.StatusNotFound)
			return
		}
		ws.logger.Error("UI callback failed",
			"session_id", sessionID,
			"element_id", res.ElementID,
			"error", err,
		)
		http.Error(w, "Callback failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Reload bool `json:"reload"`
	}{Reload: res.Reload}); err != nil {
		ws.logger.Error("Failed to write ui event response", slog.Any("error", err))
	}
}

// HandlePrefs reads (GET) or updates (POST) the requesting user's dashboard
// preferences.
func (ws *WebServer) HandlePrefs(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	switch r.Method {
	case http.MethodGet:
		prefs := ws.store.UserPrefs(uid)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(prefs); err != nil {
			ws.logger.Error("Failed to write prefs response", slog.Any("error", err))
		}
	case http.MethodPost:
		prefs := ws.store.UserPrefs(uid)
		if v := r.FormValue("show_unreachable"); v != "" {
			prefs.ShowUnreachable = v == "true"
		}
		if v := r.FormValue("sort_lights_by_name"); v != "" {
			prefs.SortLightsByName = v == "true"
		}
		ws.store.SetUserPrefs(uid, prefs)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleBridgeConfig exposes the decoded bridge configuration as JSON.
func (ws *WebServer) HandleBridgeConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := ws.store.BridgeConfig()
	if cfg == nil {
		http.Error(w, "No bridge configuration", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cfg); err != nil {
		ws.logger.Error("Failed to write bridge config response", slog.Any("error", err))
	}
}

// HandleSSE streams JSON light state updates to clients.
func (ws *WebServer) HandleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan events.LightStateEvent, 10)

	ws.sseClientsMu.Lock()
	ws.sseClients[clientChan] = struct{}{}
	ws.sseClientsMu.Unlock()

	defer func() {
		ws.sseClientsMu.Lock()
		delete(ws.sseClients, clientChan)
		ws.sseClientsMu.Unlock()
		close(clientChan)
	}()

	for _, evt := range ws.snapshotState() {
		select {
		case clientChan <- evt:
		default:
		}
	}

	for {
		select {
		case evt := <-clientChan:
			payload, err := json.Marshal(evt)
			if err != nil {
				ws.logger.Error("Failed to marshal SSE payload", slog.Any("error", err))
				continue
			}

			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		case <-ws.ctx.Done():
			return
		}
	}
}

// HandleHealth exposes a JSON health summary.
func (ws *WebServer) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lights, groups := ws.lightProvider.Snapshot()

	ws.sseClientsMu.RLock()
	sseClients := len(ws.sseClients)
	ws.sseClientsMu.RUnlock()

	resp := struct {
		Status     string    `json:"status"`
		Lights     int       `json:"lights"`
		Groups     int       `json:"groups"`
		Sessions   int       `json:"sessions"`
		SSEClients int       `json:"sse_clients"`
		Timestamp  time.Time `json:"timestamp"`
	}{
		Status:     "ok",
		Lights:     len(lights),
		Groups:     len(groups),
		Sessions:   ws.registry.Len(),
		SSEClients: sseClients,
		Timestamp:  time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		ws.logger.Error("Failed to write health response", slog.Any("error", err))
	}
}
