package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"tailscale.com/util/eventbus"
)

// ClientName represents named clients used on the shared event bus.
type ClientName string

const (
	ClientBridge  ClientName = "bridge"
	ClientWeb     ClientName = "web"
	ClientUI      ClientName = "ui"
	ClientMetrics ClientName = "metrics"
)

// Bus wraps tailscale's eventbus and provides helpers for publishing light
// state updates, UI callback dispatches, and component lifecycle changes.
type Bus struct {
	bus     *eventbus.Bus
	clients map[ClientName]*eventbus.Client
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc

	lastStates map[string]LightStateEvent
	stateMu    sync.Mutex
	mu         sync.RWMutex
}

// New constructs a new bus with the known clients registered.
func New(logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &Bus{
		bus:        eventbus.New(),
		clients:    make(map[ClientName]*eventbus.Client),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		lastStates: make(map[string]LightStateEvent),
	}

	for _, name := range []ClientName{
		ClientBridge,
		ClientWeb,
		ClientUI,
		ClientMetrics,
	} {
		b.clients[name] = b.bus.Client(string(name))
	}

	logger.Info("eventbus initialized",
		slog.Int("client_count", len(b.clients)),
	)

	return b, nil
}

// Client returns the named eventbus client.
func (b *Bus) Client(name ClientName) (*eventbus.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	client, ok := b.clients[name]
	if !ok {
		return nil, fmt.Errorf("client %q not found", name)
	}

	return client, nil
}

// PublishLightState emits a deduplicated light state event for SSE and
// metrics consumers.
func (b *Bus) PublishLightState(client *eventbus.Client, event LightStateEvent) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	last, ok := b.lastStates[event.LightID]
	if ok && event.Equals(last) {
		b.logger.Debug("skipping duplicate light state",
			slog.String("light_id", event.LightID),
			slog.String("source", event.Source),
		)
		return
	}

	b.logger.Debug("publishing light state",
		slog.String("light_id", event.LightID),
		slog.String("source", event.Source),
	)

	publisher := eventbus.Publish[LightStateEvent](client)
	defer publisher.Close()
	publisher.Publish(event)

	b.lastStates[event.LightID] = event
}

// PublishUIEvent emits a callback dispatch record for metrics/debug
// consumers.
func (b *Bus) PublishUIEvent(client *eventbus.Client, event UIEvent) {
	b.logger.Debug("publishing ui event",
		slog.String("session_id", event.SessionID),
		slog.String("element_id", event.ElementID),
		slog.String("kind", string(event.Kind)),
	)

	publisher := eventbus.Publish[UIEvent](client)
	defer publisher.Close()
	publisher.Publish(event)
}

// PublishConnectionStatus emits lifecycle updates for components (web,
// bridge, etc.).
func (b *Bus) PublishConnectionStatus(client *eventbus.Client, event ConnectionStatusEvent) {
	b.logger.Debug("publishing connection status",
		slog.String("component", event.Component),
		slog.String("status", string(event.Status)),
	)

	publisher := eventbus.Publish[ConnectionStatusEvent](client)
	defer publisher.Close()
	publisher.Publish(event)
}

// Close shuts down the event bus and releases clients.
func (b *Bus) Close() error {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for name, client := range b.clients {
		client.Close()
		delete(b.clients, name)
	}

	b.logger.Info("eventbus shut down")
	return nil
}
