package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"tailscale.com/util/eventbus"

	"github.com/kradalby/hue-web/events"
)

// Collector subscribes to eventbus updates and exposes Prometheus metrics.
type Collector struct {
	logger       *slog.Logger
	statusSub    *eventbus.Subscriber[events.ConnectionStatusEvent]
	uiSub        *eventbus.Subscriber[events.UIEvent]
	stateSub     *eventbus.Subscriber[events.LightStateEvent]
	statusGauge  *prometheus.GaugeVec
	uiCounter    *prometheus.CounterVec
	lightState   *prometheus.GaugeVec
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
	workers      sync.WaitGroup
}

// NewCollector wires eventbus subscribers into Prometheus metrics.
func NewCollector(ctx context.Context, logger *slog.Logger, bus *events.Bus, reg prometheus.Registerer) (*Collector, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if bus == nil {
		return nil, fmt.Errorf("event bus is required")
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	client, err := bus.Client(events.ClientMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics client: %w", err)
	}

	collectorCtx, cancel := context.WithCancel(ctx)
	statusSub := eventbus.Subscribe[events.ConnectionStatusEvent](client)
	uiSub := eventbus.Subscribe[events.UIEvent](client)
	stateSub := eventbus.Subscribe[events.LightStateEvent](client)

	statusGauge := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "hue_web_component_status",
		Help: "Lifecycle state per component (1 when matching status, 0 otherwise)",
	}, []string{"component", "status"})

	uiCounter := promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "hue_web_ui_event_total",
		Help: "Total dispatched page callbacks by element and event kind",
	}, []string{"element_id", "kind", "result"})

	lightState := promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
		Name: "hue_web_light_state",
		Help: "Light state values (power, brightness, reachable)",
	}, []string{"light_id", "name", "metric"})

	c := &Collector{
		logger:      logger,
		statusSub:   statusSub,
		uiSub:       uiSub,
		stateSub:    stateSub,
		statusGauge: statusGauge,
		uiCounter:   uiCounter,
		lightState:  lightState,
		ctx:         collectorCtx,
		cancel:      cancel,
	}

	c.workers.Add(3)
	go c.consumeStatuses()
	go c.consumeUIEvents()
	go c.consumeStates()

	logger.Info("metrics collector started")

	return c, nil
}

// Close stops the collector and releases subscribers.
func (c *Collector) Close() {
	c.shutdownOnce.Do(func() {
		c.cancel()
		if c.statusSub != nil {
			c.statusSub.Close()
		}
		if c.uiSub != nil {
			c.uiSub.Close()
		}
		if c.stateSub != nil {
			c.stateSub.Close()
		}
		c.workers.Wait()
		c.logger.Info("metrics collector stopped")
	})
}

func (c *Collector) consumeStatuses() {
	defer c.workers.Done()
	for {
		select {
		case evt := <-c.statusSub.Events():
			c.observeStatus(evt)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Collector) consumeUIEvents() {
	defer c.workers.Done()
	for {
		select {
		case evt := <-c.uiSub.Events():
			c.observeUIEvent(evt)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Collector) consumeStates() {
	defer c.workers.Done()
	for {
		select {
		case evt := <-c.stateSub.Events():
			c.observeState(evt)
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Collector) observeStatus(evt events.ConnectionStatusEvent) {
	for _, status := range []events.ConnectionStatus{
		events.ConnectionStatusDisconnected,
		events.ConnectionStatusConnecting,
		events.ConnectionStatusConnected,
		events.ConnectionStatusReconnecting,
		events.ConnectionStatusFailed,
	} {
		value := 0.0
		if status == evt.Status {
			value = 1.0
		}
		c.statusGauge.WithLabelValues(evt.Component, string(status)).Set(value)
	}
}

func (c *Collector) observeUIEvent(evt events.UIEvent) {
	elementID := evt.ElementID
	if elementID == "" {
		elementID = "unknown"
	}
	kind := string(evt.Kind)
	if kind == "" {
		kind = "unknown"
	}
	result := "ok"
	if evt.Error != "" {
		result = "error"
	}
	c.uiCounter.WithLabelValues(elementID, kind, result).Inc()
}

func (c *Collector) observeState(evt events.LightStateEvent) {
	lightID := evt.LightID
	name := evt.Name
	if name == "" {
		name = lightID
	}

	// Power state (1 = on, 0 = off)
	if evt.On != nil {
		val := 0.0
		if *evt.On {
			val = 1.0
		}
		c.lightState.WithLabelValues(lightID, name, "power").Set(val)
	}

	// Brightness (0-254)
	if evt.Brightness != nil {
		c.lightState.WithLabelValues(lightID, name, "brightness").Set(float64(*evt.Brightness))
	}

	// Reachability (1 = reachable, 0 = unreachable)
	if evt.Reachable != nil {
		val := 0.0
		if *evt.Reachable {
			val = 1.0
		}
		c.lightState.WithLabelValues(lightID, name, "reachable").Set(val)
	}
}
