package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kradalby/hue-web/events"
	"tailscale.com/util/eventbus"
)

// Service owns the in-memory light and group state and publishes state
// changes on the event bus. It stands in for the real bridge-communication
// layer behind the same accessor surface the web UI consumes.
type Service struct {
	lights map[string]Light
	groups Groups
	config Config
	mu     sync.RWMutex

	eventBus *events.Bus
	client   *eventbus.Client
	logger   *slog.Logger
}

// NewService seeds a service from a bridge snapshot.
func NewService(snap *Snapshot, bus *events.Bus, logger *slog.Logger) (*Service, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshot is required")
	}

	client, err := bus.Client(events.ClientBridge)
	if err != nil {
		return nil, fmt.Errorf("failed to get bridge eventbus client: %w", err)
	}

	s := &Service{
		lights:   make(map[string]Light, len(snap.Lights)),
		groups:   make(Groups, len(snap.Groups)),
		config:   snap.Config,
		eventBus: bus,
		client:   client,
		logger:   logger,
	}

	for id, light := range snap.Lights {
		s.lights[id] = light
		s.publishLightState("initial", id, light)

		logger.Info("Initialized light",
			"id", id,
			"name", light.Name,
			"on", light.State.On,
		)
	}

	for name, members := range snap.Groups {
		s.groups[name] = append([]string(nil), members...)
	}

	return s, nil
}

// Config returns the bridge configuration the service was seeded with.
func (s *Service) Config() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Snapshot returns a copy of the current lights and groups.
func (s *Service) Snapshot() (map[string]Light, Groups) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lights := make(map[string]Light, len(s.lights))
	for id, light := range s.lights {
		lights[id] = light
	}

	groups := make(Groups, len(s.groups))
	for name, members := range s.groups {
		groups[name] = append([]string(nil), members...)
	}

	return lights, groups
}

// Light returns one light by ID.
func (s *Service) Light(id string) (Light, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	light, ok := s.lights[id]
	return light, ok
}

// SetPower sets the on/off state of a light.
func (s *Service) SetPower(ctx context.Context, lightID string, on bool) error {
	s.mu.Lock()
	light, exists := s.lights[lightID]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("light %s not found", lightID)
	}

	light.State.On = on
	s.lights[lightID] = light
	s.mu.Unlock()

	s.logger.Info("Set light power",
		"light_id", lightID,
		"on", on,
	)

	s.publishLightState("bridge", lightID, light)
	return nil
}

// SetBrightness sets the brightness of a light on the bridge 0-254 scale.
func (s *Service) SetBrightness(ctx context.Context, lightID string, bri int) error {
	if bri < 0 {
		bri = 0
	}
	if bri > 254 {
		bri = 254
	}

	s.mu.Lock()
	light, exists := s.lights[lightID]
	if !exists {
		s.mu.Unlock()
		return fmt.Errorf("light %s not found", lightID)
	}

	light.State.Brightness = bri
	s.lights[lightID] = light
	s.mu.Unlock()

	s.logger.Info("Set light brightness",
		"light_id", lightID,
		"brightness", bri,
	)

	s.publishLightState("bridge", lightID, light)
	return nil
}

// SetGroupPower sets the on/off state of every group member present in the
// light mapping. Members pointing at unknown lights are skipped.
func (s *Service) SetGroupPower(ctx context.Context, groupName string, on bool) error {
	s.mu.RLock()
	members, ok := s.groups[groupName]
	ids := append([]string(nil), members...)
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("group %q not found", groupName)
	}

	for _, id := range ids {
		if _, exists := s.Light(id); !exists {
			continue
		}
		if err := s.SetPower(ctx, id, on); err != nil {
			return err
		}
	}

	return nil
}

// DeleteGroup removes a group. Lights are untouched.
func (s *Service) DeleteGroup(ctx context.Context, groupName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupName]; !ok {
		return fmt.Errorf("group %q not found", groupName)
	}

	delete(s.groups, groupName)
	s.logger.Info("Deleted group", "group", groupName)
	return nil
}

func (s *Service) publishLightState(source, id string, light Light) {
	s.eventBus.PublishLightState(s.client, events.LightStateEvent{
		Timestamp:  time.Now(),
		Source:     source,
		LightID:    id,
		Name:       light.Name,
		On:         Ptr(light.State.On),
		Brightness: Ptr(light.State.Brightness),
		Reachable:  Ptr(light.State.Reachable),
	})
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
