package page

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/kradalby/hue-web/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// extractToken pulls the callback token out of a rendered wiring script of
// the form hueweb.onClick('#id', 'token');.
func extractToken(t *testing.T, script string) string {
	t.Helper()

	start := strings.LastIndex(script, "', '")
	end := strings.LastIndex(script, "');")
	if start == -1 || end == -1 || end <= start+4 {
		t.Fatalf("no token in script %q", script)
	}
	return script[start+4 : end]
}

func TestSessionTrackAndLookup(t *testing.T) {
	s := NewRegistry(testLogger(), 4).NewSession()

	s.TrackElement("light-1-tile")

	el := s.ElementByIDSafe("light-1-tile")
	if el.ID != "light-1-tile" {
		t.Errorf("Element.ID = %q, want %q", el.ID, "light-1-tile")
	}
}

func TestElementByIDSafePanicsOnUnknownID(t *testing.T) {
	s := NewRegistry(testLogger(), 4).NewSession()
	s.TrackElement("light-1-tile")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("ElementByIDSafe() on unknown ID should panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "light-2-tile") {
			t.Errorf("panic = %v, want message naming the missing ID", r)
		}
	}()

	s.ElementByIDSafe("light-2-tile")
}

func TestOnElementIDClick(t *testing.T) {
	s := NewRegistry(testLogger(), 4).NewSession()
	b := NewBuilder()

	clicks := 0
	OnElementIDClick(s, b, "light-1-on-switch", func(ctx context.Context) (bool, error) {
		clicks++
		return true, nil
	})

	tiles := b.Tiles()
	if len(tiles) != 1 {
		t.Fatalf("len(Tiles()) = %d, want 1 wiring script", len(tiles))
	}
	script := tiles[0].Render()
	if !strings.Contains(script, "hueweb.onClick('#light-1-on-switch'") {
		t.Errorf("wiring script %q does not target the element", script)
	}

	// Registration is deferred until the actions run.
	if s.CallbackCount() != 0 {
		t.Errorf("CallbackCount() = %d before RunActions, want 0", s.CallbackCount())
	}
	b.RunActions()
	if s.CallbackCount() != 1 {
		t.Errorf("CallbackCount() = %d after RunActions, want 1", s.CallbackCount())
	}

	token := extractToken(t, script)
	res, err := s.Dispatch(context.Background(), token, 0, 0)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if clicks != 1 {
		t.Errorf("handler ran %d times, want 1", clicks)
	}
	if !res.Reload {
		t.Error("Reload = false, want true")
	}
	if res.ElementID != "light-1-on-switch" {
		t.Errorf("ElementID = %q, want %q", res.ElementID, "light-1-on-switch")
	}
	if res.Kind != events.UIEventClick {
		t.Errorf("Kind = %q, want click", res.Kind)
	}
}

func TestOnElementIDMouseDown(t *testing.T) {
	s := NewRegistry(testLogger(), 4).NewSession()
	b := NewBuilder()

	var gotX, gotY int
	OnElementIDMouseDown(s, b, "light-1-brightness-bar", func(ctx context.Context, x, y int) error {
		gotX, gotY = x, y
		return nil
	})

	script := b.Tiles()[0].Render()
	if !strings.Contains(script, "hueweb.onMouseDown('#light-1-brightness-bar'") {
		t.Errorf("wiring script %q does not target the element", script)
	}
	b.RunActions()

	token := extractToken(t, script)
	res, err := s.Dispatch(context.Background(), token, 127, 9)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if gotX != 127 || gotY != 9 {
		t.Errorf("handler got (%d, %d), want (127, 9)", gotX, gotY)
	}
	if res.Kind != events.UIEventMouseDown {
		t.Errorf("Kind = %q, want mousedown", res.Kind)
	}
	if res.Reload {
		t.Error("mousedown dispatch should never request a reload")
	}
}

func TestDispatchUnknownToken(t *testing.T) {
	s := NewRegistry(testLogger(), 4).NewSession()

	_, err := s.Dispatch(context.Background(), "no-such-token", 0, 0)
	if err == nil {
		t.Fatal("Dispatch() with unknown token should return error")
	}
	if !strings.Contains(err.Error(), "no-such-token") {
		t.Errorf("error %q does not name the token", err)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	s := NewRegistry(testLogger(), 4).NewSession()
	b := NewBuilder()

	OnElementIDClick(s, b, "light-1-on-switch", func(ctx context.Context) (bool, error) {
		return false, context.DeadlineExceeded
	})
	b.RunActions()

	token := extractToken(t, b.Tiles()[0].Render())
	if _, err := s.Dispatch(context.Background(), token, 0, 0); err == nil {
		t.Error("Dispatch() should surface the handler error")
	}
}

func TestRegistryEviction(t *testing.T) {
	r := NewRegistry(testLogger(), 2)

	first := r.NewSession()
	second := r.NewSession()
	third := r.NewSession()

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if _, ok := r.Session(first.ID()); ok {
		t.Error("oldest session should have been evicted")
	}
	if _, ok := r.Session(second.ID()); !ok {
		t.Error("second session should still be live")
	}
	if _, ok := r.Session(third.ID()); !ok {
		t.Error("third session should still be live")
	}
}

func TestRegistryDefaultLimit(t *testing.T) {
	r := NewRegistry(testLogger(), 0)

	for range defaultSessionLimit + 5 {
		r.NewSession()
	}
	if r.Len() != defaultSessionLimit {
		t.Errorf("Len() = %d, want %d", r.Len(), defaultSessionLimit)
	}
}

func TestRegistryDebugInfo(t *testing.T) {
	r := NewRegistry(testLogger(), 4)

	s := r.NewSession()
	s.TrackElement("light-1-tile")
	s.TrackElement("light-1-on-switch")

	b := NewBuilder()
	OnElementIDClick(s, b, "light-1-on-switch", func(ctx context.Context) (bool, error) { return false, nil })
	b.RunActions()

	infos := r.DebugInfo()
	if len(infos) != 1 {
		t.Fatalf("len(DebugInfo()) = %d, want 1", len(infos))
	}
	if infos[0].ID != s.ID() {
		t.Errorf("ID = %q, want %q", infos[0].ID, s.ID())
	}
	if infos[0].Elements != 2 {
		t.Errorf("Elements = %d, want 2", infos[0].Elements)
	}
	if infos[0].Callbacks != 1 {
		t.Errorf("Callbacks = %d, want 1", infos[0].Callbacks)
	}
}
