package page

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/chasefleming/elem-go"
	"github.com/chasefleming/elem-go/attrs"
	"github.com/google/uuid"

	"github.com/kradalby/hue-web/events"
)

// ClickHandler runs when the client fires a click on a wired element. It
// takes no event arguments; reload asks the client to refresh the page with
// window.location.reload(false).
type ClickHandler func(ctx context.Context) (reload bool, err error)

// MouseDownHandler runs when the client fires a mousedown on a wired
// element. x and y are the cursor position relative to the element's offset.
type MouseDownHandler func(ctx context.Context, x, y int) error

type callback struct {
	elementID string
	kind      events.UIEventKind
	click     ClickHandler
	mouseDown MouseDownHandler
}

// Element is a handle to an element rendered into a live session's DOM.
type Element struct {
	ID string
}

// Session represents one served page instance: the set of element IDs its
// markup contains and the callback table its wiring scripts post back to.
// Dispatch runs one handler at a time, in event-arrival order; no ordering
// holds between different elements' handlers.
type Session struct {
	id     string
	logger *slog.Logger

	mu        sync.RWMutex
	elements  map[string]struct{}
	callbacks map[string]callback

	dispatchMu sync.Mutex
}

func newSession(logger *slog.Logger) *Session {
	return &Session{
		id:        uuid.NewString(),
		logger:    logger,
		elements:  make(map[string]struct{}),
		callbacks: make(map[string]callback),
	}
}

// ID returns the session identifier the client posts events under.
func (s *Session) ID() string {
	return s.id
}

// TrackElement records that an element with the given ID is part of the
// session's rendered markup.
func (s *Session) TrackElement(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[id] = struct{}{}
}

// ElementByIDSafe returns a handle to a rendered element. A missing ID means
// code referenced an element that was never rendered; that is a programming
// error, so it logs a stack trace and panics instead of returning an error
// the caller would be tempted to swallow. The underlying UI framework used
// to hang silently here.
func (s *Session) ElementByIDSafe(id string) Element {
	s.mu.RLock()
	_, ok := s.elements[id]
	s.mu.RUnlock()

	if !ok {
		s.logger.Error("element ID was never rendered",
			slog.String("session_id", s.id),
			slog.String("element_id", id),
			slog.String("stack", string(debug.Stack())),
		)
		panic(fmt.Sprintf("page: element %q not present in session %s", id, s.id))
	}

	return Element{ID: id}
}

func (s *Session) register(token string, cb callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks[token] = cb
}

// CallbackCount returns the number of registered callbacks.
func (s *Session) CallbackCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.callbacks)
}

// DispatchResult describes the callback a dispatched token resolved to.
type DispatchResult struct {
	ElementID string
	Kind      events.UIEventKind
	Reload    bool
}

// Dispatch invokes the handler registered under token. Handlers of one
// session never run concurrently; registration happens-before any
// invocation because wiring actions run before the page reaches the client.
func (s *Session) Dispatch(ctx context.Context, token string, x, y int) (DispatchResult, error) {
	s.mu.RLock()
	cb, ok := s.callbacks[token]
	s.mu.RUnlock()

	if !ok {
		return DispatchResult{}, fmt.Errorf("unknown callback token %q", token)
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	res := DispatchResult{ElementID: cb.elementID, Kind: cb.kind}

	switch cb.kind {
	case events.UIEventClick:
		reload, err := cb.click(ctx)
		if err != nil {
			return res, err
		}
		res.Reload = reload
	case events.UIEventMouseDown:
		if err := cb.mouseDown(ctx, x, y); err != nil {
			return res, err
		}
	default:
		return res, fmt.Errorf("unsupported callback kind %q", cb.kind)
	}

	return res, nil
}

// OnElementIDClick wires handler to click events on the element with the
// given ID, without resolving the ID to a live element handle: a script
// snippet attaching a native listener on the selector #<id> ships with the
// page, and the handler registration is deferred until the markup is live.
func OnElementIDClick(s *Session, b *Builder, elementID string, handler ClickHandler) {
	token := uuid.NewString()

	b.AddTile(elem.Script(attrs.Props{},
		elem.Raw(fmt.Sprintf("hueweb.onClick('#%s', '%s');", elementID, token)),
	))
	b.AddAction(func() {
		s.register(token, callback{
			elementID: elementID,
			kind:      events.UIEventClick,
			click:     handler,
		})
	})
}

// OnElementIDMouseDown wires handler to mousedown events on the element with
// the given ID. The client snippet reports the cursor position relative to
// the target element's offset as two integers.
func OnElementIDMouseDown(s *Session, b *Builder, elementID string, handler MouseDownHandler) {
	token := uuid.NewString()

	b.AddTile(elem.Script(attrs.Props{},
		elem.Raw(fmt.Sprintf("hueweb.onMouseDown('#%s', '%s');", elementID, token)),
	))
	b.AddAction(func() {
		s.register(token, callback{
			elementID: elementID,
			kind:      events.UIEventMouseDown,
			mouseDown: handler,
		})
	})
}

// Registry tracks live page sessions. Old sessions are evicted once the cap
// is reached; their pages keep rendering but their buttons stop responding,
// which a reload fixes.
type Registry struct {
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
	limit    int
}

const defaultSessionLimit = 32

// NewRegistry creates a session registry holding at most limit sessions.
func NewRegistry(logger *slog.Logger, limit int) *Registry {
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	return &Registry{
		logger:   logger,
		sessions: make(map[string]*Session),
		limit:    limit,
	}
}

// NewSession creates and tracks a fresh session for one page render.
func (r *Registry) NewSession() *Session {
	s := newSession(r.logger)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.id] = s
	r.order = append(r.order, s.id)

	for len(r.order) > r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.sessions, oldest)
		r.logger.Debug("evicted page session", slog.String("session_id", oldest))
	}

	return s
}

// Session returns the session with the given ID.
func (r *Registry) Session(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SessionDebugInfo summarizes one live session for the debug endpoint.
type SessionDebugInfo struct {
	ID        string `json:"id"`
	Elements  int    `json:"elements"`
	Callbacks int    `json:"callbacks"`
}

// DebugInfo lists the live sessions oldest-first.
func (r *Registry) DebugInfo() []SessionDebugInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]SessionDebugInfo, 0, len(r.order))
	for _, id := range r.order {
		s, ok := r.sessions[id]
		if !ok {
			continue
		}
		s.mu.RLock()
		infos = append(infos, SessionDebugInfo{
			ID:        id,
			Elements:  len(s.elements),
			Callbacks: len(s.callbacks),
		})
		s.mu.RUnlock()
	}

	return infos
}
