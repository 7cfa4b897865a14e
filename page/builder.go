// Package page builds the dashboard in two phases: tile markup is
// accumulated and shipped to the client in one round trip, then deferred
// actions wire up interactivity against the live session. Event handlers are
// addressed by stable element IDs so no per-element round trip is needed.
package page

import (
	"github.com/chasefleming/elem-go"
)

// Builder accumulates the tiles and deferred wiring actions for one page
// build. It is a sequential accumulator scoped to one render call and is not
// safe for concurrent use.
type Builder struct {
	tiles   []elem.Node
	actions []func()
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddTile appends one self-contained HTML fragment to the page.
func (b *Builder) AddTile(tile elem.Node) {
	b.tiles = append(b.tiles, tile)
}

// AddAction defers a registration step until the page markup is live in the
// client session.
func (b *Builder) AddAction(fn func()) {
	b.actions = append(b.actions, fn)
}

// Tiles returns the accumulated fragments in the order they were added.
func (b *Builder) Tiles() []elem.Node {
	return b.tiles
}

// RunActions executes every deferred action in the order it was added. Run
// once, after the rendered page has been handed to the client.
func (b *Builder) RunActions() {
	for _, fn := range b.actions {
		fn()
	}
}
