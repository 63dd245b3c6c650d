package model

import (
	"context"
	"sync"
)

// Identity is the stable token the platform assigns to a UI element. Two
// reads of the same on-screen element must yield equal identities; the merge
// and the attribute cache are both keyed by it.
type Identity string

// Attributes maps attribute names to scalar values (string, bool, integer
// or float). A nil value means the platform reported no value.
type Attributes map[string]any

// Snapshot is an immutable view of one element and its children.
type Snapshot interface {
	Identity() Identity
	// Attributes resolves the element's attributes, reading through the
	// attribute cache.
	Attributes(ctx context.Context) (Attributes, error)
	// Children returns the ordered child snapshots. Order is merge and
	// traversal order, not z-order. Callers must not modify the slice.
	Children() []Snapshot
}

// AttributeSource loads the attributes of a single element.
type AttributeSource interface {
	Attributes(ctx context.Context) (Attributes, error)
}

// StaticAttributes is an AttributeSource over a fixed map.
type StaticAttributes Attributes

// Attributes returns the map as-is.
func (s StaticAttributes) Attributes(context.Context) (Attributes, error) {
	return Attributes(s), nil
}

// Element is the leaf variant: it wraps one raw platform snapshot and
// exposes the children the platform returned with it.
type Element struct {
	id       Identity
	source   AttributeSource
	children []Snapshot

	mu     sync.Mutex
	attrs  Attributes
	loaded bool
}

// NewElement creates a leaf snapshot. Attributes are loaded from source on
// first use and memoized for the lifetime of the snapshot.
func NewElement(id Identity, source AttributeSource, children ...Snapshot) *Element {
	return &Element{
		id:       id,
		source:   source,
		children: children,
	}
}

// Identity returns the element identity.
func (e *Element) Identity() Identity { return e.id }

// Children returns the children exposed by the platform.
func (e *Element) Children() []Snapshot { return e.children }

// Attributes returns the element's attributes, loading them on first call.
// A failed load is not memoized.
func (e *Element) Attributes(ctx context.Context) (Attributes, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.loaded {
		return e.attrs, nil
	}
	if e.source == nil {
		e.attrs = Attributes{}
		e.loaded = true
		return e.attrs, nil
	}
	attrs, err := e.source.Attributes(ctx)
	if err != nil {
		return nil, err
	}
	e.attrs = attrs
	e.loaded = true
	return attrs, nil
}
