package model

import (
	"context"
	"sync"
)

// Composite keeps a base snapshot's identity and attributes but replaces its
// children. It is used to graft sampled subtrees onto elements the platform
// only exposed shallowly.
type Composite struct {
	base     Snapshot
	children []Snapshot
}

// NewComposite wraps base with a replacement child list. The list is copied;
// base is never modified.
func NewComposite(base Snapshot, children []Snapshot) *Composite {
	replaced := make([]Snapshot, len(children))
	copy(replaced, children)
	return &Composite{base: base, children: replaced}
}

// Base returns the wrapped snapshot.
func (c *Composite) Base() Snapshot { return c.base }

// Identity delegates to the base snapshot.
func (c *Composite) Identity() Identity { return c.base.Identity() }

// Attributes delegates to the base snapshot.
func (c *Composite) Attributes(ctx context.Context) (Attributes, error) {
	return c.base.Attributes(ctx)
}

// Children returns the replacement children.
func (c *Composite) Children() []Snapshot { return c.children }

// Application is the tree root. It wraps the platform application snapshot
// and owns a child list assigned by the sampling engine.
type Application struct {
	base Snapshot

	mu       sync.RWMutex
	children []Snapshot
}

// NewApplication creates an application root with no children.
func NewApplication(base Snapshot) *Application {
	return &Application{base: base}
}

// Identity returns the application's identity.
func (a *Application) Identity() Identity { return a.base.Identity() }

// Attributes delegates to the application snapshot.
func (a *Application) Attributes(ctx context.Context) (Attributes, error) {
	return a.base.Attributes(ctx)
}

// Children returns a copy of the assigned children.
func (a *Application) Children() []Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Snapshot, len(a.children))
	copy(out, a.children)
	return out
}

// SetChildren replaces the application's children with a copy of children.
func (a *Application) SetChildren(children []Snapshot) {
	replaced := make([]Snapshot, len(children))
	copy(replaced, children)
	a.mu.Lock()
	a.children = replaced
	a.mu.Unlock()
}
