// Package fixture provides a file-backed accessibility backend. It serves a
// fixed element tree from YAML or WDA page-source XML so the sampler can run
// without a device.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

const handlePrefix = "fx:"

// Backend implements platform.Backend over an in-memory tree.
type Backend struct {
	mu         sync.RWMutex
	root       *Node
	byHandle   map[platform.Handle]*Node
	depthLimit int
	latency    time.Duration
	rn         any

	reads     atomic.Int64
	hitTests  atomic.Int64
	snapshots atomic.Int64
}

// New builds a backend from a decoded fixture document.
func New(f File) (*Backend, error) {
	if f.Application == nil {
		return nil, errors.New("fixture has no application element")
	}
	if f.Application.Type == "" {
		f.Application.Type = model.TypeApplication
	}
	if err := assignIdentities(f.Application); err != nil {
		return nil, err
	}
	if err := prepare(f.Application, nil); err != nil {
		return nil, err
	}
	if f.Application.rect.Empty() {
		return nil, fmt.Errorf("application %q has no frame", f.Application.identity)
	}

	b := &Backend{
		root:       f.Application,
		byHandle:   make(map[platform.Handle]*Node),
		depthLimit: f.DepthLimit,
		latency:    f.Latency,
		rn:         f.RN,
	}
	b.index(f.Application)
	return b, nil
}

func (b *Backend) index(n *Node) {
	b.byHandle[handleOf(n)] = n
	for _, c := range n.Children {
		b.index(c)
	}
}

func handleOf(n *Node) platform.Handle {
	return platform.Handle(handlePrefix + string(n.identity))
}

func refOf(n *Node) platform.Ref {
	return platform.Ref{Handle: handleOf(n), Identity: n.identity}
}

// SetDepthLimit changes the snapshot depth ceiling (0 = unlimited).
func (b *Backend) SetDepthLimit(limit int) {
	b.mu.Lock()
	b.depthLimit = limit
	b.mu.Unlock()
}

// SetLatency changes the simulated delay of hit tests and snapshots.
func (b *Backend) SetLatency(d time.Duration) {
	b.mu.Lock()
	b.latency = d
	b.mu.Unlock()
}

// Detach removes the element and its subtree. Later reads through handles
// into the removed subtree fail with platform.ErrDetached.
func (b *Backend) Detach(id model.Identity) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.byHandle[platform.Handle(handlePrefix+string(id))]
	if !ok {
		return fmt.Errorf("element %q: %w", id, platform.ErrDetached)
	}
	if n.parent == nil {
		return errors.New("cannot detach the application")
	}
	siblings := n.parent.Children
	for i, c := range siblings {
		if c == n {
			n.parent.Children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	b.unindex(n)
	return nil
}

func (b *Backend) unindex(n *Node) {
	delete(b.byHandle, handleOf(n))
	for _, c := range n.Children {
		b.unindex(c)
	}
}

// Reads returns the number of ReadAttribute calls served.
func (b *Backend) Reads() int64 { return b.reads.Load() }

// HitTests returns the number of HitTest calls served.
func (b *Backend) HitTests() int64 { return b.hitTests.Load() }

// Snapshots returns the number of Snapshot calls served.
func (b *Backend) Snapshots() int64 { return b.snapshots.Load() }

// Application returns the root element.
func (b *Backend) Application(ctx context.Context) (platform.Ref, error) {
	if err := ctx.Err(); err != nil {
		return platform.Ref{}, err
	}
	return refOf(b.root), nil
}

// Frame returns the application's frame.
func (b *Backend) Frame(ctx context.Context) (platform.Rect, error) {
	if err := ctx.Err(); err != nil {
		return platform.Rect{}, err
	}
	return b.root.rect, nil
}

// HitTest returns the deepest visible element containing p. The topmost
// sibling (last in child order) wins when siblings overlap.
func (b *Backend) HitTest(ctx context.Context, p platform.Point) (*platform.Hit, error) {
	b.hitTests.Add(1)
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.root.rect.Contains(p) {
		return nil, fmt.Errorf("hit test at %v outside %v: %w", p, b.root.rect, platform.ErrOutOfBounds)
	}

	var path []*Node
	n := b.root
	for {
		next := topmostAt(n, p)
		if next == nil {
			break
		}
		path = append(path, n)
		n = next
	}
	if n == b.root {
		return nil, nil
	}

	hit := &platform.Hit{Element: refOf(n)}
	for _, a := range path {
		hit.Ancestors = append(hit.Ancestors, refOf(a))
	}
	return hit, nil
}

func topmostAt(n *Node, p platform.Point) *Node {
	for i := len(n.Children) - 1; i >= 0; i-- {
		c := n.Children[i]
		if visible, ok := c.Attributes[model.AttrVisible].(bool); ok && !visible {
			continue
		}
		if c.rect.Contains(p) {
			return c
		}
	}
	return nil
}

// Snapshot returns the subtree below h, truncated at the smaller of maxDepth
// and the fixture's depth limit.
func (b *Backend) Snapshot(ctx context.Context, h platform.Handle, maxDepth int) (*platform.RawSnapshot, error) {
	b.snapshots.Add(1)
	if err := b.wait(ctx); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n, ok := b.byHandle[h]
	if !ok {
		return nil, fmt.Errorf("snapshot of %s: %w", h, platform.ErrDetached)
	}
	depth := maxDepth
	if b.depthLimit > 0 && b.depthLimit < depth {
		depth = b.depthLimit
	}
	return rawSnapshot(n, depth), nil
}

func rawSnapshot(n *Node, depth int) *platform.RawSnapshot {
	raw := &platform.RawSnapshot{Ref: refOf(n)}
	if depth <= 0 {
		return raw
	}
	for _, c := range n.Children {
		raw.Children = append(raw.Children, rawSnapshot(c, depth-1))
	}
	return raw
}

// ReadAttribute returns one attribute of the element behind h. Geometry comes
// from the element's frame; everything else from its attribute map.
func (b *Backend) ReadAttribute(ctx context.Context, h platform.Handle, name string) (any, error) {
	b.reads.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n, ok := b.byHandle[h]
	if !ok {
		return nil, fmt.Errorf("reading %q of %s: %w", name, h, platform.ErrDetached)
	}
	switch name {
	case model.AttrType:
		return n.Type, nil
	case model.AttrX:
		return n.rect.X, nil
	case model.AttrY:
		return n.rect.Y, nil
	case model.AttrWidth:
		return n.rect.Width, nil
	case model.AttrHeight:
		return n.rect.Height, nil
	}
	return n.Attributes[name], nil
}

// RNTree returns the React-Native tree embedded in the fixture.
func (b *Backend) RNTree(ctx context.Context) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.rn == nil {
		return nil, errors.New("fixture carries no react-native tree")
	}
	return b.rn, nil
}

func (b *Backend) wait(ctx context.Context) error {
	b.mu.RLock()
	d := b.latency
	b.mu.RUnlock()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
