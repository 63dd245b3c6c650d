package platform

import (
	"context"
	"errors"
)

// Sentinel errors backends wrap so callers can classify failures.
var (
	// ErrDetached means the element vanished between discovery and read.
	ErrDetached = errors.New("element detached")
	// ErrOutOfBounds means a point lies outside the application frame.
	ErrOutOfBounds = errors.New("point out of bounds")
)

// Backend is the accessibility layer the sampler queries.
type Backend interface {
	// Application returns the root application element.
	Application(ctx context.Context) (Ref, error)

	// Frame returns the visible bounds of the application.
	Frame(ctx context.Context) (Rect, error)

	// HitTest returns the deepest element at p. A nil Hit with a nil error
	// means the point lands on empty space.
	HitTest(ctx context.Context, p Point) (*Hit, error)

	// Snapshot returns the element's subtree down to maxDepth levels below
	// it. Backends may truncate earlier than maxDepth.
	Snapshot(ctx context.Context, h Handle, maxDepth int) (*RawSnapshot, error)

	// ReadAttribute reads one attribute. A nil value means the attribute is
	// absent.
	ReadAttribute(ctx context.Context, h Handle, name string) (any, error)
}
