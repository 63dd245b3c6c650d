package gridsample

import (
	"context"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// FetchParams controls a full point fetch.
type FetchParams struct {
	MaxDepth    int      // Depth bound below the hit element (0 = hit element only)
	Types       []string // Only keep descendants of these types (empty = all)
	VisibleOnly bool     // Drop invisible descendants
}

// SkeletonParams controls a skeleton fetch. MaxDepth is clamped to 0 or 1.
type SkeletonParams struct {
	MaxDepth int
}

// FetchResult is delivered exactly once by the async fetch variants. One of
// Snapshot and Err is set, never both.
type FetchResult struct {
	Snapshot model.Snapshot
	Err      error
}

// FetchAt hit-tests pt and returns the subtree rooted at the hit element,
// truncated at params.MaxDepth and filtered by params. A point on empty
// space returns the application element.
func (e *Engine) FetchAt(ctx context.Context, pt platform.Point, params FetchParams) (model.Snapshot, error) {
	if params.MaxDepth < 0 {
		return nil, apperrors.NewWithContext(apperrors.ErrCodeInvalidConfig, "max depth must not be negative",
			map[string]any{"max_depth": params.MaxDepth})
	}
	ctx, span := startFetchSpan(ctx, "gridsample.FetchAt", pt, params.MaxDepth)
	defer span.End()

	snap, err := e.fetch(ctx, pt, params.MaxDepth)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return model.FilterChildren(ctx, snap, model.FilterOptions{
		Types:       params.Types,
		VisibleOnly: params.VisibleOnly,
	})
}

// FetchSkeletonAt identifies the element at pt with its attributes and at
// most one level of children.
func (e *Engine) FetchSkeletonAt(ctx context.Context, pt platform.Point, params SkeletonParams) (model.Snapshot, error) {
	depth := 0
	if params.MaxDepth >= 1 {
		depth = 1
	}
	ctx, span := startFetchSpan(ctx, "gridsample.FetchSkeletonAt", pt, depth)
	defer span.End()

	snap, err := e.fetch(ctx, pt, depth)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return snap, nil
}

// FetchAsync runs FetchAt in a goroutine. The channel receives exactly one
// result and is then closed.
func (e *Engine) FetchAsync(ctx context.Context, pt platform.Point, params FetchParams) <-chan FetchResult {
	return async(func() (model.Snapshot, error) { return e.FetchAt(ctx, pt, params) })
}

// FetchSkeletonAsync runs FetchSkeletonAt in a goroutine. The channel
// receives exactly one result and is then closed.
func (e *Engine) FetchSkeletonAsync(ctx context.Context, pt platform.Point, params SkeletonParams) <-chan FetchResult {
	return async(func() (model.Snapshot, error) { return e.FetchSkeletonAt(ctx, pt, params) })
}

func async(fn func() (model.Snapshot, error)) <-chan FetchResult {
	ch := make(chan FetchResult, 1)
	go func() {
		defer close(ch)
		snap, err := fn()
		if err != nil {
			ch <- FetchResult{Err: err}
			return
		}
		ch <- FetchResult{Snapshot: snap}
	}()
	return ch
}

func (e *Engine) fetch(ctx context.Context, pt platform.Point, depth int) (model.Snapshot, error) {
	hit, err := e.backend.HitTest(ctx, pt)
	if err != nil {
		return nil, classify(err, "hit test", pt)
	}
	var target platform.Ref
	if hit == nil {
		target, err = e.backend.Application(ctx)
		if err != nil {
			return nil, classify(err, "resolving application", pt)
		}
	} else {
		target = hit.Element
	}

	raw, err := e.backend.Snapshot(ctx, target.Handle, depth)
	if err != nil {
		return nil, classify(err, "snapshot", pt)
	}
	snap := e.build(raw)
	if _, err := snap.Attributes(ctx); err != nil {
		return nil, classify(err, "reading attributes", pt)
	}
	return snap, nil
}

// build converts a raw platform snapshot into element snapshots bound to
// the resolver.
func (e *Engine) build(raw *platform.RawSnapshot) *model.Element {
	children := make([]model.Snapshot, 0, len(raw.Children))
	for _, c := range raw.Children {
		children = append(children, e.build(c))
	}
	return model.NewElement(raw.Identity, e.resolver.Bind(raw.Ref), children...)
}
