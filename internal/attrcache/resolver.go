package attrcache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// DefaultReadTimeout bounds one shared platform read. Callers joining the
// read stop waiting when their own context is done.
const DefaultReadTimeout = 10 * time.Second

// Reader is the platform attribute-read primitive.
type Reader interface {
	ReadAttribute(ctx context.Context, h platform.Handle, name string) (any, error)
}

// Resolver reads element attributes through a Cache. The platform is only
// queried on a miss, and concurrent misses for the same key share one read.
type Resolver struct {
	cache  *Cache
	reader Reader
	names  []string
	group  singleflight.Group

	readTimeout time.Duration
}

// NewResolver creates a resolver that resolves names for every element.
// A nil names list resolves model.StandardAttributes.
func NewResolver(cache *Cache, reader Reader, names []string) *Resolver {
	if names == nil {
		names = model.StandardAttributes
	}
	return &Resolver{cache: cache, reader: reader, names: names, readTimeout: DefaultReadTimeout}
}

// Cache returns the underlying cache.
func (r *Resolver) Cache() *Cache { return r.cache }

// Names returns the attribute names resolved per element.
func (r *Resolver) Names() []string { return r.names }

// Value returns one attribute of ref. Absent attributes are cached as nil
// so they are not re-read until they expire.
func (r *Resolver) Value(ctx context.Context, ref platform.Ref, name string) (any, error) {
	if v, ok := r.cache.Get(ref.Identity, name); ok {
		return v, nil
	}

	ch := r.group.DoChan(string(ref.Identity)+"\x00"+name, func() (any, error) {
		// Detached from the starting caller: joined callers wait on their
		// own contexts.
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.readTimeout)
		defer cancel()
		v, err := r.reader.ReadAttribute(readCtx, ref.Handle, name)
		if err != nil {
			platformReads.WithLabelValues("error").Inc()
			return nil, err
		}
		platformReads.WithLabelValues("ok").Inc()
		r.cache.Set(ref.Identity, name, v)
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, classify(ref, name, res.Err)
		}
		return res.Val, nil
	case <-ctx.Done():
		return nil, classify(ref, name, ctx.Err())
	}
}

// Resolve returns every configured attribute of ref. Absent attributes are
// left out of the map.
func (r *Resolver) Resolve(ctx context.Context, ref platform.Ref) (model.Attributes, error) {
	attrs := make(model.Attributes, len(r.names))
	for _, name := range r.names {
		v, err := r.Value(ctx, ref, name)
		if err != nil {
			return nil, err
		}
		if v != nil {
			attrs[name] = v
		}
	}
	return attrs, nil
}

// Bind returns an AttributeSource that resolves ref on demand.
func (r *Resolver) Bind(ref platform.Ref) model.AttributeSource {
	return boundSource{r: r, ref: ref}
}

type boundSource struct {
	r   *Resolver
	ref platform.Ref
}

func (b boundSource) Attributes(ctx context.Context) (model.Attributes, error) {
	return b.r.Resolve(ctx, b.ref)
}

func classify(ref platform.Ref, name string, err error) error {
	details := map[string]any{"element": string(ref.Identity), "attribute": name}
	if errors.Is(err, platform.ErrDetached) {
		return apperrors.WrapWithContext(apperrors.ErrCodeElementDetached, "element vanished", err, details)
	}
	return apperrors.WrapWithContext(apperrors.ErrCodePlatformQuery, "attribute read failed", err, details)
}
