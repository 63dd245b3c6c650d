package attrcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

type mapReader struct {
	values map[platform.Handle]map[string]any
	err    error
	delay  time.Duration
	reads  atomic.Int64
}

func (m *mapReader) ReadAttribute(ctx context.Context, h platform.Handle, name string) (any, error) {
	m.reads.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	attrs, ok := m.values[h]
	if !ok {
		return nil, fmt.Errorf("no element %s: %w", h, platform.ErrDetached)
	}
	return attrs[name], nil
}

var okRef = platform.Ref{Handle: "h-ok", Identity: "ok"}

func newReader() *mapReader {
	return &mapReader{values: map[platform.Handle]map[string]any{
		"h-ok": {model.AttrType: "XCUIElementTypeButton", model.AttrLabel: "OK"},
	}}
}

func TestResolver_ReadsThroughCache(t *testing.T) {
	reader := newReader()
	r := NewResolver(New(Options{}), reader, []string{model.AttrType, model.AttrLabel, model.AttrValue})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		attrs, err := r.Resolve(ctx, okRef)
		if err != nil {
			t.Fatal(err)
		}
		if len(attrs) != 2 {
			t.Errorf("attrs: got %v, want type and label only", attrs)
		}
	}
	if got := reader.reads.Load(); got != 3 {
		t.Errorf("platform reads: got %d, want 3", got)
	}
}

func TestResolver_Bind(t *testing.T) {
	r := NewResolver(New(Options{}), newReader(), nil)
	el := model.NewElement(okRef.Identity, r.Bind(okRef))
	attrs, err := el.Attributes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if model.StringAttr(attrs, model.AttrLabel) != "OK" {
		t.Errorf("label: got %q", model.StringAttr(attrs, model.AttrLabel))
	}
}

func TestResolver_ErrorKinds(t *testing.T) {
	ctx := context.Background()

	r := NewResolver(New(Options{}), newReader(), nil)
	_, err := r.Resolve(ctx, platform.Ref{Handle: "gone", Identity: "gone"})
	if apperrors.CodeOf(err) != apperrors.ErrCodeElementDetached {
		t.Errorf("detached: got %v", err)
	}

	failing := newReader()
	failing.err = errors.New("xpc timeout")
	r = NewResolver(New(Options{}), failing, nil)
	_, err = r.Resolve(ctx, okRef)
	if apperrors.CodeOf(err) != apperrors.ErrCodePlatformQuery {
		t.Errorf("query failure: got %v", err)
	}
	if r.Cache().Len() != 0 {
		t.Error("failed reads must not be cached")
	}
}

func TestResolver_CollapsesConcurrentMisses(t *testing.T) {
	reader := newReader()
	reader.delay = 20 * time.Millisecond
	r := NewResolver(New(Options{}), reader, []string{model.AttrLabel})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Value(context.Background(), okRef, model.AttrLabel); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if got := reader.reads.Load(); got >= 10 {
		t.Errorf("platform reads: got %d, expected concurrent misses to share reads", got)
	}
}

func TestResolver_SharedReadOutlivesFirstCaller(t *testing.T) {
	reader := newReader()
	reader.delay = 100 * time.Millisecond
	r := NewResolver(New(Options{}), reader, []string{model.AttrLabel})

	short, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	shortErr := make(chan error, 1)
	go func() {
		_, err := r.Value(short, okRef, model.AttrLabel)
		shortErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	v, err := r.Value(context.Background(), okRef, model.AttrLabel)
	if err != nil {
		t.Fatalf("joined caller with a live context failed: %v", err)
	}
	if v != "OK" {
		t.Errorf("value: got %v, want OK", v)
	}

	err = <-shortErr
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("short caller: got %v, want its own deadline", err)
	}
	if got := reader.reads.Load(); got != 1 {
		t.Errorf("platform reads: got %d, want 1", got)
	}
	if _, ok := r.Cache().Get(okRef.Identity, model.AttrLabel); !ok {
		t.Error("shared read result was not cached")
	}
}

func TestJanitor(t *testing.T) {
	c := New(Options{Expiry: 10 * time.Millisecond})
	c.Set("a", model.AttrName, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Janitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for c.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if c.Len() != 0 {
		t.Errorf("janitor did not sweep, len %d", c.Len())
	}
}
