package attrcache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	if c.MaxSize() != DefaultMaxSize {
		t.Errorf("max size: got %d, want %d", c.MaxSize(), DefaultMaxSize)
	}
	if c.Expiry() != DefaultExpiry {
		t.Errorf("expiry: got %v, want %v", c.Expiry(), DefaultExpiry)
	}
}

func TestCache_SetGet(t *testing.T) {
	c := New(Options{})
	c.Set("btn", model.AttrLabel, "OK")

	v, ok := c.Get("btn", model.AttrLabel)
	if !ok || v != "OK" {
		t.Errorf("Get: got %v %v, want OK true", v, ok)
	}
	if _, ok := c.Get("btn", model.AttrValue); ok {
		t.Error("Get of other attribute should miss")
	}
	if _, ok := c.Get("other", model.AttrLabel); ok {
		t.Error("Get of other element should miss")
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 2 || st.Size != 1 {
		t.Errorf("stats: got %+v", st)
	}
}

func TestCache_NilValueIsCached(t *testing.T) {
	c := New(Options{})
	c.Set("btn", model.AttrValue, nil)
	v, ok := c.Get("btn", model.AttrValue)
	if !ok || v != nil {
		t.Errorf("Get: got %v %v, want nil true", v, ok)
	}
}

func TestCache_BoundEvictsOldestInsertion(t *testing.T) {
	c := New(Options{MaxSize: 3})
	for i := 0; i < 10; i++ {
		c.Set(model.Identity(fmt.Sprintf("e%d", i)), model.AttrName, i)
		if c.Len() > 3 {
			t.Fatalf("after insert %d: len %d exceeds bound", i, c.Len())
		}
	}
	for i := 0; i < 7; i++ {
		if _, ok := c.Get(model.Identity(fmt.Sprintf("e%d", i)), model.AttrName); ok {
			t.Errorf("e%d should have been evicted", i)
		}
	}
	for i := 7; i < 10; i++ {
		if _, ok := c.Get(model.Identity(fmt.Sprintf("e%d", i)), model.AttrName); !ok {
			t.Errorf("e%d should still be cached", i)
		}
	}
	if got := c.Stats().Evictions; got != 7 {
		t.Errorf("evictions: got %d, want 7", got)
	}
}

func TestCache_OverwriteRefreshesInsertion(t *testing.T) {
	c := New(Options{MaxSize: 2})
	c.Set("a", model.AttrName, 1)
	c.Set("b", model.AttrName, 2)
	c.Set("a", model.AttrName, 3) // a is now newest
	c.Set("c", model.AttrName, 4) // evicts b

	if _, ok := c.Get("b", model.AttrName); ok {
		t.Error("b should have been evicted")
	}
	if v, ok := c.Get("a", model.AttrName); !ok || v != 3 {
		t.Errorf("a: got %v %v, want 3 true", v, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Expiry: time.Second, Now: clock.Now})
	c.Set("btn", model.AttrLabel, "OK")

	clock.Advance(999 * time.Millisecond)
	if _, ok := c.Get("btn", model.AttrLabel); !ok {
		t.Fatal("entry should be live before expiry")
	}
	clock.Advance(2 * time.Millisecond)
	if _, ok := c.Get("btn", model.AttrLabel); ok {
		t.Fatal("entry should read as absent after expiry")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed on access, len %d", c.Len())
	}
	if got := c.Stats().Expirations; got != 1 {
		t.Errorf("expirations: got %d, want 1", got)
	}
}

func TestCache_ExpiryWithRealClock(t *testing.T) {
	c := New(Options{Expiry: 20 * time.Millisecond})
	c.Set("btn", model.AttrLabel, "OK")
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("btn", model.AttrLabel); ok {
		t.Error("entry should have expired")
	}
}

func TestCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Expiry: time.Second, Now: clock.Now})
	c.Set("old1", model.AttrName, 1)
	c.Set("old2", model.AttrName, 2)
	clock.Advance(600 * time.Millisecond)
	c.Set("new", model.AttrName, 3)
	clock.Advance(500 * time.Millisecond)

	if removed := c.Sweep(); removed != 2 {
		t.Errorf("Sweep: got %d, want 2", removed)
	}
	if c.Len() != 1 {
		t.Errorf("len after sweep: got %d, want 1", c.Len())
	}
}

func TestCache_SetMaxSizeShrinks(t *testing.T) {
	c := New(Options{MaxSize: 10})
	for i := 0; i < 10; i++ {
		c.Set(model.Identity(fmt.Sprintf("e%d", i)), model.AttrName, i)
	}
	if err := c.SetMaxSize(4); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 4 || c.MaxSize() != 4 {
		t.Errorf("after shrink: len %d max %d, want 4 4", c.Len(), c.MaxSize())
	}
	if _, ok := c.Get("e9", model.AttrName); !ok {
		t.Error("newest entry should survive shrink")
	}

	err := c.SetMaxSize(0)
	if apperrors.CodeOf(err) != apperrors.ErrCodeInvalidConfig {
		t.Errorf("SetMaxSize(0): got %v, want INVALID_CONFIG", err)
	}
}

func TestCache_SetExpiry(t *testing.T) {
	clock := newFakeClock()
	c := New(Options{Expiry: time.Minute, Now: clock.Now})
	c.Set("btn", model.AttrName, "x")
	clock.Advance(2 * time.Second)

	if err := c.SetExpiry(time.Second); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("btn", model.AttrName); ok {
		t.Error("shorter expiry should apply to existing entries")
	}
	if err := c.SetExpiry(0); apperrors.CodeOf(err) != apperrors.ErrCodeInvalidConfig {
		t.Errorf("SetExpiry(0): got %v, want INVALID_CONFIG", err)
	}
}

func TestCache_ClearAndClearElement(t *testing.T) {
	c := New(Options{})
	c.Set("a", model.AttrName, "a")
	c.Set("a", model.AttrLabel, "A")
	c.Set("b", model.AttrName, "b")

	if n := c.ClearElement("a"); n != 2 {
		t.Errorf("ClearElement: got %d, want 2", n)
	}
	if _, ok := c.Get("b", model.AttrName); !ok {
		t.Error("ClearElement removed another element's entry")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("len after Clear: got %d", c.Len())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(Options{MaxSize: 50})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				id := model.Identity(fmt.Sprintf("e%d", (g*500+i)%120))
				c.Set(id, model.AttrName, i)
				c.Get(id, model.AttrName)
				if i%100 == 0 {
					c.Sweep()
					c.ClearElement(id)
				}
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 50 {
		t.Errorf("len %d exceeds bound after concurrent use", c.Len())
	}
}
