package model

import (
	"context"
	"errors"
	"testing"
)

func sampleTree() *Application {
	ok := leaf("ok", "XCUIElementTypeButton")
	title := leaf("title", "XCUIElementTypeStaticText")
	nav := leaf("nav", "XCUIElementTypeNavigationBar", title)
	win := leaf("win", "XCUIElementTypeWindow", nav, ok)
	app := NewApplication(leaf("app", TypeApplication))
	app.SetChildren([]Snapshot{win})
	return app
}

func TestFlatten_Paths(t *testing.T) {
	flat, err := Flatten(context.Background(), sampleTree())
	if err != nil {
		t.Fatal(err)
	}
	want := []struct {
		id     Identity
		parent Identity
		depth  int
		path   string
	}{
		{"app", "", 0, "app"},
		{"win", "app", 1, "app > window"},
		{"nav", "win", 2, "app > window > nav"},
		{"title", "nav", 3, "app > window > nav > txt"},
		{"ok", "win", 2, "app > window > btn"},
	}
	if len(flat) != len(want) {
		t.Fatalf("expected %d elements, got %d", len(want), len(flat))
	}
	for i, w := range want {
		got := flat[i]
		if got.Identity != w.id || got.Parent != w.parent || got.Depth != w.depth || got.Path != w.path {
			t.Errorf("element %d: got {%s %s %d %q}, want {%s %s %d %q}",
				i, got.Identity, got.Parent, got.Depth, got.Path, w.id, w.parent, w.depth, w.path)
		}
	}
	if flat[4].Name != "ok" {
		t.Errorf("name: got %q, want %q", flat[4].Name, "ok")
	}
}

func TestFlatten_AttributeError(t *testing.T) {
	bad := NewElement("bad", &countingSource{fail: 10})
	app := NewApplication(leaf("app", TypeApplication))
	app.SetChildren([]Snapshot{bad})
	if _, err := Flatten(context.Background(), app); err == nil {
		t.Fatal("expected error from failing attribute source")
	}
}

func TestCountAndDuplicates(t *testing.T) {
	tree := sampleTree()
	if got := Count(tree); got != 5 {
		t.Errorf("Count: got %d, want 5", got)
	}
	if dups := Duplicates(tree); len(dups) != 0 {
		t.Errorf("Duplicates: got %v, want none", dups)
	}

	shared := leaf("x", "XCUIElementTypeCell")
	app := NewApplication(leaf("app", TypeApplication))
	app.SetChildren([]Snapshot{leaf("a", "XCUIElementTypeOther", shared), leaf("b", "XCUIElementTypeOther", shared)})
	dups := Duplicates(app)
	if len(dups) != 1 || dups[0] != "x" {
		t.Errorf("Duplicates: got %v, want [x]", dups)
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	visited := 0
	err := Walk(sampleTree(), func(s Snapshot, _ int) error {
		visited++
		if s.Identity() == "nav" {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected stop error, got %v", err)
	}
	if visited != 3 {
		t.Errorf("visited: got %d, want 3", visited)
	}
}

func TestWalk_DetectsCycle(t *testing.T) {
	app := NewApplication(leaf("app", TypeApplication))
	app.SetChildren([]Snapshot{app})
	if err := Walk(app, func(Snapshot, int) error { return nil }); err == nil {
		t.Fatal("expected cycle error")
	}
}
