package fixture

import (
	"testing"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Log in", "log-in"},
		{"  Save & Close!  ", "save-close"},
		{"already-slugged", "already-slugged"},
		{"", ""},
		{"This is a very long label that keeps going past the limit", "this-is-a-very-long-label-that-keeps-goi"},
	}
	for _, tt := range tests {
		if got := slugify(tt.input); got != tt.want {
			t.Errorf("slugify(%q): got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAssignIdentities_PathDerived(t *testing.T) {
	root := &Node{Type: model.TypeApplication, Attributes: map[string]any{"name": "Demo"}, Children: []*Node{
		{Type: "XCUIElementTypeButton", Attributes: map[string]any{"label": "OK"}},
		{Type: "XCUIElementTypeButton", Attributes: map[string]any{"label": "OK"}},
		{Type: "XCUIElementTypeStaticText"},
		{ID: "explicit", Type: "XCUIElementTypeOther"},
	}}
	if err := assignIdentities(root); err != nil {
		t.Fatal(err)
	}
	want := []model.Identity{"app:demo/btn:ok.1", "app:demo/btn:ok.2", "app:demo/txt", "explicit"}
	for i, c := range root.Children {
		if c.identity != want[i] {
			t.Errorf("child %d: got %q, want %q", i, c.identity, want[i])
		}
	}
}

func TestAssignIdentities_DuplicateExplicit(t *testing.T) {
	root := &Node{ID: "app", Children: []*Node{{ID: "x"}, {ID: "x"}}}
	if err := assignIdentities(root); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
