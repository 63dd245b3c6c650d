package model

import (
	"context"
	"fmt"
)

// FlatElement is a snapshot node with a path breadcrumb instead of children.
type FlatElement struct {
	Identity Identity   `yaml:"id"               json:"id"`
	Parent   Identity   `yaml:"parent,omitempty" json:"parent,omitempty"`
	Type     string     `yaml:"type"             json:"type"`
	Name     string     `yaml:"name,omitempty"   json:"name,omitempty"`
	Label    string     `yaml:"label,omitempty"  json:"label,omitempty"`
	Depth    int        `yaml:"depth"            json:"depth"`
	Path     string     `yaml:"path"             json:"path"`
	Attrs    Attributes `yaml:"-"                json:"-"`
}

// Walk visits root and its descendants depth-first in child order. Returning
// an error from fn stops the walk.
func Walk(root Snapshot, fn func(s Snapshot, depth int) error) error {
	var walk func(s Snapshot, depth int, onPath map[Identity]bool) error
	walk = func(s Snapshot, depth int, onPath map[Identity]bool) error {
		id := s.Identity()
		if onPath[id] {
			return fmt.Errorf("cycle at element %q", id)
		}
		if err := fn(s, depth); err != nil {
			return err
		}
		onPath[id] = true
		for _, child := range s.Children() {
			if err := walk(child, depth+1, onPath); err != nil {
				return err
			}
		}
		delete(onPath, id)
		return nil
	}
	return walk(root, 0, make(map[Identity]bool))
}

// Count returns the number of nodes in the tree.
func Count(root Snapshot) int {
	n := 0
	_ = Walk(root, func(Snapshot, int) error {
		n++
		return nil
	})
	return n
}

// Identities returns every identity in the tree in walk order, including
// repeats.
func Identities(root Snapshot) []Identity {
	var ids []Identity
	_ = Walk(root, func(s Snapshot, _ int) error {
		ids = append(ids, s.Identity())
		return nil
	})
	return ids
}

// Duplicates returns identities that occur more than once in the tree.
func Duplicates(root Snapshot) []Identity {
	seen := make(map[Identity]int)
	var dups []Identity
	for _, id := range Identities(root) {
		seen[id]++
		if seen[id] == 2 {
			dups = append(dups, id)
		}
	}
	return dups
}

// Flatten converts a snapshot tree into a flat list. Each element gets a
// path string built from compact type codes joined with " > ".
func Flatten(ctx context.Context, root Snapshot) ([]FlatElement, error) {
	var result []FlatElement
	if err := flattenRecursive(ctx, root, "", "", 0, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func flattenRecursive(ctx context.Context, s Snapshot, parent Identity, parentPath string, depth int, result *[]FlatElement) error {
	attrs, err := s.Attributes(ctx)
	if err != nil {
		return fmt.Errorf("attributes of %q: %w", s.Identity(), err)
	}
	elementType := StringAttr(attrs, AttrType)
	currentPath := ShortType(elementType)
	if parentPath != "" {
		currentPath = parentPath + " > " + currentPath
	}

	*result = append(*result, FlatElement{
		Identity: s.Identity(),
		Parent:   parent,
		Type:     elementType,
		Name:     StringAttr(attrs, AttrName),
		Label:    StringAttr(attrs, AttrLabel),
		Depth:    depth,
		Path:     currentPath,
		Attrs:    attrs,
	})

	for _, child := range s.Children() {
		if err := flattenRecursive(ctx, child, s.Identity(), currentPath, depth+1, result); err != nil {
			return err
		}
	}
	return nil
}
