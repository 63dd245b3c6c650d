// Package rntree retrieves React-Native component trees, either from an
// in-process inspector or from a small HTTP server embedded in the app.
package rntree

import (
	"context"
	"fmt"
	"sort"
)

// ChildrenKey is the key holding a node's child list in decoded JSON.
const ChildrenKey = "children"

// Node is a generic attribute/children tree.
type Node struct {
	Attributes map[string]any `yaml:"attributes"         json:"attributes"`
	Children   []*Node        `yaml:"children,omitempty" json:"children,omitempty"`
}

// Inspector produces the RN tree of a running application in-process.
type Inspector interface {
	RNTree(ctx context.Context) (any, error)
}

// FromMap converts decoded JSON into a tree. A top-level {"value": ...} or
// {"tree": ...} envelope is unwrapped first.
func FromMap(v any) (*Node, error) {
	return fromValue(unwrap(v), "$")
}

func unwrap(v any) any {
	for {
		m, ok := v.(map[string]any)
		if !ok || len(m) != 1 {
			return v
		}
		inner, ok := m["value"]
		if !ok {
			inner, ok = m["tree"]
		}
		if !ok {
			return v
		}
		if _, isMap := inner.(map[string]any); !isMap {
			return v
		}
		v = inner
	}
}

func fromValue(v any, path string) (*Node, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %T", path, v)
	}
	n := &Node{Attributes: make(map[string]any, len(m))}
	for k, val := range m {
		if k == ChildrenKey {
			continue
		}
		n.Attributes[k] = val
	}

	raw, ok := m[ChildrenKey]
	if !ok || raw == nil {
		return n, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s.%s: expected array, got %T", path, ChildrenKey, raw)
	}
	for i, c := range list {
		child, err := fromValue(c, fmt.Sprintf("%s.%s[%d]", path, ChildrenKey, i))
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// Count returns the number of nodes in the tree.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Keys returns the node's attribute names in sorted order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
