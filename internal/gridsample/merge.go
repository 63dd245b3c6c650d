package gridsample

import (
	"time"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// mergeNode is one element placed in the tree under construction.
type mergeNode struct {
	ref      platform.Ref
	base     *model.Element
	parent   *mergeNode
	depth    int
	children []*mergeNode
	// expanded is set once the node's children were listed by a snapshot.
	expanded bool
}

// runState is the mutable state of one sampling run. It is owned by the
// run's sequential loop and never shared.
type runState struct {
	startTime           time.Time
	iterationCount      int
	processedIdentities map[model.Identity]bool
	nodes               map[model.Identity]*mergeNode
	root                *mergeNode
	maxTreeDepth        int
}

func newRunState(app platform.Ref, base *model.Element, maxTreeDepth int) *runState {
	root := &mergeNode{ref: app, base: base}
	return &runState{
		startTime:           time.Now(),
		processedIdentities: map[model.Identity]bool{app.Identity: true},
		nodes:               map[model.Identity]*mergeNode{app.Identity: root},
		root:                root,
		maxTreeDepth:        maxTreeDepth,
	}
}

func (s *runState) known(id model.Identity) bool {
	_, ok := s.nodes[id]
	return ok
}

// place creates a node for ref under parent. Nodes deeper than the tree
// depth limit are dropped and nil is returned.
func (s *runState) place(parent *mergeNode, ref platform.Ref, base *model.Element) *mergeNode {
	depth := parent.depth + 1
	if depth > s.maxTreeDepth {
		return nil
	}
	n := &mergeNode{ref: ref, base: base, parent: parent, depth: depth}
	parent.children = append(parent.children, n)
	s.nodes[ref.Identity] = n
	return n
}

// graft merges one probe into the tree: ancestors not yet known are chained
// under the nearest known one, then the hit subtree is attached below them.
// Existing nodes are never moved. elements supplies the base snapshot for
// every identity the probe introduced. It returns the number of new nodes.
func (s *runState) graft(ancestors []platform.Ref, raw *platform.RawSnapshot, elements map[model.Identity]*model.Element) int {
	before := len(s.nodes)

	anchor := s.root
	for _, a := range ancestors {
		if n, ok := s.nodes[a.Identity]; ok {
			anchor = n
			continue
		}
		n := s.place(anchor, a, elements[a.Identity])
		if n == nil {
			return len(s.nodes) - before
		}
		anchor = n
	}

	hit, ok := s.nodes[raw.Identity]
	if !ok {
		hit = s.place(anchor, raw.Ref, elements[raw.Identity])
		if hit == nil {
			return len(s.nodes) - before
		}
	}
	s.expand(hit, raw, elements)
	s.processedIdentities[hit.ref.Identity] = true
	return len(s.nodes) - before
}

// expand attaches the children listed in raw to n. Children keep the
// platform's order; children n already had from other probes follow them.
// Raw nodes that list children are expanded recursively and marked
// processed; leaves of the snapshot stay known but unprocessed so a later
// direct hit can reach below them.
func (s *runState) expand(n *mergeNode, raw *platform.RawSnapshot, elements map[model.Identity]*model.Element) {
	if len(raw.Children) == 0 {
		return
	}

	listed := make(map[*mergeNode]bool, len(raw.Children))
	var ordered []*mergeNode
	for _, rc := range raw.Children {
		child, ok := s.nodes[rc.Identity]
		if !ok {
			child = s.place(n, rc.Ref, elements[rc.Identity])
			if child == nil {
				continue
			}
		}
		if child.parent != n {
			// First placement wins.
			continue
		}
		if !listed[child] {
			listed[child] = true
			ordered = append(ordered, child)
		}
		if len(rc.Children) > 0 && !child.expanded {
			s.expand(child, rc, elements)
			s.processedIdentities[child.ref.Identity] = true
		}
	}
	for _, c := range n.children {
		if !listed[c] {
			ordered = append(ordered, c)
		}
	}
	n.children = ordered
	n.expanded = true
}

// assemble converts the merge tree into snapshots.
func (s *runState) assemble() *model.Application {
	app := model.NewApplication(s.root.base)
	app.SetChildren(snapshots(s.root.children))
	return app
}

func snapshots(nodes []*mergeNode) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(nodes))
	for _, n := range nodes {
		if len(n.children) == 0 {
			out = append(out, n.base)
			continue
		}
		out = append(out, model.NewComposite(n.base, snapshots(n.children)))
	}
	return out
}

// collectFresh returns the refs in a probe that the tree does not know yet.
func (s *runState) collectFresh(ancestors []platform.Ref, raw *platform.RawSnapshot) []platform.Ref {
	var fresh []platform.Ref
	seen := make(map[model.Identity]bool)
	add := func(r platform.Ref) {
		if s.known(r.Identity) || seen[r.Identity] {
			return
		}
		seen[r.Identity] = true
		fresh = append(fresh, r)
	}
	for _, a := range ancestors {
		add(a)
	}
	var walk func(r *platform.RawSnapshot)
	walk = func(r *platform.RawSnapshot) {
		add(r.Ref)
		for _, c := range r.Children {
			walk(c)
		}
	}
	walk(raw)
	return fresh
}
