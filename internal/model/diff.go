package model

import (
	"context"
	"fmt"
	"sort"
)

// Move records an element whose parent differs between two trees.
type Move struct {
	Identity Identity `yaml:"id"   json:"id"`
	From     Identity `yaml:"from" json:"from"`
	To       Identity `yaml:"to"   json:"to"`
}

// AttributeChange records attribute values that differ for one element.
type AttributeChange struct {
	Identity Identity             `yaml:"id"      json:"id"`
	Changes  map[string][2]string `yaml:"changes" json:"changes"`
}

// TreeDiff is the result of comparing two snapshot trees by identity.
type TreeDiff struct {
	Added          []FlatElement     `yaml:"added,omitempty"   json:"added,omitempty"`
	Removed        []FlatElement     `yaml:"removed,omitempty" json:"removed,omitempty"`
	Moved          []Move            `yaml:"moved,omitempty"   json:"moved,omitempty"`
	Changed        []AttributeChange `yaml:"changed,omitempty" json:"changed,omitempty"`
	Reordered      []Identity        `yaml:"reordered,omitempty" json:"reordered,omitempty"`
	UnchangedCount int               `yaml:"unchanged_count"   json:"unchanged_count"`
}

// Empty reports whether the two trees had identical topology and attributes.
func (d TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0 &&
		len(d.Changed) == 0 && len(d.Reordered) == 0
}

// DiffTrees compares two snapshot trees. Elements are matched by identity,
// which is stable across reads, so shifted positions show up as moves
// rather than add/remove pairs.
func DiffTrees(ctx context.Context, prev, curr Snapshot) (TreeDiff, error) {
	prevFlat, err := Flatten(ctx, prev)
	if err != nil {
		return TreeDiff{}, err
	}
	currFlat, err := Flatten(ctx, curr)
	if err != nil {
		return TreeDiff{}, err
	}

	prevByID := make(map[Identity]FlatElement, len(prevFlat))
	for _, el := range prevFlat {
		prevByID[el.Identity] = el
	}
	currByID := make(map[Identity]FlatElement, len(currFlat))
	for _, el := range currFlat {
		currByID[el.Identity] = el
	}

	var diff TreeDiff
	for _, el := range currFlat {
		prevEl, existed := prevByID[el.Identity]
		if !existed {
			diff.Added = append(diff.Added, el)
			continue
		}
		unchanged := true
		if prevEl.Parent != el.Parent {
			diff.Moved = append(diff.Moved, Move{Identity: el.Identity, From: prevEl.Parent, To: el.Parent})
			unchanged = false
		}
		if changes := diffAttributes(prevEl.Attrs, el.Attrs); len(changes) > 0 {
			diff.Changed = append(diff.Changed, AttributeChange{Identity: el.Identity, Changes: changes})
			unchanged = false
		}
		if unchanged {
			diff.UnchangedCount++
		}
	}

	for _, el := range prevFlat {
		if _, exists := currByID[el.Identity]; !exists {
			diff.Removed = append(diff.Removed, el)
		}
	}

	diff.Reordered = reorderedParents(prev, curr)
	return diff, nil
}

// diffAttributes compares two attribute maps by rendered value.
func diffAttributes(prev, curr Attributes) map[string][2]string {
	keys := make(map[string]bool, len(prev)+len(curr))
	for k := range prev {
		keys[k] = true
	}
	for k := range curr {
		keys[k] = true
	}

	diffs := make(map[string][2]string)
	for k := range keys {
		a, b := renderValue(prev[k]), renderValue(curr[k])
		if a != b {
			diffs[k] = [2]string{a, b}
		}
	}
	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

func renderValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// reorderedParents returns identities present in both trees whose children
// appear in a different relative order.
func reorderedParents(prev, curr Snapshot) []Identity {
	order := func(root Snapshot) map[Identity][]Identity {
		m := make(map[Identity][]Identity)
		_ = Walk(root, func(s Snapshot, _ int) error {
			for _, c := range s.Children() {
				m[s.Identity()] = append(m[s.Identity()], c.Identity())
			}
			return nil
		})
		return m
	}
	prevOrder, currOrder := order(prev), order(curr)

	var out []Identity
	for id, currKids := range currOrder {
		prevKids, ok := prevOrder[id]
		if !ok {
			continue
		}
		if !sameRelativeOrder(prevKids, currKids) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sameRelativeOrder compares the order of identities present in both lists.
func sameRelativeOrder(a, b []Identity) bool {
	inB := make(map[Identity]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	inA := make(map[Identity]bool, len(a))
	for _, id := range a {
		inA[id] = true
	}
	var ca, cb []Identity
	for _, id := range a {
		if inB[id] {
			ca = append(ca, id)
		}
	}
	for _, id := range b {
		if inA[id] {
			cb = append(cb, id)
		}
	}
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}
