package model

import "context"

// FilterOptions selects which descendants survive a fetch.
type FilterOptions struct {
	Types       []string // Only keep these element types (empty = all)
	VisibleOnly bool     // Drop elements whose "visible" attribute is false
}

func (o FilterOptions) empty() bool {
	return len(o.Types) == 0 && !o.VisibleOnly
}

// FilterChildren applies filters to the descendants of root. The root itself
// is always kept. Descendants that do not match are dropped, but their
// matching descendants are promoted to the nearest kept ancestor. Nodes whose
// child list changes are wrapped in a Composite; unchanged subtrees are
// returned as-is.
func FilterChildren(ctx context.Context, root Snapshot, opts FilterOptions) (Snapshot, error) {
	if opts.empty() {
		return root, nil
	}
	typeSet := make(map[string]bool, len(opts.Types))
	for _, t := range opts.Types {
		typeSet[t] = true
	}

	kids, changed, err := filterList(ctx, root.Children(), typeSet, opts.VisibleOnly)
	if err != nil {
		return nil, err
	}
	if !changed {
		return root, nil
	}
	return NewComposite(root, kids), nil
}

// filterList filters a sibling list, returning the surviving snapshots and
// whether anything differs from the input.
func filterList(ctx context.Context, list []Snapshot, types map[string]bool, visibleOnly bool) ([]Snapshot, bool, error) {
	var result []Snapshot
	changed := false
	for _, s := range list {
		// Recursively filter children first
		kids, kidsChanged, err := filterList(ctx, s.Children(), types, visibleOnly)
		if err != nil {
			return nil, false, err
		}

		attrs, err := s.Attributes(ctx)
		if err != nil {
			return nil, false, err
		}
		typeMatch := len(types) == 0 || types[StringAttr(attrs, AttrType)]
		visibleMatch := !visibleOnly || BoolAttr(attrs, AttrVisible, true)

		switch {
		case typeMatch && visibleMatch && !kidsChanged:
			result = append(result, s)
		case typeMatch && visibleMatch:
			result = append(result, NewComposite(s, kids))
			changed = true
		default:
			// Element doesn't match, but its matching descendants are promoted
			result = append(result, kids...)
			changed = true
		}
	}
	return result, changed, nil
}
