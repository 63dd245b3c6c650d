package output

import (
	"context"
	"fmt"
	"time"

	"github.com/abhinvv1/WebDriverAgent/internal/gridsample"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

// Node is the printable form of a snapshot tree.
type Node struct {
	ID       model.Identity `yaml:"id"                 json:"id"`
	Type     string         `yaml:"type"               json:"type"`
	Name     string         `yaml:"name,omitempty"     json:"name,omitempty"`
	Label    string         `yaml:"label,omitempty"    json:"label,omitempty"`
	Value    string         `yaml:"value,omitempty"    json:"value,omitempty"`
	Bounds   [4]float64     `yaml:"bounds,flow"        json:"bounds"`
	Disabled bool           `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Hidden   bool           `yaml:"hidden,omitempty"   json:"hidden,omitempty"`
	Extra    map[string]any `yaml:"extra,omitempty"    json:"extra,omitempty"`
	Children []Node         `yaml:"children,omitempty" json:"children,omitempty"`
}

var shownAttributes = map[string]bool{
	model.AttrType: true, model.AttrName: true, model.AttrLabel: true, model.AttrValue: true,
	model.AttrEnabled: true, model.AttrVisible: true,
	model.AttrX: true, model.AttrY: true, model.AttrWidth: true, model.AttrHeight: true,
}

// TreeOf converts a snapshot tree into printable nodes.
func TreeOf(ctx context.Context, s model.Snapshot) (Node, error) {
	attrs, err := s.Attributes(ctx)
	if err != nil {
		return Node{}, fmt.Errorf("attributes of %q: %w", s.Identity(), err)
	}
	n := Node{
		ID:       s.Identity(),
		Type:     model.StringAttr(attrs, model.AttrType),
		Name:     model.StringAttr(attrs, model.AttrName),
		Label:    model.StringAttr(attrs, model.AttrLabel),
		Disabled: !model.BoolAttr(attrs, model.AttrEnabled, true),
		Hidden:   !model.BoolAttr(attrs, model.AttrVisible, true),
	}
	if v := attrs[model.AttrValue]; v != nil {
		n.Value = fmt.Sprint(v)
	}
	for i, name := range []string{model.AttrX, model.AttrY, model.AttrWidth, model.AttrHeight} {
		n.Bounds[i], _ = model.NumberAttr(attrs, name)
	}
	for name, v := range attrs {
		if shownAttributes[name] || v == nil {
			continue
		}
		if n.Extra == nil {
			n.Extra = make(map[string]any)
		}
		n.Extra[name] = v
	}
	for _, c := range s.Children() {
		child, err := TreeOf(ctx, c)
		if err != nil {
			return Node{}, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

// GridResult is the output of the `grid` command.
type GridResult struct {
	RunID      string              `yaml:"run_id"                json:"run_id"`
	Status     gridsample.Status   `yaml:"status"                json:"status"`
	StopReason string              `yaml:"stop_reason,omitempty" json:"stop_reason,omitempty"`
	Points     int                 `yaml:"points"                json:"points"`
	Iterations int                 `yaml:"iterations"            json:"iterations"`
	Hits       int                 `yaml:"hits"                  json:"hits"`
	Misses     int                 `yaml:"misses"                json:"misses"`
	Duplicates int                 `yaml:"duplicates"            json:"duplicates"`
	Failures   map[string]int      `yaml:"failures,omitempty"    json:"failures,omitempty"`
	Nodes      int                 `yaml:"nodes"                 json:"nodes"`
	ElapsedMS  int64               `yaml:"elapsed_ms"            json:"elapsed_ms"`
	Tree       *Node               `yaml:"tree,omitempty"        json:"tree,omitempty"`
	Elements   []model.FlatElement `yaml:"elements,omitempty"    json:"elements,omitempty"`
	Verify     *model.TreeDiff     `yaml:"verify,omitempty"      json:"verify,omitempty"`
	Probes     []gridsample.Probe  `yaml:"probes,omitempty"      json:"probes,omitempty"`
}

// NewGridResult summarizes a sampling run. The tree is attached by the
// caller in whichever shape was requested.
func NewGridResult(res *gridsample.Result) GridResult {
	out := GridResult{
		RunID:      res.RunID,
		Status:     res.Status,
		StopReason: res.StopReason,
		Points:     res.Points,
		Iterations: res.Iterations,
		Hits:       res.Hits,
		Misses:     res.Misses,
		Duplicates: res.Duplicates,
		Nodes:      res.Nodes,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	if len(res.Failures) > 0 {
		out.Failures = make(map[string]int, len(res.Failures))
		for code, n := range res.Failures {
			out.Failures[string(code)] = n
		}
	}
	return out
}

// ElementResult is the output of the `skeleton` command and of point fetches.
type ElementResult struct {
	X       float64 `yaml:"x"       json:"x"`
	Y       float64 `yaml:"y"       json:"y"`
	TS      int64   `yaml:"ts"      json:"ts"`
	Element Node    `yaml:"element" json:"element"`
}

// NewElementResult stamps an element result with the current time.
func NewElementResult(x, y float64, n Node) ElementResult {
	return ElementResult{X: x, Y: y, TS: time.Now().Unix(), Element: n}
}
