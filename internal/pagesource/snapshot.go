// Package pagesource renders element trees as WDA-style XML page source.
package pagesource

import (
	"context"
	"encoding/xml"
	"strconv"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

// Options controls snapshot serialization.
type Options struct {
	Include      []string // Only render these attributes (empty = all)
	Exclude      []string // Never render these attributes
	IncludeIndex bool     // Add each element's position among its siblings
	Compact      bool     // No indentation or newlines between elements
}

// SnapshotXML serializes the tree rooted at root. Each node becomes one
// element named after its type; attributes are rendered in page-source
// order with absent values skipped. A node whose attributes cannot be
// resolved, or that carries a non-scalar value, fails the whole document.
func SnapshotXML(ctx context.Context, root model.Snapshot, opts Options) (string, error) {
	if root == nil {
		return "", apperrors.New(apperrors.ErrCodeSerialization, "nil snapshot")
	}
	indent := DefaultIndent
	if opts.Compact {
		indent = ""
	}
	s := &snapshotSerializer{
		w:      newXMLWriter(indent),
		filter: newAttrFilter(opts.Include, opts.Exclude),
		index:  opts.IncludeIndex,
		onPath: make(map[model.Identity]bool),
	}
	if err := s.write(ctx, root, 0); err != nil {
		return "", err
	}
	out, err := s.w.finish()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeSerialization, "flushing xml", err)
	}
	return out, nil
}

type snapshotSerializer struct {
	w      *xmlWriter
	filter attrFilter
	index  bool
	onPath map[model.Identity]bool
}

func (s *snapshotSerializer) write(ctx context.Context, node model.Snapshot, position int) error {
	id := node.Identity()
	if s.onPath[id] {
		return apperrors.NewWithContext(apperrors.ErrCodeSerialization, "cycle in snapshot tree",
			map[string]any{"element": string(id)})
	}
	s.onPath[id] = true
	defer delete(s.onPath, id)

	attrs, err := node.Attributes(ctx)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeSerialization, "resolving attributes", err,
			map[string]any{"element": string(id)})
	}

	tag := sanitizeName(model.StringAttr(attrs, model.AttrType), model.TypeOther)
	xmlAttrs, err := s.attributes(attrs, position)
	if err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeSerialization, "rendering attributes", err,
			map[string]any{"element": string(id)})
	}

	if err := s.w.start(tag, xmlAttrs); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSerialization, "writing element", err)
	}
	for i, child := range node.Children() {
		if err := s.write(ctx, child, i); err != nil {
			return err
		}
	}
	if err := s.w.end(tag); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSerialization, "writing element", err)
	}
	return nil
}

func (s *snapshotSerializer) attributes(attrs model.Attributes, position int) ([]xml.Attr, error) {
	names := make([]string, 0, len(attrs)+1)
	for name, v := range attrs {
		if v == nil || !s.filter.keep(name) {
			continue
		}
		if !validName(name) {
			return nil, apperrors.NewWithContext(apperrors.ErrCodeSerialization, "invalid attribute name",
				map[string]any{"attribute": name})
		}
		names = append(names, name)
	}
	_, hasIndex := attrs[model.AttrIndex]
	addIndex := s.index && !hasIndex && s.filter.keep(model.AttrIndex)
	if addIndex {
		names = append(names, model.AttrIndex)
	}

	out := make([]xml.Attr, 0, len(names))
	for _, name := range orderedNames(names) {
		var value string
		if name == model.AttrIndex && addIndex {
			value = strconv.Itoa(position)
		} else {
			v, err := renderScalar(attrs[name])
			if err != nil {
				return nil, err
			}
			value = v
		}
		out = append(out, xml.Attr{Name: xml.Name{Local: name}, Value: value})
	}
	return out, nil
}
