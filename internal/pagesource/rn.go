package pagesource

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"sort"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

const (
	// DefaultRNTagKey is the attribute naming an RN node's element tag.
	DefaultRNTagKey = "type"
	// DefaultRNTag is used when a node has no usable tag.
	DefaultRNTag = "View"
)

// RNOptions controls RN tree serialization.
type RNOptions struct {
	TagKey  string   // Attribute used as the element tag (default "type")
	Include []string // Only render these attributes (empty = all), matched after flattening
	Exclude []string // Never render these attributes
	Compact bool     // No indentation or newlines between elements
}

// RNTreeXML serializes a generic RN tree into the same page-source format
// as SnapshotXML. Nested objects are flattened into dotted attribute names
// and arrays are rendered as JSON. On failure it returns an empty string and
// a SERIALIZATION_FAILED error so callers can fall back to another source.
func RNTreeXML(tree *rntree.Node, opts RNOptions) (string, error) {
	if tree == nil {
		return "", apperrors.New(apperrors.ErrCodeSerialization, "nil rn tree")
	}
	if opts.TagKey == "" {
		opts.TagKey = DefaultRNTagKey
	}
	indent := DefaultIndent
	if opts.Compact {
		indent = ""
	}
	s := &rnSerializer{
		w:      newXMLWriter(indent),
		filter: newAttrFilter(opts.Include, opts.Exclude),
		tagKey: opts.TagKey,
		onPath: make(map[*rntree.Node]bool),
	}
	if err := s.write(tree, "$"); err != nil {
		return "", err
	}
	out, err := s.w.finish()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCodeSerialization, "flushing xml", err)
	}
	return out, nil
}

type rnSerializer struct {
	w      *xmlWriter
	filter attrFilter
	tagKey string
	onPath map[*rntree.Node]bool
}

func (s *rnSerializer) write(n *rntree.Node, path string) error {
	if n == nil {
		return apperrors.NewWithContext(apperrors.ErrCodeSerialization, "nil node in rn tree",
			map[string]any{"path": path})
	}
	if s.onPath[n] {
		return apperrors.NewWithContext(apperrors.ErrCodeSerialization, "cycle in rn tree",
			map[string]any{"path": path})
	}
	s.onPath[n] = true
	defer delete(s.onPath, n)

	tag := DefaultRNTag
	if t, ok := n.Attributes[s.tagKey].(string); ok {
		tag = sanitizeName(t, DefaultRNTag)
	}

	flat := make(map[string]string)
	if err := flattenInto(flat, "", n.Attributes); err != nil {
		return apperrors.WrapWithContext(apperrors.ErrCodeSerialization, "rendering attributes", err,
			map[string]any{"path": path})
	}
	names := make([]string, 0, len(flat))
	for name := range flat {
		if !s.filter.keep(name) {
			continue
		}
		if !validName(name) {
			return apperrors.NewWithContext(apperrors.ErrCodeSerialization, "invalid attribute name",
				map[string]any{"path": path, "attribute": name})
		}
		names = append(names, name)
	}
	attrs := make([]xml.Attr, 0, len(names))
	for _, name := range orderedNames(names) {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: name}, Value: flat[name]})
	}

	if err := s.w.start(tag, attrs); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSerialization, "writing element", err)
	}
	for i, c := range n.Children {
		if err := s.write(c, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
			return err
		}
	}
	if err := s.w.end(tag); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeSerialization, "writing element", err)
	}
	return nil
}

// flattenInto renders attrs into out. Nested maps become dotted keys,
// arrays are JSON-encoded and nil values are skipped.
func flattenInto(out map[string]string, prefix string, attrs map[string]any) error {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		switch v := attrs[k].(type) {
		case nil:
		case map[string]any:
			if err := flattenInto(out, name, v); err != nil {
				return err
			}
		case []any:
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out[name] = stripInvalid(string(data))
		default:
			s, err := renderScalar(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out[name] = s
		}
	}
	return nil
}
