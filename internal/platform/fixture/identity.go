package fixture

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

// slugRe matches characters that are not lowercase alphanumeric or hyphens.
var slugRe = regexp.MustCompile(`[^a-z0-9-]+`)

// slugify converts a label to a URL-safe slug: lowercase, hyphens for spaces/special chars.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	if len(s) > 40 {
		s = s[:40]
		s = strings.TrimRight(s, "-")
	}
	return s
}

// bestLabel returns the most stable label for a node: name > label.
// Value is excluded because it changes (input field content, slider position).
func bestLabel(n *Node) string {
	if name, ok := n.Attributes[model.AttrName].(string); ok && name != "" {
		return name
	}
	if label, ok := n.Attributes[model.AttrLabel].(string); ok && label != "" {
		return label
	}
	return ""
}

// segment returns the identity path segment contributed by n.
func segment(n *Node) string {
	seg := model.ShortType(n.Type)
	if slug := slugify(bestLabel(n)); slug != "" {
		seg += ":" + slug
	}
	return seg
}

// assignIdentities gives every node without an explicit id a path-derived
// identity like "app/window/btn:login". Siblings that would collide get
// ".1", ".2" suffixes in child order. Explicit ids must be unique.
func assignIdentities(root *Node) error {
	if root.ID == "" {
		root.identity = model.Identity(segment(root))
	} else {
		root.identity = model.Identity(root.ID)
	}
	seen := map[model.Identity]bool{root.identity: true}
	return assignChildren(root, seen)
}

func assignChildren(parent *Node, seen map[model.Identity]bool) error {
	segCounts := make(map[string]int)
	for _, c := range parent.Children {
		if c.ID == "" {
			segCounts[segment(c)]++
		}
	}
	segIndex := make(map[string]int)
	for _, c := range parent.Children {
		if c.ID != "" {
			c.identity = model.Identity(c.ID)
		} else {
			seg := segment(c)
			if segCounts[seg] > 1 {
				segIndex[seg]++
				seg = fmt.Sprintf("%s.%d", seg, segIndex[seg])
			}
			c.identity = model.Identity(string(parent.identity) + "/" + seg)
		}
		if seen[c.identity] {
			return fmt.Errorf("duplicate element id %q", c.identity)
		}
		seen[c.identity] = true
		if err := assignChildren(c, seen); err != nil {
			return err
		}
	}
	return nil
}
