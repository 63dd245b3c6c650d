package fixture

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
	"github.com/abhinvv1/WebDriverAgent/internal/platform"
)

// Node is one element of a fixture tree.
type Node struct {
	ID         string         `yaml:"id,omitempty"`
	Type       string         `yaml:"type"`
	Frame      string         `yaml:"frame,omitempty"` // "x,y,w,h"; inherits the parent's frame when empty
	Attributes map[string]any `yaml:"attributes,omitempty"`
	Children   []*Node        `yaml:"children,omitempty"`

	identity model.Identity
	rect     platform.Rect
	parent   *Node
}

// File is the YAML fixture document.
type File struct {
	// DepthLimit caps how deep a single Snapshot call may reach,
	// regardless of the requested depth (0 = unlimited).
	DepthLimit int `yaml:"depthLimit,omitempty"`
	// Latency delays every hit test and snapshot.
	Latency     time.Duration `yaml:"latency,omitempty"`
	Application *Node         `yaml:"application"`
	// RN is an optional React-Native component tree served in-process.
	RN any `yaml:"rn,omitempty"`
}

// Load reads a fixture from path. Files ending in .xml are parsed as a WDA
// page source; anything else as YAML.
func Load(path string) (*Backend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xml") {
		return ParsePageSource(string(data))
	}
	return ParseYAML(data)
}

// ParseYAML builds a backend from a YAML fixture document.
func ParseYAML(data []byte) (*Backend, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return New(f)
}

// ParsePageSource builds a backend from WDA page-source XML. An AppiumAUT
// wrapper is skipped; the first element below it is the application.
func ParsePageSource(xmlData string) (*Backend, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var parseElement func() (*Node, error)
	parseElement = func() (*Node, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == "AppiumAUT" {
					continue
				}

				node := &Node{
					Type:       t.Name.Local,
					Attributes: make(map[string]any, len(t.Attr)),
				}
				var geom [4]string
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "type":
						node.Type = attr.Value
					case "x":
						geom[0] = attr.Value
					case "y":
						geom[1] = attr.Value
					case "width":
						geom[2] = attr.Value
					case "height":
						geom[3] = attr.Value
					default:
						node.Attributes[attr.Name.Local] = parseAttrValue(attr.Name.Local, attr.Value)
					}
				}
				if geom[2] != "" && geom[3] != "" {
					node.Frame = strings.Join(geom[:], ",")
				}

				for {
					child, err := parseElement()
					if err != nil {
						return nil, err
					}
					if child == nil {
						break
					}
					node.Children = append(node.Children, child)
				}
				return node, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	root, err := parseElement()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no elements found in page source")
		}
		return nil, fmt.Errorf("parsing page source: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("no elements found in page source")
	}
	return New(File{Application: root})
}

// boolAttrs are page-source attributes rendered as "true"/"false".
var boolAttrs = map[string]bool{
	"enabled":    true,
	"visible":    true,
	"accessible": true,
	"selected":   true,
	"focused":    true,
}

func parseAttrValue(name, raw string) any {
	if boolAttrs[name] {
		return raw == "true"
	}
	if name == model.AttrIndex {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return raw
}

// prepare resolves frames and parent links below n.
func prepare(n *Node, parent *Node) error {
	n.parent = parent
	switch {
	case n.Frame != "":
		r, err := platform.ParseRect(n.Frame)
		if err != nil {
			return fmt.Errorf("element %q: %w", n.identity, err)
		}
		n.rect = r
	case parent != nil:
		n.rect = parent.rect
	}
	if n.Attributes == nil {
		n.Attributes = map[string]any{}
	}
	for _, c := range n.Children {
		if err := prepare(c, n); err != nil {
			return err
		}
	}
	return nil
}
