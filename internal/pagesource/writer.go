package pagesource

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhinvv1/WebDriverAgent/internal/model"
)

// DefaultIndent is used unless Compact output is requested.
const DefaultIndent = "  "

// attributeOrder is the page-source attribute order consumers rely on.
// Attributes not listed follow in sorted order.
var attributeOrder = []string{
	model.AttrType,
	model.AttrValue,
	model.AttrName,
	model.AttrLabel,
	model.AttrEnabled,
	model.AttrVisible,
	model.AttrAccessible,
	model.AttrX,
	model.AttrY,
	model.AttrWidth,
	model.AttrHeight,
	model.AttrIndex,
}

var orderRank = func() map[string]int {
	m := make(map[string]int, len(attributeOrder))
	for i, name := range attributeOrder {
		m[name] = i
	}
	return m
}()

// attrFilter applies include/exclude lists to attribute names.
type attrFilter struct {
	include map[string]bool
	exclude map[string]bool
}

func newAttrFilter(include, exclude []string) attrFilter {
	f := attrFilter{}
	if len(include) > 0 {
		f.include = make(map[string]bool, len(include))
		for _, n := range include {
			f.include[n] = true
		}
	}
	if len(exclude) > 0 {
		f.exclude = make(map[string]bool, len(exclude))
		for _, n := range exclude {
			f.exclude[n] = true
		}
	}
	return f
}

func (f attrFilter) keep(name string) bool {
	if f.include != nil && !f.include[name] {
		return false
	}
	return !f.exclude[name]
}

// orderedNames returns names sorted by page-source order.
func orderedNames(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		ri, iok := orderRank[names[i]]
		rj, jok := orderRank[names[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		default:
			return names[i] < names[j]
		}
	})
	return names
}

// renderScalar formats a scalar attribute value. Non-scalars are rejected.
func renderScalar(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return stripInvalid(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return formatFloat(float64(t)), nil
	case float64:
		return formatFloat(t), nil
	}
	return "", fmt.Errorf("unsupported attribute value of type %T", v)
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// stripInvalid removes characters that cannot appear in an XML document.
func stripInvalid(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x9 || r == 0xA || r == 0xD:
			return r
		case r >= 0x20 && r <= 0xD7FF:
			return r
		case r >= 0xE000 && r <= 0xFFFD:
			return r
		case r >= 0x10000 && r <= 0x10FFFF:
			return r
		}
		return -1
	}, s)
}

// validName reports whether s is a usable XML element or attribute name.
func validName(s string) bool {
	if s == "" || strings.HasPrefix(strings.ToLower(s), "xml") {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return true
}

// sanitizeName turns s into a valid XML name, or returns fallback when
// nothing usable remains.
func sanitizeName(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return fallback
	}
	if first, _ := utf8.DecodeRuneInString(name); !unicode.IsLetter(first) {
		name = "_" + name
	}
	if !validName(name) {
		return fallback
	}
	return name
}

// xmlWriter emits a page-source document.
type xmlWriter struct {
	buf bytes.Buffer
	enc *xml.Encoder
}

func newXMLWriter(indent string) *xmlWriter {
	w := &xmlWriter{}
	w.enc = xml.NewEncoder(&w.buf)
	if indent != "" {
		w.enc.Indent("", indent)
	}
	return w
}

func (w *xmlWriter) start(tag string, attrs []xml.Attr) error {
	return w.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: tag}, Attr: attrs})
}

func (w *xmlWriter) end(tag string) error {
	return w.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: tag}})
}

func (w *xmlWriter) finish() (string, error) {
	if err := w.enc.Flush(); err != nil {
		return "", err
	}
	return xml.Header + w.buf.String() + "\n", nil
}
