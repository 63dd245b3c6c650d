package model

// Attribute names read for every element, in page-source order.
const (
	AttrType       = "type"
	AttrValue      = "value"
	AttrName       = "name"
	AttrLabel      = "label"
	AttrEnabled    = "enabled"
	AttrVisible    = "visible"
	AttrAccessible = "accessible"
	AttrX          = "x"
	AttrY          = "y"
	AttrWidth      = "width"
	AttrHeight     = "height"
	AttrIndex      = "index"
)

// StandardAttributes lists the attributes resolved for each sampled element.
var StandardAttributes = []string{
	AttrType, AttrValue, AttrName, AttrLabel,
	AttrEnabled, AttrVisible, AttrAccessible,
	AttrX, AttrY, AttrWidth, AttrHeight,
}

// Element types with special handling.
const (
	TypeApplication = "XCUIElementTypeApplication"
	TypeOther       = "XCUIElementTypeOther"
)

// TypeMap maps XCUIElementType values to compact codes.
var TypeMap = map[string]string{
	"XCUIElementTypeApplication":     "app",
	"XCUIElementTypeWindow":          "window",
	"XCUIElementTypeButton":          "btn",
	"XCUIElementTypeStaticText":      "txt",
	"XCUIElementTypeLink":            "lnk",
	"XCUIElementTypeImage":           "img",
	"XCUIElementTypeTextField":       "input",
	"XCUIElementTypeSecureTextField": "input",
	"XCUIElementTypeSearchField":     "input",
	"XCUIElementTypeTextView":        "input",
	"XCUIElementTypeSwitch":          "toggle",
	"XCUIElementTypeSlider":          "slider",
	"XCUIElementTypeCell":            "cell",
	"XCUIElementTypeTable":           "list",
	"XCUIElementTypeCollectionView":  "list",
	"XCUIElementTypeScrollView":      "scroll",
	"XCUIElementTypeNavigationBar":   "nav",
	"XCUIElementTypeTabBar":          "tab",
	"XCUIElementTypeToolbar":         "toolbar",
	"XCUIElementTypeOther":           "other",
}

// ShortType converts an element type to a compact code.
func ShortType(elementType string) string {
	if short, ok := TypeMap[elementType]; ok {
		return short
	}
	return "other"
}

// StringAttr returns attrs[name] when it is a string.
func StringAttr(attrs Attributes, name string) string {
	if s, ok := attrs[name].(string); ok {
		return s
	}
	return ""
}

// BoolAttr returns attrs[name] when it is a bool, or def otherwise.
func BoolAttr(attrs Attributes, name string, def bool) bool {
	if b, ok := attrs[name].(bool); ok {
		return b
	}
	return def
}

// NumberAttr returns attrs[name] as a float64 when it is numeric.
func NumberAttr(attrs Attributes, name string) (float64, bool) {
	switch v := attrs[name].(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
