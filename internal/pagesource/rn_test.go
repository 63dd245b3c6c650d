package pagesource

import (
	"encoding/json"
	"strings"
	"testing"

	apperrors "github.com/abhinvv1/WebDriverAgent/internal/errors"
	"github.com/abhinvv1/WebDriverAgent/internal/rntree"
)

func rnTree(t *testing.T, src string) *rntree.Node {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		t.Fatal(err)
	}
	tree, err := rntree.FromMap(v)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestRNTreeXML(t *testing.T) {
	tree := rnTree(t, `{
		"type": "RCTView", "testID": "root", "accessible": true,
		"style": {"flex": 1, "margin": {"top": 4}},
		"children": [
			{"type": "RCTText", "text": "Hello", "hidden": null},
			{"type": "RCTScrollView", "contentOffset": [0, 120.5]}
		]
	}`)
	doc, err := RNTreeXML(tree, RNOptions{})
	if err != nil {
		t.Fatal(err)
	}
	els := parseElements(t, doc)
	if len(els) != 3 {
		t.Fatalf("elements: got %d, want 3\n%s", len(els), doc)
	}
	if got := strings.Join(attrNames(els[0].attrs), ","); got != "type,accessible,style.flex,style.margin.top,testID" {
		t.Errorf("root attributes: got %s", got)
	}
	if els[1].tag != "RCTText" || len(els[1].attrs) != 2 {
		t.Errorf("text node: got %q %v", els[1].tag, attrNames(els[1].attrs))
	}
	for _, a := range els[2].attrs {
		if a.Name.Local == "contentOffset" && a.Value != "[0,120.5]" {
			t.Errorf("contentOffset: got %q", a.Value)
		}
	}
}

func TestRNTreeXML_Options(t *testing.T) {
	tree := rnTree(t, `{"component": "Screen", "type": "ignored", "testID": "home", "nativeID": "n1"}`)
	doc, err := RNTreeXML(tree, RNOptions{TagKey: "component", Exclude: []string{"nativeID"}, Compact: true})
	if err != nil {
		t.Fatal(err)
	}
	els := parseElements(t, doc)
	if els[0].tag != "Screen" {
		t.Errorf("tag: got %q, want Screen", els[0].tag)
	}
	if got := strings.Join(attrNames(els[0].attrs), ","); got != "type,component,testID" {
		t.Errorf("attributes: got %s", got)
	}

	doc, err = RNTreeXML(rnTree(t, `{"testID": "x"}`), RNOptions{Include: []string{"testID"}})
	if err != nil {
		t.Fatal(err)
	}
	if els := parseElements(t, doc); els[0].tag != DefaultRNTag {
		t.Errorf("fallback tag: got %q", els[0].tag)
	}
}

func TestRNTreeXML_Failures(t *testing.T) {
	tests := map[string]*rntree.Node{
		"nil tree":      nil,
		"bad attr name": {Attributes: map[string]any{"bad name": "x"}},
		"nil child":     {Attributes: map[string]any{"type": "View"}, Children: []*rntree.Node{nil}},
		"non-scalar":    {Attributes: map[string]any{"fn": func() {}}},
	}
	for name, tree := range tests {
		doc, err := RNTreeXML(tree, RNOptions{})
		if doc != "" {
			t.Errorf("%s: expected absent result", name)
		}
		if apperrors.CodeOf(err) != apperrors.ErrCodeSerialization {
			t.Errorf("%s: got %v, want SERIALIZATION_FAILED", name, err)
		}
	}
}
