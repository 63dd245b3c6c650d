package rntree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestFromMap(t *testing.T) {
	tree, err := FromMap(decode(t, `{
		"type": "View", "testID": "root",
		"children": [
			{"type": "Text", "text": "Hello"},
			{"type": "View", "children": [{"type": "Image"}]}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, 4, tree.Count())
	assert.Equal(t, []string{"testID", "type"}, tree.Keys())
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "Hello", tree.Children[0].Attributes["text"])
	assert.NotContains(t, tree.Children[1].Attributes, ChildrenKey)
	require.Len(t, tree.Children[1].Children, 1)
}

func TestFromMap_Envelopes(t *testing.T) {
	for _, src := range []string{
		`{"value": {"type": "View"}}`,
		`{"tree": {"type": "View"}}`,
		`{"value": {"tree": {"type": "View"}}}`,
	} {
		tree, err := FromMap(decode(t, src))
		require.NoError(t, err, src)
		assert.Equal(t, "View", tree.Attributes["type"], src)
	}

	// A scalar "value" is an attribute, not an envelope.
	tree, err := FromMap(decode(t, `{"value": "42"}`))
	require.NoError(t, err)
	assert.Equal(t, "42", tree.Attributes["value"])
}

func TestFromMap_Invalid(t *testing.T) {
	tests := map[string]string{
		"array root":        `[1, 2]`,
		"scalar root":       `"hello"`,
		"children not list": `{"children": {"type": "View"}}`,
		"child not object":  `{"children": [1]}`,
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromMap(decode(t, src))
			assert.Error(t, err)
		})
	}
}

func TestCount_Nil(t *testing.T) {
	var n *Node
	assert.Equal(t, 0, n.Count())
}
