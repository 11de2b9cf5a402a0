package aggregates

import (
	"encoding/json"
	"math"
	"testing"

	"schemagraph/domain/core/entities"
	"schemagraph/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id interface{}, labels []string, props map[string]interface{}) entities.NodeValue {
	return entities.NodeValue{
		Identity:   valueobjects.MustIdentifier(id),
		Labels:     labels,
		Properties: props,
	}
}

func TestNodeRegistry_FirstSeenWins(t *testing.T) {
	registry := NewNodeRegistry()

	assert.True(t, registry.Add(node(1, []string{"Person"}, map[string]interface{}{"name": "Ann"})))
	assert.False(t, registry.Add(node("1", []string{"Robot"}, map[string]interface{}{"name": "Bob"})))
	assert.True(t, registry.Add(node(2, []string{"City"}, nil)))

	nodes := registry.Materialize()
	require.Len(t, nodes, 2)
	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, "1", nodes[0].ID.String())
	assert.Equal(t, "Ann", nodes[0].Label)
	assert.Equal(t, valueobjects.ColorForLabel("Person"), nodes[0].Color)
	assert.Equal(t, "2", nodes[1].ID.String())
}

func TestNodeRegistry_Materialize(t *testing.T) {
	registry := NewNodeRegistry()
	registry.Add(node(1, []string{"Person"}, map[string]interface{}{"name": "Ann", "age": 30}))

	nodes := registry.Materialize()
	require.Len(t, nodes, 1)
	assert.Equal(t, "Ann", nodes[0].Label)
	assert.Equal(t, "{\n  \"age\": 30,\n  \"name\": \"Ann\"\n}", nodes[0].Title)
	assert.Equal(t, valueobjects.NodePalette[1], nodes[0].Color)
}

func TestDisplayLabel(t *testing.T) {
	tests := []struct {
		name     string
		node     entities.NodeValue
		expected string
	}{
		{
			name:     "name wins",
			node:     node(1, []string{"Person"}, map[string]interface{}{"name": "Ann", "id": "p-1"}),
			expected: "Ann",
		},
		{
			name:     "falls back to id property",
			node:     node(1, []string{"Person"}, map[string]interface{}{"id": "p-1"}),
			expected: "p-1",
		},
		{
			name:     "empty name is skipped",
			node:     node(1, []string{"Person"}, map[string]interface{}{"name": "", "id": json.Number("17")}),
			expected: "17",
		},
		{
			name:     "zero id is skipped",
			node:     node(1, []string{"Person"}, map[string]interface{}{"id": json.Number("0")}),
			expected: "Person",
		},
		{
			name:     "false and null are skipped",
			node:     node(1, []string{"Tag"}, map[string]interface{}{"name": false, "id": nil}),
			expected: "Tag",
		},
		{
			name:     "first label",
			node:     node(1, []string{"Company", "Org"}, nil),
			expected: "Company",
		},
		{
			name:     "identity as last resort",
			node:     node(99, nil, map[string]interface{}{}),
			expected: "99",
		},
		{
			name:     "numeric name",
			node:     node(1, nil, map[string]interface{}{"name": 42}),
			expected: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisplayLabel(tt.node))
		})
	}
}

func TestNodeRegistry_NoLabelsUsesFirstPaletteColor(t *testing.T) {
	registry := NewNodeRegistry()
	registry.Add(node(5, nil, nil))

	nodes := registry.Materialize()
	require.Len(t, nodes, 1)
	assert.Equal(t, valueobjects.NodePalette[0], nodes[0].Color)
	assert.Equal(t, "5", nodes[0].Label)
	assert.Equal(t, "{}", nodes[0].Title)
}

func TestEdgeCollector_OneEdgePerOccurrence(t *testing.T) {
	collector := NewEdgeCollector()
	rel := entities.RelationshipValue{
		Identity:      valueobjects.MustIdentifier(7),
		Type:          "KNOWS",
		StartIdentity: valueobjects.MustIdentifier(1),
		EndIdentity:   valueobjects.MustIdentifier(2),
		Properties:    map[string]interface{}{"since": 2019},
	}

	collector.Add(rel)
	collector.Add(rel)

	edges := collector.Edges()
	require.Len(t, edges, 2)
	for _, e := range edges {
		assert.Equal(t, "7", e.ID.String())
		assert.Equal(t, "1", e.From.String())
		assert.Equal(t, "2", e.To.String())
		assert.Equal(t, "KNOWS", e.Label)
		assert.Equal(t, "{\n  \"since\": 2019\n}", e.Title)
	}
}

func TestNewProjectedGraph_Stats(t *testing.T) {
	nodes := []ProjectedNode{{ID: valueobjects.MustIdentifier(1)}}
	edges := []ProjectedEdge{
		{ID: valueobjects.MustIdentifier(10), From: valueobjects.MustIdentifier(1), To: valueobjects.MustIdentifier(1)},
		{ID: valueobjects.MustIdentifier(11), From: valueobjects.MustIdentifier(1), To: valueobjects.MustIdentifier(2)},
	}

	graph := NewProjectedGraph(nodes, edges)
	assert.Equal(t, 1, graph.Stats.NodeCount)
	assert.Equal(t, 2, graph.Stats.EdgeCount)
	assert.Equal(t, 1, graph.Stats.DanglingEdges)
}

func TestNewProjectedGraph_EmptyEncodesArrays(t *testing.T) {
	graph := NewProjectedGraph(nil, nil)

	out, err := json.Marshal(graph)
	require.NoError(t, err)
	assert.JSONEq(t, `{"nodes":[],"edges":[],"stats":{"node_count":0,"edge_count":0,"dangling_edges":0}}`, string(out))
}

func TestProjectedEdge_JSON(t *testing.T) {
	edge := ProjectedEdge{
		ID:    valueobjects.MustIdentifier(7),
		From:  valueobjects.MustIdentifier(1),
		To:    valueobjects.MustIdentifier(2),
		Label: "KNOWS",
		Title: "{}",
	}

	out, err := json.Marshal(edge)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","from":"1","to":"2","label":"KNOWS","title":"{}"}`, string(out))
}

func TestSerializeProperties(t *testing.T) {
	tests := []struct {
		name     string
		props    map[string]interface{}
		expected string
	}{
		{name: "nil", props: nil, expected: "{}"},
		{name: "html characters stay literal", props: map[string]interface{}{"name": "a<b & c>"}, expected: "{\n  \"name\": \"a<b & c>\"\n}"},
		{name: "nan becomes null", props: map[string]interface{}{"score": math.NaN(), "name": "x"}, expected: "{\n  \"name\": \"x\",\n  \"score\": null\n}"},
		{name: "nested infinity", props: map[string]interface{}{"vals": []interface{}{1.5, math.Inf(1)}}, expected: "{\n  \"vals\": [\n    1.5,\n    null\n  ]\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SerializeProperties(tt.props))
		})
	}
}
