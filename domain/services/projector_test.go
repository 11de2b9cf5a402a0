package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"schemagraph/domain/core/entities"
	"schemagraph/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecords(t *testing.T, payload string) []entities.QueryRecord {
	t.Helper()
	var records []entities.QueryRecord
	require.NoError(t, json.Unmarshal([]byte(payload), &records))
	return records
}

func TestProjector_DeduplicatesNodesFirstSeenWins(t *testing.T) {
	records := decodeRecords(t, `[
		{"n":{"identity":"1","labels":["Person"],"properties":{"name":"Alice"}}},
		{"n":{"identity":"1","labels":["Person"],"properties":{"name":"AliceDup"}}}
	]`)

	graph := NewProjector().Project(records)

	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "1", graph.Nodes[0].ID.String())
	assert.Equal(t, "Alice", graph.Nodes[0].Label)
	assert.Empty(t, graph.Edges)
}

func TestProjector_NumericIdentitySpellingsCollapse(t *testing.T) {
	records := decodeRecords(t, `[
		{"a":{"identity":1,"labels":["Person"],"properties":{"name":"Alice"}}},
		{"a":{"identity":1.0,"labels":["Person"],"properties":{"name":"Again"}}},
		{"a":{"identity":"1","labels":["Person"],"properties":{"name":"Once more"}}},
		{"a":{"identity":1e0,"labels":["Person"],"properties":{}}}
	]`)

	graph := NewProjector().Project(records)

	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "1", graph.Nodes[0].ID.String())
	assert.Equal(t, "Alice", graph.Nodes[0].Label)
}

func TestProjector_RelationshipBecomesEdge(t *testing.T) {
	records := decodeRecords(t, `[
		{"r":{"identity":"5","type":"KNOWS","start":"1","end":"2","properties":{}}}
	]`)

	graph := NewProjector().Project(records)

	require.Len(t, graph.Edges, 1)
	edge := graph.Edges[0]
	assert.Equal(t, "5", edge.ID.String())
	assert.Equal(t, "1", edge.From.String())
	assert.Equal(t, "2", edge.To.String())
	assert.Equal(t, "KNOWS", edge.Label)
	assert.Empty(t, graph.Nodes)
	assert.Equal(t, 1, graph.Stats.DanglingEdges)
}

func TestProjector_ScalarsAreIgnored(t *testing.T) {
	records := decodeRecords(t, `[{"foo":"bar"},{"count":3,"items":[1,2]}]`)

	graph := NewProjector().Project(records)

	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}

func TestProjector_EmptyInput(t *testing.T) {
	graph := NewProjector().Project(nil)

	assert.NotNil(t, graph.Nodes)
	assert.NotNil(t, graph.Edges)
	assert.Equal(t, 0, graph.Stats.NodeCount)
}

func TestProjector_PreservesOrder(t *testing.T) {
	records := decodeRecords(t, `[
		{"b":{"identity":2,"labels":["B"]},"a":{"identity":1,"labels":["A"]}},
		{"r":{"identity":20,"type":"SECOND","start":1,"end":2}},
		{"c":{"identity":3,"labels":["C"]},"r":{"identity":10,"type":"FIRST","start":2,"end":3}},
		{"a":{"identity":1,"labels":["A"]}}
	]`)

	graph := NewProjector().Project(records)

	ids := make([]string, 0, len(graph.Nodes))
	for _, n := range graph.Nodes {
		ids = append(ids, n.ID.String())
	}
	assert.Equal(t, []string{"2", "1", "3"}, ids)

	require.Len(t, graph.Edges, 2)
	assert.Equal(t, "SECOND", graph.Edges[0].Label)
	assert.Equal(t, "FIRST", graph.Edges[1].Label)
	assert.Equal(t, 0, graph.Stats.DanglingEdges)
}

func TestProjector_RepeatedRelationshipIsNotDeduplicated(t *testing.T) {
	rel := entities.RelationshipValue{
		Identity:      valueobjects.MustIdentifier(9),
		Type:          "LIKES",
		StartIdentity: valueobjects.MustIdentifier(1),
		EndIdentity:   valueobjects.MustIdentifier(2),
	}
	records := []entities.QueryRecord{
		entities.NewQueryRecord(entities.Field{Name: "r", Value: rel}),
		entities.NewQueryRecord(entities.Field{Name: "r", Value: &rel}),
	}

	graph := NewProjector().Project(records)

	assert.Len(t, graph.Edges, 2)
}

func TestProjector_MixedIdentityRepresentationsCollapse(t *testing.T) {
	records := []entities.QueryRecord{
		entities.NewQueryRecord(entities.Field{Name: "n", Value: entities.NodeValue{
			Identity: valueobjects.MustIdentifier(int64(1)),
			Labels:   []string{"Person"},
		}}),
		entities.NewQueryRecord(entities.Field{Name: "n", Value: entities.NodeValue{
			Identity: valueobjects.MustIdentifier(1.0),
			Labels:   []string{"Other"},
		}}),
		entities.NewQueryRecord(entities.Field{Name: "n", Value: entities.NodeValue{
			Identity: valueobjects.MustIdentifier("1"),
		}}),
	}

	graph := NewProjector().Project(records)

	require.Len(t, graph.Nodes, 1)
	assert.Equal(t, "Person", graph.Nodes[0].Label)
}

func TestProjector_ConcurrentUse(t *testing.T) {
	projector := NewProjector()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records := []entities.QueryRecord{
				entities.NewQueryRecord(
					entities.Field{Name: "a", Value: entities.NodeValue{Identity: valueobjects.MustIdentifier(i), Labels: []string{"N"}}},
					entities.Field{Name: "b", Value: entities.NodeValue{Identity: valueobjects.MustIdentifier(i + 1000), Labels: []string{"N"}}},
				),
			}
			graph := projector.Project(records)
			assert.Len(t, graph.Nodes, 2)
			assert.Equal(t, fmt.Sprint(i), graph.Nodes[0].ID.String())
		}(i)
	}
	wg.Wait()
}
