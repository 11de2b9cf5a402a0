package neo4j

import (
	"fmt"
	"time"

	"schemagraph/domain/core/entities"
	"schemagraph/domain/core/valueobjects"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// decoder turns driver values into the Value union once, at the store boundary
type decoder struct {
	identity IdentityMode
}

// Record converts one driver record, keeping field order
func (d decoder) Record(record *neo4j.Record) entities.QueryRecord {
	fields := make([]entities.Field, len(record.Keys))
	for i, key := range record.Keys {
		var raw any
		if i < len(record.Values) {
			raw = record.Values[i]
		}
		fields[i] = entities.Field{Name: key, Value: d.Value(raw)}
	}
	return entities.NewQueryRecord(fields...)
}

// Value classifies a top-level field
func (d decoder) Value(raw any) entities.Value {
	switch v := raw.(type) {
	case neo4j.Node:
		return d.node(v)
	case neo4j.Relationship:
		return d.relationship(v)
	default:
		return entities.Scalar{Raw: d.plain(raw)}
	}
}

func (d decoder) node(n neo4j.Node) entities.NodeValue {
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	return entities.NodeValue{
		Identity:   d.id(n.Id, n.ElementId),
		Labels:     labels,
		Properties: d.props(n.Props),
	}
}

func (d decoder) relationship(r neo4j.Relationship) entities.RelationshipValue {
	return entities.RelationshipValue{
		Identity:      d.id(r.Id, r.ElementId),
		Type:          r.Type,
		StartIdentity: d.id(r.StartId, r.StartElementId),
		EndIdentity:   d.id(r.EndId, r.EndElementId),
		Properties:    d.props(r.Props),
	}
}

func (d decoder) id(legacy int64, element string) valueobjects.Identifier {
	if d.identity == IdentityElement && element != "" {
		return valueobjects.MustIdentifier(element)
	}
	return valueobjects.MustIdentifier(legacy)
}

func (d decoder) props(props map[string]any) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = d.plain(v)
	}
	return out
}

// plain renders nested driver values as JSON-friendly Go values. Nested
// nodes and relationships keep the same object shape as top-level ones but
// are not classified.
func (d decoder) plain(raw any) any {
	switch v := raw.(type) {
	case nil, bool, string, int64, float64, []byte:
		return v
	case neo4j.Node:
		return d.node(v)
	case neo4j.Relationship:
		return d.relationship(v)
	case neo4j.Path:
		return d.path(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = d.plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = d.plain(item)
		}
		return out
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		// dates, local times, durations and points
		return v.String()
	default:
		return v
	}
}

type pathSegment struct {
	Start        entities.NodeValue         `json:"start"`
	Relationship entities.RelationshipValue `json:"relationship"`
	End          entities.NodeValue         `json:"end"`
}

type pathValue struct {
	Start    entities.NodeValue `json:"start"`
	End      entities.NodeValue `json:"end"`
	Segments []pathSegment      `json:"segments"`
	Length   int                `json:"length"`
}

func (d decoder) path(p neo4j.Path) pathValue {
	out := pathValue{Segments: []pathSegment{}}
	if len(p.Nodes) == 0 {
		return out
	}

	nodes := make(map[valueobjects.Identifier]entities.NodeValue, len(p.Nodes))
	for _, n := range p.Nodes {
		nv := d.node(n)
		nodes[nv.Identity] = nv
	}
	out.Start = d.node(p.Nodes[0])
	out.End = d.node(p.Nodes[len(p.Nodes)-1])

	for _, r := range p.Relationships {
		rv := d.relationship(r)
		out.Segments = append(out.Segments, pathSegment{
			Start:        nodes[rv.StartIdentity],
			Relationship: rv,
			End:          nodes[rv.EndIdentity],
		})
	}
	out.Length = len(out.Segments)
	return out
}
