package aggregates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"schemagraph/domain/core/entities"
	"schemagraph/domain/core/valueobjects"
)

// ProjectedNode is a vertex ready for rendering
type ProjectedNode struct {
	ID    valueobjects.Identifier `json:"id"`
	Label string                  `json:"label"`
	Title string                  `json:"title"`
	Color string                  `json:"color"`
}

// ProjectedEdge is an edge ready for rendering
type ProjectedEdge struct {
	ID    valueobjects.Identifier `json:"id"`
	From  valueobjects.Identifier `json:"from"`
	To    valueobjects.Identifier `json:"to"`
	Label string                  `json:"label"`
	Title string                  `json:"title"`
}

// ProjectedGraph is the renderable result of one projection.
// Nodes are in first-seen order and edges in encounter order.
type ProjectedGraph struct {
	Nodes []ProjectedNode `json:"nodes"`
	Edges []ProjectedEdge `json:"edges"`
	Stats GraphStats      `json:"stats"`
}

// GraphStats summarizes a projection
type GraphStats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
	// DanglingEdges counts edges with an endpoint absent from Nodes.
	// Such edges are kept.
	DanglingEdges int `json:"dangling_edges"`
}

// NewProjectedGraph assembles a graph and computes its stats
func NewProjectedGraph(nodes []ProjectedNode, edges []ProjectedEdge) ProjectedGraph {
	if nodes == nil {
		nodes = []ProjectedNode{}
	}
	if edges == nil {
		edges = []ProjectedEdge{}
	}

	present := make(map[valueobjects.Identifier]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
	}

	dangling := 0
	for _, e := range edges {
		_, fromOK := present[e.From]
		_, toOK := present[e.To]
		if !fromOK || !toOK {
			dangling++
		}
	}

	return ProjectedGraph{
		Nodes: nodes,
		Edges: edges,
		Stats: GraphStats{
			NodeCount:     len(nodes),
			EdgeCount:     len(edges),
			DanglingEdges: dangling,
		},
	}
}

// NodeRegistry deduplicates nodes by canonical identity.
// The first occurrence of an identity wins; later occurrences are ignored
// even when their labels or properties differ.
type NodeRegistry struct {
	order []entities.NodeValue
	seen  map[valueobjects.Identifier]struct{}
}

// NewNodeRegistry creates an empty registry
func NewNodeRegistry() *NodeRegistry {
	return &NodeRegistry{
		seen: make(map[valueobjects.Identifier]struct{}),
	}
}

// Add registers a node. It reports whether the identity was new.
func (r *NodeRegistry) Add(node entities.NodeValue) bool {
	if _, exists := r.seen[node.Identity]; exists {
		return false
	}
	r.seen[node.Identity] = struct{}{}
	r.order = append(r.order, node)
	return true
}

// Len returns the number of distinct identities registered
func (r *NodeRegistry) Len() int {
	return len(r.order)
}

// Materialize renders one ProjectedNode per distinct identity
func (r *NodeRegistry) Materialize() []ProjectedNode {
	nodes := make([]ProjectedNode, 0, len(r.order))
	for _, node := range r.order {
		nodes = append(nodes, ProjectedNode{
			ID:    node.Identity,
			Label: DisplayLabel(node),
			Title: SerializeProperties(node.Properties),
			Color: valueobjects.ColorForLabel(node.FirstLabel()),
		})
	}
	return nodes
}

// EdgeCollector turns every relationship occurrence into an edge.
// It does not deduplicate and does not check endpoints.
type EdgeCollector struct {
	edges []ProjectedEdge
}

// NewEdgeCollector creates an empty collector
func NewEdgeCollector() *EdgeCollector {
	return &EdgeCollector{}
}

// Add emits exactly one edge for the relationship
func (c *EdgeCollector) Add(rel entities.RelationshipValue) {
	c.edges = append(c.edges, ProjectedEdge{
		ID:    rel.Identity,
		From:  rel.StartIdentity,
		To:    rel.EndIdentity,
		Label: rel.Type,
		Title: SerializeProperties(rel.Properties),
	})
}

// Edges returns the collected edges in encounter order
func (c *EdgeCollector) Edges() []ProjectedEdge {
	out := make([]ProjectedEdge, len(c.edges))
	copy(out, c.edges)
	return out
}

// DisplayLabel picks the caption for a node:
// properties.name, then properties.id, then the first label, then the identity.
// Empty strings, zero numbers, false and null do not count as present.
func DisplayLabel(node entities.NodeValue) string {
	if label, ok := displayable(node.Properties["name"]); ok {
		return label
	}
	if label, ok := displayable(node.Properties["id"]); ok {
		return label
	}
	if first := node.FirstLabel(); first != "" {
		return first
	}
	return node.Identity.String()
}

func displayable(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, val != ""
	case bool:
		if !val {
			return "", false
		}
		return "true", true
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return "", false
		}
		return val.String(), true
	case int:
		return strconv.Itoa(val), val != 0
	case int64:
		return strconv.FormatInt(val, 10), val != 0
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), val != 0
	default:
		return fmt.Sprint(val), true
	}
}

// SerializeProperties renders properties as two-space indented JSON for
// display. HTML characters are kept literal and non-finite floats become null.
func SerializeProperties(props map[string]interface{}) string {
	if props == nil {
		props = map[string]interface{}{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(finite(props)); err != nil {
		return "{}"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// finite replaces NaN and infinities, which JSON cannot carry, with nil
func finite(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil
		}
		return val
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = finite(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = finite(item)
		}
		return out
	default:
		return v
	}
}
