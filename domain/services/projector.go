package services

import (
	"schemagraph/domain/core/aggregates"
	"schemagraph/domain/core/entities"
)

// Projector turns query records into a renderable graph.
// It holds no state between calls and is safe for concurrent use.
type Projector struct{}

// NewProjector creates a new projector
func NewProjector() *Projector {
	return &Projector{}
}

// Project walks records in order and their fields in order. Nodes go to a
// fresh registry, relationships to a fresh collector, and every other value
// is ignored. Project never fails; empty input yields an empty graph.
func (p *Projector) Project(records []entities.QueryRecord) aggregates.ProjectedGraph {
	registry := aggregates.NewNodeRegistry()
	collector := aggregates.NewEdgeCollector()

	for _, record := range records {
		for _, field := range record.Fields {
			switch v := field.Value.(type) {
			case entities.NodeValue:
				registry.Add(v)
			case *entities.NodeValue:
				if v != nil {
					registry.Add(*v)
				}
			case entities.RelationshipValue:
				collector.Add(v)
			case *entities.RelationshipValue:
				if v != nil {
					collector.Add(*v)
				}
			}
		}
	}

	return aggregates.NewProjectedGraph(registry.Materialize(), collector.Edges())
}
