package neo4j

import (
	"context"
	"time"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Executor runs caller-supplied Cypher in an auto-commit transaction.
// Query text is passed through untouched; there is no retry.
type Executor struct {
	client  *Client
	timeout time.Duration
	decoder decoder
}

var _ ports.QueryExecutor = (*Executor)(nil)

// NewExecutor creates an executor. A zero timeout leaves the server default.
func NewExecutor(client *Client, timeout time.Duration) *Executor {
	return &Executor{
		client:  client,
		timeout: timeout,
		decoder: decoder{identity: client.identity},
	}
}

// Execute runs the query and fully consumes the result before the session closes
func (e *Executor) Execute(ctx context.Context, query string) (*ports.QueryResult, error) {
	session := e.client.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	var configurers []func(*neo4j.TransactionConfig)
	if e.timeout > 0 {
		configurers = append(configurers, neo4j.WithTxTimeout(e.timeout))
	}

	result, err := session.Run(ctx, query, nil, configurers...)
	if err != nil {
		return nil, err
	}

	records := make([]entities.QueryRecord, 0)
	for result.Next(ctx) {
		records = append(records, e.decoder.Record(result.Record()))
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	summary, err := result.Consume(ctx)
	if err != nil {
		return nil, err
	}

	e.client.logger.Debug("Query executed",
		zap.Int("records", len(records)),
		zap.Duration("availableAfter", summary.ResultAvailableAfter()),
	)

	return &ports.QueryResult{
		Records: records,
		Summary: buildSummary(query, summary),
	}, nil
}

func buildSummary(query string, summary neo4j.ResultSummary) ports.QuerySummary {
	out := ports.QuerySummary{
		Query:                  query,
		QueryType:              statementType(summary.StatementType()),
		Counters:               counters(summary.Counters()),
		ResultAvailableAfterMs: summary.ResultAvailableAfter().Milliseconds(),
		ResultConsumedAfterMs:  summary.ResultConsumedAfter().Milliseconds(),
	}
	if db := summary.Database(); db != nil {
		out.Database = db.Name()
	}
	for _, n := range summary.Notifications() {
		out.Notifications = append(out.Notifications, n.Code()+": "+n.Description())
	}
	return out
}

func statementType(t neo4j.StatementType) string {
	switch t {
	case neo4j.StatementTypeReadOnly:
		return "r"
	case neo4j.StatementTypeReadWrite:
		return "rw"
	case neo4j.StatementTypeWriteOnly:
		return "w"
	case neo4j.StatementTypeSchemaWrite:
		return "s"
	default:
		return ""
	}
}

func counters(c neo4j.Counters) map[string]int {
	if c == nil {
		return map[string]int{}
	}
	return map[string]int{
		"nodesCreated":         c.NodesCreated(),
		"nodesDeleted":         c.NodesDeleted(),
		"relationshipsCreated": c.RelationshipsCreated(),
		"relationshipsDeleted": c.RelationshipsDeleted(),
		"propertiesSet":        c.PropertiesSet(),
		"labelsAdded":          c.LabelsAdded(),
		"labelsRemoved":        c.LabelsRemoved(),
		"indexesAdded":         c.IndexesAdded(),
		"indexesRemoved":       c.IndexesRemoved(),
		"constraintsAdded":     c.ConstraintsAdded(),
		"constraintsRemoved":   c.ConstraintsRemoved(),
		"systemUpdates":        c.SystemUpdates(),
	}
}
