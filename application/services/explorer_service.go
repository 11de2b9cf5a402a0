package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schemagraph/application/ports"
	domainconfig "schemagraph/domain/config"
	"schemagraph/domain/core/aggregates"
	"schemagraph/domain/core/entities"
	domainservices "schemagraph/domain/services"
	apperrors "schemagraph/pkg/errors"
	"schemagraph/pkg/observability"

	"go.uber.org/zap"
)

// QueryResponse is what the query endpoint returns: the records as plain
// objects, the store summary and the projected graph.
type QueryResponse struct {
	Data    []entities.QueryRecord    `json:"data"`
	Summary ports.QuerySummary        `json:"summary"`
	Graph   aggregates.ProjectedGraph `json:"graph"`
}

// ExplorerService runs ad-hoc graph queries and projects their results
type ExplorerService struct {
	executor  ports.QueryExecutor
	projector *domainservices.Projector
	metrics   ports.Metrics
	tracer    *observability.Tracer
	config    *domainconfig.DomainConfig
	logger    *zap.Logger
}

// NewExplorerService creates a new explorer service
func NewExplorerService(
	executor ports.QueryExecutor,
	projector *domainservices.Projector,
	metrics ports.Metrics,
	tracer *observability.Tracer,
	config *domainconfig.DomainConfig,
	logger *zap.Logger,
) *ExplorerService {
	if config == nil {
		config = domainconfig.DefaultDomainConfig()
	}
	if projector == nil {
		projector = domainservices.NewProjector()
	}
	return &ExplorerService{
		executor:  executor,
		projector: projector,
		metrics:   metrics,
		tracer:    tracer,
		config:    config,
		logger:    logger,
	}
}

// Execute runs the query under the configured timeout and projects the records.
// Executor failures surface immediately and are never retried.
func (s *ExplorerService) Execute(ctx context.Context, userID, query string) (*QueryResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidationError("query is required")
	}
	if len(query) > s.config.MaxQueryLength {
		return nil, apperrors.NewValidationError(fmt.Sprintf("query must be at most %d characters", s.config.MaxQueryLength))
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.config.QueryTimeout)
	defer cancel()

	start := time.Now()
	var result *ports.QueryResult
	err := s.tracer.TraceFunction(queryCtx, "execute_query", func(ctx context.Context) error {
		var execErr error
		result, execErr = s.executor.Execute(ctx, query)
		return execErr
	})
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordQuery(ctx, elapsed, err)
	}

	if err != nil {
		s.logger.Warn("Query failed",
			zap.String("userID", userID),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, classifyQueryError(err)
	}

	graph := s.project(ctx, result.Records)

	s.logger.Debug("Query executed",
		zap.String("userID", userID),
		zap.Int("records", len(result.Records)),
		zap.Int("nodes", graph.Stats.NodeCount),
		zap.Int("edges", graph.Stats.EdgeCount),
		zap.Duration("duration", elapsed),
	)

	records := result.Records
	if records == nil {
		records = []entities.QueryRecord{}
	}
	return &QueryResponse{
		Data:    records,
		Summary: result.Summary,
		Graph:   graph,
	}, nil
}

// Project builds a graph from records the caller already holds
func (s *ExplorerService) Project(ctx context.Context, records []entities.QueryRecord) (aggregates.ProjectedGraph, error) {
	if len(records) > s.config.MaxRecordsPerProjection {
		return aggregates.ProjectedGraph{}, apperrors.NewValidationError(
			fmt.Sprintf("at most %d records can be projected at once", s.config.MaxRecordsPerProjection))
	}
	return s.project(ctx, records), nil
}

func (s *ExplorerService) project(ctx context.Context, records []entities.QueryRecord) aggregates.ProjectedGraph {
	var graph aggregates.ProjectedGraph
	_ = s.tracer.TraceFunction(ctx, "project", func(ctx context.Context) error {
		graph = s.projector.Project(records)
		s.tracer.AddMetadata(ctx, "stats", graph.Stats)
		return nil
	})

	if s.metrics != nil {
		s.metrics.RecordProjection(ctx, graph.Stats.NodeCount, graph.Stats.EdgeCount)
	}
	if graph.Stats.DanglingEdges > 0 {
		s.logger.Debug("Projection has edges with missing endpoints",
			zap.Int("danglingEdges", graph.Stats.DanglingEdges),
		)
	}
	return graph
}

// classifyQueryError keeps the executor's message visible to the caller
func classifyQueryError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("execute query").WithCause(err)
	}
	return apperrors.NewStoreError("execute query", err).WithMessage(err.Error())
}
