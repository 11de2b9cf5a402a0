package services

import (
	"context"
	"sort"
	"time"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"
	"schemagraph/domain/events"
	apperrors "schemagraph/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MappingService creates and lists column-to-property mappings
type MappingService struct {
	mappings    ports.MappingRepository
	dataSources ports.DataSourceRepository
	publisher   ports.EventPublisher
	logger      *zap.Logger
	newID       func() string
	now         func() time.Time
}

// NewMappingService creates a new mapping service
func NewMappingService(
	mappings ports.MappingRepository,
	dataSources ports.DataSourceRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *MappingService {
	return &MappingService{
		mappings:    mappings,
		dataSources: dataSources,
		publisher:   publisher,
		logger:      logger,
		newID:       uuid.NewString,
		now:         time.Now,
	}
}

// Create validates and stores a new mapping owned by ownerID.
// Every field must be non-empty and the data source must belong to the owner.
func (s *MappingService) Create(ctx context.Context, ownerID string, fields entities.MappingFields) (*entities.Mapping, error) {
	if ownerID == "" {
		return nil, apperrors.NewUnauthorizedError("missing caller identity")
	}

	mapping, err := entities.NewMapping(s.newID(), ownerID, fields, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if _, err := s.dataSources.FindByID(ctx, ownerID, mapping.DatasourceID); err != nil {
		return nil, err
	}

	saved, err := s.mappings.Save(ctx, mapping)
	if err != nil {
		s.logger.Error("Failed to save mapping",
			zap.String("userID", ownerID),
			zap.String("datasourceID", mapping.DatasourceID),
			zap.Error(err),
		)
		return nil, err
	}

	s.publish(ctx, events.NewMappingCreated(
		saved.ID, saved.DatasourceID, ownerID,
		saved.TableName, saved.ColumnName, saved.NodeLabel, saved.PropertyName,
		saved.CreatedAt,
	))

	s.logger.Info("Mapping created",
		zap.String("mappingID", saved.ID),
		zap.String("userID", ownerID),
		zap.String("datasourceID", saved.DatasourceID),
	)

	return saved, nil
}

// List returns the owner's mappings for a data source in creation order
func (s *MappingService) List(ctx context.Context, ownerID, dataSourceID string) ([]*entities.Mapping, error) {
	if ownerID == "" {
		return nil, apperrors.NewUnauthorizedError("missing caller identity")
	}
	if dataSourceID == "" {
		return nil, apperrors.NewValidationError("datasourceId is required")
	}

	mappings, err := s.mappings.FindAll(ctx, ownerID, dataSourceID)
	if err != nil {
		s.logger.Error("Failed to list mappings",
			zap.String("userID", ownerID),
			zap.String("datasourceID", dataSourceID),
			zap.Error(err),
		)
		return nil, err
	}
	if mappings == nil {
		return []*entities.Mapping{}, nil
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		return mappings[i].CreatedAt.Before(mappings[j].CreatedAt)
	})
	return mappings, nil
}

// publish emits an event; delivery failures are logged and do not fail the caller
func (s *MappingService) publish(ctx context.Context, event events.DomainEvent) {
	publishEvent(ctx, s.publisher, s.logger, event)
}

func publishEvent(ctx context.Context, publisher ports.EventPublisher, logger *zap.Logger, event events.DomainEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish event",
			zap.String("eventType", event.GetEventType()),
			zap.String("aggregateID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
