package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"schemagraph/application/ports"
	domainconfig "schemagraph/domain/config"
	"schemagraph/domain/core/entities"
	"schemagraph/domain/events"
	apperrors "schemagraph/pkg/errors"
	"schemagraph/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterDataSourceInput is the caller-supplied part of a data source
type RegisterDataSourceInput struct {
	Name     string `json:"name" validate:"required,max=256"`
	Server   string `json:"server" validate:"required,max=512"`
	Database string `json:"database" validate:"required,max=256"`
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password" validate:"required"`
	Driver   string `json:"driver" validate:"omitempty,oneof=sqlserver postgres mysql"`
}

// DataSourceService registers relational sources and reads their schema
type DataSourceService struct {
	dataSources  ports.DataSourceRepository
	introspector ports.SchemaIntrospector
	cache        ports.Cache
	publisher    ports.EventPublisher
	config       *domainconfig.DomainConfig
	logger       *zap.Logger
	newID        func() string
	now          func() time.Time
}

// NewDataSourceService creates a new data source service
func NewDataSourceService(
	dataSources ports.DataSourceRepository,
	introspector ports.SchemaIntrospector,
	cache ports.Cache,
	publisher ports.EventPublisher,
	config *domainconfig.DomainConfig,
	logger *zap.Logger,
) *DataSourceService {
	if config == nil {
		config = domainconfig.DefaultDomainConfig()
	}
	return &DataSourceService{
		dataSources:  dataSources,
		introspector: introspector,
		cache:        cache,
		publisher:    publisher,
		config:       config,
		logger:       logger,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Register stores a new data source for ownerID
func (s *DataSourceService) Register(ctx context.Context, ownerID string, input RegisterDataSourceInput) (*entities.DataSource, error) {
	if ownerID == "" {
		return nil, apperrors.NewUnauthorizedError("missing caller identity")
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Server = strings.TrimSpace(input.Server)
	input.Database = strings.TrimSpace(input.Database)
	input.Username = strings.TrimSpace(input.Username)
	input.Driver = strings.TrimSpace(input.Driver)
	if err := utils.ValidateStruct(input); err != nil {
		return nil, err
	}

	ds := &entities.DataSource{
		ID:        s.newID(),
		Name:      input.Name,
		Server:    input.Server,
		Database:  input.Database,
		Username:  input.Username,
		Password:  input.Password,
		Driver:    input.Driver,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC(),
	}
	ds.Driver = ds.DriverOrDefault()

	if err := s.dataSources.Save(ctx, ds); err != nil {
		s.logger.Error("Failed to save data source",
			zap.String("userID", ownerID),
			zap.Error(err),
		)
		return nil, err
	}

	publishEvent(ctx, s.publisher, s.logger, events.NewDataSourceRegistered(ds.ID, ownerID, ds.Name, ds.Driver, ds.CreatedAt))

	return ds, nil
}

// List returns the owner's data sources
func (s *DataSourceService) List(ctx context.Context, ownerID string) ([]*entities.DataSource, error) {
	if ownerID == "" {
		return nil, apperrors.NewUnauthorizedError("missing caller identity")
	}

	list, err := s.dataSources.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entities.DataSource{}
	}
	return list, nil
}

// Schema introspects an owned data source. Results are cached per data
// source for the configured TTL.
func (s *DataSourceService) Schema(ctx context.Context, ownerID, dataSourceID string) (entities.Schema, error) {
	if ownerID == "" {
		return nil, apperrors.NewUnauthorizedError("missing caller identity")
	}

	ds, err := s.dataSources.FindByID(ctx, ownerID, dataSourceID)
	if err != nil {
		return nil, err
	}

	key := schemaCacheKey(ds.ID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			if schema, ok := cached.(entities.Schema); ok {
				return schema, nil
			}
		}
	}

	introspectCtx, cancel := context.WithTimeout(ctx, s.config.ConnectionTimeout)
	defer cancel()

	schema, err := s.introspector.Introspect(introspectCtx, ds)
	if err != nil {
		s.logger.Error("Schema introspection failed",
			zap.String("userID", ownerID),
			zap.String("datasourceID", ds.ID),
			zap.String("driver", ds.Driver),
			zap.Error(err),
		)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.NewStoreError("introspect schema", err).WithMessage("Database connection error")
	}

	if s.cache != nil {
		ttl := int(s.config.SchemaCacheTTL / time.Second)
		if err := s.cache.Set(ctx, key, schema, ttl); err != nil {
			s.logger.Warn("Failed to cache schema", zap.String("datasourceID", ds.ID), zap.Error(err))
		}
	}

	return schema, nil
}

func schemaCacheKey(dataSourceID string) string {
	return fmt.Sprintf("schema:%s", dataSourceID)
}
