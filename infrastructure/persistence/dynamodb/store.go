// Package dynamodb stores users, data sources and mappings in a single
// DynamoDB table.
//
// Key layout:
//
//	USERNAME#<username>  PROFILE
//	USER#<ownerId>       DATASOURCE#<id>
//	USER#<ownerId>       MAPPING#<datasourceId>#<id>
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"
	apperrors "schemagraph/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	entityUser       = "USER"
	entityDataSource = "DATASOURCE"
	entityMapping    = "MAPPING"
)

// API is the slice of the DynamoDB client the store uses
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store implements the metadata repositories on one table
type Store struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewStore creates a new Store
func NewStore(client API, tableName string, logger *zap.Logger) *Store {
	return &Store{client: client, tableName: tableName, logger: logger}
}

// Users returns the store as a user repository
func (s *Store) Users() *UserRepository { return &UserRepository{s} }

// DataSources returns the store as a data source repository
func (s *Store) DataSources() *DataSourceRepository { return &DataSourceRepository{s} }

// Mappings returns the store as a mapping repository
func (s *Store) Mappings() *MappingRepository { return &MappingRepository{s} }

type userItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	UserID       string `dynamodbav:"UserID"`
	Username     string `dynamodbav:"Username"`
	PasswordHash string `dynamodbav:"PasswordHash"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

type dataSourceItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	DataSourceID string `dynamodbav:"DataSourceID"`
	OwnerID      string `dynamodbav:"OwnerID"`
	Name         string `dynamodbav:"Name"`
	Server       string `dynamodbav:"Server"`
	Database     string `dynamodbav:"Database"`
	Username     string `dynamodbav:"Username"`
	Password     string `dynamodbav:"Password"`
	Driver       string `dynamodbav:"Driver"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

type mappingItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	MappingID    string `dynamodbav:"MappingID"`
	OwnerID      string `dynamodbav:"OwnerID"`
	DataSourceID string `dynamodbav:"DataSourceID"`
	TableName    string `dynamodbav:"TableName"`
	ColumnName   string `dynamodbav:"ColumnName"`
	NodeLabel    string `dynamodbav:"NodeLabel"`
	PropertyName string `dynamodbav:"PropertyName"`
	CreatedAt    string `dynamodbav:"CreatedAt"`
}

func userPK(username string) string { return fmt.Sprintf("USERNAME#%s", username) }
func ownerPK(ownerID string) string { return fmt.Sprintf("USER#%s", ownerID) }
func dataSourceSK(id string) string { return fmt.Sprintf("DATASOURCE#%s", id) }
func mappingPrefix(dsID string) string {
	return fmt.Sprintf("MAPPING#%s#", dsID)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

// putNew writes an item that must not already exist
func (s *Store) putNew(ctx context.Context, item interface{}) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(s.tableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return err
}

func (s *Store) get(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return false, err
	}
	if result.Item == nil {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return true, nil
}

// queryPrefix collects every item under pk whose sort key starts with prefix
func (s *Store) queryPrefix(ctx context.Context, pk, prefix string) ([]map[string]types.AttributeValue, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(pk)).
		And(expression.Key("SK").BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		result, err := s.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		startKey = result.LastEvaluatedKey
	}
}

// UserRepository is the user view of a Store
type UserRepository struct{ s *Store }

var _ ports.UserRepository = (*UserRepository)(nil)

// Save creates the user; a taken username is a conflict
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	err := r.s.putNew(ctx, userItem{
		PK:           userPK(user.Username),
		SK:           "PROFILE",
		EntityType:   entityUser,
		UserID:       user.ID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    formatTime(user.CreatedAt),
	})
	if err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			return apperrors.NewConflictError("User already exists")
		}
		r.s.logger.Error("Failed to save user", zap.Error(err), zap.String("username", user.Username))
		return apperrors.NewStoreError("save user", err)
	}
	return nil
}

// FindByUsername loads a user by name
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	var item userItem
	found, err := r.s.get(ctx, userPK(username), "PROFILE", &item)
	if err != nil {
		return nil, apperrors.NewStoreError("find user", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("user")
	}
	return &entities.User{
		ID:           item.UserID,
		Username:     item.Username,
		PasswordHash: item.PasswordHash,
		CreatedAt:    parseTime(item.CreatedAt),
	}, nil
}

// DataSourceRepository is the data source view of a Store
type DataSourceRepository struct{ s *Store }

var _ ports.DataSourceRepository = (*DataSourceRepository)(nil)

// Save stores a data source under its owner's partition
func (r *DataSourceRepository) Save(ctx context.Context, ds *entities.DataSource) error {
	err := r.s.putNew(ctx, dataSourceItem{
		PK:           ownerPK(ds.OwnerID),
		SK:           dataSourceSK(ds.ID),
		EntityType:   entityDataSource,
		DataSourceID: ds.ID,
		OwnerID:      ds.OwnerID,
		Name:         ds.Name,
		Server:       ds.Server,
		Database:     ds.Database,
		Username:     ds.Username,
		Password:     ds.Password,
		Driver:       ds.Driver,
		CreatedAt:    formatTime(ds.CreatedAt),
	})
	if err != nil {
		r.s.logger.Error("Failed to save datasource", zap.Error(err), zap.String("datasourceId", ds.ID))
		return apperrors.NewStoreError("save datasource", err)
	}
	return nil
}

// FindByID loads a data source; the key itself scopes it to the owner
func (r *DataSourceRepository) FindByID(ctx context.Context, ownerID, id string) (*entities.DataSource, error) {
	var item dataSourceItem
	found, err := r.s.get(ctx, ownerPK(ownerID), dataSourceSK(id), &item)
	if err != nil {
		return nil, apperrors.NewStoreError("find datasource", err)
	}
	if !found {
		return nil, apperrors.NewNotFoundError("datasource")
	}
	return item.toEntity(), nil
}

// FindByOwner lists the owner's data sources in creation order
func (r *DataSourceRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.DataSource, error) {
	raw, err := r.s.queryPrefix(ctx, ownerPK(ownerID), "DATASOURCE#")
	if err != nil {
		return nil, apperrors.NewStoreError("list datasources", err)
	}

	var items []dataSourceItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, apperrors.NewStoreError("list datasources", err)
	}

	out := make([]*entities.DataSource, 0, len(items))
	for i := range items {
		out = append(out, items[i].toEntity())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (item dataSourceItem) toEntity() *entities.DataSource {
	return &entities.DataSource{
		ID:        item.DataSourceID,
		Name:      item.Name,
		Server:    item.Server,
		Database:  item.Database,
		Username:  item.Username,
		Password:  item.Password,
		Driver:    item.Driver,
		OwnerID:   item.OwnerID,
		CreatedAt: parseTime(item.CreatedAt),
	}
}

// MappingRepository is the mapping view of a Store
type MappingRepository struct{ s *Store }

var _ ports.MappingRepository = (*MappingRepository)(nil)

// Save stores a mapping under its owner's partition
func (r *MappingRepository) Save(ctx context.Context, m *entities.Mapping) (*entities.Mapping, error) {
	err := r.s.putNew(ctx, mappingItem{
		PK:           ownerPK(m.OwnerID),
		SK:           mappingPrefix(m.DatasourceID) + m.ID,
		EntityType:   entityMapping,
		MappingID:    m.ID,
		OwnerID:      m.OwnerID,
		DataSourceID: m.DatasourceID,
		TableName:    m.TableName,
		ColumnName:   m.ColumnName,
		NodeLabel:    m.NodeLabel,
		PropertyName: m.PropertyName,
		CreatedAt:    formatTime(m.CreatedAt),
	})
	if err != nil {
		r.s.logger.Error("Failed to save mapping", zap.Error(err), zap.String("mappingId", m.ID))
		return nil, apperrors.NewStoreError("save mapping", err)
	}
	stored := *m
	return &stored, nil
}

// FindAll lists the owner's mappings for a data source in creation order
func (r *MappingRepository) FindAll(ctx context.Context, ownerID, dataSourceID string) ([]*entities.Mapping, error) {
	raw, err := r.s.queryPrefix(ctx, ownerPK(ownerID), mappingPrefix(dataSourceID))
	if err != nil {
		return nil, apperrors.NewStoreError("list mappings", err)
	}

	var items []mappingItem
	if err := attributevalue.UnmarshalListOfMaps(raw, &items); err != nil {
		return nil, apperrors.NewStoreError("list mappings", err)
	}

	out := make([]*entities.Mapping, 0, len(items))
	for _, item := range items {
		out = append(out, &entities.Mapping{
			ID:           item.MappingID,
			DatasourceID: item.DataSourceID,
			TableName:    item.TableName,
			ColumnName:   item.ColumnName,
			NodeLabel:    item.NodeLabel,
			PropertyName: item.PropertyName,
			OwnerID:      item.OwnerID,
			CreatedAt:    parseTime(item.CreatedAt),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
