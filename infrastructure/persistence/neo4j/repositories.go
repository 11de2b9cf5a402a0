package neo4j

import (
	"context"
	"fmt"
	"time"

	"schemagraph/application/ports"
	"schemagraph/domain/core/entities"
	apperrors "schemagraph/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Metadata lives next to the explored graph as :User, :DataSource and
// :Mapping nodes. Timestamps are stored as unix nanoseconds so ORDER BY
// gives creation order.

// UserRepository persists accounts as :User nodes
type UserRepository struct {
	client *Client
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a user repository
func NewUserRepository(client *Client) *UserRepository {
	return &UserRepository{client: client}
}

// Save creates the user unless the username is taken
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	session := r.client.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MERGE (u:User {username: $username})
		ON CREATE SET u.id = $id, u.passwordHash = $passwordHash, u.createdAt = $createdAt
		RETURN u.id AS id`,
		map[string]any{
			"id":           user.ID,
			"username":     user.Username,
			"passwordHash": user.PasswordHash,
			"createdAt":    user.CreatedAt.UnixNano(),
		})
	if err != nil {
		return apperrors.NewStoreError("save user", err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return apperrors.NewStoreError("save user", err)
	}
	if id, _ := record.Get("id"); id != user.ID {
		return apperrors.NewConflictError("User already exists")
	}
	return nil
}

// FindByUsername loads a user by name
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	records, err := r.client.read(ctx, "find user",
		"MATCH (u:User {username: $username}) RETURN u LIMIT 1",
		map[string]any{"username": username})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError("user")
	}

	props := nodeProps(records[0], "u")
	return &entities.User{
		ID:           stringProp(props, "id"),
		Username:     stringProp(props, "username"),
		PasswordHash: stringProp(props, "passwordHash"),
		CreatedAt:    timeProp(props, "createdAt"),
	}, nil
}

// DataSourceRepository persists registered databases as :DataSource nodes
type DataSourceRepository struct {
	client *Client
}

var _ ports.DataSourceRepository = (*DataSourceRepository)(nil)

// NewDataSourceRepository creates a data source repository
func NewDataSourceRepository(client *Client) *DataSourceRepository {
	return &DataSourceRepository{client: client}
}

// Save creates the data source node
func (r *DataSourceRepository) Save(ctx context.Context, ds *entities.DataSource) error {
	return r.client.write(ctx, "save datasource", `
		CREATE (d:DataSource {
			id: $id, name: $name, server: $server, database: $database,
			username: $username, password: $password, driver: $driver,
			ownerId: $ownerId, createdAt: $createdAt
		})`,
		map[string]any{
			"id":        ds.ID,
			"name":      ds.Name,
			"server":    ds.Server,
			"database":  ds.Database,
			"username":  ds.Username,
			"password":  ds.Password,
			"driver":    ds.Driver,
			"ownerId":   ds.OwnerID,
			"createdAt": ds.CreatedAt.UnixNano(),
		})
}

// FindByID loads a data source scoped to its owner
func (r *DataSourceRepository) FindByID(ctx context.Context, ownerID, id string) (*entities.DataSource, error) {
	records, err := r.client.read(ctx, "find datasource",
		"MATCH (d:DataSource {id: $id, ownerId: $ownerId}) RETURN d LIMIT 1",
		map[string]any{"id": id, "ownerId": ownerID})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperrors.NewNotFoundError("datasource")
	}
	return toDataSource(nodeProps(records[0], "d")), nil
}

// FindByOwner lists the owner's data sources in creation order
func (r *DataSourceRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.DataSource, error) {
	records, err := r.client.read(ctx, "list datasources",
		"MATCH (d:DataSource {ownerId: $ownerId}) RETURN d ORDER BY d.createdAt, d.id",
		map[string]any{"ownerId": ownerID})
	if err != nil {
		return nil, err
	}

	out := make([]*entities.DataSource, 0, len(records))
	for _, rec := range records {
		out = append(out, toDataSource(nodeProps(rec, "d")))
	}
	return out, nil
}

// MappingRepository persists mappings as :Mapping nodes
type MappingRepository struct {
	client *Client
}

var _ ports.MappingRepository = (*MappingRepository)(nil)

// NewMappingRepository creates a mapping repository
func NewMappingRepository(client *Client) *MappingRepository {
	return &MappingRepository{client: client}
}

// Save creates the mapping node and returns it as stored
func (r *MappingRepository) Save(ctx context.Context, m *entities.Mapping) (*entities.Mapping, error) {
	err := r.client.write(ctx, "save mapping", `
		CREATE (m:Mapping {
			id: $id, datasourceId: $datasourceId, tableName: $tableName,
			columnName: $columnName, nodeLabel: $nodeLabel, propertyName: $propertyName,
			ownerId: $ownerId, createdAt: $createdAt
		})`,
		map[string]any{
			"id":           m.ID,
			"datasourceId": m.DatasourceID,
			"tableName":    m.TableName,
			"columnName":   m.ColumnName,
			"nodeLabel":    m.NodeLabel,
			"propertyName": m.PropertyName,
			"ownerId":      m.OwnerID,
			"createdAt":    m.CreatedAt.UnixNano(),
		})
	if err != nil {
		return nil, err
	}
	stored := *m
	return &stored, nil
}

// FindAll lists the owner's mappings for a data source in creation order
func (r *MappingRepository) FindAll(ctx context.Context, ownerID, dataSourceID string) ([]*entities.Mapping, error) {
	records, err := r.client.read(ctx, "list mappings", `
		MATCH (m:Mapping {ownerId: $ownerId, datasourceId: $datasourceId})
		RETURN m ORDER BY m.createdAt, m.id`,
		map[string]any{"ownerId": ownerID, "datasourceId": dataSourceID})
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Mapping, 0, len(records))
	for _, rec := range records {
		props := nodeProps(rec, "m")
		out = append(out, &entities.Mapping{
			ID:           stringProp(props, "id"),
			DatasourceID: stringProp(props, "datasourceId"),
			TableName:    stringProp(props, "tableName"),
			ColumnName:   stringProp(props, "columnName"),
			NodeLabel:    stringProp(props, "nodeLabel"),
			PropertyName: stringProp(props, "propertyName"),
			OwnerID:      stringProp(props, "ownerId"),
			CreatedAt:    timeProp(props, "createdAt"),
		})
	}
	return out, nil
}

func (c *Client) read(ctx context.Context, op, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(op, err)
	}
	return records, nil
}

func (c *Client) write(ctx context.Context, op, query string, params map[string]any) error {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return apperrors.NewStoreError(op, err)
	}
	if _, err := result.Consume(ctx); err != nil {
		return apperrors.NewStoreError(op, err)
	}
	return nil
}

func toDataSource(props map[string]any) *entities.DataSource {
	return &entities.DataSource{
		ID:        stringProp(props, "id"),
		Name:      stringProp(props, "name"),
		Server:    stringProp(props, "server"),
		Database:  stringProp(props, "database"),
		Username:  stringProp(props, "username"),
		Password:  stringProp(props, "password"),
		Driver:    stringProp(props, "driver"),
		OwnerID:   stringProp(props, "ownerId"),
		CreatedAt: timeProp(props, "createdAt"),
	}
}

func nodeProps(record *neo4j.Record, key string) map[string]any {
	raw, ok := record.Get(key)
	if !ok {
		return map[string]any{}
	}
	node, ok := raw.(neo4j.Node)
	if !ok {
		return map[string]any{}
	}
	return node.Props
}

func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func timeProp(props map[string]any, key string) time.Time {
	if v, ok := props[key].(int64); ok {
		return time.Unix(0, v).UTC()
	}
	return time.Time{}
}
