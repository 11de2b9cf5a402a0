package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// SourceSchemaGraph is the source attached to every published event
const SourceSchemaGraph = "schemagraph.api"

const (
	EventTypeUserRegistered       = "user.registered"
	EventTypeDataSourceRegistered = "datasource.registered"
	EventTypeMappingCreated       = "mapping.created"
)

// UserRegistered is raised when a new account is created
type UserRegistered struct {
	BaseEvent
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// NewUserRegistered creates a UserRegistered event
func NewUserRegistered(userID, username string, timestamp time.Time) UserRegistered {
	return UserRegistered{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   EventTypeUserRegistered,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:   userID,
		Username: username,
	}
}

// DataSourceRegistered is raised when a user registers a relational source
type DataSourceRegistered struct {
	BaseEvent
	DataSourceID string `json:"datasource_id"`
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Driver       string `json:"driver"`
}

// NewDataSourceRegistered creates a DataSourceRegistered event
func NewDataSourceRegistered(dataSourceID, userID, name, driver string, timestamp time.Time) DataSourceRegistered {
	return DataSourceRegistered{
		BaseEvent: BaseEvent{
			AggregateID: dataSourceID,
			EventType:   EventTypeDataSourceRegistered,
			Timestamp:   timestamp,
			Version:     1,
		},
		DataSourceID: dataSourceID,
		UserID:       userID,
		Name:         name,
		Driver:       driver,
	}
}

// MappingCreated is raised when a column is mapped onto a node property
type MappingCreated struct {
	BaseEvent
	MappingID    string `json:"mapping_id"`
	DataSourceID string `json:"datasource_id"`
	UserID       string `json:"user_id"`
	TableName    string `json:"table_name"`
	ColumnName   string `json:"column_name"`
	NodeLabel    string `json:"node_label"`
	PropertyName string `json:"property_name"`
}

// NewMappingCreated creates a MappingCreated event
func NewMappingCreated(mappingID, dataSourceID, userID, tableName, columnName, nodeLabel, propertyName string, timestamp time.Time) MappingCreated {
	return MappingCreated{
		BaseEvent: BaseEvent{
			AggregateID: mappingID,
			EventType:   EventTypeMappingCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		MappingID:    mappingID,
		DataSourceID: dataSourceID,
		UserID:       userID,
		TableName:    tableName,
		ColumnName:   columnName,
		NodeLabel:    nodeLabel,
		PropertyName: propertyName,
	}
}
