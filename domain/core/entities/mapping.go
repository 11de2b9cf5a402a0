package entities

import (
	"strings"
	"time"

	"schemagraph/pkg/utils"
)

// Mapping associates one relational column with one node label and property.
// Nothing prevents two mappings for the same (datasource, table, column).
type Mapping struct {
	ID           string `json:"id"`
	DatasourceID string `json:"datasourceId"`
	TableName    string `json:"tableName"`
	ColumnName   string `json:"columnName"`
	NodeLabel    string `json:"nodeLabel"`
	PropertyName string `json:"propertyName"`

	OwnerID   string    `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// MappingFields are the caller-supplied parts of a Mapping
type MappingFields struct {
	DatasourceID string `json:"datasourceId" validate:"required,max=256"`
	TableName    string `json:"tableName" validate:"required,max=256"`
	ColumnName   string `json:"columnName" validate:"required,max=256"`
	NodeLabel    string `json:"nodeLabel" validate:"required,max=256"`
	PropertyName string `json:"propertyName" validate:"required,max=256"`
}

// Normalize trims surrounding whitespace so blank values count as empty
func (f MappingFields) Normalize() MappingFields {
	return MappingFields{
		DatasourceID: strings.TrimSpace(f.DatasourceID),
		TableName:    strings.TrimSpace(f.TableName),
		ColumnName:   strings.TrimSpace(f.ColumnName),
		NodeLabel:    strings.TrimSpace(f.NodeLabel),
		PropertyName: strings.TrimSpace(f.PropertyName),
	}
}

// Validate fails with a VALIDATION error naming every empty field
func (f MappingFields) Validate() error {
	return utils.ValidateStruct(f.Normalize())
}

// NewMapping validates the fields and builds a Mapping owned by ownerID
func NewMapping(id, ownerID string, fields MappingFields, createdAt time.Time) (*Mapping, error) {
	fields = fields.Normalize()
	if err := utils.ValidateStruct(fields); err != nil {
		return nil, err
	}

	return &Mapping{
		ID:           id,
		DatasourceID: fields.DatasourceID,
		TableName:    fields.TableName,
		ColumnName:   fields.ColumnName,
		NodeLabel:    fields.NodeLabel,
		PropertyName: fields.PropertyName,
		OwnerID:      ownerID,
		CreatedAt:    createdAt,
	}, nil
}
