package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FieldType represents the type of a field in a schema definition.
type FieldType string

const (
	FieldTypeString    FieldType = "string"
	FieldTypeInteger   FieldType = "integer"
	FieldTypeFloat     FieldType = "float"
	FieldTypeBoolean   FieldType = "boolean"
	FieldTypeTimestamp FieldType = "timestamp"
	FieldTypeJSON      FieldType = "json"
)

// FieldDefinition represents a single field in a schema version.
type FieldDefinition struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
}

// Product is the root of the registry hierarchy.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Domain groups contexts below a product.
type Domain struct {
	ID          uuid.UUID `json:"id"`
	ProductID   uuid.UUID `json:"product_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Context groups schemas below a domain.
type Context struct {
	ID          uuid.UUID `json:"id"`
	DomainID    uuid.UUID `json:"domain_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Schema is a named contract within a context; its field definitions live on
// its versions.
type Schema struct {
	ID          uuid.UUID `json:"id"`
	ContextID   uuid.UUID `json:"context_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SchemaType  string    `json:"schema_type"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SchemaVersion is an immutable snapshot of a schema's field definitions.
type SchemaVersion struct {
	ID              uuid.UUID         `json:"id"`
	SchemaID        uuid.UUID         `json:"schema_id"`
	SemanticVersion string            `json:"semantic_version"`
	Fields          []FieldDefinition `json:"fields"`
	CreatedAt       time.Time         `json:"created_at"`
}

// FieldsAsJSONB returns the field definitions as JSONB for database storage.
func (sv SchemaVersion) FieldsAsJSONB() (json.RawMessage, error) {
	return json.Marshal(sv.Fields)
}

// FieldsFromJSONB decodes field definitions from their JSONB storage form.
func FieldsFromJSONB(fieldsJSON json.RawMessage) ([]FieldDefinition, error) {
	if len(fieldsJSON) == 0 {
		return nil, nil
	}
	var fields []FieldDefinition
	err := json.Unmarshal(fieldsJSON, &fields)
	return fields, err
}

// CopyFields creates a copy of the fields slice so callers cannot mutate a
// stored version in place.
func CopyFields(fields []FieldDefinition) []FieldDefinition {
	if fields == nil {
		return nil
	}
	out := make([]FieldDefinition, len(fields))
	copy(out, fields)
	return out
}
