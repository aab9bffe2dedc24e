package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/notifications"
	"github.com/schemahub/schemahub/internal/schema/validator"
)

func schemaPayload(sc model.Schema) map[string]any {
	return map[string]any{
		"name":        sc.Name,
		"description": sc.Description,
		"schemaType":  sc.SchemaType,
		"contextId":   sc.ContextID.String(),
	}
}

// CreateSchema creates a schema under a context.
func (s *Service) CreateSchema(ctx context.Context, contextID uuid.UUID, name, description, schemaType string, actor *uuid.UUID) (model.Schema, error) {
	if _, err := s.store.GetContext(ctx, contextID); err != nil {
		return model.Schema{}, err
	}

	schema := model.Schema{
		ID:          uuid.New(),
		ContextID:   contextID,
		Name:        name,
		Description: description,
		SchemaType:  schemaType,
		CreatedAt:   s.now(),
	}

	schema, err := s.store.CreateSchema(ctx, schema)
	if err != nil {
		return model.Schema{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeSchema,
		EntityID:   schema.ID,
		EntityName: schema.Name,
		ChangeType: model.ChangeTypeCreated,
		ChangeData: model.ChangeData{After: schemaPayload(schema)},
		ChangedBy:  actor,
	})

	return schema, nil
}

// UpdateSchema updates a schema's name, description and type. Field changes go
// through new schema versions, never through the schema itself.
func (s *Service) UpdateSchema(ctx context.Context, id uuid.UUID, name, description, schemaType string, actor *uuid.UUID) (model.Schema, error) {
	before, err := s.store.GetSchema(ctx, id)
	if err != nil {
		return model.Schema{}, err
	}

	after := before
	after.Name = name
	after.Description = description
	after.SchemaType = schemaType
	after.UpdatedAt = s.now()

	after, err = s.store.UpdateSchema(ctx, after)
	if err != nil {
		return model.Schema{}, err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeSchema,
		EntityID:   after.ID,
		EntityName: after.Name,
		ChangeType: model.ChangeTypeUpdated,
		ChangeData: model.ChangeData{Before: schemaPayload(before), After: schemaPayload(after)},
		ChangedBy:  actor,
	})

	return after, nil
}

// DeleteSchema deletes a schema and its versions.
func (s *Service) DeleteSchema(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	before, err := s.store.GetSchema(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSchema(ctx, id); err != nil {
		return err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeSchema,
		EntityID:   id,
		EntityName: before.Name,
		ChangeType: model.ChangeTypeDeleted,
		ChangeData: model.ChangeData{Before: schemaPayload(before)},
		ChangedBy:  actor,
	})

	return nil
}

func versionPayload(v model.SchemaVersion) map[string]any {
	return map[string]any{
		"semanticVersion": v.SemanticVersion,
		"fieldCount":      len(v.Fields),
	}
}

// CreateSchemaVersion appends a new immutable version to a schema. When a prior
// version exists the change payload carries the field diff against it, which is
// what downstream breaking-change classification keys on.
func (s *Service) CreateSchemaVersion(ctx context.Context, schemaID uuid.UUID, semanticVersion string, fields []model.FieldDefinition, actor *uuid.UUID) (model.SchemaVersion, error) {
	if err := validator.ValidateFields(fields); err != nil {
		return model.SchemaVersion{}, fmt.Errorf("invalid field definitions: %w", err)
	}

	schema, err := s.store.GetSchema(ctx, schemaID)
	if err != nil {
		return model.SchemaVersion{}, err
	}

	version := model.SchemaVersion{
		ID:              uuid.New(),
		SchemaID:        schemaID,
		SemanticVersion: semanticVersion,
		Fields:          model.CopyFields(fields),
		CreatedAt:       s.now(),
	}

	data := model.ChangeData{After: versionPayload(version)}
	prev, err := s.store.LatestSchemaVersion(ctx, schemaID)
	switch {
	case err == nil:
		diff := model.DiffFields(prev.Fields, version.Fields)
		data.Before = versionPayload(prev)
		data.RemovedFields = diff.RemovedFields
		data.AddedRequiredFields = diff.AddedRequiredFields
		data.ChangedFieldTypes = diff.ChangedFieldTypes
	case errors.Is(err, model.ErrNotFound):
		// First version; nothing to diff against.
	default:
		return model.SchemaVersion{}, err
	}

	version, err = s.store.CreateSchemaVersion(ctx, version)
	if err != nil {
		return model.SchemaVersion{}, err
	}

	nameJSON, _ := json.Marshal(schema.Name)
	data.Extra = map[string]json.RawMessage{"schemaName": nameJSON}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeSchemaVersion,
		EntityID:   version.ID,
		EntityName: schema.Name + " " + version.SemanticVersion,
		ChangeType: model.ChangeTypeCreated,
		ChangeData: data,
		ChangedBy:  actor,
	})

	return version, nil
}

// DeleteSchemaVersion removes a single version.
func (s *Service) DeleteSchemaVersion(ctx context.Context, id uuid.UUID, actor *uuid.UUID) error {
	before, err := s.store.GetSchemaVersion(ctx, id)
	if err != nil {
		return err
	}

	schemaName := before.SemanticVersion
	if schema, err := s.store.GetSchema(ctx, before.SchemaID); err == nil {
		schemaName = schema.Name + " " + before.SemanticVersion
	}

	if err := s.store.DeleteSchemaVersion(ctx, id); err != nil {
		return err
	}

	s.recordChange(ctx, notifications.RecordChangeInput{
		EntityType: model.EntityTypeSchemaVersion,
		EntityID:   id,
		EntityName: schemaName,
		ChangeType: model.ChangeTypeDeleted,
		ChangeData: model.ChangeData{Before: versionPayload(before)},
		ChangedBy:  actor,
	})

	return nil
}

func (s *Service) GetSchema(ctx context.Context, id uuid.UUID) (model.Schema, error) {
	return s.store.GetSchema(ctx, id)
}

func (s *Service) ListSchemas(ctx context.Context, contextID uuid.UUID) ([]model.Schema, error) {
	return s.store.ListSchemas(ctx, contextID)
}

func (s *Service) GetSchemaVersion(ctx context.Context, id uuid.UUID) (model.SchemaVersion, error) {
	return s.store.GetSchemaVersion(ctx, id)
}

func (s *Service) ListSchemaVersions(ctx context.Context, schemaID uuid.UUID) ([]model.SchemaVersion, error) {
	return s.store.ListSchemaVersions(ctx, schemaID)
}

func (s *Service) LatestSchemaVersion(ctx context.Context, schemaID uuid.UUID) (model.SchemaVersion, error) {
	return s.store.LatestSchemaVersion(ctx, schemaID)
}
