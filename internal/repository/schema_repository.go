package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
)

// Schema and schema-version operations of hierarchyRepository.

// CreateSchema creates a new schema under a context.
func (r *hierarchyRepository) CreateSchema(ctx context.Context, schema model.Schema) (model.Schema, error) {
	err := r.db.QueryRow(ctx, `
		INSERT INTO schemas (id, context_id, name, description, schema_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING created_at, updated_at`,
		schema.ID, schema.ContextID, schema.Name, schema.Description, schema.SchemaType, schema.CreatedAt,
	).Scan(&schema.CreatedAt, &schema.UpdatedAt)
	if err != nil {
		return model.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}
	return schema, nil
}

// GetSchema retrieves a schema by ID.
func (r *hierarchyRepository) GetSchema(ctx context.Context, id uuid.UUID) (model.Schema, error) {
	var schema model.Schema
	err := r.db.QueryRow(ctx, `
		SELECT id, context_id, name, description, schema_type, created_at, updated_at
		FROM schemas WHERE id = $1`,
		id,
	).Scan(&schema.ID, &schema.ContextID, &schema.Name, &schema.Description, &schema.SchemaType, &schema.CreatedAt, &schema.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "schema", id); nf != nil {
			return model.Schema{}, nf
		}
		return model.Schema{}, fmt.Errorf("failed to get schema: %w", err)
	}
	return schema, nil
}

// ListSchemas retrieves the schemas under a context, newest first.
func (r *hierarchyRepository) ListSchemas(ctx context.Context, contextID uuid.UUID) ([]model.Schema, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, context_id, name, description, schema_type, created_at, updated_at
		FROM schemas WHERE context_id = $1 ORDER BY created_at DESC`,
		contextID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer rows.Close()

	schemas := []model.Schema{}
	for rows.Next() {
		var schema model.Schema
		if err := rows.Scan(&schema.ID, &schema.ContextID, &schema.Name, &schema.Description, &schema.SchemaType, &schema.CreatedAt, &schema.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schema: %w", err)
		}
		schemas = append(schemas, schema)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema rows: %w", err)
	}
	return schemas, nil
}

// UpdateSchema updates a schema's name, description and type.
func (r *hierarchyRepository) UpdateSchema(ctx context.Context, schema model.Schema) (model.Schema, error) {
	err := r.db.QueryRow(ctx, `
		UPDATE schemas SET name = $2, description = $3, schema_type = $4, updated_at = $5
		WHERE id = $1
		RETURNING context_id, created_at, updated_at`,
		schema.ID, schema.Name, schema.Description, schema.SchemaType, schema.UpdatedAt,
	).Scan(&schema.ContextID, &schema.CreatedAt, &schema.UpdatedAt)
	if err != nil {
		if nf := notFound(err, "schema", schema.ID); nf != nil {
			return model.Schema{}, nf
		}
		return model.Schema{}, fmt.Errorf("failed to update schema: %w", err)
	}
	return schema, nil
}

// DeleteSchema deletes a schema.
func (r *hierarchyRepository) DeleteSchema(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM schemas WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schema %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// CreateSchemaVersion creates a new immutable schema version.
func (r *hierarchyRepository) CreateSchemaVersion(ctx context.Context, version model.SchemaVersion) (model.SchemaVersion, error) {
	fieldsJSON, err := version.FieldsAsJSONB()
	if err != nil {
		return model.SchemaVersion{}, fmt.Errorf("failed to marshal fields: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		INSERT INTO schema_versions (id, schema_id, semantic_version, fields, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		version.ID, version.SchemaID, version.SemanticVersion, fieldsJSON, version.CreatedAt,
	).Scan(&version.CreatedAt)
	if err != nil {
		return model.SchemaVersion{}, fmt.Errorf("failed to create schema version: %w", err)
	}
	return version, nil
}

func (r *hierarchyRepository) scanSchemaVersion(row interface{ Scan(...any) error }) (model.SchemaVersion, error) {
	var version model.SchemaVersion
	var fieldsJSON []byte
	if err := row.Scan(&version.ID, &version.SchemaID, &version.SemanticVersion, &fieldsJSON, &version.CreatedAt); err != nil {
		return model.SchemaVersion{}, err
	}

	fields, err := model.FieldsFromJSONB(json.RawMessage(fieldsJSON))
	if err != nil {
		return model.SchemaVersion{}, fmt.Errorf("failed to decode fields for version %s: %w", version.ID, err)
	}
	version.Fields = fields
	return version, nil
}

// GetSchemaVersion retrieves a schema version by ID.
func (r *hierarchyRepository) GetSchemaVersion(ctx context.Context, id uuid.UUID) (model.SchemaVersion, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, schema_id, semantic_version, fields, created_at
		FROM schema_versions WHERE id = $1`,
		id,
	)

	version, err := r.scanSchemaVersion(row)
	if err != nil {
		if nf := notFound(err, "schema version", id); nf != nil {
			return model.SchemaVersion{}, nf
		}
		return model.SchemaVersion{}, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// ListSchemaVersions retrieves a schema's versions, newest first.
func (r *hierarchyRepository) ListSchemaVersions(ctx context.Context, schemaID uuid.UUID) ([]model.SchemaVersion, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, schema_id, semantic_version, fields, created_at
		FROM schema_versions WHERE schema_id = $1 ORDER BY created_at DESC`,
		schemaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}
	defer rows.Close()

	versions := []model.SchemaVersion{}
	for rows.Next() {
		version, err := r.scanSchemaVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema version rows: %w", err)
	}
	return versions, nil
}

// LatestSchemaVersion retrieves a schema's most recent version.
func (r *hierarchyRepository) LatestSchemaVersion(ctx context.Context, schemaID uuid.UUID) (model.SchemaVersion, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, schema_id, semantic_version, fields, created_at
		FROM schema_versions WHERE schema_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`,
		schemaID,
	)

	version, err := r.scanSchemaVersion(row)
	if err != nil {
		if nf := notFound(err, "schema", schemaID); nf != nil {
			return model.SchemaVersion{}, nf
		}
		return model.SchemaVersion{}, fmt.Errorf("failed to get latest schema version: %w", err)
	}
	return version, nil
}

// DeleteSchemaVersion deletes a schema version.
func (r *hierarchyRepository) DeleteSchemaVersion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM schema_versions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete schema version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schema version %s: %w", id, model.ErrNotFound)
	}
	return nil
}
