package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which level of the registry hierarchy a change record
// refers to.
type EntityType string

const (
	EntityTypeProduct       EntityType = "product"
	EntityTypeDomain        EntityType = "domain"
	EntityTypeContext       EntityType = "context"
	EntityTypeSchema        EntityType = "schema"
	EntityTypeSchemaVersion EntityType = "schema_version"
)

// EntityTypes lists all valid entity types in hierarchy order.
var EntityTypes = []EntityType{
	EntityTypeProduct,
	EntityTypeDomain,
	EntityTypeContext,
	EntityTypeSchema,
	EntityTypeSchemaVersion,
}

// ParseEntityType validates a raw entity type value.
func ParseEntityType(raw string) (EntityType, error) {
	switch EntityType(raw) {
	case EntityTypeProduct, EntityTypeDomain, EntityTypeContext, EntityTypeSchema, EntityTypeSchemaVersion:
		return EntityType(raw), nil
	}
	return "", fmt.Errorf("invalid entity type %q", raw)
}

// ChangeType identifies the kind of mutation a change record captures.
type ChangeType string

const (
	ChangeTypeCreated ChangeType = "created"
	ChangeTypeUpdated ChangeType = "updated"
	ChangeTypeDeleted ChangeType = "deleted"
)

// ParseChangeType validates a raw change type value.
func ParseChangeType(raw string) (ChangeType, error) {
	switch ChangeType(raw) {
	case ChangeTypeCreated, ChangeTypeUpdated, ChangeTypeDeleted:
		return ChangeType(raw), nil
	}
	return "", fmt.Errorf("invalid change type %q", raw)
}

// ChangeData is the structured payload of a change record: a before/after core
// plus precomputed diff fields, plus an open extension map so enrichment fields
// written by callers survive a round trip untouched.
type ChangeData struct {
	Before              map[string]any `json:"-"`
	After               map[string]any `json:"-"`
	RemovedFields       []string       `json:"-"`
	AddedRequiredFields []string       `json:"-"`
	ChangedFieldTypes   []string       `json:"-"`

	// Extra holds any additional payload keys (schemaName and the like)
	// verbatim.
	Extra map[string]json.RawMessage `json:"-"`
}

type changeDataKnown struct {
	Before              map[string]any `json:"before,omitempty"`
	After               map[string]any `json:"after,omitempty"`
	RemovedFields       []string       `json:"removedFields,omitempty"`
	AddedRequiredFields []string       `json:"addedRequiredFields,omitempty"`
	ChangedFieldTypes   []string       `json:"changedFieldTypes,omitempty"`
}

var changeDataKnownKeys = []string{
	"before", "after", "removedFields", "addedRequiredFields", "changedFieldTypes",
}

// MarshalJSON flattens the known fields and the extension map into one object.
func (cd ChangeData) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(changeDataKnown{
		Before:              cd.Before,
		After:               cd.After,
		RemovedFields:       cd.RemovedFields,
		AddedRequiredFields: cd.AddedRequiredFields,
		ChangedFieldTypes:   cd.ChangedFieldTypes,
	})
	if err != nil {
		return nil, err
	}

	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range cd.Extra {
		if _, reserved := merged[key]; reserved {
			continue
		}
		merged[key] = value
	}

	return json.Marshal(merged)
}

// UnmarshalJSON splits an object into the known fields and the extension map.
func (cd *ChangeData) UnmarshalJSON(data []byte) error {
	var known changeDataKnown
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, key := range changeDataKnownKeys {
		delete(raw, key)
	}
	if len(raw) == 0 {
		raw = nil
	}

	*cd = ChangeData{
		Before:              known.Before,
		After:               known.After,
		RemovedFields:       known.RemovedFields,
		AddedRequiredFields: known.AddedRequiredFields,
		ChangedFieldTypes:   known.ChangedFieldTypes,
		Extra:               raw,
	}
	return nil
}

// ChangeRecord is one immutable entry in the change log. Records are only ever
// appended; retention cleanup is the single path that removes them.
type ChangeRecord struct {
	ID              uuid.UUID  `json:"id"`
	EntityType      EntityType `json:"entity_type"`
	EntityID        uuid.UUID  `json:"entity_id"`
	EntityName      string     `json:"entity_name"`
	ChangeType      ChangeType `json:"change_type"`
	ChangeData      ChangeData `json:"change_data"`
	ChangedByUserID *uuid.UUID `json:"changed_by_user_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// DetailedChange is a change record enriched for display: actor identity when
// the user directory has it, and the breaking-change classification.
type DetailedChange struct {
	ChangeRecord
	ChangedByName  *string `json:"changed_by_name,omitempty"`
	ChangedByEmail *string `json:"changed_by_email,omitempty"`
	Breaking       bool    `json:"breaking"`
}

// ChangeCounts groups unseen-change counts for one entity type.
type ChangeCounts struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
	Deleted int `json:"deleted"`
}

// Total returns the sum of the per-change-type counts.
func (c ChangeCounts) Total() int {
	return c.New + c.Updated + c.Deleted
}

// ChangesSummary aggregates a user's unseen, visible changes per entity type.
type ChangesSummary struct {
	Products       ChangeCounts `json:"products"`
	Domains        ChangeCounts `json:"domains"`
	Contexts       ChangeCounts `json:"contexts"`
	Schemas        ChangeCounts `json:"schemas"`
	SchemaVersions ChangeCounts `json:"schema_versions"`
	TotalChanges   int          `json:"total_changes"`
}

// Add records count changes of one (entity type, change type) bucket into the
// summary and keeps the grand total in sync.
func (s *ChangesSummary) Add(entityType EntityType, changeType ChangeType, count int) {
	var bucket *ChangeCounts
	switch entityType {
	case EntityTypeProduct:
		bucket = &s.Products
	case EntityTypeDomain:
		bucket = &s.Domains
	case EntityTypeContext:
		bucket = &s.Contexts
	case EntityTypeSchema:
		bucket = &s.Schemas
	case EntityTypeSchemaVersion:
		bucket = &s.SchemaVersions
	default:
		return
	}

	switch changeType {
	case ChangeTypeCreated:
		bucket.New += count
	case ChangeTypeUpdated:
		bucket.Updated += count
	case ChangeTypeDeleted:
		bucket.Deleted += count
	default:
		return
	}
	s.TotalChanges += count
}
