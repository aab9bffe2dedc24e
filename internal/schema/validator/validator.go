// Package validator checks schema field definitions before a version is
// accepted into the registry.
package validator

import (
	"fmt"
	"strings"

	"github.com/schemahub/schemahub/internal/model"
)

var knownFieldTypes = map[model.FieldType]struct{}{
	model.FieldTypeString:    {},
	model.FieldTypeInteger:   {},
	model.FieldTypeFloat:     {},
	model.FieldTypeBoolean:   {},
	model.FieldTypeTimestamp: {},
	model.FieldTypeJSON:      {},
}

// ValidateFields ensures a field definition list is storable: non-empty,
// unique names (case-insensitive, matching how versions are diffed) and known
// field types.
func ValidateFields(fields []model.FieldDefinition) error {
	if len(fields) == 0 {
		return fmt.Errorf("at least one field definition is required")
	}

	seen := make(map[string]struct{}, len(fields))
	for _, field := range fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("field names cannot be empty")
		}

		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate field name %s", name)
		}
		seen[key] = struct{}{}

		if _, ok := knownFieldTypes[field.Type]; !ok {
			return fmt.Errorf("field %s has unknown type %s", name, field.Type)
		}
	}

	return nil
}
