package model

import "strings"

// FieldDiff captures the differences between two field definition lists in the
// shape the breaking-change classifier consumes.
type FieldDiff struct {
	RemovedFields       []string
	AddedRequiredFields []string
	ChangedFieldTypes   []string
}

// Empty reports whether the diff carries no changes.
func (d FieldDiff) Empty() bool {
	return len(d.RemovedFields) == 0 && len(d.AddedRequiredFields) == 0 && len(d.ChangedFieldTypes) == 0
}

// DiffFields compares field definitions by case-insensitive name and reports
// removed fields, newly required fields, and type changes. Field order is
// preserved from the input lists.
func DiffFields(oldFields, newFields []FieldDefinition) FieldDiff {
	oldByName := make(map[string]FieldDefinition, len(oldFields))
	for _, f := range oldFields {
		oldByName[strings.ToLower(f.Name)] = f
	}

	newByName := make(map[string]FieldDefinition, len(newFields))
	for _, f := range newFields {
		newByName[strings.ToLower(f.Name)] = f
	}

	var diff FieldDiff

	for _, oldField := range oldFields {
		newField, ok := newByName[strings.ToLower(oldField.Name)]
		if !ok {
			diff.RemovedFields = append(diff.RemovedFields, oldField.Name)
			continue
		}
		if oldField.Type != newField.Type {
			diff.ChangedFieldTypes = append(diff.ChangedFieldTypes, oldField.Name)
		}
	}

	for _, newField := range newFields {
		if _, ok := oldByName[strings.ToLower(newField.Name)]; ok {
			continue
		}
		if newField.Required {
			diff.AddedRequiredFields = append(diff.AddedRequiredFields, newField.Name)
		}
	}

	return diff
}
