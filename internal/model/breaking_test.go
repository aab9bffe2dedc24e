package model

import "testing"

func TestIsBreakingMajorVersionBump(t *testing.T) {
	data := ChangeData{
		Before: map[string]any{"semanticVersion": "1.2.0"},
		After:  map[string]any{"semanticVersion": "2.0.0"},
	}

	if !IsBreaking(EntityTypeSchemaVersion, data) {
		t.Errorf("expected major version bump to be breaking")
	}
}

func TestIsBreakingMinorVersionBump(t *testing.T) {
	data := ChangeData{
		Before: map[string]any{"semanticVersion": "1.2.0"},
		After:  map[string]any{"semanticVersion": "1.3.0"},
	}

	if IsBreaking(EntityTypeSchemaVersion, data) {
		t.Errorf("expected minor version bump to be non-breaking")
	}
}

func TestIsBreakingRemovedFields(t *testing.T) {
	data := ChangeData{
		Before:        map[string]any{},
		After:         map[string]any{},
		RemovedFields: []string{"x"},
	}

	if !IsBreaking(EntityTypeSchema, data) {
		t.Errorf("expected removed fields to be breaking")
	}
}

func TestIsBreakingMissingBeforeShortCircuits(t *testing.T) {
	data := ChangeData{
		After:         map[string]any{"semanticVersion": "1.3.0"},
		RemovedFields: []string{"x"},
	}

	if IsBreaking(EntityTypeSchemaVersion, data) {
		t.Errorf("expected missing before payload to short-circuit to false")
	}
}

func TestIsBreakingIgnoresNonSchemaEntities(t *testing.T) {
	data := ChangeData{
		Before:        map[string]any{},
		After:         map[string]any{},
		RemovedFields: []string{"x"},
	}

	for _, entityType := range []EntityType{EntityTypeProduct, EntityTypeDomain, EntityTypeContext} {
		if IsBreaking(entityType, data) {
			t.Errorf("expected %s changes to never be breaking", entityType)
		}
	}
}

func TestIsBreakingVersionDefaults(t *testing.T) {
	cases := []struct {
		name     string
		before   map[string]any
		after    map[string]any
		expected bool
	}{
		{
			name:     "absent before version defaults to zero",
			before:   map[string]any{},
			after:    map[string]any{"semanticVersion": "1.0.0"},
			expected: true,
		},
		{
			name:     "unparseable major defaults to zero",
			before:   map[string]any{"semanticVersion": "abc.1.2"},
			after:    map[string]any{"semanticVersion": "1.0.0"},
			expected: true,
		},
		{
			name:     "both unparseable",
			before:   map[string]any{"semanticVersion": "x"},
			after:    map[string]any{"semanticVersion": "y"},
			expected: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := ChangeData{Before: tc.before, After: tc.after}
			if got := IsBreaking(EntityTypeSchemaVersion, data); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}
