package model

import (
	"strconv"
	"strings"
)

// IsBreaking classifies a change payload as breaking. It is a fixed heuristic
// over the precomputed diff fields, not a schema-diff engine: only schema and
// schema_version changes with both before and after present can be breaking.
func IsBreaking(entityType EntityType, data ChangeData) bool {
	if entityType != EntityTypeSchema && entityType != EntityTypeSchemaVersion {
		return false
	}
	if data.Before == nil || data.After == nil {
		return false
	}

	if len(data.RemovedFields) > 0 {
		return true
	}
	if len(data.AddedRequiredFields) > 0 {
		return true
	}
	if len(data.ChangedFieldTypes) > 0 {
		return true
	}

	if entityType == EntityTypeSchemaVersion {
		beforeMajor := majorVersion(stringField(data.Before, "semanticVersion"))
		afterMajor := majorVersion(stringField(data.After, "semanticVersion"))
		if afterMajor > beforeMajor {
			return true
		}
	}

	return false
}

func stringField(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return value
}

// majorVersion parses the first dot-separated segment of a semantic version,
// defaulting to 0 when absent or unparseable.
func majorVersion(version string) int {
	if version == "" {
		version = "0.0.0"
	}
	segment, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(segment)
	if err != nil {
		return 0
	}
	return major
}
