package validator

import (
	"testing"

	"github.com/schemahub/schemahub/internal/model"
)

func TestValidateFields_AllowsWellFormedFields(t *testing.T) {
	fields := []model.FieldDefinition{
		{Name: "order_id", Type: model.FieldTypeString, Required: true},
		{Name: "amount", Type: model.FieldTypeInteger},
		{Name: "placed_at", Type: model.FieldTypeTimestamp},
	}

	if err := ValidateFields(fields); err != nil {
		t.Fatalf("expected validation to pass, got error: %v", err)
	}
}

func TestValidateFields_RejectsEmptyList(t *testing.T) {
	if err := ValidateFields(nil); err == nil {
		t.Fatalf("expected error for empty field list")
	}
}

func TestValidateFields_RejectsEmptyName(t *testing.T) {
	fields := []model.FieldDefinition{
		{Name: "  ", Type: model.FieldTypeString},
	}

	if err := ValidateFields(fields); err == nil {
		t.Fatalf("expected error for blank field name")
	}
}

func TestValidateFields_RejectsDuplicateNamesCaseInsensitive(t *testing.T) {
	fields := []model.FieldDefinition{
		{Name: "Amount", Type: model.FieldTypeInteger},
		{Name: "amount", Type: model.FieldTypeFloat},
	}

	if err := ValidateFields(fields); err == nil {
		t.Fatalf("expected error for duplicate field names")
	}
}

func TestValidateFields_RejectsUnknownType(t *testing.T) {
	fields := []model.FieldDefinition{
		{Name: "payload", Type: model.FieldType("blob")},
	}

	if err := ValidateFields(fields); err == nil {
		t.Fatalf("expected error for unknown field type")
	}
}
