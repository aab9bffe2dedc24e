// Package export renders a user's visible change log as CSV. Exports are
// synchronous streams: the change log is bounded by the retention window, so
// there is no job queue or file staging involved.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

// ChangeLister is the slice of the notification service the exporter needs.
type ChangeLister interface {
	GetDetailedChanges(ctx context.Context, userID uuid.UUID, entityType model.EntityType) ([]model.DetailedChange, error)
}

type Service struct {
	changes ChangeLister
}

func NewService(changes ChangeLister) *Service {
	return &Service{changes: changes}
}

var csvHeader = []string{
	"id",
	"entity_type",
	"entity_id",
	"entity_name",
	"change_type",
	"breaking",
	"changed_by_name",
	"changed_by_email",
	"removed_fields",
	"added_required_fields",
	"changed_field_types",
	"created_at",
}

// WriteChangesCSV streams the user's unseen, visible changes for the given
// entity types (all types when empty) to the writer as CSV, newest first
// within each type.
func (s *Service) WriteChangesCSV(ctx context.Context, w io.Writer, userID uuid.UUID, entityTypes []model.EntityType) error {
	if len(entityTypes) == 0 {
		entityTypes = model.EntityTypes
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(csvHeader))
	for _, entityType := range entityTypes {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		changes, err := s.changes.GetDetailedChanges(ctx, userID, entityType)
		if err != nil {
			return fmt.Errorf("list %s changes: %w", entityType, err)
		}

		for _, change := range changes {
			row[0] = change.ID.String()
			row[1] = string(change.EntityType)
			row[2] = change.EntityID.String()
			row[3] = change.EntityName
			row[4] = string(change.ChangeType)
			row[5] = formatValue(change.Breaking)
			row[6] = formatValue(change.ChangedByName)
			row[7] = formatValue(change.ChangedByEmail)
			row[8] = strings.Join(change.ChangeData.RemovedFields, ";")
			row[9] = strings.Join(change.ChangeData.AddedRequiredFields, ";")
			row[10] = strings.Join(change.ChangeData.ChangedFieldTypes, ";")
			row[11] = formatValue(change.CreatedAt)

			if err := csvWriter.Write(row); err != nil {
				return fmt.Errorf("write change row: %w", err)
			}
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}

// FileName builds the attachment name for a change export.
func FileName(now time.Time) string {
	return fmt.Sprintf("changes-%s.csv", now.UTC().Format("20060102-150405"))
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return timeutil.Format(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
