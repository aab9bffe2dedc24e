package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
)

// changeRepository implements ChangeRepository over the entity_changes table.
//
// Every operation re-probes the tables it depends on: the schema may be
// mid-migration in a concurrent request, and reads are expected to degrade to
// the next-best available join rather than fail.
type changeRepository struct {
	db DB
}

// NewChangeRepository creates a new change log repository.
func NewChangeRepository(db DB) ChangeRepository {
	return &changeRepository{db: db}
}

// visibilityPredicate decides whether a change row (aliased ec) is visible to
// the user bound at the single %s placeholder. A change is visible when the
// user subscribes to the changed entity itself or to any ancestor, at any of
// the three subscribable levels. Schema and schema_version changes are only
// reachable through their ancestors.
//
// Ancestors are resolved against the current hierarchy tables. Known
// consequence: once a deleted subtree's rows are gone, its descendants'
// `deleted` changes stop matching ancestor-level subscriptions and only
// direct-target matches survive. Kept as observed behavior, not tightened.
const visibilityPredicate = `EXISTS (
	SELECT 1
	FROM user_subscriptions us
	JOIN subscriptions s ON s.id = us.subscription_id
	WHERE us.user_id = %s
	  AND (
		(ec.entity_type = 'product' AND s.type = 'P' AND s.type_id = ec.entity_id)
		OR (ec.entity_type = 'domain' AND (
			(s.type = 'D' AND s.type_id = ec.entity_id)
			OR (s.type = 'P' AND s.type_id IN (
				SELECT d.product_id FROM domains d WHERE d.id = ec.entity_id))
		))
		OR (ec.entity_type = 'context' AND (
			(s.type = 'C' AND s.type_id = ec.entity_id)
			OR (s.type = 'D' AND s.type_id IN (
				SELECT c.domain_id FROM contexts c WHERE c.id = ec.entity_id))
			OR (s.type = 'P' AND s.type_id IN (
				SELECT d.product_id FROM contexts c
				JOIN domains d ON d.id = c.domain_id
				WHERE c.id = ec.entity_id))
		))
		OR (ec.entity_type = 'schema' AND (
			(s.type = 'C' AND s.type_id IN (
				SELECT sc.context_id FROM schemas sc WHERE sc.id = ec.entity_id))
			OR (s.type = 'D' AND s.type_id IN (
				SELECT c.domain_id FROM schemas sc
				JOIN contexts c ON c.id = sc.context_id
				WHERE sc.id = ec.entity_id))
			OR (s.type = 'P' AND s.type_id IN (
				SELECT d.product_id FROM schemas sc
				JOIN contexts c ON c.id = sc.context_id
				JOIN domains d ON d.id = c.domain_id
				WHERE sc.id = ec.entity_id))
		))
		OR (ec.entity_type = 'schema_version' AND (
			(s.type = 'C' AND s.type_id IN (
				SELECT sc.context_id FROM schema_versions sv
				JOIN schemas sc ON sc.id = sv.schema_id
				WHERE sv.id = ec.entity_id))
			OR (s.type = 'D' AND s.type_id IN (
				SELECT c.domain_id FROM schema_versions sv
				JOIN schemas sc ON sc.id = sv.schema_id
				JOIN contexts c ON c.id = sc.context_id
				WHERE sv.id = ec.entity_id))
			OR (s.type = 'P' AND s.type_id IN (
				SELECT d.product_id FROM schema_versions sv
				JOIN schemas sc ON sc.id = sv.schema_id
				JOIN contexts c ON c.id = sc.context_id
				JOIN domains d ON d.id = c.domain_id
				WHERE sv.id = ec.entity_id))
		))
	  )
)`

// Insert appends one change record.
func (r *changeRepository) Insert(ctx context.Context, record model.ChangeRecord) error {
	if !tableExists(ctx, r.db, tableEntityChanges) {
		return fmt.Errorf("change log table missing: %w", model.ErrNotInitialized)
	}

	changeData, err := json.Marshal(record.ChangeData)
	if err != nil {
		return fmt.Errorf("failed to marshal change data: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO entity_changes (id, entity_type, entity_id, entity_name, change_type, change_data, changed_by_user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		record.ID, string(record.EntityType), record.EntityID, record.EntityName,
		string(record.ChangeType), changeData, record.ChangedByUserID, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert change record: %w", err)
	}

	return nil
}

// changeFilter assembles the WHERE conditions shared by Summary and
// DetailedByType, degrading per missing table.
func (r *changeRepository) changeFilter(ctx context.Context, userID uuid.UUID, since time.Time) (conditions []string, args []any) {
	addArg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions = append(conditions, "ec.created_at > "+addArg(since))

	if tableExists(ctx, r.db, tableSubscriptions) && tableExists(ctx, r.db, tableUserSubscriptions) {
		conditions = append(conditions, fmt.Sprintf(visibilityPredicate, addArg(userID)))
	} else {
		// Legacy mode: without subscription tables every change is visible
		// to every user. Deliberate bootstrap behavior, not an accident.
		log.Printf("subscription tables missing, falling back to unfiltered change visibility")
	}

	if tableExists(ctx, r.db, tableUserChangeViews) {
		conditions = append(conditions, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM user_change_views v WHERE v.user_id = %s AND v.change_id = ec.id)",
			addArg(userID),
		))
	}

	return conditions, args
}

// Summary counts visible, unseen changes per entity type and change type.
func (r *changeRepository) Summary(ctx context.Context, userID uuid.UUID, since time.Time) (model.ChangesSummary, error) {
	var summary model.ChangesSummary

	if !tableExists(ctx, r.db, tableEntityChanges) {
		return summary, nil
	}

	conditions, args := r.changeFilter(ctx, userID, since)
	query := `
		SELECT ec.entity_type, ec.change_type, COUNT(*)
		FROM entity_changes ec
		WHERE ` + strings.Join(conditions, "\n\t\t  AND ") + `
		GROUP BY ec.entity_type, ec.change_type`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.ChangesSummary{}, fmt.Errorf("failed to query changes summary: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rawEntityType, rawChangeType string
		var count int
		if err := rows.Scan(&rawEntityType, &rawChangeType, &count); err != nil {
			return model.ChangesSummary{}, fmt.Errorf("failed to scan summary row: %w", err)
		}

		entityType, err := model.ParseEntityType(rawEntityType)
		if err != nil {
			continue
		}
		changeType, err := model.ParseChangeType(rawChangeType)
		if err != nil {
			continue
		}
		summary.Add(entityType, changeType, count)
	}
	if err := rows.Err(); err != nil {
		return model.ChangesSummary{}, fmt.Errorf("failed to read summary rows: %w", err)
	}

	return summary, nil
}

// DetailedByType lists visible, unseen changes for one entity type, newest
// first, enriched with the actor's identity when the user directory exists.
func (r *changeRepository) DetailedByType(ctx context.Context, userID uuid.UUID, entityType model.EntityType, since time.Time) ([]model.DetailedChange, error) {
	if !tableExists(ctx, r.db, tableEntityChanges) {
		return []model.DetailedChange{}, nil
	}

	conditions, args := r.changeFilter(ctx, userID, since)
	args = append(args, string(entityType))
	conditions = append(conditions, fmt.Sprintf("ec.entity_type = $%d", len(args)))

	actorColumns := "NULL::text, NULL::text"
	userJoin := ""
	if tableExists(ctx, r.db, tableUsers) {
		actorColumns = "u.display_name, u.email"
		userJoin = "LEFT JOIN users u ON u.id = ec.changed_by_user_id"
	}

	query := fmt.Sprintf(`
		SELECT ec.id, ec.entity_type, ec.entity_id, ec.entity_name, ec.change_type,
		       ec.change_data, ec.changed_by_user_id, ec.created_at, %s
		FROM entity_changes ec
		%s
		WHERE %s
		ORDER BY ec.created_at DESC, ec.id DESC`,
		actorColumns, userJoin, strings.Join(conditions, "\n\t\t  AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query detailed changes: %w", err)
	}
	defer rows.Close()

	changes := []model.DetailedChange{}
	for rows.Next() {
		var (
			change        model.DetailedChange
			rawEntityType string
			rawChangeType string
			changeData    []byte
		)
		err := rows.Scan(
			&change.ID, &rawEntityType, &change.EntityID, &change.EntityName, &rawChangeType,
			&changeData, &change.ChangedByUserID, &change.CreatedAt,
			&change.ChangedByName, &change.ChangedByEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detailed change: %w", err)
		}

		change.EntityType = model.EntityType(rawEntityType)
		change.ChangeType = model.ChangeType(rawChangeType)
		if len(changeData) > 0 {
			if err := json.Unmarshal(changeData, &change.ChangeData); err != nil {
				return nil, fmt.Errorf("failed to decode change data for %s: %w", change.ID, err)
			}
		}

		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read detailed change rows: %w", err)
	}

	return changes, nil
}

// MarkSeen idempotently inserts view rows. Duplicate (user, change) pairs,
// including duplicates within the same call, are ignored.
func (r *changeRepository) MarkSeen(ctx context.Context, userID uuid.UUID, changeIDs []uuid.UUID, viewedAt time.Time) error {
	if !tableExists(ctx, r.db, tableUserChangeViews) {
		return fmt.Errorf("view tracking table missing: %w", model.ErrNotInitialized)
	}

	for _, changeID := range changeIDs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO user_change_views (id, user_id, change_id, viewed_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, change_id) DO NOTHING`,
			uuid.New(), userID, changeID, viewedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to mark change %s as seen: %w", changeID, err)
		}
	}

	return nil
}

// DeleteOlderThan purges change records past the retention cutoff. View rows
// follow via the cascade.
func (r *changeRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if !tableExists(ctx, r.db, tableEntityChanges) {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, "DELETE FROM entity_changes WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired change records: %w", err)
	}

	return tag.RowsAffected(), nil
}
