package repository

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemahub/schemahub/internal/model"
)

func TestInsertChange(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	record := model.ChangeRecord{
		ID:         uuid.New(),
		EntityType: model.EntityTypeSchema,
		EntityID:   uuid.New(),
		EntityName: "orders",
		ChangeType: model.ChangeTypeUpdated,
		ChangeData: model.ChangeData{After: map[string]any{"name": "orders"}},
		CreatedAt:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	expectProbe(mock, tableEntityChanges, true)
	mock.ExpectExec("INSERT INTO entity_changes").
		WithArgs(record.ID, "schema", record.EntityID, "orders", "updated",
			pgxmock.AnyArg(), record.ChangedByUserID, record.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertChangeNotInitialized(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	expectProbe(mock, tableEntityChanges, false)

	err := repo.Insert(context.Background(), model.ChangeRecord{ID: uuid.New()})
	assert.ErrorIs(t, err, model.ErrNotInitialized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummary(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	userID := uuid.New()
	since := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)

	expectProbe(mock, tableEntityChanges, true)
	expectProbe(mock, tableSubscriptions, true)
	expectProbe(mock, tableUserSubscriptions, true)
	expectProbe(mock, tableUserChangeViews, true)
	mock.ExpectQuery("SELECT ec.entity_type, ec.change_type, COUNT").
		WithArgs(since, userID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"entity_type", "change_type", "count"}).
			AddRow("schema", "created", 2).
			AddRow("schema", "deleted", 1).
			AddRow("product", "updated", 3))

	summary, err := repo.Summary(context.Background(), userID, since)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Schemas.New)
	assert.Equal(t, 1, summary.Schemas.Deleted)
	assert.Equal(t, 3, summary.Products.Updated)
	assert.Equal(t, 6, summary.TotalChanges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryLegacyMode(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	userID := uuid.New()
	since := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)

	// Without subscription and view tables only the retention cutoff binds.
	expectProbe(mock, tableEntityChanges, true)
	expectProbe(mock, tableSubscriptions, false)
	expectProbe(mock, tableUserChangeViews, false)
	mock.ExpectQuery("SELECT ec.entity_type, ec.change_type, COUNT").
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"entity_type", "change_type", "count"}).
			AddRow("domain", "created", 1))

	summary, err := repo.Summary(context.Background(), userID, since)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Domains.New)
	assert.Equal(t, 1, summary.TotalChanges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSummaryWithoutChangeTable(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	expectProbe(mock, tableEntityChanges, false)

	summary, err := repo.Summary(context.Background(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, model.ChangesSummary{}, summary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDetailedByType(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	userID := uuid.New()
	since := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)
	changeID, entityID, actorID := uuid.New(), uuid.New(), uuid.New()
	createdAt := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	name, email := "Ada", "ada@example.com"

	changeData, err := json.Marshal(map[string]any{
		"before":        map[string]any{"name": "orders"},
		"after":         map[string]any{"name": "orders"},
		"removedFields": []string{"customer_id"},
		"schemaName":    "orders",
	})
	require.NoError(t, err)

	expectProbe(mock, tableEntityChanges, true)
	expectProbe(mock, tableSubscriptions, true)
	expectProbe(mock, tableUserSubscriptions, true)
	expectProbe(mock, tableUserChangeViews, true)
	expectProbe(mock, tableUsers, true)
	mock.ExpectQuery("SELECT ec.id, ec.entity_type, ec.entity_id").
		WithArgs(since, userID, userID, "schema").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "entity_type", "entity_id", "entity_name", "change_type",
			"change_data", "changed_by_user_id", "created_at", "display_name", "email",
		}).AddRow(
			changeID, "schema", entityID, "orders", "updated",
			changeData, &actorID, createdAt, &name, &email,
		))

	changes, err := repo.DetailedByType(context.Background(), userID, model.EntityTypeSchema, since)
	require.NoError(t, err)
	require.Len(t, changes, 1)

	change := changes[0]
	assert.Equal(t, changeID, change.ID)
	assert.Equal(t, model.EntityTypeSchema, change.EntityType)
	assert.Equal(t, []string{"customer_id"}, change.ChangeData.RemovedFields)
	assert.Equal(t, json.RawMessage(`"orders"`), change.ChangeData.Extra["schemaName"])
	assert.Equal(t, &name, change.ChangedByName)
	assert.Equal(t, &email, change.ChangedByEmail)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSeenIdempotent(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	userID := uuid.New()
	first, second := uuid.New(), uuid.New()
	viewedAt := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	expectProbe(mock, tableUserChangeViews, true)
	mock.ExpectExec("INSERT INTO user_change_views").
		WithArgs(pgxmock.AnyArg(), userID, first, viewedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Second change was already seen; the conflict is silently ignored.
	mock.ExpectExec("INSERT INTO user_change_views").
		WithArgs(pgxmock.AnyArg(), userID, second, viewedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.MarkSeen(context.Background(), userID, []uuid.UUID{first, second}, viewedAt)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSeenNotInitialized(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	expectProbe(mock, tableUserChangeViews, false)

	err := repo.MarkSeen(context.Background(), uuid.New(), []uuid.UUID{uuid.New()}, time.Now())
	assert.ErrorIs(t, err, model.ErrNotInitialized)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOlderThan(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	cutoff := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)

	expectProbe(mock, tableEntityChanges, true)
	mock.ExpectExec("DELETE FROM entity_changes").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	deleted, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteOlderThanWithoutTable(t *testing.T) {
	mock := newMockPool(t)
	repo := NewChangeRepository(mock)

	expectProbe(mock, tableEntityChanges, false)

	deleted, err := repo.DeleteOlderThan(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func normalizeSQL(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestChangeFilterBindsVisibilityPredicate(t *testing.T) {
	mock := newMockPool(t)
	repo := &changeRepository{db: mock}

	userID := uuid.New()
	since := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)

	expectProbe(mock, tableSubscriptions, true)
	expectProbe(mock, tableUserSubscriptions, true)
	expectProbe(mock, tableUserChangeViews, true)

	conditions, args := repo.changeFilter(context.Background(), userID, since)

	require.Len(t, conditions, 3)
	assert.Equal(t, []any{since, userID, userID}, args)
	assert.Equal(t, "ec.created_at > $1", conditions[0])

	predicate := normalizeSQL(conditions[1])
	assert.Contains(t, predicate, "us.user_id = $2")

	// One clause per row of the inheritance resolution table: a direct
	// match per subscribable level, then the ancestor walk for each
	// deeper entity type.
	resolutionClauses := []string{
		"(ec.entity_type = 'product' AND s.type = 'P' AND s.type_id = ec.entity_id)",
		"ec.entity_type = 'domain'",
		"(s.type = 'D' AND s.type_id = ec.entity_id)",
		"SELECT d.product_id FROM domains d WHERE d.id = ec.entity_id",
		"ec.entity_type = 'context'",
		"(s.type = 'C' AND s.type_id = ec.entity_id)",
		"SELECT c.domain_id FROM contexts c WHERE c.id = ec.entity_id",
		"SELECT d.product_id FROM contexts c JOIN domains d ON d.id = c.domain_id WHERE c.id = ec.entity_id",
		"ec.entity_type = 'schema'",
		"SELECT sc.context_id FROM schemas sc WHERE sc.id = ec.entity_id",
		"SELECT c.domain_id FROM schemas sc JOIN contexts c ON c.id = sc.context_id WHERE sc.id = ec.entity_id",
		"SELECT d.product_id FROM schemas sc JOIN contexts c ON c.id = sc.context_id JOIN domains d ON d.id = c.domain_id WHERE sc.id = ec.entity_id",
		"ec.entity_type = 'schema_version'",
		"SELECT sc.context_id FROM schema_versions sv JOIN schemas sc ON sc.id = sv.schema_id WHERE sv.id = ec.entity_id",
		"SELECT c.domain_id FROM schema_versions sv JOIN schemas sc ON sc.id = sv.schema_id JOIN contexts c ON c.id = sc.context_id WHERE sv.id = ec.entity_id",
		"SELECT d.product_id FROM schema_versions sv JOIN schemas sc ON sc.id = sv.schema_id JOIN contexts c ON c.id = sc.context_id JOIN domains d ON d.id = c.domain_id WHERE sv.id = ec.entity_id",
	}
	for _, clause := range resolutionClauses {
		assert.Contains(t, predicate, clause)
	}

	seenFilter := normalizeSQL(conditions[2])
	assert.Contains(t, seenFilter, "NOT EXISTS")
	assert.Contains(t, seenFilter, "v.user_id = $3")
	assert.Contains(t, seenFilter, "v.change_id = ec.id")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeFilterLegacyMode(t *testing.T) {
	mock := newMockPool(t)
	repo := &changeRepository{db: mock}

	userID := uuid.New()
	since := time.Date(2025, 5, 16, 12, 0, 0, 0, time.UTC)

	expectProbe(mock, tableSubscriptions, false)
	expectProbe(mock, tableUserChangeViews, true)

	conditions, args := repo.changeFilter(context.Background(), userID, since)

	require.Len(t, conditions, 2)
	assert.Equal(t, []any{since, userID}, args)
	assert.NotContains(t, strings.Join(conditions, " "), "user_subscriptions")

	assert.NoError(t, mock.ExpectationsWereMet())
}
