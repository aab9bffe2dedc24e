package repository

import (
	"context"
	"time"

	"github.com/schemahub/schemahub/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repositories depend on. Tests substitute
// a pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ChangeRepository persists and queries the append-only change log.
type ChangeRepository interface {
	// Insert appends one change record. A missing change-log table yields
	// model.ErrNotInitialized.
	Insert(ctx context.Context, record model.ChangeRecord) error

	// Summary counts the user's visible, unseen changes since the cutoff,
	// grouped by entity type and change type.
	Summary(ctx context.Context, userID uuid.UUID, since time.Time) (model.ChangesSummary, error)

	// DetailedByType lists the user's visible, unseen changes of one entity
	// type since the cutoff, newest first, with actor enrichment when the
	// user directory is available.
	DetailedByType(ctx context.Context, userID uuid.UUID, entityType model.EntityType, since time.Time) ([]model.DetailedChange, error)

	// MarkSeen idempotently records the given changes as viewed by the user.
	MarkSeen(ctx context.Context, userID uuid.UUID, changeIDs []uuid.UUID, viewedAt time.Time) error

	// DeleteOlderThan removes change records created before the cutoff and
	// returns how many were deleted.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SubscriptionRepository manages subscription targets and user subscriptions.
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) (uuid.UUID, error)
	Unsubscribe(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) error
	IsSubscribed(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error)
	ListSubscribedUserIDs(ctx context.Context, typeID uuid.UUID, subType model.SubscriptionType) ([]uuid.UUID, error)
}

// PreferencesRepository manages per-user notification preferences.
type PreferencesRepository interface {
	// Get returns the stored preferences, or the defaults when the user has
	// no row (without materializing one).
	Get(ctx context.Context, userID uuid.UUID) (model.UserNotificationPreferences, error)
	Upsert(ctx context.Context, prefs model.UserNotificationPreferences) error

	// MinRetentionDays returns the shortest configured retention preference,
	// or nil when no preference rows exist.
	MinRetentionDays(ctx context.Context) (*int, error)
}

// HierarchyRepository is the relational store for the registry hierarchy:
// products own domains own contexts own schemas own schema versions.
type HierarchyRepository interface {
	CreateProduct(ctx context.Context, product model.Product) (model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	UpdateProduct(ctx context.Context, product model.Product) (model.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateDomain(ctx context.Context, domain model.Domain) (model.Domain, error)
	GetDomain(ctx context.Context, id uuid.UUID) (model.Domain, error)
	ListDomains(ctx context.Context, productID uuid.UUID) ([]model.Domain, error)
	UpdateDomain(ctx context.Context, domain model.Domain) (model.Domain, error)
	DeleteDomain(ctx context.Context, id uuid.UUID) error

	CreateContext(ctx context.Context, context model.Context) (model.Context, error)
	GetContext(ctx context.Context, id uuid.UUID) (model.Context, error)
	ListContexts(ctx context.Context, domainID uuid.UUID) ([]model.Context, error)
	UpdateContext(ctx context.Context, context model.Context) (model.Context, error)
	DeleteContext(ctx context.Context, id uuid.UUID) error

	CreateSchema(ctx context.Context, schema model.Schema) (model.Schema, error)
	GetSchema(ctx context.Context, id uuid.UUID) (model.Schema, error)
	ListSchemas(ctx context.Context, contextID uuid.UUID) ([]model.Schema, error)
	UpdateSchema(ctx context.Context, schema model.Schema) (model.Schema, error)
	DeleteSchema(ctx context.Context, id uuid.UUID) error

	CreateSchemaVersion(ctx context.Context, version model.SchemaVersion) (model.SchemaVersion, error)
	GetSchemaVersion(ctx context.Context, id uuid.UUID) (model.SchemaVersion, error)
	ListSchemaVersions(ctx context.Context, schemaID uuid.UUID) ([]model.SchemaVersion, error)
	LatestSchemaVersion(ctx context.Context, schemaID uuid.UUID) (model.SchemaVersion, error)
	DeleteSchemaVersion(ctx context.Context, id uuid.UUID) error

	// Parent lookups for ancestor resolution.
	ParentProductOf(ctx context.Context, domainID uuid.UUID) (uuid.UUID, error)
	ParentDomainOf(ctx context.Context, contextID uuid.UUID) (uuid.UUID, error)
	ParentContextOf(ctx context.Context, schemaID uuid.UUID) (uuid.UUID, error)
	ParentSchemaOf(ctx context.Context, versionID uuid.UUID) (uuid.UUID, error)
}

// UserRepository is the user directory. Lookups are enrichment only; callers
// treat absence as benign.
type UserRepository interface {
	Create(ctx context.Context, user model.User) (model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
}
