package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schemahub/schemahub/internal/db"
	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

// subscriptionRepository implements SubscriptionRepository.
//
// Targets are deduplicated in subscriptions separately from the per-user join
// rows in user_subscriptions, so many users subscribing to the same product
// share a single target row and inheritance lookups stay O(targets).
type subscriptionRepository struct {
	db DB
}

// NewSubscriptionRepository creates a new subscription repository.
func NewSubscriptionRepository(db DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Subscribe finds or creates the target row for (typeID, subType) and joins
// the user to it. Subscribing twice to the same target fails with
// model.ErrAlreadySubscribed.
func (r *subscriptionRepository) Subscribe(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) (uuid.UUID, error) {
	if !tableExists(ctx, r.db, tableSubscriptions) || !tableExists(ctx, r.db, tableUserSubscriptions) {
		return uuid.Nil, fmt.Errorf("subscription tables missing: %w", model.ErrNotInitialized)
	}

	var subscriptionID uuid.UUID
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		// Find-or-create in one statement; the no-op update makes RETURNING
		// yield the existing row's id on conflict.
		err := tx.QueryRow(ctx, `
			INSERT INTO subscriptions (id, type_id, type)
			VALUES ($1, $2, $3)
			ON CONFLICT (type_id, type) DO UPDATE SET type_id = EXCLUDED.type_id
			RETURNING id`,
			uuid.New(), typeID, string(subType),
		).Scan(&subscriptionID)
		if err != nil {
			return fmt.Errorf("failed to upsert subscription target: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			INSERT INTO user_subscriptions (id, subscription_id, user_id, created_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (subscription_id, user_id) DO NOTHING`,
			uuid.New(), subscriptionID, userID, timeutil.Now(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert user subscription: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("user %s, target %s/%s: %w", userID, subType, typeID, model.ErrAlreadySubscribed)
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return subscriptionID, nil
}

// Unsubscribe removes the user's join row. Removing nothing is an error, not a
// no-op.
func (r *subscriptionRepository) Unsubscribe(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) error {
	if !tableExists(ctx, r.db, tableSubscriptions) || !tableExists(ctx, r.db, tableUserSubscriptions) {
		return fmt.Errorf("subscription tables missing: %w", model.ErrNotInitialized)
	}

	tag, err := r.db.Exec(ctx, `
		DELETE FROM user_subscriptions us
		USING subscriptions s
		WHERE us.subscription_id = s.id
		  AND us.user_id = $1
		  AND s.type_id = $2
		  AND s.type = $3`,
		userID, typeID, string(subType),
	)
	if err != nil {
		return fmt.Errorf("failed to delete user subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s, target %s/%s: %w", userID, subType, typeID, model.ErrNotSubscribed)
	}

	return nil
}

// IsSubscribed reports whether the user holds a direct subscription to the
// target.
func (r *subscriptionRepository) IsSubscribed(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) (bool, error) {
	if !tableExists(ctx, r.db, tableSubscriptions) || !tableExists(ctx, r.db, tableUserSubscriptions) {
		return false, nil
	}

	var subscribed bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM user_subscriptions us
			JOIN subscriptions s ON s.id = us.subscription_id
			WHERE us.user_id = $1 AND s.type_id = $2 AND s.type = $3
		)`,
		userID, typeID, string(subType),
	).Scan(&subscribed)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}

	return subscribed, nil
}

// ListForUser returns the user's subscription targets, newest first.
func (r *subscriptionRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error) {
	if !tableExists(ctx, r.db, tableSubscriptions) || !tableExists(ctx, r.db, tableUserSubscriptions) {
		return []model.Subscription{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.type_id, s.type
		FROM user_subscriptions us
		JOIN subscriptions s ON s.id = us.subscription_id
		WHERE us.user_id = $1
		ORDER BY us.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subscriptions := []model.Subscription{}
	for rows.Next() {
		var sub model.Subscription
		var rawType string
		if err := rows.Scan(&sub.ID, &sub.TypeID, &rawType); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Type = model.SubscriptionType(rawType)
		subscriptions = append(subscriptions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subscription rows: %w", err)
	}

	return subscriptions, nil
}

// ListSubscribedUserIDs returns the ids of all users directly subscribed to a
// target. Used for raw-reach queries and future push delivery.
func (r *subscriptionRepository) ListSubscribedUserIDs(ctx context.Context, typeID uuid.UUID, subType model.SubscriptionType) ([]uuid.UUID, error) {
	if !tableExists(ctx, r.db, tableSubscriptions) || !tableExists(ctx, r.db, tableUserSubscriptions) {
		return []uuid.UUID{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT us.user_id
		FROM user_subscriptions us
		JOIN subscriptions s ON s.id = us.subscription_id
		WHERE s.type_id = $1 AND s.type = $2
		ORDER BY us.created_at`,
		typeID, string(subType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribed users: %w", err)
	}
	defer rows.Close()

	userIDs := []uuid.UUID{}
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan subscribed user: %w", err)
		}
		userIDs = append(userIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subscribed user rows: %w", err)
	}

	return userIDs, nil
}
