package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

// preferencesRepository implements PreferencesRepository.
type preferencesRepository struct {
	db DB
}

// NewPreferencesRepository creates a new notification preferences repository.
func NewPreferencesRepository(db DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

// Get returns the user's stored preferences, or the defaults when no row (or
// no table) exists. Reading never materializes a row.
func (r *preferencesRepository) Get(ctx context.Context, userID uuid.UUID) (model.UserNotificationPreferences, error) {
	if !tableExists(ctx, r.db, tablePreferences) {
		return model.DefaultPreferences(userID), nil
	}

	prefs := model.UserNotificationPreferences{UserID: userID}
	var rawFrequency string
	err := r.db.QueryRow(ctx, `
		SELECT retention_days, show_breaking_changes_only, email_digest_frequency, real_time_notifications
		FROM user_notification_preferences
		WHERE user_id = $1`,
		userID,
	).Scan(&prefs.RetentionDays, &prefs.ShowBreakingChangesOnly, &rawFrequency, &prefs.RealTimeNotifications)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.DefaultPreferences(userID), nil
		}
		return model.UserNotificationPreferences{}, fmt.Errorf("failed to get notification preferences: %w", err)
	}

	prefs.EmailDigestFrequency = model.EmailDigestFrequency(rawFrequency)
	return prefs, nil
}

// Upsert stores the user's preferences, creating the row on first write.
func (r *preferencesRepository) Upsert(ctx context.Context, prefs model.UserNotificationPreferences) error {
	if !tableExists(ctx, r.db, tablePreferences) {
		return fmt.Errorf("preferences table missing: %w", model.ErrNotInitialized)
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO user_notification_preferences
			(user_id, retention_days, show_breaking_changes_only, email_digest_frequency, real_time_notifications, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			retention_days = EXCLUDED.retention_days,
			show_breaking_changes_only = EXCLUDED.show_breaking_changes_only,
			email_digest_frequency = EXCLUDED.email_digest_frequency,
			real_time_notifications = EXCLUDED.real_time_notifications,
			updated_at = EXCLUDED.updated_at`,
		prefs.UserID, prefs.RetentionDays, prefs.ShowBreakingChangesOnly,
		string(prefs.EmailDigestFrequency), prefs.RealTimeNotifications, timeutil.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert notification preferences: %w", err)
	}

	return nil
}

// MinRetentionDays returns the shortest configured retention preference, or
// nil when no rows (or no table) exist.
func (r *preferencesRepository) MinRetentionDays(ctx context.Context) (*int, error) {
	if !tableExists(ctx, r.db, tablePreferences) {
		return nil, nil
	}

	var min *int
	err := r.db.QueryRow(ctx, "SELECT MIN(retention_days) FROM user_notification_preferences").Scan(&min)
	if err != nil {
		return nil, fmt.Errorf("failed to query minimum retention: %w", err)
	}

	return min, nil
}
