package repository

import "context"

// Table names the notification paths probe before use. The schema evolves via
// migrations that may run concurrently with requests, so presence is re-checked
// per call instead of cached.
const (
	tableEntityChanges     = "entity_changes"
	tableSubscriptions     = "subscriptions"
	tableUserSubscriptions = "user_subscriptions"
	tableUserChangeViews   = "user_change_views"
	tablePreferences       = "user_notification_preferences"
	tableUsers             = "users"
)

// tableExists probes the catalog for a table. Probe failures are treated as
// absence so callers degrade instead of erroring mid-migration.
func tableExists(ctx context.Context, db DB, name string) bool {
	var exists bool
	err := db.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", name).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
