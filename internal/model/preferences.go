package model

import (
	"fmt"

	"github.com/google/uuid"
)

// MinRetentionDays is the floor for the global retention window. Cleanup never
// purges change records younger than this, whatever users configure.
const MinRetentionDays = 30

// EmailDigestFrequency controls how often a user receives digest mail.
type EmailDigestFrequency string

const (
	DigestNever  EmailDigestFrequency = "never"
	DigestDaily  EmailDigestFrequency = "daily"
	DigestWeekly EmailDigestFrequency = "weekly"
)

// ParseEmailDigestFrequency validates a raw digest frequency value.
func ParseEmailDigestFrequency(raw string) (EmailDigestFrequency, error) {
	switch EmailDigestFrequency(raw) {
	case DigestNever, DigestDaily, DigestWeekly:
		return EmailDigestFrequency(raw), nil
	}
	return "", fmt.Errorf("invalid email digest frequency %q", raw)
}

// UserNotificationPreferences holds per-user notification configuration. A row
// is only materialized once the user writes; until then the defaults apply.
type UserNotificationPreferences struct {
	UserID                  uuid.UUID            `json:"user_id"`
	RetentionDays           int                  `json:"retention_days"`
	ShowBreakingChangesOnly bool                 `json:"show_breaking_changes_only"`
	EmailDigestFrequency    EmailDigestFrequency `json:"email_digest_frequency"`
	RealTimeNotifications   bool                 `json:"real_time_notifications"`
}

// DefaultPreferences returns the preferences applied to users without a stored
// row.
func DefaultPreferences(userID uuid.UUID) UserNotificationPreferences {
	return UserNotificationPreferences{
		UserID:                  userID,
		RetentionDays:           MinRetentionDays,
		ShowBreakingChangesOnly: false,
		EmailDigestFrequency:    DigestNever,
		RealTimeNotifications:   true,
	}
}

// GlobalRetentionDays computes the retention window governing cleanup: the
// shortest configured preference, floored at MinRetentionDays. The floor keeps
// a single aggressive preference (say 7 days) from deleting records that other
// users, on the default window, still expect to see. No preference rows at all
// means the floor applies as-is.
func GlobalRetentionDays(minConfigured *int) int {
	if minConfigured == nil {
		return MinRetentionDays
	}
	if *minConfigured < MinRetentionDays {
		return MinRetentionDays
	}
	return *minConfigured
}
