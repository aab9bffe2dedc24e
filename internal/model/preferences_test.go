package model

import "testing"

func TestGlobalRetentionDaysFloor(t *testing.T) {
	// Shortest preference of 7 and 45 is 7, floored to 30.
	min := 7
	if got := GlobalRetentionDays(&min); got != 30 {
		t.Errorf("expected floor of 30, got %d", got)
	}
}

func TestGlobalRetentionDaysAboveFloor(t *testing.T) {
	min := 45
	if got := GlobalRetentionDays(&min); got != 45 {
		t.Errorf("expected 45, got %d", got)
	}
}

func TestGlobalRetentionDaysNoPreferences(t *testing.T) {
	if got := GlobalRetentionDays(nil); got != 30 {
		t.Errorf("expected default of 30, got %d", got)
	}
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences(testUserID)

	if prefs.RetentionDays != 30 {
		t.Errorf("expected retention of 30 days, got %d", prefs.RetentionDays)
	}
	if prefs.ShowBreakingChangesOnly {
		t.Errorf("expected breaking-only filter off by default")
	}
	if prefs.EmailDigestFrequency != DigestNever {
		t.Errorf("expected digest frequency never, got %s", prefs.EmailDigestFrequency)
	}
	if !prefs.RealTimeNotifications {
		t.Errorf("expected real-time notifications on by default")
	}
}
