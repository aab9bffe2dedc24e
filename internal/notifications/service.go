// Package notifications implements the change notification and subscription
// engine: the append-only change log, the hierarchical subscription model,
// per-user seen state, retention cleanup and breaking-change classification.
package notifications

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/schemahub/schemahub/internal/model"
	"github.com/schemahub/schemahub/internal/repository"
	"github.com/schemahub/schemahub/pkg/timeutil"
)

// Service coordinates the change log, subscriptions, view state, preferences
// and retention.
type Service struct {
	changes repository.ChangeRepository
	subs    repository.SubscriptionRepository
	prefs   repository.PreferencesRepository

	now func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new notification service.
func NewService(
	changes repository.ChangeRepository,
	subs repository.SubscriptionRepository,
	prefs repository.PreferencesRepository,
	opts ...Option,
) *Service {
	s := &Service{
		changes: changes,
		subs:    subs,
		prefs:   prefs,
		now:     timeutil.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordChangeInput describes one entity mutation to record.
type RecordChangeInput struct {
	EntityType model.EntityType
	EntityID   uuid.UUID
	EntityName string
	ChangeType model.ChangeType
	ChangeData model.ChangeData
	// ChangedBy is nil for system or anonymous changes.
	ChangedBy *uuid.UUID
}

// RecordResult reports the outcome of a RecordChange call. Recorded is false
// when the change log is not provisioned yet; that is a degraded state, not an
// error, and callers continue their primary mutation.
type RecordResult struct {
	Recorded bool
	ChangeID uuid.UUID
	Reason   string
}

// RecordChange appends one change record and opportunistically prunes expired
// ones. Only malformed input is a hard error: storage failures degrade to an
// unrecorded result so change tracking can never block the mutation it
// observes.
func (s *Service) RecordChange(ctx context.Context, input RecordChangeInput) (RecordResult, error) {
	if _, err := model.ParseEntityType(string(input.EntityType)); err != nil {
		return RecordResult{}, err
	}
	if _, err := model.ParseChangeType(string(input.ChangeType)); err != nil {
		return RecordResult{}, err
	}

	record := model.ChangeRecord{
		ID:              uuid.New(),
		EntityType:      input.EntityType,
		EntityID:        input.EntityID,
		EntityName:      input.EntityName,
		ChangeType:      input.ChangeType,
		ChangeData:      input.ChangeData,
		ChangedByUserID: input.ChangedBy,
		CreatedAt:       timeutil.Truncate(s.now()),
	}

	if err := s.changes.Insert(ctx, record); err != nil {
		log.Printf("change not recorded for %s %s: %v", input.EntityType, input.EntityID, err)
		return RecordResult{Recorded: false, Reason: err.Error()}, nil
	}

	// Piggybacked retention: failures are logged and swallowed so cleanup
	// never aborts the write path that triggered it.
	if _, err := s.CleanupOldChanges(ctx); err != nil {
		log.Printf("retention cleanup failed: %v", err)
	}

	return RecordResult{Recorded: true, ChangeID: record.ID}, nil
}

// CleanupOldChanges deletes change records older than the governing retention
// window: the shortest user preference, floored at 30 days.
func (s *Service) CleanupOldChanges(ctx context.Context) (int64, error) {
	minConfigured, err := s.prefs.MinRetentionDays(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve retention window: %w", err)
	}

	days := model.GlobalRetentionDays(minConfigured)
	cutoff := s.now().AddDate(0, 0, -days)

	return s.changes.DeleteOlderThan(ctx, cutoff)
}

// retentionCutoff computes the oldest change timestamp still shown to a user.
func (s *Service) retentionCutoff(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}

	days := prefs.RetentionDays
	if days <= 0 {
		days = model.MinRetentionDays
	}
	return s.now().AddDate(0, 0, -days), nil
}

// GetChangesSummary counts the user's unseen, visible changes inside their
// retention window, grouped by entity type and change type.
func (s *Service) GetChangesSummary(ctx context.Context, userID uuid.UUID) (model.ChangesSummary, error) {
	since, err := s.retentionCutoff(ctx, userID)
	if err != nil {
		return model.ChangesSummary{}, err
	}

	return s.changes.Summary(ctx, userID, since)
}

// GetDetailedChanges lists the user's unseen, visible changes of one entity
// type, newest first, each annotated with the breaking-change classification.
// Users who opted into breaking changes only get the filtered view.
func (s *Service) GetDetailedChanges(ctx context.Context, userID uuid.UUID, entityType model.EntityType) ([]model.DetailedChange, error) {
	if _, err := model.ParseEntityType(string(entityType)); err != nil {
		return nil, err
	}

	prefs, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	days := prefs.RetentionDays
	if days <= 0 {
		days = model.MinRetentionDays
	}

	changes, err := s.changes.DetailedByType(ctx, userID, entityType, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	result := make([]model.DetailedChange, 0, len(changes))
	for _, change := range changes {
		change.Breaking = model.IsBreaking(change.EntityType, change.ChangeData)
		if prefs.ShowBreakingChangesOnly && !change.Breaking {
			continue
		}
		result = append(result, change)
	}

	return result, nil
}

// MarkSeen idempotently acknowledges changes for a user.
func (s *Service) MarkSeen(ctx context.Context, userID uuid.UUID, changeIDs []uuid.UUID) error {
	if len(changeIDs) == 0 {
		return nil
	}
	return s.changes.MarkSeen(ctx, userID, changeIDs, timeutil.Truncate(s.now()))
}

// Subscribe subscribes a user to a product, domain or context.
func (s *Service) Subscribe(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) (uuid.UUID, error) {
	if _, err := model.ParseSubscriptionType(string(subType)); err != nil {
		return uuid.Nil, err
	}
	return s.subs.Subscribe(ctx, userID, typeID, subType)
}

// Unsubscribe removes a user's subscription to a target.
func (s *Service) Unsubscribe(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) error {
	if _, err := model.ParseSubscriptionType(string(subType)); err != nil {
		return err
	}
	return s.subs.Unsubscribe(ctx, userID, typeID, subType)
}

// IsSubscribed reports whether a user holds a direct subscription to a target.
func (s *Service) IsSubscribed(ctx context.Context, userID, typeID uuid.UUID, subType model.SubscriptionType) (bool, error) {
	return s.subs.IsSubscribed(ctx, userID, typeID, subType)
}

// ListSubscriptions returns the user's subscription targets, newest first.
func (s *Service) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]model.Subscription, error) {
	return s.subs.ListForUser(ctx, userID)
}

// ListSubscribedUserIDs returns all users directly subscribed to a target.
func (s *Service) ListSubscribedUserIDs(ctx context.Context, typeID uuid.UUID, subType model.SubscriptionType) ([]uuid.UUID, error) {
	return s.subs.ListSubscribedUserIDs(ctx, typeID, subType)
}

// GetPreferences returns the user's notification preferences, defaulted when
// absent.
func (s *Service) GetPreferences(ctx context.Context, userID uuid.UUID) (model.UserNotificationPreferences, error) {
	return s.prefs.Get(ctx, userID)
}

// UpdatePreferences validates and stores the user's notification preferences.
func (s *Service) UpdatePreferences(ctx context.Context, prefs model.UserNotificationPreferences) error {
	if _, err := model.ParseEmailDigestFrequency(string(prefs.EmailDigestFrequency)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	if prefs.RetentionDays < 1 {
		return fmt.Errorf("%w: retention days must be at least 1", model.ErrInvalidInput)
	}
	return s.prefs.Upsert(ctx, prefs)
}
