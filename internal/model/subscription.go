package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubscriptionType identifies which hierarchy level a subscription targets.
// Only products, domains and contexts are subscribable; schemas and schema
// versions inherit visibility from their ancestors.
type SubscriptionType string

const (
	SubscriptionTypeProduct SubscriptionType = "P"
	SubscriptionTypeDomain  SubscriptionType = "D"
	SubscriptionTypeContext SubscriptionType = "C"
)

// ParseSubscriptionType validates a raw subscription type value.
func ParseSubscriptionType(raw string) (SubscriptionType, error) {
	switch SubscriptionType(raw) {
	case SubscriptionTypeProduct, SubscriptionTypeDomain, SubscriptionTypeContext:
		return SubscriptionType(raw), nil
	}
	return "", fmt.Errorf("invalid subscription type %q", raw)
}

// Subscription identifies one subscribable target. There is at most one row
// per (TypeID, Type) no matter how many users subscribe to it.
type Subscription struct {
	ID     uuid.UUID        `json:"id"`
	TypeID uuid.UUID        `json:"type_id"`
	Type   SubscriptionType `json:"type"`
}

// UserSubscription joins a user to a subscription target.
type UserSubscription struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	UserID         uuid.UUID `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserChangeView marks a change record as seen by a user. Writes are
// idempotent on (UserID, ChangeID).
type UserChangeView struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	ChangeID uuid.UUID `json:"change_id"`
	ViewedAt time.Time `json:"viewed_at"`
}

// User is the directory entry used to enrich change records with actor
// identity.
type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
}
