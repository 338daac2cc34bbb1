package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionPaused    SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionExpired, SubscriptionPaused:
		return true
	}
	return false
}

// Subscription подписка, источник истины внешний биллинг
type Subscription struct {
	UserID             uuid.UUID          `json:"user_id" db:"user_id"`
	Tier               Tier               `json:"tier" db:"tier"`
	Status             SubscriptionStatus `json:"status" db:"status"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty" db:"current_period_start"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty" db:"current_period_end"`
	UpdatedAt          time.Time          `json:"updated_at" db:"updated_at"`
	PriceDisplay       string             `json:"price_display" db:"-"`
}

// DefaultSubscription бесплатная подписка для пользователя без записи в биллинге
func DefaultSubscription(userID uuid.UUID, now time.Time) *Subscription {
	return &Subscription{
		UserID:       userID,
		Tier:         TierFree,
		Status:       SubscriptionActive,
		UpdatedAt:    now,
		PriceDisplay: FormatPrice(0),
	}
}

// EffectivePlan тариф, по которому считаются лимиты.
// active действует до конца периода плюс grace, cancelled до конца оплаченного периода,
// expired и paused переводят на free.
func (s *Subscription) EffectivePlan(now time.Time, grace time.Duration) Plan {
	if s == nil || !s.Tier.IsValid() || s.Tier == TierFree {
		return Plan{Tier: TierFree}
	}

	switch s.Status {
	case SubscriptionActive:
		if s.CurrentPeriodEnd != nil && now.After(s.CurrentPeriodEnd.Add(grace)) {
			return Plan{Tier: TierFree}
		}
	case SubscriptionCancelled:
		if s.CurrentPeriodEnd == nil || now.After(*s.CurrentPeriodEnd) {
			return Plan{Tier: TierFree}
		}
	default:
		return Plan{Tier: TierFree}
	}

	plan := Plan{Tier: s.Tier}
	if GetTierConfig(s.Tier).MonthlyReset == MonthlyResetBillingCycle && s.CurrentPeriodStart != nil {
		anchor := *s.CurrentPeriodStart
		plan.CycleAnchor = &anchor
	}
	return plan
}

// SubscriptionEvent событие биллинга о смене подписки
type SubscriptionEvent struct {
	EventID            string             `json:"event_id"`
	UserID             uuid.UUID          `json:"user_id"`
	Tier               Tier               `json:"tier"`
	Status             SubscriptionStatus `json:"status"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	OccurredAt         time.Time          `json:"occurred_at"`
}

func (e *SubscriptionEvent) Validate() error {
	if e.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", ErrInvalidRequest)
	}
	if !e.Tier.IsValid() {
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidRequest, e.Tier)
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, e.Status)
	}
	if e.OccurredAt.IsZero() {
		return fmt.Errorf("%w: occurred_at is required", ErrInvalidRequest)
	}
	return nil
}

// ToSubscription запись подписки из события
func (e *SubscriptionEvent) ToSubscription() *Subscription {
	return &Subscription{
		UserID:             e.UserID,
		Tier:               e.Tier,
		Status:             e.Status,
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		UpdatedAt:          e.OccurredAt,
		PriceDisplay:       GetTierConfig(e.Tier).PriceDisplay(),
	}
}
