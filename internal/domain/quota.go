package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Window string

const (
	WindowDaily    Window = "daily"
	WindowMonthly  Window = "monthly"
	WindowLifetime Window = "lifetime"
)

// WindowOrder порядок проверки окон при допуске и порядок блокировки строк
var WindowOrder = []Window{WindowDaily, WindowMonthly, WindowLifetime}

const LifetimePeriodKey = "all"

type WindowKey struct {
	Window    Window `json:"window"`
	PeriodKey string `json:"period_key"`
}

// WindowKeys список окон резервации (JSONB)
type WindowKeys []WindowKey

func (k *WindowKeys) Scan(value interface{}) error {
	return scanJSON(value, k)
}

func (k WindowKeys) Value() (driver.Value, error) {
	if k == nil {
		return "[]", nil
	}
	return json.Marshal(k)
}

// WindowCounter счётчик использования за период
type WindowCounter struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Window    Window    `json:"window" db:"window_kind"`
	PeriodKey string    `json:"period_key" db:"period_key"`
	Used      int       `json:"used" db:"used"`
	Reserved  int       `json:"reserved" db:"reserved"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Consumed учитывает и подтверждённые, и зарезервированные вопросы
func (c WindowCounter) Consumed() int {
	return c.Used + c.Reserved
}

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// Reservation предварительное списание квоты до commit/release
type Reservation struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	UserID     uuid.UUID         `json:"user_id" db:"user_id"`
	Tier       Tier              `json:"tier" db:"tier"`
	Windows    WindowKeys        `json:"windows" db:"windows"`
	Status     ReservationStatus `json:"status" db:"status"`
	CreatedAt  time.Time         `json:"created_at" db:"created_at"`
	ExpiresAt  time.Time         `json:"expires_at" db:"expires_at"`
	ResolvedAt *time.Time        `json:"resolved_at,omitempty" db:"resolved_at"`
}

// Plan действующий тариф пользователя для учёта квоты
type Plan struct {
	Tier        Tier
	CycleAnchor *time.Time // начало оплаченного периода, если месячное окно считается по биллингу
}

// UsageStatus состояние квот пользователя
type UsageStatus struct {
	Tier              Tier    `json:"tier"`
	DailyLimit        int     `json:"daily_limit"`
	DailyUsed         int     `json:"daily_used"`
	DailyRemaining    int     `json:"daily_remaining"`
	MonthlyLimit      int     `json:"monthly_limit"`
	MonthlyUsed       int     `json:"monthly_used"`
	MonthlyRemaining  int     `json:"monthly_remaining"`
	LifetimeLimit     *int    `json:"lifetime_limit,omitempty"`
	LifetimeUsed      *int    `json:"lifetime_used,omitempty"`
	LifetimeRemaining *int    `json:"lifetime_remaining,omitempty"`
	MaxResponseChars  int     `json:"max_response_chars"`
	CanAskQuestion    bool    `json:"can_ask_question"`
	LimitMessage      *string `json:"limit_message,omitempty"`
}

// LimitMessage текст отказа для исчерпанного окна
func LimitMessage(w Window, limit int) string {
	switch w {
	case WindowLifetime:
		return fmt.Sprintf("You've used your %d free questions. Upgrade to continue.", limit)
	case WindowDaily:
		return fmt.Sprintf("Daily limit reached (%d questions). Try again tomorrow.", limit)
	case WindowMonthly:
		return fmt.Sprintf("Monthly limit reached (%d questions). Upgrade for more.", limit)
	}
	return ErrQuotaDenied.Error()
}
