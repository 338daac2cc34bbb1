package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GuidanceMode string

const (
	GuidanceModeAstrology  GuidanceMode = "astrology"
	GuidanceModeNumerology GuidanceMode = "numerology"
	GuidanceModeBoth       GuidanceMode = "both"
)

func (m GuidanceMode) IsValid() bool {
	switch m {
	case GuidanceModeAstrology, GuidanceModeNumerology, GuidanceModeBoth:
		return true
	}
	return false
}

// UsesAstrology режим использует астрологические данные
func (m GuidanceMode) UsesAstrology() bool {
	return m == GuidanceModeAstrology || m == GuidanceModeBoth
}

// UsesNumerology режим использует нумерологические данные
func (m GuidanceMode) UsesNumerology() bool {
	return m == GuidanceModeNumerology || m == GuidanceModeBoth
}

type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageHindi    Language = "hi"
	LanguageHinglish Language = "hinglish"
)

func (l Language) IsValid() bool {
	switch l {
	case LanguageEnglish, LanguageHindi, LanguageHinglish:
		return true
	}
	return false
}

type ResponseStyle string

const (
	ResponseStyleSupportive ResponseStyle = "supportive"
	ResponseStyleBalanced   ResponseStyle = "balanced"
	ResponseStyleDirect     ResponseStyle = "direct"
)

func (s ResponseStyle) IsValid() bool {
	switch s {
	case ResponseStyleSupportive, ResponseStyleBalanced, ResponseStyleDirect:
		return true
	}
	return false
}

const birthTimeLayout = "15:04"

// UserProfile личные данные пользователя, из которых считается карта
type UserProfile struct {
	UserID        uuid.UUID     `json:"user_id" db:"user_id"`
	FullName      string        `json:"full_name" db:"full_name"`
	BirthDate     time.Time     `json:"birth_date" db:"birth_date"`
	BirthTime     *string       `json:"birth_time,omitempty" db:"birth_time"`   // HH:MM, локальное время места рождения
	BirthPlace    *string       `json:"birth_place,omitempty" db:"birth_place"` // "City, CC"
	GuidanceMode  GuidanceMode  `json:"guidance_mode" db:"guidance_mode"`
	Language      Language      `json:"language" db:"language"`
	ResponseStyle ResponseStyle `json:"response_style" db:"response_style"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// HasBirthTime известно ли время рождения
func (p *UserProfile) HasBirthTime() bool {
	return p.BirthTime != nil && strings.TrimSpace(*p.BirthTime) != ""
}

// BirthClock разбирает время рождения, ok=false если его нет
func (p *UserProfile) BirthClock() (hour, minute int, ok bool) {
	if !p.HasBirthTime() {
		return 0, 0, false
	}
	t, err := time.Parse(birthTimeLayout, strings.TrimSpace(*p.BirthTime))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// Validate проверяет профиль перед сохранением
func (p *UserProfile) Validate() error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("%w: full_name is required", ErrInvalidRequest)
	}
	if p.BirthDate.IsZero() {
		return fmt.Errorf("%w: birth_date is required", ErrInvalidRequest)
	}
	if p.HasBirthTime() {
		if _, err := time.Parse(birthTimeLayout, strings.TrimSpace(*p.BirthTime)); err != nil {
			return fmt.Errorf("%w: birth_time must be HH:MM", ErrInvalidRequest)
		}
	}
	if !p.GuidanceMode.IsValid() {
		return fmt.Errorf("%w: unknown guidance_mode %q", ErrInvalidRequest, p.GuidanceMode)
	}
	if !p.Language.IsValid() {
		return fmt.Errorf("%w: unknown language %q", ErrInvalidRequest, p.Language)
	}
	if !p.ResponseStyle.IsValid() {
		return fmt.Errorf("%w: unknown response_style %q", ErrInvalidRequest, p.ResponseStyle)
	}
	return nil
}

// ChartInputHash отпечаток полей, влияющих на расчёт карты
func (p *UserProfile) ChartInputHash() string {
	var birthTime, birthPlace string
	if p.HasBirthTime() {
		birthTime = strings.TrimSpace(*p.BirthTime)
	}
	if p.BirthPlace != nil {
		birthPlace = strings.ToLower(strings.TrimSpace(*p.BirthPlace))
	}

	raw := strings.Join([]string{
		strings.TrimSpace(p.FullName),
		p.BirthDate.Format(time.DateOnly),
		birthTime,
		birthPlace,
	}, "|")

	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ChartInputsChanged изменились ли данные, из которых выводится карта
func (p *UserProfile) ChartInputsChanged(other *UserProfile) bool {
	if other == nil {
		return true
	}
	return p.ChartInputHash() != other.ChartInputHash()
}
