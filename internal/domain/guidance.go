package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxQuestionLength = 1000

// GuidanceRequest вопрос пользователя; mode и language по умолчанию берутся из профиля
type GuidanceRequest struct {
	Question string        `json:"question"`
	Mode     *GuidanceMode `json:"mode,omitempty"`
	Language *Language     `json:"language,omitempty"`
}

func (r *GuidanceRequest) Validate() error {
	question := strings.TrimSpace(r.Question)
	if question == "" {
		return fmt.Errorf("%w: question is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(question) > MaxQuestionLength {
		return fmt.Errorf("%w: question must be at most %d characters", ErrInvalidRequest, MaxQuestionLength)
	}
	if r.Mode != nil && !r.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, *r.Mode)
	}
	if r.Language != nil && !r.Language.IsValid() {
		return fmt.Errorf("%w: unknown language %q", ErrInvalidRequest, *r.Language)
	}
	return nil
}

// ResolveMode режим ответа с учётом профиля и тарифа.
// both без права на оба режима понижается до режима профиля, а если и там both, то до астрологии.
func (r *GuidanceRequest) ResolveMode(profile *UserProfile, features TierFeatures) GuidanceMode {
	mode := profile.GuidanceMode
	if r.Mode != nil {
		mode = *r.Mode
	}
	if mode == GuidanceModeBoth && !features.CanUseBothModes {
		mode = profile.GuidanceMode
		if mode == GuidanceModeBoth || !mode.IsValid() {
			mode = GuidanceModeAstrology
		}
	}
	return mode
}

func (r *GuidanceRequest) ResolveLanguage(profile *UserProfile) Language {
	if r.Language != nil {
		return *r.Language
	}
	if profile.Language.IsValid() {
		return profile.Language
	}
	return LanguageEnglish
}

// GenerationConstraints параметры одной генерации
type GenerationConstraints struct {
	MaxChars       int // 0 = без ограничения
	Vocabulary     DataPointSet
	HasBirthTime   bool
	Strict         bool
	PreviousIssues []string
	Mode           GuidanceMode
	Language       Language
	Style          ResponseStyle
}

// CandidateAnswer черновик ответа модели до проверки
type CandidateAnswer struct {
	EmpathyLine    string   `json:"empathy_line"`
	Reasons        []string `json:"reasons"`
	Direction      string   `json:"direction"`
	Caution        *string  `json:"caution,omitempty"`
	DataPointsUsed []string `json:"data_points_used"`
	FullResponse   string   `json:"full_response"`
}

type ValidationResult struct {
	Passed         bool     `json:"passed"`
	Issues         []string `json:"issues"`
	WasRegenerated bool     `json:"was_regenerated"`
}

// GuidanceResponse итоговый ответ пользователю
type GuidanceResponse struct {
	RequestID       uuid.UUID        `json:"request_id"`
	EmpathyLine     string           `json:"empathy_line"`
	Reasons         []string         `json:"reasons"`
	Direction       string           `json:"direction"`
	Caution         *string          `json:"caution,omitempty"`
	DataPointsUsed  []string         `json:"data_points_used"`
	Validation      ValidationResult `json:"validation"`
	FullResponse    string           `json:"full_response"`
	SnapshotVersion int              `json:"snapshot_version"`
	Mode            GuidanceMode     `json:"mode"`
	Language        Language         `json:"language"`
	IsGreeting      bool             `json:"is_greeting"`
}

// Degraded ответ собран из шаблона после двух неудачных проверок
func (r *GuidanceResponse) Degraded() bool {
	return r.Validation.WasRegenerated && !r.Validation.Passed
}

// GuidanceEvent событие о завершённом запросе для аналитики
type GuidanceEvent struct {
	RequestID       uuid.UUID    `json:"request_id"`
	UserID          uuid.UUID    `json:"user_id"`
	Tier            Tier         `json:"tier"`
	Mode            GuidanceMode `json:"mode"`
	Language        Language     `json:"language"`
	SnapshotVersion int          `json:"snapshot_version"`
	Passed          bool         `json:"passed"`
	WasRegenerated  bool         `json:"was_regenerated"`
	IsGreeting      bool         `json:"is_greeting"`
	IssuesCount     int          `json:"issues_count"`
	CompletedAt     string       `json:"completed_at"`
}
