package validator

import (
	"log/slog"
	"strings"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
)

type Config struct {
	// прогноз с уверенностью, медицина, право, запугивание, зависимость
	SafetyRules bool `envconfig:"SAFETY_RULES" default:"false"`
}

// Ground данные, по которым проверяется ответ
type Ground struct {
	Snapshot         *domain.ChartSnapshot
	Vocabulary       domain.DataPointSet
	MaxResponseChars int
}

func (g Ground) HasBirthTime() bool {
	return g.Snapshot != nil && g.Snapshot.HasBirthTime()
}

// rule проверка ответа целиком: ссылки на DataPoint, длина, согласованность карты
type rule func(c *domain.CandidateAnswer, g Ground) []string

// textRule проверка одного фрагмента текста, который увидит пользователь
type textRule func(text string, g Ground) []string

// Service проверка, что ответ ссылается только на посчитанные данные карты
type Service struct {
	Log       *slog.Logger
	rules     []rule
	textRules []textRule
}

func New(cfg Config, log *slog.Logger) *Service {
	rules := []rule{
		checkDataPointsUsed,
		checkSnapshotConsistency,
		checkLength,
	}
	textRules := []textRule{
		checkNumericClaims,
		checkSignClaims,
		checkDegreeClaims,
		checkTimeSensitiveMentions,
	}
	if cfg.SafetyRules {
		textRules = append(textRules, checkSafety)
	}
	return &Service{Log: log, rules: rules, textRules: textRules}
}

// Validate прогоняет все правила; неоднозначный текст нарушением не считается
func (s *Service) Validate(candidate *domain.CandidateAnswer, ground Ground) domain.ValidationResult {
	var issues []string
	seen := make(map[string]bool)
	collect := func(found []string) {
		for _, issue := range found {
			if !seen[issue] {
				seen[issue] = true
				issues = append(issues, issue)
			}
		}
	}

	for _, check := range s.rules {
		collect(check(candidate, ground))
	}
	// каждую часть отдельно, чтобы шаблоны не склеивали конец одной части с началом другой
	for _, section := range sections(candidate) {
		for _, check := range s.textRules {
			collect(check(section, ground))
		}
	}

	if len(issues) > 0 {
		s.Log.Debug("candidate failed validation", "issues", issues)
	}
	return domain.ValidationResult{
		Passed: len(issues) == 0,
		Issues: issues,
	}
}

// sections все части ответа, которые отдаются пользователю
func sections(c *domain.CandidateAnswer) []string {
	parts := make([]string, 0, len(c.Reasons)+4)
	parts = append(parts, c.FullResponse, c.EmpathyLine)
	parts = append(parts, c.Reasons...)
	parts = append(parts, c.Direction)
	if c.Caution != nil {
		parts = append(parts, *c.Caution)
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return nonEmpty
}

// servedText полный текст ответа; если модель не вернула его, собирается из частей
func servedText(c *domain.CandidateAnswer) string {
	if strings.TrimSpace(c.FullResponse) != "" {
		return c.FullResponse
	}
	parts := []string{c.EmpathyLine}
	parts = append(parts, c.Reasons...)
	parts = append(parts, c.Direction)
	if c.Caution != nil {
		parts = append(parts, *c.Caution)
	}
	return strings.Join(parts, " ")
}
