package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Aagam-Bothara/astranum-sub001/internal/domain"
	"github.com/Aagam-Bothara/astranum-sub001/internal/pkg/metrics"
	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

const (
	unlimitedTokens = 2000
	maxTokens       = 1500
	minTokenReserve = 30
)

type Config struct {
	Timeout           time.Duration `envconfig:"TIMEOUT" default:"30s"`
	Temperature       float32       `envconfig:"TEMPERATURE" default:"0.7"`
	StrictTemperature float32       `envconfig:"STRICT_TEMPERATURE" default:"0.2"`
}

// Service генерация черновика ответа по словарю карты
type Service struct {
	LLM service.ILLMService
	Log *slog.Logger

	cfg Config
}

func New(cfg Config, llm service.ILLMService, log *slog.Logger) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}
	if cfg.StrictTemperature <= 0 {
		cfg.StrictTemperature = 0.2
	}
	return &Service{LLM: llm, Log: log, cfg: cfg}
}

// TokenBudget лимит токенов ответа: примерно 4 символа на токен плюс запас на JSON
func TokenBudget(maxChars int) int {
	if maxChars <= 0 {
		return unlimitedTokens
	}
	reserve := maxChars / 20
	if reserve < minTokenReserve {
		reserve = minTokenReserve
	}
	return min(maxChars/4+reserve, maxTokens)
}

// Generate один вызов модели. Ошибка провайдера, таймаут и пустой ответ
// возвращаются как domain.ErrGenerationUnavailable.
func (s *Service) Generate(ctx context.Context, request domain.GuidanceRequest, snapshot *domain.ChartSnapshot, c domain.GenerationConstraints) (*domain.CandidateAnswer, error) {
	question := strings.TrimSpace(request.Question)
	vocabulary := c.Vocabulary
	if c.Strict {
		vocabulary = narrowVocabulary(question, vocabulary)
	}

	temperature := s.cfg.Temperature
	if c.Strict {
		temperature = s.cfg.StrictTemperature
	}

	req := service.CompletionRequest{
		System:      buildSystemPrompt(snapshot, vocabulary, c),
		Prompt:      buildUserPrompt(question, c),
		MaxTokens:   TokenBudget(c.MaxChars),
		Temperature: temperature,
		JSON:        true,
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	started := time.Now()
	raw, err := s.LLM.Complete(genCtx, req)
	metrics.ObserveGeneration(s.LLM.Provider(), started, err)
	if err != nil {
		s.Log.Warn("generation failed",
			"provider", s.LLM.Provider(),
			"strict", c.Strict,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty model output", domain.ErrGenerationUnavailable)
	}

	candidate := ParseCandidate(raw)
	s.Log.Debug("candidate generated",
		"provider", s.LLM.Provider(),
		"strict", c.Strict,
		"data_points_used", candidate.DataPointsUsed,
		"duration", time.Since(started),
	)
	return candidate, nil
}
