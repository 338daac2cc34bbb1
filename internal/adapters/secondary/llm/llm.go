package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
)

// New клиент модели по cfg.Provider
func New(ctx context.Context, cfg Config, log *slog.Logger) (service.ILLMService, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(cfg, log)
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, log)
	case ProviderOffline, "":
		log.Warn("using offline llm provider, answers are templated")
		return OfflineClient{}, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
}
