package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client    *genai.Client
	modelName string
	log       *slog.Logger
}

var _ service.ILLMService = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, cfg Config, log *slog.Logger) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini api key is not set")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	log.Info("initializing gemini client", "model", cfg.GeminiModel)
	return &GeminiClient{client: cl, modelName: cfg.GeminiModel, log: log}, nil
}

func (g *GeminiClient) Provider() string {
	return ProviderGemini
}

func (g *GeminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func (g *GeminiClient) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	if req.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	m.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		m.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.JSON {
		m.ResponseMIMEType = "application/json"
	}

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	g.log.Debug("received response from gemini",
		"finish_reason", resp.Candidates[0].FinishReason.String(),
	)
	return b.String(), nil
}
