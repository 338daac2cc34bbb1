package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Aagam-Bothara/astranum-sub001/internal/ports/service"
	"github.com/sashabaranov/go-openai"
)

// OpenAIClient OpenAI и совместимые с ним серверы
type OpenAIClient struct {
	client *openai.Client
	model  string
	log    *slog.Logger
}

var _ service.ILLMService = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg Config, log *slog.Logger) (*OpenAIClient, error) {
	if cfg.OpenAIAPIKey == "" && cfg.OpenAIBaseURL == "" {
		return nil, fmt.Errorf("openai api key is not set")
	}

	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}

	log.Info("initializing openai client", "model", cfg.OpenAIModel)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.OpenAIModel,
		log:    log,
	}, nil
}

func (o *OpenAIClient) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIClient) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature:         req.Temperature,
		MaxCompletionTokens: req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	o.log.Debug("received response from openai",
		"finish_reason", resp.Choices[0].FinishReason,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}
