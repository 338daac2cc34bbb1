package service

import "context"

// CompletionRequest запрос к генеративной модели
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	JSON        bool
}

// ILLMService узкий контракт генеративной модели
type ILLMService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Provider() string
}
