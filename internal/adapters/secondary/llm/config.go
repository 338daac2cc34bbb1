package llm

import "time"

const (
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderOffline = "offline"
)

type Config struct {
	// openai | gemini | offline
	Provider string        `envconfig:"PROVIDER" default:"offline"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"30s"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"` // OpenAI-совместимый сервер, например локальный

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
}
