// filename: internal/llm/client.go
package llm

import (
	"context"
	"fmt"

	"github.com/rulesmith/rulesmith/internal/common/config"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/models"
)

// Client представляет черный ящик генерации текста: принимает промпт и
// параметры генерации, возвращает нормализованный ответ. Ядро валидации
// не знает и не заботится о том, какой провайдер отвечает.
type Client interface {
	// GenerateText генерирует текст по промпту
	GenerateText(ctx context.Context, prompt string, opts Options) (*models.GeneratedText, error)
	// Provider возвращает имя провайдера для диагностики
	Provider() string
}

// Options представляет параметры генерации
type Options struct {
	Temperature float64
	MaxTokens   int
}

// defaultModels содержит модели по умолчанию для провайдеров
var defaultModels = map[string]string{
	"openai":   "gpt-4o-mini",
	"deepseek": "deepseek-chat",
	"qwen":     "qwen-turbo",
	"moonshot": "moonshot-v1-8k",
	"zhipu":    "glm-4-flash",
	"ollama":   "llama3",
	"360ai":    "360gpt-pro",
}

// defaultBaseURLs содержит адреса API по умолчанию для провайдеров
var defaultBaseURLs = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"deepseek": "https://api.deepseek.com/v1",
	"qwen":     "https://dashscope.aliyuncs.com/compatible-mode/v1",
	"moonshot": "https://api.moonshot.cn/v1",
	"zhipu":    "https://open.bigmodel.cn/api/paas/v4",
	"ollama":   "http://localhost:11434/v1",
	"360ai":    "https://api.360.cn/v1",
}

// NewClient создает клиент LLM из конфигурации приложения. Все
// поддерживаемые провайдеры говорят на OpenAI-совместимом протоколе,
// различаясь только адресом API и моделью. // v1.0
func NewClient(cfg config.LLMConfig, logger *logging.Logger) (Client, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}

	model := cfg.Model
	if model == "" {
		model = defaultModels[provider]
	}
	if model == "" {
		return nil, fmt.Errorf("no model configured for provider %q", provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURLs[provider]
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no base URL configured for provider %q", provider)
	}

	return newOpenAIClient(provider, baseURL, cfg.APIKey, model, cfg.Timeout, logger), nil
}
