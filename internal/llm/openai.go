// filename: internal/llm/openai.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rulesmith/rulesmith/internal/common/errors"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/models"
)

// openAIClient представляет адаптер OpenAI-совместимого chat completions API
type openAIClient struct {
	provider string
	baseURL  string
	apiKey   string
	model    string
	client   *http.Client
	logger   *logging.Logger
}

// chatRequest представляет запрос chat completions
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

// chatMessage представляет одно сообщение диалога
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse представляет ответ chat completions
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// newOpenAIClient создает адаптер OpenAI-совместимого провайдера // v1.0
func newOpenAIClient(provider, baseURL, apiKey, model string, timeout time.Duration, logger *logging.Logger) *openAIClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &openAIClient{
		provider: provider,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Provider возвращает имя провайдера // v1.0
func (c *openAIClient) Provider() string { return c.provider }

// GenerateText выполняет запрос к chat completions API и нормализует
// ответ в единую форму независимо от провайдера. // v1.0
func (c *openAIClient) GenerateText(ctx context.Context, prompt string, opts Options) (*models.GeneratedText, error) {
	payload := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeLLMRequest, "failed to marshal request")
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeLLMRequest, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeLLMRequest,
			fmt.Sprintf("request to %s provider failed", c.provider))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeLLMResponse, "failed to read response body")
	}

	if c.logger != nil {
		c.logger.WithLLM(c.provider, c.model).
			WithField("duration_ms", time.Since(started).Milliseconds()).
			WithField("status", resp.StatusCode).
			Debug("LLM request completed")
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, errors.Wrap(err, errors.ErrorCodeLLMResponse, "failed to decode response")
	}

	if parsed.Error != nil {
		return nil, errors.New(errors.ErrorCodeLLMResponse,
			fmt.Sprintf("%s provider error: %s", c.provider, parsed.Error.Message))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrorCodeLLMResponse,
			fmt.Sprintf("%s provider returned status %d", c.provider, resp.StatusCode))
	}

	if len(parsed.Choices) == 0 {
		return nil, errors.New(errors.ErrorCodeLLMResponse, "response contains no choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, errors.New(errors.ErrorCodeLLMResponse, "response content is empty")
	}

	return &models.GeneratedText{
		Content: content,
		Raw:     raw,
	}, nil
}
