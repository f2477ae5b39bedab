// filename: internal/llm/openai_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rulesmith/rulesmith/internal/common/config"
	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
	"github.com/rulesmith/rulesmith/internal/common/logging"
)

// createTestLogger создает logger для тестов
func createTestLogger(t *testing.T) *logging.Logger {
	logger, err := logging.NewLogger(logging.Config{
		Level:  "error",
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(config.LLMConfig{Provider: "deepseek"}, createTestLogger(t))
	if err != nil {
		t.Fatal(err)
	}

	if client.Provider() != "deepseek" {
		t.Errorf("Expected deepseek provider, got %s", client.Provider())
	}
}

func TestNewClientUnknownProviderWithoutModel(t *testing.T) {
	_, err := NewClient(config.LLMConfig{Provider: "unknown"}, createTestLogger(t))
	if err == nil {
		t.Error("Expected error for unknown provider without explicit model")
	}
}

func TestGenerateTextSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Unexpected authorization header %q", auth)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req["model"] != "test-model" {
			t.Errorf("Unexpected model %v", req["model"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "alert http any any -> any any (sid:9000001;)"}},
			},
		})
	}))
	defer server.Close()

	client := newOpenAIClient("openai", server.URL, "test-key", "test-model", 5*time.Second, createTestLogger(t))

	generated, err := client.GenerateText(context.Background(), "generate a rule", Options{Temperature: 0.1})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(generated.Content, "alert http") {
		t.Errorf("Unexpected content %q", generated.Content)
	}
	if len(generated.Raw) == 0 {
		t.Error("Expected raw response to be kept")
	}
}

func TestGenerateTextProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key", "type": "auth_error"},
		})
	}))
	defer server.Close()

	client := newOpenAIClient("openai", server.URL, "bad-key", "test-model", 5*time.Second, createTestLogger(t))

	_, err := client.GenerateText(context.Background(), "prompt", Options{})
	if err == nil {
		t.Fatal("Expected error from provider")
	}
	if !apperrors.IsErrorCode(err, apperrors.ErrorCodeLLMResponse) {
		t.Errorf("Expected LLM_RESPONSE_INVALID, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("Expected provider message in error, got %v", err)
	}
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer server.Close()

	client := newOpenAIClient("openai", server.URL, "", "test-model", 5*time.Second, createTestLogger(t))

	_, err := client.GenerateText(context.Background(), "prompt", Options{})
	if err == nil {
		t.Fatal("Expected error for empty choices")
	}
}

func TestGenerateTextConnectionRefused(t *testing.T) {
	client := newOpenAIClient("openai", "http://127.0.0.1:1", "", "test-model", time.Second, createTestLogger(t))

	_, err := client.GenerateText(context.Background(), "prompt", Options{})
	if err == nil {
		t.Fatal("Expected connection error")
	}
	if !apperrors.IsErrorCode(err, apperrors.ErrorCodeLLMRequest) {
		t.Errorf("Expected LLM_REQUEST_FAILED, got %v", err)
	}
}

func TestBuildGenerationPromptContainsTemplates(t *testing.T) {
	prompt := BuildGenerationPrompt("CVE-2024-0001 SQLi", "union based injection", "SQL injection", "GET /a?id=1")

	for _, want := range []string{"CVE-2024-0001 SQLi", "SQL injection", "union based injection", "GET /a?id=1", "sid:XXXXXXX", "pcre"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildOptimizationPrompt(t *testing.T) {
	prompt := BuildOptimizationPrompt("alert tcp any any -> any any (sid:1;)", "too many false positives", "no_alerts_detected")

	for _, want := range []string{"alert tcp any any", "too many false positives", "no_alerts_detected"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}
