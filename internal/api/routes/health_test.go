// filename: internal/api/routes/health_test.go
package routes

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
)

func TestHealthCheck(t *testing.T) {
	handler := NewHealthHandler(createTestLogger(t), nil, nil, nil)

	c, w := createTestContext(t)
	handler.HealthCheck(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", response["status"])
	}
	if response["service"] != "rulesmith-api" {
		t.Errorf("Unexpected service name: %v", response["service"])
	}
}

func TestDetailedHealthCheckWithoutClients(t *testing.T) {
	// без подключенных зависимостей сервис считается здоровым
	handler := NewHealthHandler(createTestLogger(t), nil, nil, nil)

	c, w := createTestContext(t)
	handler.DetailedHealthCheck(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %v", response["status"])
	}
	if _, ok := response["goroutines"]; !ok {
		t.Error("Expected goroutines in detailed health response")
	}
	if _, ok := response["components"]; !ok {
		t.Error("Expected components in detailed health response")
	}
}

func TestReadinessCheckWithoutDatabase(t *testing.T) {
	handler := NewHealthHandler(createTestLogger(t), nil, nil, nil)

	c, w := createTestContext(t)
	handler.ReadinessCheck(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
}

func TestLivenessCheck(t *testing.T) {
	handler := NewHealthHandler(createTestLogger(t), nil, nil, nil)

	c, w := createTestContext(t)
	handler.LivenessCheck(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["alive"] != true {
		t.Errorf("Expected alive=true, got %v", response["alive"])
	}
}

func TestWriteErrorAppError(t *testing.T) {
	c, w := createTestContext(t)
	writeError(c, apperrors.NotFoundError("rule", "42"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["error"] != string(apperrors.ErrorCodeNotFound) {
		t.Errorf("Expected %s code, got %v", apperrors.ErrorCodeNotFound, response["error"])
	}
}

func TestWriteErrorPlainError(t *testing.T) {
	c, w := createTestContext(t)
	writeError(c, errors.New("something broke"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response["error"] != string(apperrors.ErrorCodeInternal) {
		t.Errorf("Expected %s code, got %v", apperrors.ErrorCodeInternal, response["error"])
	}
	if response["message"] != "something broke" {
		t.Errorf("Unexpected message: %v", response["message"])
	}
}
