// filename: internal/api/routes/engine_test.go
package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/models"
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

// createTestContext создает gin контекст для тестов
func createTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

// fakeChecker возвращает фиксированную диагностику движка
type fakeChecker struct {
	check *models.EngineCheck
}

func (f *fakeChecker) CheckEngine(ctx context.Context) *models.EngineCheck {
	return f.check
}

func TestEngineHandlerCheckReady(t *testing.T) {
	handler := NewEngineHandler(createTestLogger(t), &fakeChecker{
		check: &models.EngineCheck{
			OS:                "linux",
			SuricataAvailable: true,
			BinaryPath:        "/usr/bin/suricata",
			Version:           "Suricata 7.0.2",
			Status:            "ready",
			Message:           "suricata engine is ready for rule validation",
		},
	})

	c, w := createTestContext(t)
	handler.CheckEngine(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}

	engine, ok := response["engine"].(map[string]interface{})
	if !ok {
		t.Fatalf("Missing engine object in %v", response)
	}
	if engine["status"] != "ready" {
		t.Errorf("Expected ready status, got %v", engine["status"])
	}
	if engine["suricata_available"] != true {
		t.Errorf("Expected suricata_available=true, got %v", engine["suricata_available"])
	}
}

func TestEngineHandlerCheckUnavailable(t *testing.T) {
	handler := NewEngineHandler(createTestLogger(t), &fakeChecker{
		check: &models.EngineCheck{
			OS:             "linux",
			Status:         "unavailable",
			Message:        "suricata is not installed or not available, validation is degraded",
			Recommendation: "install suricata or configure SSH access to a host that has it",
		},
	})

	c, w := createTestContext(t)
	handler.CheckEngine(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}

	engine := response["engine"].(map[string]interface{})
	if engine["status"] != "unavailable" {
		t.Errorf("Expected unavailable status, got %v", engine["status"])
	}
	if rec, _ := engine["recommendation"].(string); rec == "" {
		t.Error("Expected a recommendation for unavailable engine")
	}
}
