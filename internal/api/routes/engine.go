// filename: internal/api/routes/engine.go
package routes

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/models"
)

// EngineChecker выполняет диагностику движка обнаружения
type EngineChecker interface {
	CheckEngine(ctx context.Context) *models.EngineCheck
}

// EngineHandler обработчик диагностики движка // v1.0
type EngineHandler struct {
	logger  *logging.Logger
	checker EngineChecker
}

// NewEngineHandler создает новый обработчик диагностики // v1.0
func NewEngineHandler(logger *logging.Logger, checker EngineChecker) *EngineHandler {
	return &EngineHandler{
		logger:  logger,
		checker: checker,
	}
}

// CheckEngine обрабатывает GET /engine/check // v1.0
func (h *EngineHandler) CheckEngine(c *gin.Context) {
	check := h.checker.CheckEngine(c.Request.Context())

	h.logger.Logger.WithFields(map[string]interface{}{
		"available": check.SuricataAvailable,
		"status":    check.Status,
	}).Info("Engine check completed")

	c.JSON(http.StatusOK, gin.H{"engine": check})
}
