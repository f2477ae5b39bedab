// filename: internal/api/routes/health.go
package routes

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rulesmith/rulesmith/internal/common/ch"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/nats"
	"github.com/rulesmith/rulesmith/internal/common/pg"
)

// HealthHandler обработчик health check запросов // v1.0
type HealthHandler struct {
	logger     *logging.Logger
	pgClient   *pg.Client
	chClient   *ch.Client
	natsClient *nats.Client
	startTime  time.Time
}

// NewHealthHandler создает новый обработчик health check // v1.0
func NewHealthHandler(logger *logging.Logger, pgClient *pg.Client, chClient *ch.Client, natsClient *nats.Client) *HealthHandler {
	return &HealthHandler{
		logger:     logger,
		pgClient:   pgClient,
		chClient:   chClient,
		natsClient: natsClient,
		startTime:  time.Now(),
	}
}

// HealthCheck базовая проверка здоровья сервиса // v1.0
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "rulesmith-api",
		"version":   "1.0.0",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// DetailedHealthCheck детальная проверка с состоянием зависимостей // v1.0
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	ctx := c.Request.Context()

	components := gin.H{}
	healthy := true

	if h.pgClient != nil {
		if err := h.pgClient.Ping(ctx); err != nil {
			components["postgresql"] = gin.H{"status": "unhealthy", "error": err.Error()}
			healthy = false
		} else {
			components["postgresql"] = gin.H{"status": "healthy"}
		}
	}

	if h.chClient != nil {
		if err := h.chClient.Ping(ctx); err != nil {
			components["clickhouse"] = gin.H{"status": "unhealthy", "error": err.Error()}
			healthy = false
		} else {
			components["clickhouse"] = gin.H{"status": "healthy"}
		}
	}

	if h.natsClient != nil {
		if h.natsClient.IsConnected() {
			components["nats"] = gin.H{"status": "healthy"}
		} else {
			components["nats"] = gin.H{"status": "unhealthy", "error": "not connected"}
			healthy = false
		}
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(statusCode, gin.H{
		"status":     status,
		"service":    "rulesmith-api",
		"uptime":     time.Since(h.startTime).String(),
		"goroutines": runtime.NumGoroutine(),
		"memory_mb":  mem.Alloc / 1024 / 1024,
		"components": components,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

// ReadinessCheck проверка готовности принимать трафик // v1.0
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ctx := c.Request.Context()

	if h.pgClient != nil {
		if err := h.pgClient.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready": false,
				"error": "database is not reachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// LivenessCheck проверка живости процесса // v1.0
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"alive":  true,
		"uptime": time.Since(h.startTime).String(),
	})
}
