// filename: internal/api/server/server.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/rulesmith/rulesmith/internal/api/routes"
	"github.com/rulesmith/rulesmith/internal/auth"
	"github.com/rulesmith/rulesmith/internal/common/ch"
	"github.com/rulesmith/rulesmith/internal/common/config"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/nats"
	"github.com/rulesmith/rulesmith/internal/common/pg"
	"github.com/rulesmith/rulesmith/internal/llm"
	"github.com/rulesmith/rulesmith/internal/pcapstore"
	rulevalidator "github.com/rulesmith/rulesmith/internal/validator"
)

// Server представляет HTTP сервер API // v1.0
type Server struct {
	config *Config
	deps   Deps
	logger *logging.Logger
	router *gin.Engine
	server *http.Server
}

// Config конфигурация сервера // v1.0
type Config struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	LogLevel     string        `yaml:"log_level"`
	RateLimit    RateLimit     `yaml:"rate_limit"`
	TLS          *tls.Config   `yaml:"-"`
}

// Deps зависимости обработчиков API // v1.0
type Deps struct {
	AppConfig *config.Config
	PG        *pg.Client
	CH        *ch.Client
	NATS      *nats.Client
	LLM       llm.Client
	Validator *rulevalidator.Validator
	PcapStore *pcapstore.Store
	Auth      *auth.Service
}

// NewServer создает новый HTTP сервер // v1.0
func NewServer(config *Config, deps Deps, logger *logging.Logger) *Server {
	// Устанавливаем уровень логирования Gin
	if config.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	registerCustomValidations()

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())
	if config.RateLimit.Enabled && config.RateLimit.RequestsPerMinute > 0 {
		router.Use(rateLimitMiddleware(config.RateLimit))
	}

	server := &Server{
		config: config,
		deps:   deps,
		logger: logger,
		router: router,
	}

	// Настраиваем роуты
	server.setupRoutes()

	// Создаем HTTP сервер
	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return server
}

// registerCustomValidations регистрирует доменные проверки для binding // v1.0
func registerCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		// Правило должно начинаться с действия Suricata
		v.RegisterValidation("suricata_rule", func(fl validator.FieldLevel) bool {
			text := strings.TrimSpace(fl.Field().String())
			for _, action := range []string{"alert ", "drop ", "pass ", "reject "} {
				if strings.HasPrefix(text, action) {
					return true
				}
			}
			return false
		})
	}
}

// setupRoutes настраивает роуты API // v1.0
func (s *Server) setupRoutes() {
	// Создаем обработчики
	healthHandler := routes.NewHealthHandler(s.logger, s.deps.PG, s.deps.CH, s.deps.NATS)
	authHandler := routes.NewAuthHandler(s.logger, s.deps.Auth)
	rulesHandler := routes.NewRulesHandler(s.logger, s.deps.PG, s.deps.NATS, s.deps.CH,
		s.deps.LLM, s.deps.Validator, s.deps.AppConfig)
	pcapHandler := routes.NewPcapHandler(s.logger, s.deps.PcapStore, s.deps.PG, s.deps.AppConfig)
	engineHandler := routes.NewEngineHandler(s.logger, s.deps.Validator)

	authRequired := routes.AuthRequired(s.deps.Auth)
	adminOnly := routes.RoleRequired("admin")

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		// Health endpoints
		v1.GET("/health", healthHandler.HealthCheck)
		v1.GET("/health/detailed", healthHandler.DetailedHealthCheck)
		v1.GET("/health/ready", healthHandler.ReadinessCheck)
		v1.GET("/health/live", healthHandler.LivenessCheck)

		// Auth endpoints
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authRequired, authHandler.Logout)
			authGroup.GET("/me", authRequired, authHandler.Me)
			authGroup.GET("/users", authRequired, adminOnly, authHandler.ListUsers)
		}

		// Rules endpoints
		rules := v1.Group("/rules", authRequired)
		{
			rules.GET("", rulesHandler.GetRules)
			rules.POST("/generate", rulesHandler.GenerateRule)
			rules.POST("/syntax", rulesHandler.CheckSyntax)
			rules.GET("/:id", rulesHandler.GetRuleByID)
			rules.PUT("/:id", rulesHandler.UpdateRule)
			rules.DELETE("/:id", rulesHandler.DeleteRule)
			rules.POST("/:id/optimize", rulesHandler.OptimizeRule)
			rules.POST("/:id/validate", rulesHandler.ValidateRule)
			rules.GET("/:id/history", rulesHandler.GetOptimizationHistory)
			rules.GET("/:id/validations", rulesHandler.GetValidationHistory)
		}

		// PCAP endpoints
		pcap := v1.Group("/pcap", authRequired)
		{
			pcap.POST("/upload", pcapHandler.Upload)
			pcap.GET("", pcapHandler.List)
			pcap.DELETE("/:filename", pcapHandler.Delete)
			pcap.GET("/config", pcapHandler.GetDefaultPath)
			pcap.PUT("/config", pcapHandler.SetDefaultPath)
		}

		// Engine endpoints
		v1.GET("/engine/check", authRequired, engineHandler.CheckEngine)
	}

	// Root endpoint
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":   "Rulesmith API",
			"version":   "1.0.0",
			"status":    "running",
			"timestamp": time.Now().Format(time.RFC3339),
			"endpoints": gin.H{
				"health": "/api/v1/health",
				"auth":   "/api/v1/auth",
				"rules":  "/api/v1/rules",
				"pcap":   "/api/v1/pcap",
				"engine": "/api/v1/engine/check",
			},
		})
	})

	// 404 handler
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Endpoint not found",
			"message":   fmt.Sprintf("Method %s %s not found", c.Request.Method, c.Request.URL.Path),
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
}

// Start запускает HTTP сервер // v1.0
func (s *Server) Start() error {
	s.logger.Logger.WithFields(map[string]interface{}{
		"host": s.config.Host,
		"port": s.config.Port,
		"tls":  s.config.TLS != nil,
	}).Info("Starting API server")

	if s.config.TLS != nil {
		s.server.TLSConfig = s.config.TLS
		if err := s.server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start TLS server: %w", err)
		}
		return nil
	}

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop останавливает HTTP сервер // v1.0
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Logger.Info("Stopping API server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

// GetRouter возвращает роутер для тестирования // v1.0
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// corsMiddleware добавляет CORS заголовки // v1.0
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
