// filename: internal/api/routes/rules.go
package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rulesmith/rulesmith/internal/common/ch"
	"github.com/rulesmith/rulesmith/internal/common/config"
	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/nats"
	"github.com/rulesmith/rulesmith/internal/common/pg"
	"github.com/rulesmith/rulesmith/internal/llm"
	"github.com/rulesmith/rulesmith/internal/models"
)

// RuleValidator проверяет правила против движка обнаружения
type RuleValidator interface {
	Validate(ctx context.Context, ruleText, capturePath string) *models.ValidationResult
	CheckSyntax(ctx context.Context, ruleText string) *models.SyntaxResult
}

// RulesHandler обработчик для работы с правилами обнаружения // v1.0
type RulesHandler struct {
	logger     *logging.Logger
	pgClient   *pg.Client
	natsClient *nats.Client
	chClient   *ch.Client
	llmClient  llm.Client
	validator  RuleValidator
	appConfig  *config.Config
}

// NewRulesHandler создает новый обработчик правил // v1.0
func NewRulesHandler(logger *logging.Logger, pgClient *pg.Client, natsClient *nats.Client,
	chClient *ch.Client, llmClient llm.Client, validator RuleValidator, appConfig *config.Config) *RulesHandler {
	return &RulesHandler{
		logger:     logger,
		pgClient:   pgClient,
		natsClient: natsClient,
		chClient:   chClient,
		llmClient:  llmClient,
		validator:  validator,
		appConfig:  appConfig,
	}
}

// generateRequest запрос генерации правила
type generateRequest struct {
	VulnName    string `json:"vuln_name" binding:"required,max=512"`
	VulnType    string `json:"vuln_type" binding:"omitempty,max=128"`
	Description string `json:"description" binding:"omitempty,max=8192"`
	Poc         string `json:"poc" binding:"omitempty,max=16384"`
}

// optimizeRequest запрос оптимизации правила
type optimizeRequest struct {
	Feedback         string `json:"feedback" binding:"omitempty,max=8192"`
	ValidationResult string `json:"validation_result" binding:"omitempty,max=16384"`
}

// validateRequest запрос валидации правила
type validateRequest struct {
	PcapPath string `json:"pcap_path" binding:"omitempty,max=1024"`
}

// syntaxRequest запрос проверки синтаксиса
type syntaxRequest struct {
	Rule string `json:"rule" binding:"required,suricata_rule"`
}

// updateRuleRequest запрос обновления правила
type updateRuleRequest struct {
	CurrentRule string `json:"current_rule" binding:"omitempty,suricata_rule"`
	Status      string `json:"status" binding:"omitempty,oneof=draft validated failed published"`
}

// GenerateRule обрабатывает POST /rules/generate // v1.0
func (h *RulesHandler) GenerateRule(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	prompt := llm.BuildGenerationPrompt(req.VulnName, req.Description, req.VulnType, req.Poc)

	generated, err := h.llmClient.GenerateText(ctx, prompt, llm.Options{
		Temperature: h.appConfig.LLM.Temperature,
		MaxTokens:   h.appConfig.LLM.MaxTokens,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	ruleText := llm.ExtractRule(generated.Content)
	if ruleText == "" {
		writeError(c, apperrors.New(apperrors.ErrorCodeLLMResponse,
			"model response does not contain a parseable rule"))
		return
	}

	rule := models.NewRule(req.VulnName, req.VulnType, req.Description, ruleText)

	query := `INSERT INTO rules (vuln_name, vuln_type, description, original_rule, current_rule, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id, created_at, updated_at`

	err = h.pgClient.QueryRow(ctx, query,
		rule.VulnName, rule.VulnType, rule.Description,
		rule.OriginalRule, rule.CurrentRule, rule.Status).
		Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		h.logger.Logger.WithField("error", err.Error()).Error("Failed to insert rule")
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to store rule"))
		return
	}

	h.publishEvent(nats.SubjectRuleGenerated, gin.H{
		"rule_id":   rule.ID,
		"vuln_name": rule.VulnName,
		"provider":  h.llmClient.Provider(),
	})

	h.logger.WithRule(strconv.FormatInt(rule.ID, 10), rule.VulnName).Info("Rule generated")

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// GetRules обрабатывает GET /rules // v1.0
func (h *RulesHandler) GetRules(c *gin.Context) {
	statusFilter := c.Query("status")
	search := c.Query("q")
	limitStr := c.Query("limit")
	offsetStr := c.Query("offset")

	limit := 100
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	offset := 0
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	query := `SELECT id, vuln_name, vuln_type, description, original_rule, current_rule, status, created_at, updated_at
			  FROM rules WHERE 1=1`
	args := make([]interface{}, 0)
	argIndex := 1

	if statusFilter != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, statusFilter)
		argIndex++
	}

	if search != "" {
		query += fmt.Sprintf(" AND vuln_name ILIKE $%d", argIndex)
		args = append(args, "%"+search+"%")
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	ctx := c.Request.Context()
	rows, err := h.pgClient.Query(ctx, query, args...)
	if err != nil {
		h.logger.Logger.WithField("error", err.Error()).Error("Failed to query rules")
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to retrieve rules"))
		return
	}
	defer rows.Close()

	rules := make([]models.Rule, 0)
	for rows.Next() {
		var rule models.Rule
		err := rows.Scan(
			&rule.ID, &rule.VulnName, &rule.VulnType, &rule.Description,
			&rule.OriginalRule, &rule.CurrentRule, &rule.Status,
			&rule.CreatedAt, &rule.UpdatedAt,
		)
		if err != nil {
			h.logger.Logger.WithField("error", err.Error()).Error("Failed to scan rule row")
			continue
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to iterate rules"))
		return
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM rules`
	if err := h.pgClient.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		h.logger.Logger.WithField("error", err.Error()).Error("Failed to count rules")
	}

	c.JSON(http.StatusOK, gin.H{
		"rules":  rules,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetRuleByID обрабатывает GET /rules/:id // v1.0
func (h *RulesHandler) GetRuleByID(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// UpdateRule обрабатывает PUT /rules/:id // v1.0
func (h *RulesHandler) UpdateRule(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	var req updateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	if req.CurrentRule == "" && req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "nothing to update",
		})
		return
	}

	if req.CurrentRule != "" {
		rule.CurrentRule = req.CurrentRule
	}
	if req.Status != "" {
		rule.Status = models.RuleStatus(req.Status)
	}

	query := `UPDATE rules SET current_rule = $1, status = $2, updated_at = NOW()
			  WHERE id = $3 RETURNING updated_at`

	ctx := c.Request.Context()
	if err := h.pgClient.QueryRow(ctx, query, rule.CurrentRule, rule.Status, rule.ID).Scan(&rule.UpdatedAt); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to update rule"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule обрабатывает DELETE /rules/:id // v1.0
func (h *RulesHandler) DeleteRule(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	tx, err := h.pgClient.Begin(ctx)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBTransaction, "failed to start transaction"))
		return
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM optimization_history WHERE rule_id = $1`,
		`DELETE FROM validation_results WHERE rule_id = $1`,
		`DELETE FROM rules WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, rule.ID); err != nil {
			writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to delete rule"))
			return
		}
	}

	if err := tx.Commit(); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBTransaction, "failed to commit transaction"))
		return
	}

	h.logger.WithRule(strconv.FormatInt(rule.ID, 10), rule.VulnName).Info("Rule deleted")

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}

// OptimizeRule обрабатывает POST /rules/:id/optimize // v1.0
func (h *RulesHandler) OptimizeRule(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	var req optimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	prompt := llm.BuildOptimizationPrompt(rule.CurrentRule, req.Feedback, req.ValidationResult)

	generated, err := h.llmClient.GenerateText(ctx, prompt, llm.Options{
		Temperature: h.appConfig.LLM.Temperature,
		MaxTokens:   h.appConfig.LLM.MaxTokens,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	optimized := llm.ExtractRule(generated.Content)
	if optimized == "" {
		writeError(c, apperrors.New(apperrors.ErrorCodeLLMResponse,
			"model response does not contain a parseable rule"))
		return
	}

	previous := rule.CurrentRule

	tx, err := h.pgClient.Begin(ctx)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBTransaction, "failed to start transaction"))
		return
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE rules SET current_rule = $1, status = 'draft', updated_at = NOW() WHERE id = $2`,
		optimized, rule.ID)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to update rule"))
		return
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO optimization_history (rule_id, original_rule, optimized_rule, feedback, ai_suggestion)
		 VALUES ($1, $2, $3, $4, $5)`,
		rule.ID, previous, optimized, req.Feedback, generated.Content)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to store optimization record"))
		return
	}

	if err := tx.Commit(); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBTransaction, "failed to commit transaction"))
		return
	}

	rule.CurrentRule = optimized
	rule.Status = models.RuleStatusDraft

	h.publishEvent(nats.SubjectRuleOptimized, gin.H{
		"rule_id":   rule.ID,
		"vuln_name": rule.VulnName,
	})

	h.logger.WithRule(strconv.FormatInt(rule.ID, 10), rule.VulnName).Info("Rule optimized")

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// ValidateRule обрабатывает POST /rules/:id/validate // v1.0
func (h *RulesHandler) ValidateRule(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()

	capturePath := req.PcapPath
	if capturePath == "" {
		capturePath = h.defaultPcapPath(ctx)
	}

	started := time.Now()
	result := h.validator.Validate(ctx, rule.CurrentRule, capturePath)
	duration := time.Since(started)

	// Статус правила меняется только по результату реального запуска
	newStatus := rule.Status
	switch result.EngineStatus {
	case models.StatusValidationSuccess:
		newStatus = models.RuleStatusValidated
	case models.StatusNoAlertsDetected, models.StatusExecutionFailed, models.StatusTimeout:
		newStatus = models.RuleStatusFailed
	}

	if newStatus != rule.Status {
		if _, err := h.pgClient.Exec(ctx,
			`UPDATE rules SET status = $1, updated_at = NOW() WHERE id = $2`, newStatus, rule.ID); err != nil {
			h.logger.Logger.WithField("error", err.Error()).Error("Failed to update rule status")
		} else {
			rule.Status = newStatus
		}
	}

	detailsJSON, _ := json.Marshal(result.Details)
	sidStatsJSON, _ := json.Marshal(result.SidStats)

	_, err := h.pgClient.Exec(ctx,
		`INSERT INTO validation_results (rule_id, pcap_path, matched, alert_count, engine_status, details, sid_stats)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rule.ID, capturePath, result.Matched, result.AlertCount,
		string(result.EngineStatus), detailsJSON, sidStatsJSON)
	if err != nil {
		h.logger.Logger.WithField("error", err.Error()).Error("Failed to store validation result")
	}

	h.auditEngineRun(ctx, rule, capturePath, result, duration)

	h.publishEvent(nats.SubjectRuleValidated, gin.H{
		"rule_id":       rule.ID,
		"vuln_name":     rule.VulnName,
		"matched":       result.Matched,
		"engine_status": result.EngineStatus,
		"alert_count":   result.AlertCount,
	})

	h.logger.WithValidation(strconv.FormatInt(rule.ID, 10), string(result.EngineStatus), result.AlertCount).
		Info("Rule validated")

	c.JSON(http.StatusOK, gin.H{
		"rule":   rule,
		"result": result,
	})
}

// CheckSyntax обрабатывает POST /rules/syntax // v1.0
func (h *RulesHandler) CheckSyntax(c *gin.Context) {
	var req syntaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": err.Error(),
		})
		return
	}

	result := h.validator.CheckSyntax(c.Request.Context(), req.Rule)

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetOptimizationHistory обрабатывает GET /rules/:id/history // v1.0
func (h *RulesHandler) GetOptimizationHistory(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	query := `SELECT id, rule_id, original_rule, optimized_rule, feedback, ai_suggestion, created_at
			  FROM optimization_history WHERE rule_id = $1 ORDER BY created_at DESC`

	rows, err := h.pgClient.Query(c.Request.Context(), query, rule.ID)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to retrieve optimization history"))
		return
	}
	defer rows.Close()

	records := make([]models.OptimizationRecord, 0)
	for rows.Next() {
		var rec models.OptimizationRecord
		err := rows.Scan(&rec.ID, &rec.RuleID, &rec.OriginalRule, &rec.OptimizedRule,
			&rec.Feedback, &rec.AISuggestion, &rec.CreatedAt)
		if err != nil {
			h.logger.Logger.WithField("error", err.Error()).Error("Failed to scan optimization row")
			continue
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to iterate optimization rows"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"total":   len(records),
	})
}

// GetValidationHistory обрабатывает GET /rules/:id/validations // v1.0
func (h *RulesHandler) GetValidationHistory(c *gin.Context) {
	rule, ok := h.loadRule(c)
	if !ok {
		return
	}

	query := `SELECT id, rule_id, pcap_path, matched, alert_count, engine_status, details, sid_stats, created_at
			  FROM validation_results WHERE rule_id = $1 ORDER BY created_at DESC`

	rows, err := h.pgClient.Query(c.Request.Context(), query, rule.ID)
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to retrieve validation history"))
		return
	}
	defer rows.Close()

	records := make([]models.ValidationRecord, 0)
	for rows.Next() {
		var rec models.ValidationRecord
		var detailsJSON, sidStatsJSON []byte
		err := rows.Scan(&rec.ID, &rec.RuleID, &rec.PcapPath, &rec.Matched,
			&rec.AlertCount, &rec.EngineStatus, &detailsJSON, &sidStatsJSON, &rec.CreatedAt)
		if err != nil {
			h.logger.Logger.WithField("error", err.Error()).Error("Failed to scan validation row")
			continue
		}
		if len(detailsJSON) > 0 {
			json.Unmarshal(detailsJSON, &rec.Details)
		}
		if len(sidStatsJSON) > 0 {
			json.Unmarshal(sidStatsJSON, &rec.SidStats)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to iterate validation rows"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"validations": records,
		"total":       len(records),
	})
}

// loadRule загружает правило по :id из пути запроса // v1.0
func (h *RulesHandler) loadRule(c *gin.Context) (*models.Rule, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "rule id must be an integer",
		})
		return nil, false
	}

	query := `SELECT id, vuln_name, vuln_type, description, original_rule, current_rule, status, created_at, updated_at
			  FROM rules WHERE id = $1`

	var rule models.Rule
	err = h.pgClient.QueryRow(c.Request.Context(), query, id).Scan(
		&rule.ID, &rule.VulnName, &rule.VulnType, &rule.Description,
		&rule.OriginalRule, &rule.CurrentRule, &rule.Status,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		writeError(c, apperrors.New(apperrors.ErrorCodeRuleNotFound,
			fmt.Sprintf("rule with id '%d' not found", id)))
		return nil, false
	}
	if err != nil {
		writeError(c, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to query rule"))
		return nil, false
	}

	return &rule, true
}

// defaultPcapPath возвращает путь к файлам трафика по умолчанию // v1.0
func (h *RulesHandler) defaultPcapPath(ctx context.Context) string {
	var value string
	err := h.pgClient.QueryRow(ctx,
		`SELECT value FROM app_config WHERE key = 'default_pcap_path'`).Scan(&value)
	if err == nil && value != "" {
		return value
	}

	return h.appConfig.Uploads.DefaultPcapPath
}

// publishEvent публикует событие жизненного цикла правила в NATS // v1.0
func (h *RulesHandler) publishEvent(subject string, payload interface{}) {
	if h.natsClient == nil {
		return
	}

	if err := h.natsClient.Publish(subject, payload); err != nil {
		h.logger.Logger.WithFields(map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		}).Warn("Failed to publish rule event")
	}
}

// auditEngineRun пишет запись о запуске движка в ClickHouse // v1.0
func (h *RulesHandler) auditEngineRun(ctx context.Context, rule *models.Rule, capturePath string,
	result *models.ValidationResult, duration time.Duration) {
	if h.chClient == nil {
		return
	}

	run := engineRunFromResult(rule, capturePath, result, duration)

	if err := h.chClient.InsertEngineRun(ctx, run); err != nil {
		h.logger.Logger.WithField("error", err.Error()).Warn("Failed to audit engine run")
	}
}

// engineRunFromResult собирает запись аудита из результата валидации.
// RunID берется из результата, чтобы запись коррелировала с директорией
// логов run-<runID>. // v1.0
func engineRunFromResult(rule *models.Rule, capturePath string,
	result *models.ValidationResult, duration time.Duration) *models.EngineRun {
	runID := result.ExecutionDetails["run_id"]
	if runID == "" {
		runID = uuid.New().String()
	}

	return &models.EngineRun{
		Timestamp:    time.Now(),
		RunID:        runID,
		RuleID:       strconv.FormatInt(rule.ID, 10),
		Strategy:     result.ExecutionDetails["strategy"],
		Mode:         "validate",
		CapturePath:  capturePath,
		EngineStatus: result.EngineStatus,
		Matched:      result.Matched,
		AlertCount:   result.AlertCount,
		DurationMs:   duration.Milliseconds(),
		Error:        result.Error,
	}
}
