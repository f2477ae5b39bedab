// filename: internal/validator/validator.go
package validator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/models"
)

// Validator представляет оркестратор валидации правил: связывает
// разрешение файлов захвата, сборку команды, запуск движка и разбор
// журнала алертов в один конечный автомат. Не хранит состояния между
// вызовами и может вызываться конкурентно: каждый вызов использует
// уникальный временный файл правил и изолированную директорию журналов.
type Validator struct {
	cfg      EngineConfig
	logger   *logging.Logger
	strategy ExecutionStrategy
}

// New создает оркестратор валидации // v1.0
func New(cfg EngineConfig, logger *logging.Logger) *Validator {
	return &Validator{
		cfg:    cfg,
		logger: logger,
	}
}

// NewWithStrategy создает оркестратор с фиксированной стратегией запуска // v1.0
func NewWithStrategy(cfg EngineConfig, logger *logging.Logger, strategy ExecutionStrategy) *Validator {
	return &Validator{
		cfg:      cfg,
		logger:   logger,
		strategy: strategy,
	}
}

// selectStrategy возвращает стратегию запуска для текущего вызова // v1.0
func (v *Validator) selectStrategy(ctx context.Context) ExecutionStrategy {
	if v.strategy != nil {
		return v.strategy
	}
	return SelectStrategy(ctx, v.cfg)
}

// Validate проверяет правило против файлов захвата трафика и возвращает
// структурированный результат. Никогда не возвращает ошибку наружу:
// любая внутренняя ошибка конвертируется в engine_status. // v1.0
func (v *Validator) Validate(ctx context.Context, ruleText, capturePath string) (result *models.ValidationResult) {
	result = models.NewValidationResult()
	started := time.Now()
	runID := uuid.New().String()
	result.ExecutionDetails["run_id"] = runID

	// Внутренние паники конвертируются в internal_error, временный файл
	// правил удаляется в defer ниже независимо от пути выхода
	defer func() {
		if r := recover(); r != nil {
			result.Fail(models.StatusInternalError, fmt.Sprintf("internal error: %v", r))
		}
		result.ExecutionDetails["duration_ms"] = strconv.FormatInt(time.Since(started).Milliseconds(), 10)
	}()

	// Шаг 1: проверка входа, до любых обращений к файловой системе
	if strings.TrimSpace(ruleText) == "" {
		return result.Fail(models.StatusInvalidInput, "rule text is empty")
	}

	strategy := v.selectStrategy(ctx)
	result.ExecutionDetails["strategy"] = strategy.Name()

	// Шаг 2: разрешение файлов захвата
	captures, err := strategy.ResolveCaptures(ctx, capturePath)
	if err != nil {
		if errors.Is(err, ErrInvalidCapturePath) {
			return result.Fail(models.StatusInvalidCapturePath,
				fmt.Sprintf("capture path does not exist: %s", capturePath))
		}
		return result.Fail(models.StatusInternalError, err.Error())
	}
	if len(captures) == 0 {
		return result.Fail(models.StatusNoPcapFiles,
			fmt.Sprintf("no capture files found in: %s", capturePath))
	}
	result.ExecutionDetails["pcap_count"] = strconv.Itoa(len(captures))

	// Шаг 4 (выполняется до записи правила): поиск бинарника движка.
	// Отсутствие движка — не фатальная ошибка, а деградация: вызывающая
	// сторона должна отличать "движок отсутствует" от "движок ничего
	// не нашел".
	binary := strategy.LocateBinary(ctx)
	if binary == "" {
		result.Success = true
		result.Matched = false
		result.AlertCount = 0
		result.EngineStatus = models.StatusSuricataNotFound
		result.Error = "suricata binary not found"
		if v.logger != nil {
			v.logger.WithValidation(runID, string(result.EngineStatus), 0).Warn("Suricata binary not found, validation degraded")
		}
		return result
	}
	result.ExecutionDetails["binary"] = binary

	// Шаг 3: запись правила в уникальный временный файл
	ruleFile := strategy.JoinPath(v.cfg.RulesDir, "vul-"+runID+".rules")
	if err := strategy.WriteFile(ctx, ruleFile, []byte(ruleText)); err != nil {
		return result.Fail(models.StatusRuleWriteFailed,
			fmt.Sprintf("failed to write rule file: %v", err))
	}
	result.ExecutionDetails["rule_file"] = ruleFile

	// Временный файл правил удаляется на каждом пути выхода
	defer func() {
		if err := strategy.RemoveFile(ctx, ruleFile); err != nil && v.logger != nil {
			v.logger.WithError(err).Warn("Failed to remove temporary rule file")
		}
	}()

	// Шаги 5-6: проверка конфигурации движка; в режиме конфигурации по
	// умолчанию обе проверки пропускаются — движок найдет свой
	// suricata.yaml сам
	if !v.cfg.UseDefaultConfig {
		if !strategy.PathExists(ctx, v.cfg.ConfigFile) {
			return result.Fail(models.StatusConfigMissing,
				fmt.Sprintf("engine config file not found: %s", v.cfg.ConfigFile))
		}
		if !strategy.PathExists(ctx, v.cfg.LogDir) {
			return result.Fail(models.StatusLogDirMissing,
				fmt.Sprintf("engine log directory not found: %s", v.cfg.LogDir))
		}
	}

	// Шаг 7: изолированная директория журналов этого запуска плюс
	// обнуление возможных остаточных журналов в ней
	runLogDir := strategy.JoinPath(v.cfg.LogDir, "run-"+runID)
	if err := strategy.EnsureDir(ctx, runLogDir); err != nil {
		return result.Fail(models.StatusInternalError,
			fmt.Sprintf("failed to create run log directory: %v", err))
	}
	result.ExecutionDetails["run_log_dir"] = runLogDir

	fastLog := strategy.JoinPath(runLogDir, "fast.log")
	eveLog := strategy.JoinPath(runLogDir, "eve.json")
	for _, stale := range []string{fastLog, eveLog} {
		if strategy.PathExists(ctx, stale) {
			if err := strategy.WriteFile(ctx, stale, nil); err != nil {
				return result.Fail(models.StatusInternalError,
					fmt.Sprintf("failed to clear stale log %s: %v", stale, err))
			}
		}
	}

	// Шаг 8: запуск движка по каждому файлу захвата строго по порядку.
	// Первый ненулевой код выхода или таймаут прерывает цикл: валидация
	// в рамках одного вызова — все или ничего.
	result.EngineStatus = models.StatusExecuting
	for _, capture := range captures {
		cmd := BuildCommand(v.cfg, binary, ruleFile, capture, runLogDir, ModeValidate)

		outcome, err := strategy.Run(ctx, cmd, v.cfg.ValidateTimeout)
		if err != nil {
			return result.Fail(models.StatusInternalError,
				fmt.Sprintf("failed to run engine: %v", err))
		}

		if outcome.TimedOut {
			return result.Fail(models.StatusTimeout,
				fmt.Sprintf("engine timed out after %s on %s", v.cfg.ValidateTimeout, capture))
		}

		if outcome.ExitCode != 0 {
			result.ExecutionDetails["failed_pcap"] = capture
			result.ExecutionDetails["exit_code"] = strconv.Itoa(outcome.ExitCode)
			return result.Fail(models.StatusExecutionFailed,
				fmt.Sprintf("engine exited with code %d: %s", outcome.ExitCode, strings.TrimSpace(outcome.Stderr)))
		}

		if v.logger != nil {
			v.logger.WithEngine(strategy.Name(), capture).Debug("Engine run completed")
		}
	}

	// Шаг 9: однократное чтение журнала алертов
	var logData []byte
	if strategy.PathExists(ctx, fastLog) {
		logData, err = strategy.ReadFile(ctx, fastLog)
		if err != nil {
			return result.Fail(models.StatusInternalError,
				fmt.Sprintf("failed to read alert log: %v", err))
		}
	}

	parsed := ParseAlertLog(logData)
	result.Details = parsed.Details
	result.AlertCount = parsed.TotalCount
	result.SidStats = parsed.SidStats
	result.Matched = parsed.TotalCount > 0
	result.Success = true

	if result.Matched {
		result.EngineStatus = models.StatusValidationSuccess
	} else {
		result.EngineStatus = models.StatusNoAlertsDetected
	}

	if v.logger != nil {
		v.logger.WithValidation(runID, string(result.EngineStatus), result.AlertCount).Info("Rule validation completed")
	}

	return result
}

// CheckSyntax проверяет грамматику правила в тестовом режиме движка,
// без файлов захвата и без выполнения детекции. // v1.0
func (v *Validator) CheckSyntax(ctx context.Context, ruleText string) *models.SyntaxResult {
	if strings.TrimSpace(ruleText) == "" {
		return &models.SyntaxResult{Valid: false, Error: "rule text is empty"}
	}

	strategy := v.selectStrategy(ctx)

	binary := strategy.LocateBinary(ctx)
	if binary == "" {
		return &models.SyntaxResult{Valid: false, Error: "suricata binary not found"}
	}

	ruleFile := strategy.JoinPath(v.cfg.RulesDir, "syntax-"+uuid.New().String()+".rules")
	if err := strategy.WriteFile(ctx, ruleFile, []byte(ruleText)); err != nil {
		return &models.SyntaxResult{Valid: false, Error: fmt.Sprintf("failed to write rule file: %v", err)}
	}
	defer strategy.RemoveFile(ctx, ruleFile)

	cmd := BuildCommand(v.cfg, binary, ruleFile, "", "", ModeSyntaxCheck)

	outcome, err := strategy.Run(ctx, cmd, v.cfg.SyntaxTimeout)
	if err != nil {
		return &models.SyntaxResult{Valid: false, Error: fmt.Sprintf("failed to run engine: %v", err)}
	}

	if outcome.TimedOut {
		return &models.SyntaxResult{Valid: false, Error: "syntax validation timeout"}
	}

	if outcome.ExitCode != 0 {
		msg := strings.TrimSpace(outcome.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(outcome.Stdout)
		}
		return &models.SyntaxResult{Valid: false, Error: msg}
	}

	return &models.SyntaxResult{Valid: true}
}

// CheckEngine возвращает диагностику доступности движка для текущего
// окружения: бинарник, версия, конфигурация и директории. // v1.0
func (v *Validator) CheckEngine(ctx context.Context) *models.EngineCheck {
	check := &models.EngineCheck{
		OS:            runtime.GOOS,
		SSHConfigured: v.cfg.SSH.Configured(),
	}

	strategy := v.selectStrategy(ctx)

	binary := strategy.LocateBinary(ctx)
	if binary != "" {
		check.SuricataAvailable = true
		check.BinaryPath = binary

		outcome, err := strategy.Run(ctx, Command{Path: binary, Args: []string{"--version"}}, 10*time.Second)
		if err == nil && outcome.ExitCode == 0 {
			lines := strings.SplitN(strings.TrimSpace(outcome.Stdout), "\n", 2)
			if len(lines) > 0 {
				check.Version = strings.TrimSpace(lines[0])
			}
		}
	}

	if strategy.PathExists(ctx, v.cfg.ConfigFile) {
		check.ConfigFound = true
		check.ConfigPath = v.cfg.ConfigFile

		// Диагностика: действующая директория правил из suricata.yaml
		if data, err := strategy.ReadFile(ctx, v.cfg.ConfigFile); err == nil {
			if rulePath, err := ParseEngineConfig(data); err == nil && rulePath != "" {
				check.DefaultRulePath = rulePath
			}
		}
	}

	check.RulesDirExists = strategy.PathExists(ctx, v.cfg.RulesDir)
	check.LogDirExists = strategy.PathExists(ctx, v.cfg.LogDir)

	switch {
	case check.SuricataAvailable && (check.ConfigFound || v.cfg.UseDefaultConfig):
		check.Status = "ready"
		check.Message = "suricata engine is ready for rule validation"
	case check.SuricataAvailable:
		check.Status = "partial"
		check.Message = "suricata is installed but the config file path needs adjustment"
	default:
		check.Status = "unavailable"
		check.Message = "suricata is not installed or not available, validation is degraded"
		if check.SSHConfigured {
			check.Recommendation = "remote validation over SSH is configured and will be used"
		} else {
			check.Recommendation = "install suricata or configure SSH access to a host that has it"
		}
	}

	return check
}
