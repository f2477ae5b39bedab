// filename: internal/validator/validator_test.go
package validator

import (
	"context"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/models"
)

// createTestLogger создает logger для тестов
func createTestLogger(t *testing.T) *logging.Logger {
	config := logging.Config{
		Level:  "error",
		Format: "json",
		Output: "stdout",
	}
	logger, err := logging.NewLogger(config)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

// fakeStrategy реализует ExecutionStrategy поверх карт в памяти
type fakeStrategy struct {
	mu sync.Mutex

	binary     string
	captures   []string
	resolveErr error

	files map[string][]byte
	dirs  map[string]bool

	exitCodes   map[string]int
	timeoutOn   string
	fastLogData []byte
	writeErr    error

	runs    []Command
	removed []string
}

func newFakeStrategy() *fakeStrategy {
	return &fakeStrategy{
		binary:    "/usr/bin/suricata",
		files:     make(map[string][]byte),
		dirs:      make(map[string]bool),
		exitCodes: make(map[string]int),
	}
}

func (f *fakeStrategy) Name() string { return "fake" }

func (f *fakeStrategy) LocateBinary(ctx context.Context) string { return f.binary }

func (f *fakeStrategy) ResolveCaptures(ctx context.Context, p string) ([]string, error) {
	return f.captures, f.resolveErr
}

func (f *fakeStrategy) PathExists(ctx context.Context, p string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[p]; ok {
		return true
	}
	return f.dirs[p]
}

func (f *fakeStrategy) EnsureDir(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirs[p] = true
	return nil
}

func (f *fakeStrategy) WriteFile(ctx context.Context, p string, content []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[p] = content
	return nil
}

func (f *fakeStrategy) ReadFile(ctx context.Context, p string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[p], nil
}

func (f *fakeStrategy) RemoveFile(ctx context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, p)
	f.removed = append(f.removed, p)
	return nil
}

func (f *fakeStrategy) JoinPath(elem ...string) string { return path.Join(elem...) }

func (f *fakeStrategy) Run(ctx context.Context, cmd Command, timeout time.Duration) (ProcessOutcome, error) {
	f.mu.Lock()
	f.runs = append(f.runs, cmd)
	f.mu.Unlock()

	var capture, logDir string
	for i, arg := range cmd.Args {
		if arg == "-r" && i+1 < len(cmd.Args) {
			capture = cmd.Args[i+1]
		}
		if arg == "-l" && i+1 < len(cmd.Args) {
			logDir = cmd.Args[i+1]
		}
	}

	if capture != "" && capture == f.timeoutOn {
		return ProcessOutcome{ExitCode: -1, TimedOut: true}, nil
	}

	if code, ok := f.exitCodes[capture]; ok && code != 0 {
		return ProcessOutcome{ExitCode: code, Stderr: "engine failure"}, nil
	}

	// Успешный запуск оставляет журнал алертов в директории запуска
	if logDir != "" && f.fastLogData != nil {
		f.mu.Lock()
		f.files[path.Join(logDir, "fast.log")] = f.fastLogData
		f.mu.Unlock()
	}

	return ProcessOutcome{ExitCode: 0}, nil
}

func testEngineConfig() EngineConfig {
	return EngineConfig{
		RulesDir:         "/rules",
		ConfigFile:       "/etc/suricata/suricata.yaml",
		LogDir:           "/logs",
		UseDefaultConfig: true,
		ValidateTimeout:  30 * time.Second,
		SyntaxTimeout:    5 * time.Second,
	}
}

func TestValidateEmptyRule(t *testing.T) {
	strategy := newFakeStrategy()
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "   \n\t ", "/pcaps")

	if result.Success {
		t.Error("Expected failure for empty rule")
	}
	if result.EngineStatus != models.StatusInvalidInput {
		t.Errorf("Expected invalid_input, got %s", result.EngineStatus)
	}
	if len(strategy.runs) != 0 {
		t.Error("Engine must not run for empty rule")
	}
}

func TestValidateInvalidCapturePath(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.resolveErr = ErrInvalidCapturePath
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert http any any -> any any (msg:\"t\"; sid:9000001; rev:1;)", "/missing")

	if result.EngineStatus != models.StatusInvalidCapturePath {
		t.Errorf("Expected invalid_capture_path, got %s", result.EngineStatus)
	}
	if result.Success {
		t.Error("Expected failure for invalid capture path")
	}
}

func TestValidateNoCaptureFiles(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.captures = []string{}
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/empty-dir")

	if result.EngineStatus != models.StatusNoPcapFiles {
		t.Errorf("Expected no_pcap_files, got %s", result.EngineStatus)
	}
}

func TestValidateBinaryNotFoundDegrades(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.binary = ""
	strategy.captures = []string{"/pcaps/a.pcap"}
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	// Отсутствие движка — деградация, а не ошибка
	if !result.Success {
		t.Error("Expected success=true when engine is missing")
	}
	if result.Matched {
		t.Error("Expected matched=false when engine is missing")
	}
	if result.EngineStatus != models.StatusSuricataNotFound {
		t.Errorf("Expected suricata_not_found, got %s", result.EngineStatus)
	}
	if len(strategy.files) != 0 {
		t.Error("No rule file must be written when engine is missing")
	}
}

func TestValidateSuccess(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/a.pcap", "/pcaps/b.pcap"}
	strategy.fastLogData = []byte(
		"08/21/2025-10:00:01.000000  [**] [1:9000001:1] SQLi attempt [**] [Priority: 1] {TCP} 1.2.3.4:1234 -> 5.6.7.8:80\n" +
			"08/21/2025-10:00:02.000000  [**] [1:9000001:1] SQLi attempt [**] [Priority: 1] {TCP} 1.2.3.4:1235 -> 5.6.7.8:80\n" +
			"08/21/2025-10:00:03.000000  [**] [1:9000002:1] Other [**] [Priority: 1] {TCP} 1.2.3.4:1236 -> 5.6.7.8:80\n")
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	if !result.Success || !result.Matched {
		t.Fatalf("Expected successful match, got success=%v matched=%v error=%s",
			result.Success, result.Matched, result.Error)
	}
	if result.EngineStatus != models.StatusValidationSuccess {
		t.Errorf("Expected validation_success, got %s", result.EngineStatus)
	}
	if result.AlertCount != 3 {
		t.Errorf("Expected 3 alerts, got %d", result.AlertCount)
	}
	if len(result.Details) != 3 {
		t.Errorf("Expected 3 detail lines, got %d", len(result.Details))
	}
	if got := result.SidStats.Get("[1:9000001:1]"); got != 2 {
		t.Errorf("Expected 2 hits for sid 9000001, got %d", got)
	}

	// По одному запуску движка на каждый файл захвата, в исходном порядке
	if len(strategy.runs) != 2 {
		t.Fatalf("Expected 2 engine runs, got %d", len(strategy.runs))
	}

	// Временный файл правил удален
	ruleFile := result.ExecutionDetails["rule_file"]
	if ruleFile == "" {
		t.Fatal("Expected rule_file in execution details")
	}
	removed := false
	for _, p := range strategy.removed {
		if p == ruleFile {
			removed = true
		}
	}
	if !removed {
		t.Error("Temporary rule file was not removed")
	}
}

func TestValidateNoAlerts(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/a.pcap"}
	strategy.fastLogData = []byte("")
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	if !result.Success {
		t.Error("Expected success=true when engine ran but found nothing")
	}
	if result.Matched {
		t.Error("Expected matched=false for empty alert log")
	}
	if result.EngineStatus != models.StatusNoAlertsDetected {
		t.Errorf("Expected no_alerts_detected, got %s", result.EngineStatus)
	}
}

func TestValidateExecutionFailedAbortsLoop(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/a.pcap", "/pcaps/b.pcap", "/pcaps/c.pcap"}
	strategy.fastLogData = []byte("[1:9000001:1] hit\n")
	strategy.exitCodes["/pcaps/b.pcap"] = 1
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	if result.Success {
		t.Error("Expected failure when one capture fails")
	}
	if result.EngineStatus != models.StatusExecutionFailed {
		t.Errorf("Expected execution_failed, got %s", result.EngineStatus)
	}
	if result.ExecutionDetails["failed_pcap"] != "/pcaps/b.pcap" {
		t.Errorf("Expected failed_pcap=/pcaps/b.pcap, got %s", result.ExecutionDetails["failed_pcap"])
	}
	// Третий файл не запускается, частичные результаты отбрасываются
	if len(strategy.runs) != 2 {
		t.Errorf("Expected loop to stop after 2 runs, got %d", len(strategy.runs))
	}
	if result.AlertCount != 0 {
		t.Errorf("Expected no partial alert count, got %d", result.AlertCount)
	}
}

func TestValidateTimeout(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/slow.pcap"}
	strategy.timeoutOn = "/pcaps/slow.pcap"
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	if result.EngineStatus != models.StatusTimeout {
		t.Errorf("Expected timeout, got %s", result.EngineStatus)
	}
}

func TestValidateConfigMissing(t *testing.T) {
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false

	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/a.pcap"}
	v := NewWithStrategy(cfg, createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	if result.EngineStatus != models.StatusConfigMissing {
		t.Errorf("Expected config_missing, got %s", result.EngineStatus)
	}
}

func TestValidateLogDirMissing(t *testing.T) {
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false

	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/a.pcap"}
	strategy.files[cfg.ConfigFile] = []byte("%YAML 1.1\n")
	v := NewWithStrategy(cfg, createTestLogger(t), strategy)

	result := v.Validate(context.Background(), "alert tcp any any -> any any (sid:9000001;)", "/pcaps")

	if result.EngineStatus != models.StatusLogDirMissing {
		t.Errorf("Expected log_dir_missing, got %s", result.EngineStatus)
	}
}

func TestValidateConcurrentRunsAreIsolated(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.captures = []string{"/pcaps/a.pcap"}
	strategy.fastLogData = []byte("[1:9000001:1] hit\n")
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	const workers = 8
	results := make([]*models.ValidationResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = v.Validate(context.Background(),
				"alert tcp any any -> any any (sid:9000001;)", "/pcaps")
		}(i)
	}
	wg.Wait()

	seenRuleFiles := make(map[string]bool)
	seenLogDirs := make(map[string]bool)
	for _, result := range results {
		if result.EngineStatus != models.StatusValidationSuccess {
			t.Fatalf("Expected validation_success, got %s (%s)", result.EngineStatus, result.Error)
		}
		if seenRuleFiles[result.ExecutionDetails["rule_file"]] {
			t.Error("Rule file reused between concurrent runs")
		}
		seenRuleFiles[result.ExecutionDetails["rule_file"]] = true
		if seenLogDirs[result.ExecutionDetails["run_log_dir"]] {
			t.Error("Run log directory reused between concurrent runs")
		}
		seenLogDirs[result.ExecutionDetails["run_log_dir"]] = true
	}
}

func TestCheckSyntaxEmptyRule(t *testing.T) {
	strategy := newFakeStrategy()
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.CheckSyntax(context.Background(), "")

	if result.Valid {
		t.Error("Expected invalid result for empty rule")
	}
	if len(strategy.runs) != 0 {
		t.Error("Engine must not run for empty rule")
	}
}

func TestCheckSyntaxBinaryNotFound(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.binary = ""
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.CheckSyntax(context.Background(), "alert tcp any any -> any any (sid:9000001;)")

	if result.Valid {
		t.Error("Expected invalid result without engine binary")
	}
	if !strings.Contains(result.Error, "not found") {
		t.Errorf("Expected binary-not-found error, got %q", result.Error)
	}
}

func TestCheckSyntaxValid(t *testing.T) {
	strategy := newFakeStrategy()
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.CheckSyntax(context.Background(), "alert tcp any any -> any any (sid:9000001;)")

	if !result.Valid {
		t.Errorf("Expected valid result, got error %q", result.Error)
	}

	// Проверка синтаксиса запускает движок в тестовом режиме
	if len(strategy.runs) != 1 {
		t.Fatalf("Expected 1 engine run, got %d", len(strategy.runs))
	}
	hasTestFlag := false
	for _, arg := range strategy.runs[0].Args {
		if arg == "-T" {
			hasTestFlag = true
		}
	}
	if !hasTestFlag {
		t.Error("Syntax check must pass -T to the engine")
	}
}

func TestCheckSyntaxInvalidRule(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.exitCodes[""] = 1
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	result := v.CheckSyntax(context.Background(), "alert tcp garbage")

	if result.Valid {
		t.Error("Expected invalid result for broken rule")
	}
	if result.Error == "" {
		t.Error("Expected error message from engine")
	}
}

func TestCheckEngineReady(t *testing.T) {
	strategy := newFakeStrategy()
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false
	strategy.files[cfg.ConfigFile] = []byte("config")
	strategy.dirs[cfg.RulesDir] = true
	strategy.dirs[cfg.LogDir] = true
	v := NewWithStrategy(cfg, createTestLogger(t), strategy)

	check := v.CheckEngine(context.Background())

	if !check.SuricataAvailable {
		t.Error("Expected engine to be available")
	}
	if check.Status != "ready" {
		t.Errorf("Expected ready status, got %s", check.Status)
	}
	if !check.ConfigFound || !check.RulesDirExists || !check.LogDirExists {
		t.Error("Expected config and directories to be found")
	}
}

func TestCheckEngineReportsDefaultRulePath(t *testing.T) {
	strategy := newFakeStrategy()
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false
	strategy.files[cfg.ConfigFile] = []byte("%YAML 1.1\n---\ndefault-rule-path: /var/lib/suricata/rules\n")
	v := NewWithStrategy(cfg, createTestLogger(t), strategy)

	check := v.CheckEngine(context.Background())

	if !check.ConfigFound {
		t.Fatal("Expected config to be found")
	}
	if check.DefaultRulePath != "/var/lib/suricata/rules" {
		t.Errorf("Expected default rule path from engine config, got %q", check.DefaultRulePath)
	}
}

func TestCheckEngineUnparsableConfig(t *testing.T) {
	strategy := newFakeStrategy()
	cfg := testEngineConfig()
	cfg.UseDefaultConfig = false
	strategy.files[cfg.ConfigFile] = []byte("{{not yaml")
	v := NewWithStrategy(cfg, createTestLogger(t), strategy)

	check := v.CheckEngine(context.Background())

	if !check.ConfigFound {
		t.Fatal("Expected config to be found")
	}
	if check.DefaultRulePath != "" {
		t.Errorf("Expected no rule path for unparsable config, got %q", check.DefaultRulePath)
	}
}

func TestCheckEngineUnavailable(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.binary = ""
	v := NewWithStrategy(testEngineConfig(), createTestLogger(t), strategy)

	check := v.CheckEngine(context.Background())

	if check.SuricataAvailable {
		t.Error("Expected engine to be unavailable")
	}
	if check.Status != "unavailable" {
		t.Errorf("Expected unavailable status, got %s", check.Status)
	}
	if check.Recommendation == "" {
		t.Error("Expected a recommendation for unavailable engine")
	}
}
