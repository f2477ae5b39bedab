// filename: internal/validator/engineconfig.go
package validator

import (
	"fmt"
	"os"
	"time"

	"github.com/rulesmith/rulesmith/internal/common/config"

	"gopkg.in/yaml.v3"
)

// EngineConfig представляет полностью разрешенную конфигурацию движка.
// Значение конструируется вызывающей стороной и передается явно —
// никакого глобального изменяемого состояния.
type EngineConfig struct {
	Binary           string
	RulesDir         string
	ConfigFile       string
	LogDir           string
	UseDefaultConfig bool
	ValidateTimeout  time.Duration
	SyntaxTimeout    time.Duration
	SSH              SSHOptions
}

// SSHOptions представляет параметры удаленного запуска движка
type SSHOptions struct {
	Host    string
	Port    int
	User    string
	KeyFile string
	Timeout time.Duration
}

// Configured проверяет, заданы ли параметры SSH // v1.0
func (o SSHOptions) Configured() bool {
	return o.Host != "" && o.User != ""
}

// EngineConfigFromApp строит конфигурацию движка из конфигурации приложения // v1.0
func EngineConfigFromApp(cfg config.SuricataConfig) EngineConfig {
	ec := EngineConfig{
		Binary:           cfg.Binary,
		RulesDir:         cfg.RulesDir,
		ConfigFile:       cfg.ConfigFile,
		LogDir:           cfg.LogDir,
		UseDefaultConfig: cfg.UseDefaultConfig,
		ValidateTimeout:  cfg.ValidateTimeout,
		SyntaxTimeout:    cfg.SyntaxTimeout,
		SSH: SSHOptions{
			Host:    cfg.SSH.Host,
			Port:    cfg.SSH.Port,
			User:    cfg.SSH.User,
			KeyFile: cfg.SSH.KeyFile,
			Timeout: cfg.SSH.Timeout,
		},
	}

	if ec.ValidateTimeout <= 0 {
		ec.ValidateTimeout = 300 * time.Second
	}
	if ec.SyntaxTimeout <= 0 {
		ec.SyntaxTimeout = 30 * time.Second
	}
	if ec.SSH.Port == 0 {
		ec.SSH.Port = 22
	}

	return ec
}

// engineYAML представляет интересующий нас фрагмент suricata.yaml
type engineYAML struct {
	DefaultRulePath string `yaml:"default-rule-path"`
	Outputs         []map[string]interface{} `yaml:"outputs"`
}

// InspectEngineConfig читает suricata.yaml и возвращает путь к директории
// правил по умолчанию. Используется только для диагностики: ошибки разбора
// не фатальны. // v1.0
func InspectEngineConfig(configFile string) (defaultRulePath string, err error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return "", err
	}

	return ParseEngineConfig(data)
}

// ParseEngineConfig разбирает содержимое suricata.yaml // v1.0
func ParseEngineConfig(data []byte) (defaultRulePath string, err error) {
	// В начале suricata.yaml стоит директива %YAML, пропускаем ее
	for len(data) > 0 && data[0] == '%' {
		idx := 0
		for idx < len(data) && data[idx] != '\n' {
			idx++
		}
		data = data[idx+1:]
	}

	var parsed engineYAML
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse engine config: %w", err)
	}

	return parsed.DefaultRulePath, nil
}
