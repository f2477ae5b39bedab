// filename: internal/common/logging/logger.go
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Logger представляет логгер приложения
type Logger struct {
	*logrus.Logger
}

// Config представляет конфигурацию логирования
type Config struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// NewLogger создает новый логгер // v1.0
func NewLogger(config Config) (*Logger, error) {
	logger := logrus.New()

	// Устанавливаем уровень логирования
	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	// Устанавливаем формат
	switch config.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	// Устанавливаем вывод
	if err := setOutput(logger, config); err != nil {
		return nil, err
	}

	return &Logger{Logger: logger}, nil
}

// setOutput устанавливает вывод для логгера // v1.0
func setOutput(logger *logrus.Logger, config Config) error {
	switch config.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	case "file":
		if err := setFileOutput(logger, config); err != nil {
			return err
		}
	default:
		logger.SetOutput(os.Stdout)
	}

	return nil
}

// setFileOutput устанавливает файловый вывод // v1.0
func setFileOutput(logger *logrus.Logger, config Config) error {
	// Создаем директорию если не существует
	dir := filepath.Dir(config.Output)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Открываем файл
	file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	// Устанавливаем вывод
	logger.SetOutput(io.MultiWriter(os.Stdout, file))

	return nil
}

// WithField добавляет поле к логгеру // v1.0
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields добавляет поля к логгеру // v1.0
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError добавляет ошибку к логгеру // v1.0
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithRequest добавляет информацию о запросе к логгеру // v1.0
func (l *Logger) WithRequest(method, path, remoteAddr string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"remote_addr": remoteAddr,
	})
}

// WithRule добавляет информацию о правиле к логгеру // v1.0
func (l *Logger) WithRule(ruleID, vulnName string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"rule_id":   ruleID,
		"vuln_name": vulnName,
	})
}

// WithValidation добавляет информацию о валидации к логгеру // v1.0
func (l *Logger) WithValidation(runID, engineStatus string, alertCount int) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"run_id":        runID,
		"engine_status": engineStatus,
		"alert_count":   alertCount,
	})
}

// WithEngine добавляет информацию о запуске движка к логгеру // v1.0
func (l *Logger) WithEngine(strategy, pcap string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"strategy": strategy,
		"pcap":     pcap,
	})
}

// WithLLM добавляет информацию о запросе к LLM // v1.0
func (l *Logger) WithLLM(provider, model string) *logrus.Entry {
	return l.Logger.WithFields(logrus.Fields{
		"provider": provider,
		"model":    model,
	})
}

// WithDuration добавляет длительность к логгеру // v1.0
func (l *Logger) WithDuration(duration float64) *logrus.Entry {
	return l.Logger.WithField("duration_ms", duration)
}

// SetLevel устанавливает уровень логирования // v1.0
func (l *Logger) SetLevel(level string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.Logger.SetLevel(logLevel)
	return nil
}

// GetLevel возвращает текущий уровень логирования // v1.0
func (l *Logger) GetLevel() string {
	return l.Logger.GetLevel().String()
}
