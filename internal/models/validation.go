// filename: internal/models/validation.go
package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// EngineStatus представляет состояние конечного автомата валидации
type EngineStatus string

const (
	StatusNotStarted         EngineStatus = "not_started"
	StatusInvalidInput       EngineStatus = "invalid_input"
	StatusInvalidCapturePath EngineStatus = "invalid_capture_path"
	StatusRuleWriteFailed    EngineStatus = "rule_write_failed"
	StatusSuricataNotFound   EngineStatus = "suricata_not_found"
	StatusConfigMissing      EngineStatus = "config_missing"
	StatusLogDirMissing      EngineStatus = "log_dir_missing"
	StatusNoPcapFiles        EngineStatus = "no_pcap_files"
	StatusExecuting          EngineStatus = "executing"
	StatusExecutionFailed    EngineStatus = "execution_failed"
	StatusTimeout            EngineStatus = "timeout"
	StatusValidationSuccess  EngineStatus = "validation_success"
	StatusNoAlertsDetected   EngineStatus = "no_alerts_detected"
	StatusInternalError      EngineStatus = "internal_error"
)

// Terminal проверяет, является ли состояние терминальным // v1.0
func (s EngineStatus) Terminal() bool {
	switch s {
	case StatusNotStarted, StatusExecuting:
		return false
	default:
		return true
	}
}

// SignatureCount представляет счетчик срабатываний одной сигнатуры
type SignatureCount struct {
	Sid   string `json:"sid"`
	Count int    `json:"count"`
}

// SignatureStats представляет статистику сигнатур, упорядоченную по
// убыванию счетчика; при равенстве сохраняется порядок первого появления.
type SignatureStats []SignatureCount

// Get возвращает счетчик для сигнатуры // v1.0
func (s SignatureStats) Get(sid string) int {
	for _, sc := range s {
		if sc.Sid == sid {
			return sc.Count
		}
	}
	return 0
}

// MarshalJSON сериализует статистику как JSON объект с сохранением порядка // v1.0
func (s SignatureStats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sc.Sid)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(sc.Count)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON десериализует статистику из JSON объекта // v1.0
func (s *SignatureStats) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	stats := make(SignatureStats, 0, len(m))
	for sid, count := range m {
		stats = append(stats, SignatureCount{Sid: sid, Count: count})
	}
	// Порядок из JSON объекта не восстанавливается, сортируем по счетчику
	for i := 1; i < len(stats); i++ {
		for j := i; j > 0 && stats[j].Count > stats[j-1].Count; j-- {
			stats[j], stats[j-1] = stats[j-1], stats[j]
		}
	}
	*s = stats
	return nil
}

// ValidationResult представляет результат валидации правила
type ValidationResult struct {
	Success          bool              `json:"success"`
	Matched          bool              `json:"matched"`
	AlertCount       int               `json:"alert_count"`
	Details          []string          `json:"details"`
	SidStats         SignatureStats    `json:"sid_stats"`
	Error            string            `json:"error,omitempty"`
	EngineStatus     EngineStatus      `json:"engine_status"`
	ExecutionDetails map[string]string `json:"execution_details,omitempty"`
}

// NewValidationResult создает пустой результат валидации // v1.0
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		EngineStatus:     StatusNotStarted,
		Details:          []string{},
		SidStats:         SignatureStats{},
		ExecutionDetails: make(map[string]string),
	}
}

// Fail переводит результат в терминальное состояние с ошибкой // v1.0
func (r *ValidationResult) Fail(status EngineStatus, errMsg string) *ValidationResult {
	r.Success = false
	r.EngineStatus = status
	r.Error = errMsg
	return r
}

// ToJSON возвращает результат в JSON формате // v1.0
func (r *ValidationResult) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// SyntaxResult представляет результат проверки синтаксиса правила
type SyntaxResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// EngineRun представляет запись аудита об одном запуске движка
type EngineRun struct {
	Timestamp   time.Time    `json:"ts"`
	RunID       string       `json:"run_id"`
	RuleID      string       `json:"rule_id"`
	Strategy    string       `json:"strategy"`
	Mode        string       `json:"mode"`
	CapturePath string       `json:"capture_path"`
	EngineStatus EngineStatus `json:"engine_status"`
	Matched     bool         `json:"matched"`
	AlertCount  int          `json:"alert_count"`
	DurationMs  int64        `json:"duration_ms"`
	Error       string       `json:"error,omitempty"`
}
