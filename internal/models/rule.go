// filename: internal/models/rule.go
package models

import (
	"encoding/json"
	"time"
)

// RuleStatus представляет статус правила
type RuleStatus string

const (
	RuleStatusDraft     RuleStatus = "draft"
	RuleStatusValidated RuleStatus = "validated"
	RuleStatusFailed    RuleStatus = "failed"
	RuleStatusPublished RuleStatus = "published"
)

// Rule представляет сгенерированное правило обнаружения
type Rule struct {
	ID           int64      `json:"id" db:"id"`
	VulnName     string     `json:"vuln_name" db:"vuln_name"`
	VulnType     string     `json:"vuln_type" db:"vuln_type"`
	Description  string     `json:"description" db:"description"`
	OriginalRule string     `json:"original_rule" db:"original_rule"`
	CurrentRule  string     `json:"current_rule" db:"current_rule"`
	Status       RuleStatus `json:"status" db:"status"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// NewRule создает новое правило // v1.0
func NewRule(vulnName, vulnType, description, ruleText string) *Rule {
	now := time.Now()
	return &Rule{
		VulnName:     vulnName,
		VulnType:     vulnType,
		Description:  description,
		OriginalRule: ruleText,
		CurrentRule:  ruleText,
		Status:       RuleStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ToJSON возвращает правило в JSON формате // v1.0
func (r *Rule) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// GeneratedText представляет нормализованный ответ LLM провайдера
type GeneratedText struct {
	Content string `json:"content"`
	Raw     []byte `json:"-"`
}

// OptimizationRecord представляет запись истории оптимизации правила
type OptimizationRecord struct {
	ID            int64     `json:"id" db:"id"`
	RuleID        int64     `json:"rule_id" db:"rule_id"`
	OriginalRule  string    `json:"original_rule" db:"original_rule"`
	OptimizedRule string    `json:"optimized_rule" db:"optimized_rule"`
	Feedback      string    `json:"feedback" db:"feedback"`
	AISuggestion  string    `json:"ai_suggestion" db:"ai_suggestion"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// ValidationRecord представляет сохраненный результат валидации правила
type ValidationRecord struct {
	ID           int64          `json:"id" db:"id"`
	RuleID       int64          `json:"rule_id" db:"rule_id"`
	PcapPath     string         `json:"pcap_path" db:"pcap_path"`
	Matched      bool           `json:"matched" db:"matched"`
	AlertCount   int            `json:"alert_count" db:"alert_count"`
	EngineStatus EngineStatus   `json:"engine_status" db:"engine_status"`
	Details      []string       `json:"details" db:"details"`
	SidStats     SignatureStats `json:"sid_stats" db:"sid_stats"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
