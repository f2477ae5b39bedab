// filename: internal/models/pcap.go
package models

import "time"

// PcapFile представляет загруженный файл сетевого трафика
type PcapFile struct {
	ID         int64     `json:"id" db:"id"`
	Filename   string    `json:"filename" db:"filename"`
	Filepath   string    `json:"filepath" db:"filepath"`
	SizeBytes  int64     `json:"size_bytes" db:"size_bytes"`
	LinkType   string    `json:"link_type" db:"link_type"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// EngineCheck представляет результат диагностики движка Suricata
type EngineCheck struct {
	OS                string `json:"os"`
	SuricataAvailable bool   `json:"suricata_available"`
	BinaryPath        string `json:"binary_path,omitempty"`
	Version           string `json:"version,omitempty"`
	ConfigFound       bool   `json:"config_found"`
	ConfigPath        string `json:"config_path,omitempty"`
	DefaultRulePath   string `json:"default_rule_path,omitempty"`
	RulesDirExists    bool   `json:"rules_dir_exists"`
	LogDirExists      bool   `json:"log_dir_exists"`
	SSHConfigured     bool   `json:"ssh_configured"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	Recommendation    string `json:"recommendation,omitempty"`
}
