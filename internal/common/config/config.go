// filename: internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config представляет основную конфигурацию приложения
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	PostgreSQL PostgreSQLConfig `mapstructure:"postgresql"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
	Suricata   SuricataConfig   `mapstructure:"suricata"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	TLS        TLSConfig        `mapstructure:"tls"`
}

// ServerConfig представляет конфигурацию сервера
type ServerConfig struct {
	Host         string          `mapstructure:"host"`
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration   `mapstructure:"idle_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig представляет конфигурацию rate limiting
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	BlockDuration     time.Duration `mapstructure:"block_duration"`
}

// PostgreSQLConfig представляет конфигурацию PostgreSQL
type PostgreSQLConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig представляет конфигурацию Redis
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// NATSConfig представляет конфигурацию NATS
type NATSConfig struct {
	URLs        []string      `mapstructure:"urls"`
	ClusterID   string        `mapstructure:"cluster_id"`
	ClientID    string        `mapstructure:"client_id"`
	Credentials string        `mapstructure:"credentials"`
	JWT         string        `mapstructure:"jwt"`
	NKey        string        `mapstructure:"nkey"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ClickHouseConfig представляет конфигурацию ClickHouse
type ClickHouseConfig struct {
	Hosts    []string      `mapstructure:"hosts"`
	Database string        `mapstructure:"database"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Port     int           `mapstructure:"port"`
	Secure   bool          `mapstructure:"secure"`
	Compress bool          `mapstructure:"compress"`
	MaxOpen  int           `mapstructure:"max_open"`
	MaxIdle  int           `mapstructure:"max_idle"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SuricataConfig представляет конфигурацию движка Suricata
type SuricataConfig struct {
	Binary           string        `mapstructure:"binary"`
	RulesDir         string        `mapstructure:"rules_dir"`
	ConfigFile       string        `mapstructure:"config_file"`
	LogDir           string        `mapstructure:"log_dir"`
	UseDefaultConfig bool          `mapstructure:"use_default_config"`
	ValidateTimeout  time.Duration `mapstructure:"validate_timeout"`
	SyntaxTimeout    time.Duration `mapstructure:"syntax_timeout"`
	SSH              SSHConfig     `mapstructure:"ssh"`
}

// SSHConfig представляет конфигурацию удаленного запуска движка по SSH
type SSHConfig struct {
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	User    string        `mapstructure:"user"`
	KeyFile string        `mapstructure:"key_file"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLMConfig представляет конфигурацию LLM провайдера
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// UploadsConfig представляет конфигурацию загрузки PCAP файлов
type UploadsConfig struct {
	Dir             string `mapstructure:"dir"`
	MaxSizeBytes    int64  `mapstructure:"max_size_bytes"`
	DefaultPcapPath string `mapstructure:"default_pcap_path"`
}

// AuthConfig представляет конфигурацию аутентификации
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// TLSConfig представляет конфигурацию TLS
type TLSConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	CAFile     string `mapstructure:"ca_file"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
	MinVersion string `mapstructure:"min_version"`
	SelfSigned bool   `mapstructure:"self_signed"`
}

// LoadConfig загружает конфигурацию из файла // v1.0
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Устанавливаем значения по умолчанию
	setDefaults()

	// Читаем конфигурацию
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Валидируем конфигурацию
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults устанавливает значения по умолчанию // v1.0
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "60s")

	// PostgreSQL defaults
	viper.SetDefault("postgresql.host", "localhost")
	viper.SetDefault("postgresql.port", 5432)
	viper.SetDefault("postgresql.database", "rulesmith")
	viper.SetDefault("postgresql.ssl_mode", "disable")
	viper.SetDefault("postgresql.max_open_conns", 100)
	viper.SetDefault("postgresql.max_idle_conns", 10)
	viper.SetDefault("postgresql.conn_max_lifetime", "1h")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.timeout", "5s")

	// NATS defaults
	viper.SetDefault("nats.urls", []string{"nats://localhost:4222"})
	viper.SetDefault("nats.cluster_id", "rulesmith")
	viper.SetDefault("nats.client_id", "rulesmith-api")
	viper.SetDefault("nats.timeout", "5s")

	// ClickHouse defaults
	viper.SetDefault("clickhouse.hosts", []string{"localhost"})
	viper.SetDefault("clickhouse.database", "rulesmith")
	viper.SetDefault("clickhouse.port", 9000)
	viper.SetDefault("clickhouse.secure", false)
	viper.SetDefault("clickhouse.compress", true)
	viper.SetDefault("clickhouse.max_open", 100)
	viper.SetDefault("clickhouse.max_idle", 10)
	viper.SetDefault("clickhouse.timeout", "30s")

	// Suricata defaults
	viper.SetDefault("suricata.binary", "")
	viper.SetDefault("suricata.rules_dir", "/var/lib/suricata/rules")
	viper.SetDefault("suricata.config_file", "/etc/suricata/suricata.yaml")
	viper.SetDefault("suricata.log_dir", "/var/log/suricata")
	viper.SetDefault("suricata.use_default_config", false)
	viper.SetDefault("suricata.validate_timeout", "300s")
	viper.SetDefault("suricata.syntax_timeout", "30s")
	viper.SetDefault("suricata.ssh.port", 22)
	viper.SetDefault("suricata.ssh.timeout", "10s")

	// LLM defaults
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "")
	viper.SetDefault("llm.base_url", "")
	viper.SetDefault("llm.temperature", 0.1)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", "120s")

	// Uploads defaults
	viper.SetDefault("uploads.dir", "uploads")
	viper.SetDefault("uploads.max_size_bytes", 104857600)
	viper.SetDefault("uploads.default_pcap_path", "/home/kali/pcap_check")

	// Auth defaults
	viper.SetDefault("auth.token_ttl", "24h")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
	viper.SetDefault("logging.compress", true)

	// Rate limit defaults
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.requests_per_minute", 300)
	viper.SetDefault("server.rate_limit.block_duration", "1m")

	// TLS defaults
	viper.SetDefault("tls.enabled", false)
	viper.SetDefault("tls.min_version", "1.2")
}

// Validate валидирует конфигурацию // v1.0
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.PostgreSQL.Database == "" {
		return fmt.Errorf("PostgreSQL database name is required")
	}

	if len(c.NATS.URLs) == 0 {
		return fmt.Errorf("at least one NATS URL is required")
	}

	if c.Suricata.RulesDir == "" {
		return fmt.Errorf("suricata rules directory is required")
	}

	if c.Suricata.LogDir == "" {
		return fmt.Errorf("suricata log directory is required")
	}

	if !c.Suricata.UseDefaultConfig && c.Suricata.ConfigFile == "" {
		return fmt.Errorf("suricata config file is required unless use_default_config is set")
	}

	if c.Suricata.ValidateTimeout <= 0 {
		return fmt.Errorf("suricata validate timeout must be positive")
	}

	return nil
}

// GetServerAddr возвращает адрес сервера // v1.0
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetRedisAddr возвращает адрес Redis // v1.0
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// GetPostgresDSN возвращает DSN для PostgreSQL // v1.0
func (c *Config) GetPostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.PostgreSQL.Host, c.PostgreSQL.Port, c.PostgreSQL.Database,
		c.PostgreSQL.Username, c.PostgreSQL.Password, c.PostgreSQL.SSLMode)
}
