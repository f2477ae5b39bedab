// filename: internal/common/ch/client.go
package ch

import (
	"context"
	"fmt"
	"time"

	"github.com/rulesmith/rulesmith/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// Client представляет клиент ClickHouse для аудита запусков движка
type Client struct {
	conn   clickhouse.Conn
	config Config
}

// Config представляет конфигурацию ClickHouse
type Config struct {
	Hosts    []string      `yaml:"hosts"`
	Database string        `yaml:"database"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Port     int           `yaml:"port"`
	Secure   bool          `yaml:"secure"`
	Compress bool          `yaml:"compress"`
	MaxOpen  int           `yaml:"max_open"`
	MaxIdle  int           `yaml:"max_idle"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NewClient создает новый клиент ClickHouse // v1.0
func NewClient(config Config) (*Client, error) {
	opts := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", config.Hosts[0], config.Port)},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Debug: false,
	}

	if config.Secure && config.Port == 9000 {
		opts.Settings["secure"] = true
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Проверяем соединение
	if err := conn.Ping(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	client := &Client{
		conn:   conn,
		config: config,
	}

	if err := client.ensureTables(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return client, nil
}

// ensureTables создает таблицу аудита запусков если не существует // v1.0
func (c *Client) ensureTables(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS engine_runs (
			ts DateTime64(3),
			run_id String,
			rule_id String,
			strategy String,
			mode String,
			capture_path String,
			engine_status LowCardinality(String),
			matched UInt8,
			alert_count UInt32,
			duration_ms UInt64,
			error String
		) ENGINE = MergeTree()
		ORDER BY (ts, run_id)
		TTL toDateTime(ts) + INTERVAL 90 DAY
	`
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure engine_runs table: %w", err)
	}
	return nil
}

// Close закрывает соединение с ClickHouse // v1.0
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Ping проверяет соединение с ClickHouse // v1.0
func (c *Client) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

// Query выполняет SQL запрос // v1.0
func (c *Client) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	return c.conn.Query(ctx, query, args...)
}

// InsertEngineRun вставляет запись аудита о запуске движка // v1.0
func (c *Client) InsertEngineRun(ctx context.Context, run *models.EngineRun) error {
	if run == nil {
		return fmt.Errorf("engine run is nil")
	}

	query := `
		INSERT INTO engine_runs (
			ts, run_id, rule_id, strategy, mode, capture_path,
			engine_status, matched, alert_count, duration_ms, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	matched := uint8(0)
	if run.Matched {
		matched = 1
	}

	return c.conn.Exec(ctx, query,
		run.Timestamp, run.RunID, run.RuleID, run.Strategy, run.Mode, run.CapturePath,
		string(run.EngineStatus), matched, uint32(run.AlertCount), uint64(run.DurationMs), run.Error,
	)
}
