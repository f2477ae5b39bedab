// filename: internal/common/nats/client.go
package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Client представляет клиент NATS
type Client struct {
	conn   *nats.Conn
	js     nats.JetStreamContext
	config Config
}

// Config представляет конфигурацию NATS
type Config struct {
	URLs        []string      `yaml:"urls"`
	ClusterID   string        `yaml:"cluster_id"`
	ClientID    string        `yaml:"client_id"`
	Credentials string        `yaml:"credentials"`
	JWT         string        `yaml:"jwt"`
	NKey        string        `yaml:"nkey"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Субъекты событий жизненного цикла правил
const (
	SubjectRuleGenerated = "rules.generated"
	SubjectRuleOptimized = "rules.optimized"
	SubjectRuleValidated = "rules.validated"
)

// NewClient создает новый клиент NATS // v1.0
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.ClientID),
		nats.Timeout(config.Timeout),
		nats.ReconnectWait(1 * time.Second),
		nats.MaxReconnects(-1),
	}

	// Добавляем аутентификацию если указана
	if config.Credentials != "" {
		opts = append(opts, nats.UserCredentials(config.Credentials))
	}

	if config.JWT != "" && config.NKey != "" {
		opts = append(opts, nats.UserJWTAndSeed(config.JWT, config.NKey))
	}

	// Подключаемся к NATS
	conn, err := nats.Connect(config.URLs[0], opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Создаем JetStream контекст
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Создаем поток событий правил если не существует
	if err := ensureStream(js); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	return &Client{
		conn:   conn,
		js:     js,
		config: config,
	}, nil
}

// ensureStream создает поток для событий правил // v1.0
func ensureStream(js nats.JetStreamContext) error {
	_, err := js.StreamInfo("RULES")
	if err == nil {
		return nil
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     "RULES",
		Subjects: []string{"rules.>"},
		Storage:  nats.FileStorage,
		MaxAge:   7 * 24 * time.Hour,
	})
	return err
}

// Publish публикует событие в JetStream // v1.0
func (c *Client) Publish(subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if _, err := c.js.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	return nil
}

// IsConnected проверяет, подключен ли клиент // v1.0
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close закрывает соединение с NATS // v1.0
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
