// filename: internal/auth/sessions.go
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rulesmith/rulesmith/internal/common/config"
)

const sessionKeyPrefix = "session:"

// SessionStore хранит активные сессии в Redis.
// Сессия привязана к jti токена, выход из системы удаляет ключ. // v1.0
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore создает новое хранилище сессий // v1.0
func NewSessionStore(cfg config.RedisConfig) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.Timeout,
		ReadTimeout: cfg.Timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &SessionStore{client: client}, nil
}

// Create регистрирует сессию с TTL токена // v1.0
func (s *SessionStore) Create(ctx context.Context, tokenID string, userID int64, ttl time.Duration) error {
	key := sessionKeyPrefix + tokenID
	if err := s.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Exists проверяет, активна ли сессия // v1.0
func (s *SessionStore) Exists(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return n > 0, nil
}

// Revoke удаляет сессию // v1.0
func (s *SessionStore) Revoke(ctx context.Context, tokenID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis // v1.0
func (s *SessionStore) Close() error {
	return s.client.Close()
}
