// filename: internal/auth/service.go
package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	apperrors "github.com/rulesmith/rulesmith/internal/common/errors"
	"github.com/rulesmith/rulesmith/internal/common/logging"
	"github.com/rulesmith/rulesmith/internal/common/pg"
	"github.com/rulesmith/rulesmith/internal/models"
)

// Service управляет пользователями и токенами доступа // v1.0
type Service struct {
	pgClient *pg.Client
	sessions *SessionStore
	tokens   *TokenManager
	logger   *logging.Logger
}

// NewService создает новый сервис аутентификации // v1.0
func NewService(pgClient *pg.Client, sessions *SessionStore, tokens *TokenManager, logger *logging.Logger) *Service {
	return &Service{
		pgClient: pgClient,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register регистрирует нового пользователя // v1.0
func (s *Service) Register(ctx context.Context, username, password, email string) (*models.SafeUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.ValidationError("username", "must not be empty")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeValidation, "invalid password")
	}

	// Первый зарегистрированный пользователь становится администратором
	role := "user"
	var userCount int
	if err := s.pgClient.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&userCount); err == nil && userCount == 0 {
		role = "admin"
	}

	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Role:         role,
	}

	query := `INSERT INTO users (username, password_hash, email, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at`

	err = s.pgClient.QueryRow(ctx, query, user.Username, user.PasswordHash, user.Email, user.Role).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return nil, apperrors.New(apperrors.ErrorCodeConflict,
				fmt.Sprintf("username '%s' is already taken", username))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to create user")
	}

	s.logger.Logger.WithFields(map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	}).Info("User registered")

	return user.ToSafe(), nil
}

// Login проверяет учетные данные и выпускает токен // v1.0
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.SafeUser, error) {
	query := `SELECT id, username, password_hash, email, role, created_at
			  FROM users WHERE username = $1`

	var user models.User
	err := s.pgClient.QueryRow(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.Role, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return "", nil, apperrors.UnauthorizedError("invalid username or password")
	}
	if err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to query user")
	}

	if !CheckPassword(user.PasswordHash, password) {
		return "", nil, apperrors.UnauthorizedError("invalid username or password")
	}

	token, claims, err := s.tokens.Issue(&user)
	if err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to issue token")
	}

	if err := s.sessions.Create(ctx, claims.ID, user.ID, s.tokens.TTL()); err != nil {
		return "", nil, apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to create session")
	}

	s.logger.Logger.WithField("username", user.Username).Info("User logged in")

	return token, user.ToSafe(), nil
}

// Verify проверяет токен и активность сессии // v1.0
func (s *Service) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, apperrors.UnauthorizedError("invalid or expired token")
	}

	active, err := s.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeInternal, "failed to check session")
	}
	if !active {
		return nil, apperrors.UnauthorizedError("session has been revoked")
	}

	return claims, nil
}

// Logout отзывает сессию токена // v1.0
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return apperrors.UnauthorizedError("invalid or expired token")
	}

	return s.sessions.Revoke(ctx, claims.ID)
}

// GetUser возвращает пользователя по идентификатору // v1.0
func (s *Service) GetUser(ctx context.Context, userID int64) (*models.SafeUser, error) {
	query := `SELECT id, username, password_hash, email, role, created_at
			  FROM users WHERE id = $1`

	var user models.User
	err := s.pgClient.QueryRow(ctx, query, userID).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.Role, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFoundError("user", fmt.Sprintf("%d", userID))
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to query user")
	}

	return user.ToSafe(), nil
}

// ListUsers возвращает всех пользователей // v1.0
func (s *Service) ListUsers(ctx context.Context) ([]*models.SafeUser, error) {
	query := `SELECT id, username, password_hash, email, role, created_at
			  FROM users ORDER BY created_at`

	rows, err := s.pgClient.Query(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to list users")
	}
	defer rows.Close()

	users := make([]*models.SafeUser, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			s.logger.Logger.WithField("error", err.Error()).Error("Failed to scan user row")
			continue
		}
		users = append(users, user.ToSafe())
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorCodeDBQuery, "failed to iterate user rows")
	}

	return users, nil
}
