package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	stderrors "errors"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/auth"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	users     repository.UserRepository
	redis     redis.RedisClient
	engine    *RuleEngine
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(users repository.UserRepository, redisClient redis.RedisClient, engine *RuleEngine, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:     users,
		redis:     redisClient,
		engine:    engine,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Login checks credentials, issues a token and awards the daily login rule once per UTC day.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		slog.Warn("failed to login", "method", "Login", "error", err)
		return "", nil, pkgerrors.ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return "", nil, pkgerrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Warn("invalid password", "method", "Login", "user_id", user.ID)
		return "", nil, pkgerrors.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken([]byte(s.jwtSecret), user.ID, user.IsAdmin, s.tokenTTL)
	if err != nil {
		recordError(span, err, "token generation failed")
		slog.Error("failed to generate JWT", "method", "Login", "error", err)
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}
	if err := s.redis.Set(ctx, auth.TokenKey(user.ID), token, s.tokenTTL); err != nil {
		recordError(span, err, "token cache failed")
		slog.Error("failed to cache JWT", "method", "Login", "user_id", user.ID, "error", err)
		return "", nil, fmt.Errorf("%w: failed to store token", pkgerrors.ErrInternal)
	}

	if s.engine != nil {
		eventID := fmt.Sprintf("login:%d:%s", user.ID, s.now().Format("2006-01-02"))
		_, err := s.engine.Evaluate(ctx, ActionLogin, user.ID, eventID)
		if err != nil && !stderrors.Is(err, pkgerrors.ErrEventAlreadyProcessed) {
			slog.Error("login award failed", "method", "Login", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("user logged in", "method", "Login", "user_id", user.ID)
	return token, user, nil
}

func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "Logout")
	defer span.End()

	if err := s.redis.Del(ctx, auth.TokenKey(userID)); err != nil {
		recordError(span, err, "token revoke failed")
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	slog.Info("user logged out", "method", "Logout", "user_id", userID)
	return nil
}
