package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	stderrors "errors"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/auth"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

type CreateUserInput struct {
	Email           string
	FullName        string
	Phone           string
	MonthlyIncome   float64
	IsPremiumMember bool
	IsAdmin         bool
	Password        string
}

// UpdateUserInput applies only the non-nil fields.
type UpdateUserInput struct {
	Email           *string
	FullName        *string
	Phone           *string
	MonthlyIncome   *float64
	IsPremiumMember *bool
	IsAdmin         *bool
	Password        *string
}

type UserService struct {
	users  repository.UserRepository
	engine *RuleEngine
	redis  redis.RedisClient
}

// NewUserService wires the user store. redisClient holds the session tokens that get revoked
// when a user's role, password or existence changes; nil disables revocation.
func NewUserService(users repository.UserRepository, engine *RuleEngine, redisClient redis.RedisClient) *UserService {
	return &UserService{users: users, engine: engine, redis: redisClient}
}

// revokeSession drops the stored token so the next request with it is rejected and the user
// has to log in again with fresh claims.
func (s *UserService) revokeSession(ctx context.Context, id int64) error {
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Del(ctx, auth.TokenKey(id)); err != nil {
		slog.Error("failed to revoke session", "method", "revokeSession", "user_id", id, "error", err)
		return fmt.Errorf("%w: failed to revoke session", pkgerrors.ErrInternal)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}
	return string(hash), nil
}

// CreateUser stores a new user and raises the signup action for it.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "CreateUser")
	defer span.End()

	user := &models.User{
		Email:           strings.ToLower(strings.TrimSpace(in.Email)),
		FullName:        strings.TrimSpace(in.FullName),
		Phone:           strings.TrimSpace(in.Phone),
		MonthlyIncome:   in.MonthlyIncome,
		IsPremiumMember: in.IsPremiumMember,
		IsAdmin:         in.IsAdmin,
	}
	if err := validateUser(user); err != nil {
		recordError(span, err, "invalid user")
		return nil, err
	}
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			recordError(span, err, "password hashing failed")
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Create(ctx, user); err != nil {
		recordError(span, err, "create failed")
		slog.Error("failed to create user", "method", "CreateUser", "error", err)
		return nil, err
	}

	if s.engine != nil {
		_, err := s.engine.Evaluate(ctx, ActionSignup, user.ID, fmt.Sprintf("signup:%d", user.ID))
		if err != nil {
			slog.Error("signup award failed", "method", "CreateUser", "user_id", user.ID, "error", err)
		}
	}

	slog.Info("user created", "method", "CreateUser", "user_id", user.ID)
	return user, nil
}

func validateUser(u *models.User) error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: a valid email is required", pkgerrors.ErrValidation)
	}
	if u.FullName == "" {
		return fmt.Errorf("%w: full_name is required", pkgerrors.ErrValidation)
	}
	if u.MonthlyIncome < 0 {
		return fmt.Errorf("%w: monthly_income must not be negative", pkgerrors.ErrValidation)
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "GetUser")
	defer span.End()
	return s.users.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	ctx, span := tracer.Start(ctx, "ListUsers")
	defer span.End()
	return s.users.List(ctx)
}

func (s *UserService) UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UpdateUser")
	defer span.End()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		recordError(span, err, "user lookup failed")
		return nil, err
	}
	if in.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.MonthlyIncome != nil {
		user.MonthlyIncome = *in.MonthlyIncome
	}
	if in.IsPremiumMember != nil {
		user.IsPremiumMember = *in.IsPremiumMember
	}
	revoke := false
	if in.IsAdmin != nil {
		revoke = user.IsAdmin != *in.IsAdmin
		user.IsAdmin = *in.IsAdmin
	}
	if err := validateUser(user); err != nil {
		recordError(span, err, "invalid user")
		return nil, err
	}
	if in.Password != nil && *in.Password != "" {
		if user.PasswordHash, err = hashPassword(*in.Password); err != nil {
			return nil, err
		}
		revoke = true
	}

	if err := s.users.Update(ctx, user); err != nil {
		recordError(span, err, "update failed")
		return nil, err
	}
	if revoke {
		if err := s.revokeSession(ctx, id); err != nil {
			recordError(span, err, "session revocation failed")
			return nil, err
		}
	}
	slog.Info("user updated", "method", "UpdateUser", "user_id", id)
	return user, nil
}

// DeleteUser refuses users that own ledger rows.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "DeleteUser")
	defer span.End()

	if err := s.users.Delete(ctx, id); err != nil {
		recordError(span, err, "delete failed")
		return err
	}
	if err := s.revokeSession(ctx, id); err != nil {
		recordError(span, err, "session revocation failed")
		return err
	}
	slog.Info("user deleted", "method", "DeleteUser", "user_id", id)
	return nil
}

// EnsureAdmin creates the bootstrap admin unless a user with that email already exists.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	_, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		return nil
	}
	if !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		return err
	}
	_, err = s.CreateUser(ctx, CreateUserInput{Email: email, FullName: "Administrator", IsAdmin: true, Password: password})
	if stderrors.Is(err, pkgerrors.ErrEmailExists) {
		return nil
	}
	return err
}
