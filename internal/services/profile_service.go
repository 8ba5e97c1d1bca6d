package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	stderrors "errors"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
)

type ProfileService struct {
	users  repository.UserRepository
	engine *RuleEngine
}

func NewProfileService(users repository.UserRepository, engine *RuleEngine) *ProfileService {
	return &ProfileService{users: users, engine: engine}
}

func (s *ProfileService) Get(ctx context.Context, userID int64) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "GetProfile")
	defer span.End()
	return s.users.GetByID(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID int64, in models.ProfileUpdate) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UpdateProfile")
	defer span.End()

	in.FullName = strings.TrimSpace(in.FullName)
	if in.FullName == "" {
		return nil, fmt.Errorf("%w: full_name is required", pkgerrors.ErrValidation)
	}
	if in.MonthlyIncome < 0 {
		return nil, fmt.Errorf("%w: monthly_income must not be negative", pkgerrors.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		recordError(span, err, "user lookup failed")
		return nil, err
	}
	user.FullName = in.FullName
	user.Phone = strings.TrimSpace(in.Phone)
	user.MonthlyIncome = in.MonthlyIncome
	if err := s.users.Update(ctx, user); err != nil {
		recordError(span, err, "update failed")
		return nil, err
	}
	slog.Info("profile updated", "method", "UpdateProfile", "user_id", userID)
	return user, nil
}

func (s *ProfileService) PremiumStatus(ctx context.Context, userID int64) (models.PremiumStatus, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return models.PremiumStatus{}, err
	}
	return models.PremiumStatus{UserID: user.ID, IsPremiumMember: user.IsPremiumMember}, nil
}

// UpgradeMembership is idempotent; only the first upgrade raises the premium_upgrade action.
// The award runs before the flag is stored, so a failed award leaves the user on the free tier
// and the next call retries it. The event id covers a retry after the award but before the flag.
func (s *ProfileService) UpgradeMembership(ctx context.Context, userID int64) (models.PremiumStatus, error) {
	ctx, span := tracer.Start(ctx, "UpgradeMembership")
	defer span.End()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		recordError(span, err, "user lookup failed")
		return models.PremiumStatus{}, err
	}
	if user.IsPremiumMember {
		return models.PremiumStatus{UserID: user.ID, IsPremiumMember: true}, nil
	}

	if s.engine != nil {
		_, err := s.engine.Evaluate(ctx, ActionPremiumUpgrade, user.ID, fmt.Sprintf("premium_upgrade:%d", user.ID))
		if err != nil && !stderrors.Is(err, pkgerrors.ErrEventAlreadyProcessed) {
			recordError(span, err, "premium award failed")
			slog.Error("premium award failed", "method", "UpgradeMembership", "user_id", user.ID, "error", err)
			return models.PremiumStatus{}, err
		}
	}

	user.IsPremiumMember = true
	if err := s.users.Update(ctx, user); err != nil {
		recordError(span, err, "update failed")
		return models.PremiumStatus{}, err
	}
	slog.Info("membership upgraded", "method", "UpgradeMembership", "user_id", user.ID)
	return models.PremiumStatus{UserID: user.ID, IsPremiumMember: true}, nil
}
