package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/honeynil/CoinLedgerService/internal/infrastructure/auth"
	"github.com/honeynil/CoinLedgerService/internal/infrastructure/redis"
	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/honeynil/CoinLedgerService/internal/repository/memory"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.store.Users(), f.engine, f.cache)
	_, err := f.engine.CreateRule(ctx, ruleInput("signup", `100`, true))
	require.NoError(t, err)

	var created *models.User
	t.Run("CreateAwardsSignup", func(t *testing.T) {
		created, err = svc.CreateUser(ctx, CreateUserInput{Email: " Ann@Example.com ", FullName: "Ann", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "ann@example.com", created.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pw")))

		balance, _ := f.ledger.GetBalance(ctx, created.ID)
		assert.Equal(t, int64(100), balance)
	})

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, CreateUserInput{Email: "nope", FullName: "X"})
		assert.ErrorIs(t, err, pkgerrors.ErrValidation)
		_, err = svc.CreateUser(ctx, CreateUserInput{Email: "x@example.com"})
		assert.ErrorIs(t, err, pkgerrors.ErrValidation)
		_, err = svc.CreateUser(ctx, CreateUserInput{Email: "ann@example.com", FullName: "Dup"})
		assert.ErrorIs(t, err, pkgerrors.ErrEmailExists)
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		phone := "+100"
		premium := true
		updated, err := svc.UpdateUser(ctx, created.ID, UpdateUserInput{Phone: &phone, IsPremiumMember: &premium})
		require.NoError(t, err)
		assert.Equal(t, "Ann", updated.FullName)
		assert.Equal(t, "+100", updated.Phone)
		assert.True(t, updated.IsPremiumMember)

		_, err = svc.UpdateUser(ctx, 9999, UpdateUserInput{Phone: &phone})
		assert.ErrorIs(t, err, pkgerrors.ErrUserNotFound)
	})

	t.Run("DeleteRefusedWithLedger", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteUser(ctx, created.ID), pkgerrors.ErrUserHasLedger)
	})

	t.Run("EnsureAdminOnce", func(t *testing.T) {
		require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin"))
		require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "admin"))
		admin, err := f.store.Users().GetByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.True(t, admin.IsAdmin)
	})
}

func TestUserService_RevokesSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := NewUserService(f.store.Users(), nil, f.cache)
	user, err := svc.CreateUser(ctx, CreateUserInput{Email: "ann@example.com", FullName: "Ann", Password: "pw", IsAdmin: true})
	require.NoError(t, err)

	session := func(t *testing.T) {
		t.Helper()
		require.NoError(t, f.cache.Set(ctx, auth.TokenKey(user.ID), "token", time.Hour))
	}
	alive := func() bool {
		_, err := f.cache.Get(ctx, auth.TokenKey(user.ID))
		return err == nil
	}

	t.Run("ProfileEditKeepsSession", func(t *testing.T) {
		session(t)
		phone := "+100"
		admin := true
		_, err := svc.UpdateUser(ctx, user.ID, UpdateUserInput{Phone: &phone, IsAdmin: &admin})
		require.NoError(t, err)
		assert.True(t, alive())
	})

	t.Run("Demote", func(t *testing.T) {
		session(t)
		admin := false
		_, err := svc.UpdateUser(ctx, user.ID, UpdateUserInput{IsAdmin: &admin})
		require.NoError(t, err)
		assert.False(t, alive())
	})

	t.Run("PasswordChange", func(t *testing.T) {
		session(t)
		pw := "newpw"
		_, err := svc.UpdateUser(ctx, user.ID, UpdateUserInput{Password: &pw})
		require.NoError(t, err)
		assert.False(t, alive())
	})

	t.Run("Delete", func(t *testing.T) {
		session(t)
		require.NoError(t, svc.DeleteUser(ctx, user.ID))
		assert.False(t, alive())
		_, err := f.cache.Get(ctx, auth.TokenKey(user.ID))
		assert.ErrorIs(t, err, redis.ErrKeyNotFound)
	})
}

func TestUserService_RevokeFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cache := new(mockRedisClient)
	svc := NewUserService(store.Users(), nil, cache)
	user, err := svc.CreateUser(ctx, CreateUserInput{Email: "ann@example.com", FullName: "Ann", IsAdmin: true})
	require.NoError(t, err)

	cache.On("Del", mock.Anything, auth.TokenKey(user.ID)).Return(errors.New("redis down"))
	admin := false
	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserInput{IsAdmin: &admin})
	assert.ErrorIs(t, err, pkgerrors.ErrInternal)
	cache.AssertExpectations(t)
}
