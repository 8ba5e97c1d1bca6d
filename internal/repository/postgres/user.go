package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const userColumns = `id, email, full_name, phone, monthly_income, is_premium_member, is_admin, password_hash, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (err error) {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	ctx, done := instrument(ctx, "CreateUser")
	defer func() { done(err) }()

	if strings.TrimSpace(user.Email) == "" {
		err = fmt.Errorf("%w: email is required", pkgerrors.ErrValidation)
		return err
	}

	query := `INSERT INTO users (email, full_name, phone, monthly_income, is_premium_member, is_admin, password_hash) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		user.Email, user.FullName, user.Phone, user.MonthlyIncome, user.IsPremiumMember, user.IsAdmin, user.PasswordHash,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		err = pkgerrors.ErrEmailExists
		slog.Warn("email already exists", "method", "Create", "email", user.Email)
		return err
	}
	if err != nil {
		slog.Error("failed to create user", "method", "Create", "email", user.Email, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "method", "Create", "user_id", user.ID)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (user *models.User, err error) {
	ctx, done := instrument(ctx, "GetUserByID", attribute.Int64("user_id", id))
	defer func() { done(err) }()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err = scanUser(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrUserNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get user by id", "method", "GetByID", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (user *models.User, err error) {
	ctx, done := instrument(ctx, "GetUserByEmail")
	defer func() { done(err) }()

	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	user, err = scanUser(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = pkgerrors.ErrUserNotFound
		return nil, err
	}
	if err != nil {
		slog.Error("failed to get user by email", "method", "GetByEmail", "error", err)
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) (users []models.User, err error) {
	ctx, done := instrument(ctx, "ListUsers")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		slog.Error("failed to list users", "method", "List", "error", err)
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users = make([]models.User, 0)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan user: %w", scanErr)
			return nil, err
		}
		users = append(users, *user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) (err error) {
	if user == nil {
		return pkgerrors.ErrNilUser
	}
	ctx, done := instrument(ctx, "UpdateUser", attribute.Int64("user_id", user.ID))
	defer func() { done(err) }()

	query := `UPDATE users SET email = $1, full_name = $2, phone = $3, monthly_income = $4, is_premium_member = $5, is_admin = $6, password_hash = $7, updated_at = NOW() WHERE id = $8 RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		user.Email, user.FullName, user.Phone, user.MonthlyIncome, user.IsPremiumMember, user.IsAdmin, user.PasswordHash, user.ID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		err = pkgerrors.ErrUserNotFound
		return err
	case isUniqueViolation(err):
		err = pkgerrors.ErrEmailExists
		return err
	case err != nil:
		slog.Error("failed to update user", "method", "Update", "user_id", user.ID, "error", err)
		return fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user updated", "method", "Update", "user_id", user.ID)
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) (err error) {
	ctx, done := instrument(ctx, "DeleteUser", attribute.Int64("user_id", id))
	defer func() { done(err) }()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		err = pkgerrors.ErrUserHasLedger
		return err
	}
	if err != nil {
		slog.Error("failed to delete user", "method", "Delete", "user_id", id, "error", err)
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = pkgerrors.ErrUserNotFound
		return err
	}

	slog.Info("user deleted", "method", "Delete", "user_id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.MonthlyIncome, &u.IsPremiumMember, &u.IsAdmin, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
