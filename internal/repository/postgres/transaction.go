package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/honeynil/CoinLedgerService/internal/models"
	pkgerrors "github.com/honeynil/CoinLedgerService/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Record(ctx context.Context, tx *models.CoinTransaction) (balance int64, err error) {
	if tx == nil {
		slog.Error("failed to record transaction", "method", "Record", "error", pkgerrors.ErrNilTransaction)
		return 0, pkgerrors.ErrNilTransaction
	}

	ctx, done := instrument(ctx, "RecordTransaction",
		attribute.Int64("user_id", tx.UserID),
		attribute.Int64("amount", tx.Amount),
	)
	defer func() { done(err) }()

	if tx.Amount == 0 {
		err = pkgerrors.ErrZeroAmount
		slog.Error("amount must be non-zero", "method", "Record", "user_id", tx.UserID, "error", err)
		return 0, err
	}
	if tx.TransactionType == "" {
		tx.TransactionType = models.TypeForAmount(tx.Amount)
	}
	if !tx.TransactionType.Valid(tx.Amount) {
		err = pkgerrors.ErrInvalidTransactionType
		slog.Error("invalid transaction type", "method", "Record", "type", tx.TransactionType, "amount", tx.Amount, "error", err)
		return 0, err
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Error("failed to begin transaction", "method", "Record", "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Row lock on the owner serializes concurrent writers for the same user.
	var lockedID int64
	err = dbTx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, tx.UserID).Scan(&lockedID)
	if stderrors.Is(err, sql.ErrNoRows) {
		err = rollback(dbTx, "Record", pkgerrors.ErrUnknownUser)
		slog.Error("unknown user", "method", "Record", "user_id", tx.UserID)
		return 0, err
	}
	if err != nil {
		err = rollback(dbTx, "Record", fmt.Errorf("failed to lock user: %w", err))
		slog.Error("failed to lock user", "method", "Record", "user_id", tx.UserID, "error", err)
		return 0, err
	}

	query := `INSERT INTO coin_transactions (user_id, amount, transaction_type, description, action_type, rule_id) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`
	err = dbTx.QueryRowContext(ctx, query,
		tx.UserID, tx.Amount, string(tx.TransactionType), tx.Description, nullString(tx.ActionType), tx.RuleID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		err = rollback(dbTx, "Record", fmt.Errorf("failed to insert transaction: %w", err))
		slog.Error("failed to insert transaction", "method", "Record", "user_id", tx.UserID, "error", err)
		return 0, err
	}

	err = dbTx.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE user_id = $1`, tx.UserID).Scan(&balance)
	if err != nil {
		err = rollback(dbTx, "Record", fmt.Errorf("failed to read balance: %w", err))
		slog.Error("failed to read balance", "method", "Record", "user_id", tx.UserID, "error", err)
		return 0, err
	}

	if err = dbTx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "method", "Record", "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	slog.Info("transaction recorded", "method", "Record", "id", tx.ID, "user_id", tx.UserID, "amount", tx.Amount, "type", tx.TransactionType, "balance", balance)
	return balance, nil
}

func (r *TransactionRepository) GetBalance(ctx context.Context, userID int64) (balance int64, err error) {
	ctx, done := instrument(ctx, "GetBalance", attribute.Int64("user_id", userID))
	defer func() { done(err) }()

	query := `SELECT COALESCE(SUM(amount), 0) FROM coin_transactions WHERE user_id = $1`
	err = r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if err != nil {
		slog.Error("failed to get balance", "method", "GetBalance", "user_id", userID, "error", err)
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	slog.Debug("balance retrieved", "method", "GetBalance", "user_id", userID, "balance", balance)
	return balance, nil
}

func (r *TransactionRepository) List(ctx context.Context, filter models.TransactionFilter) (txs []models.CoinTransaction, err error) {
	ctx, done := instrument(ctx, "ListTransactions")
	defer func() { done(err) }()

	limit, offset := clampPage(filter.Limit, filter.Offset)

	query := `SELECT id, user_id, amount, transaction_type, description, action_type, rule_id, created_at FROM coin_transactions`
	args := make([]any, 0, 3)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += ` WHERE user_id = $1`
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("failed to list transactions", "method", "List", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs = make([]models.CoinTransaction, 0)
	for rows.Next() {
		var (
			tx         models.CoinTransaction
			actionType sql.NullString
			ruleID     sql.NullInt64
		)
		if err = rows.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.TransactionType, &tx.Description, &actionType, &ruleID, &tx.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.ActionType = actionType.String
		if ruleID.Valid {
			id := ruleID.Int64
			tx.RuleID = &id
		}
		txs = append(txs, tx)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

func rollback(tx *sql.Tx, method string, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		slog.Error("rollback failed", "method", method, "error", rbErr)
		return fmt.Errorf("rollback failed: %v; original error: %w", rbErr, err)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
