package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping failed: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                BIGSERIAL PRIMARY KEY,
	email             TEXT NOT NULL UNIQUE,
	full_name         TEXT NOT NULL,
	phone             TEXT NOT NULL DEFAULT '',
	monthly_income    NUMERIC(14, 2) NOT NULL DEFAULT 0,
	is_premium_member BOOLEAN NOT NULL DEFAULT FALSE,
	is_admin          BOOLEAN NOT NULL DEFAULT FALSE,
	password_hash     TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS coin_rules (
	id            BIGSERIAL PRIMARY KEY,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	action_type   TEXT NOT NULL,
	coins_awarded BIGINT NOT NULL CHECK (coins_awarded <> 0),
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS coin_rules_active_action_type ON coin_rules (action_type) WHERE is_active;

CREATE TABLE IF NOT EXISTS coin_transactions (
	id               BIGSERIAL PRIMARY KEY,
	user_id          BIGINT NOT NULL REFERENCES users (id) ON DELETE RESTRICT,
	amount           BIGINT NOT NULL CHECK (amount <> 0),
	transaction_type TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	action_type      TEXT,
	rule_id          BIGINT REFERENCES coin_rules (id) ON DELETE SET NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS coin_transactions_user_created ON coin_transactions (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS coin_transactions_created ON coin_transactions (created_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id           BIGSERIAL PRIMARY KEY,
	key          TEXT NOT NULL UNIQUE,
	type         TEXT NOT NULL,
	title        TEXT NOT NULL,
	message      TEXT NOT NULL,
	severity     TEXT NOT NULL DEFAULT '',
	dismissed_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT REFERENCES users (id) ON DELETE CASCADE,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	type       TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS goals (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	metric     TEXT NOT NULL,
	target     BIGINT NOT NULL CHECK (target > 0),
	period     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Migrate creates the schema if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	slog.Info("schema migrated")
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
