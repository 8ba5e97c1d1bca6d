package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/honeynil/CoinLedgerService/internal/models"
)

type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(ctx context.Context, goal *models.Goal) (err error) {
	ctx, done := instrument(ctx, "CreateGoal")
	defer func() { done(err) }()

	query := `INSERT INTO goals (name, metric, target, period) VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, goal.Name, string(goal.Metric), goal.Target, string(goal.Period)).Scan(&goal.ID, &goal.CreatedAt)
	if err != nil {
		slog.Error("failed to create goal", "method", "Create", "error", err)
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) List(ctx context.Context) (goals []models.Goal, err error) {
	ctx, done := instrument(ctx, "ListGoals")
	defer func() { done(err) }()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, metric, target, period, created_at FROM goals ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals = make([]models.Goal, 0)
	for rows.Next() {
		var g models.Goal
		if err = rows.Scan(&g.ID, &g.Name, &g.Metric, &g.Target, &g.Period, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	return goals, nil
}
