package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/honeynil/CoinLedgerService/internal/config"
	"github.com/honeynil/CoinLedgerService/internal/models"
	service "github.com/honeynil/CoinLedgerService/internal/services"
	"gopkg.in/yaml.v3"
)

// ruleSeed mirrors the admin rule form, so coins_awarded may be written as 50 or "50".
type ruleSeed struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	ActionType   string `yaml:"action_type"`
	CoinsAwarded string `yaml:"coins_awarded"`
	IsActive     bool   `yaml:"is_active"`
}

func loadRuleSeeds(path string) ([]models.RuleInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var seeds []ruleSeed
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	inputs := make([]models.RuleInput, 0, len(seeds))
	for _, s := range seeds {
		inputs = append(inputs, models.RuleInput{
			Name:         s.Name,
			Description:  s.Description,
			ActionType:   s.ActionType,
			CoinsAwarded: json.RawMessage(strconv.Quote(s.CoinsAwarded)),
			IsActive:     s.IsActive,
		})
	}
	return inputs, nil
}

func seedRules(ctx context.Context, cfg *config.Config, path string) error {
	inputs, err := loadRuleSeeds(path)
	if err != nil {
		return err
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	// Seeding never evaluates rules, so the engine needs neither a ledger nor redis.
	engine := service.NewRuleEngine(repos.rules, nil, nil)
	created, err := engine.SeedRules(ctx, inputs)
	if err != nil {
		return err
	}
	slog.Info("rules seeded", "file", path, "created", created, "skipped", len(inputs)-created)
	return nil
}
