package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/honeynil/CoinLedgerService/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRuleSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- name: Daily login
  action_type: login
  coins_awarded: 10
  is_active: true
- name: Premium upgrade
  description: one-off bonus
  action_type: premium_upgrade
  coins_awarded: "250"
  is_active: true
`), 0o600))

	inputs, err := loadRuleSeeds(path)
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	for i, want := range []int64{10, 250} {
		coins, err := models.ParseCoins(inputs[i].CoinsAwarded)
		require.NoError(t, err)
		assert.Equal(t, want, coins)
	}
	assert.Equal(t, "one-off bonus", inputs[1].Description)

	t.Run("Missing", func(t *testing.T) {
		_, err := loadRuleSeeds(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("Malformed", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("name: [unclosed"), 0o600))
		_, err := loadRuleSeeds(bad)
		assert.Error(t, err)
	})
}
