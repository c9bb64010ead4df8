package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns Defaults with the fields that have no sensible default
// filled in.
func validConfig() Config {
	cfg := Defaults()
	cfg.Betting.HouseAddress = "0x2222222222222222222222222222222222222222"
	cfg.Oracle.BaseURL = "https://oracle.example.com"
	cfg.Oracle.CallbackURL = "https://bets.example.com"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "sideways"
	cfg.Betting.CutoffWindow = duration{10 * 24 * time.Hour} // longer than advance
	cfg.Betting.EntranceFeeWei = "lots"
	cfg.Betting.CommissionRate = 150
	cfg.Oracle.BaseURL = ""
	cfg.Redis.Addr = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown mode "sideways"`)
	assert.Contains(t, err.Error(), "cutoff_window must be shorter")
	assert.Contains(t, err.Error(), "entrance_fee_wei")
	assert.Contains(t, err.Error(), "commission_rate must be 0-100")
	assert.Contains(t, err.Error(), "oracle: base_url")
	assert.Contains(t, err.Error(), "redis: addr")
}

func TestValidate_BadHouseAddress(t *testing.T) {
	cfg := validConfig()
	cfg.Betting.HouseAddress = "not-an-address"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "house_address")
}

func TestLoad_TOMLAndDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "worker"
log_level = "debug"

[betting]
advance_window = "96h"
cutoff_window = "45m"
entrance_fee_wei = "250000000000000"
commission_rate = 2
house_address = "0x3333333333333333333333333333333333333333"

[oracle]
base_url = "https://oracle.example.com"
callback_url = "https://bets.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "worker", cfg.Mode)
	assert.Equal(t, 96*time.Hour, cfg.Betting.AdvanceWindow.Duration)
	assert.Equal(t, 45*time.Minute, cfg.Betting.CutoffWindow.Duration)
	assert.Equal(t, big.NewInt(250_000_000_000_000), cfg.Betting.EntranceFee())
	assert.Equal(t, int64(2), cfg.Betting.CommissionRate)

	// Fields not present keep their defaults.
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[oracle]
base_url = "https://oracle.example.com"
callback_url = "https://bets.example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("SPORTSBET_POSTGRES_PASSWORD", "hunter2")
	t.Setenv("SPORTSBET_SERVER_PORT", "9001")
	t.Setenv("SPORTSBET_BETTING_CUTOFF_WINDOW", "30m")
	t.Setenv("SPORTSBET_SERVER_CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("SPORTSBET_POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Postgres.Password)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Betting.CutoffWindow.Duration)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Oracle.ApiKey = "top-secret"
	cfg.Postgres.Password = "hunter2"
	cfg.Server.ApiKey = "api-secret"

	red := RedactedConfig(&cfg)

	assert.NotContains(t, red.Oracle.ApiKey, "top-secret")
	assert.NotContains(t, red.Postgres.Password, "hunter2")
	assert.NotContains(t, red.Server.ApiKey, "api-secret")

	// The original config is untouched.
	assert.Equal(t, "top-secret", cfg.Oracle.ApiKey)
}
