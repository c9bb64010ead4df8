package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies SPORTSBET_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known SPORTSBET_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Betting ──
	setDuration(&cfg.Betting.AdvanceWindow, "SPORTSBET_BETTING_ADVANCE_WINDOW")
	setDuration(&cfg.Betting.CutoffWindow, "SPORTSBET_BETTING_CUTOFF_WINDOW")
	setStr(&cfg.Betting.EntranceFeeWei, "SPORTSBET_BETTING_ENTRANCE_FEE_WEI")
	setInt64(&cfg.Betting.CommissionRate, "SPORTSBET_BETTING_COMMISSION_RATE")
	setStr(&cfg.Betting.HouseAddress, "SPORTSBET_BETTING_HOUSE_ADDRESS")
	setDuration(&cfg.Betting.ReconcileInterval, "SPORTSBET_BETTING_RECONCILE_INTERVAL")

	// ── Oracle ──
	setStr(&cfg.Oracle.BaseURL, "SPORTSBET_ORACLE_BASE_URL")
	setStr(&cfg.Oracle.ApiKey, "SPORTSBET_ORACLE_API_KEY")
	setStr(&cfg.Oracle.CallbackURL, "SPORTSBET_ORACLE_CALLBACK_URL")
	setStr(&cfg.Oracle.WebhookSecret, "SPORTSBET_ORACLE_WEBHOOK_SECRET")
	setStr(&cfg.Oracle.RequestFeeCredits, "SPORTSBET_ORACLE_REQUEST_FEE_CREDITS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "SPORTSBET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SPORTSBET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SPORTSBET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SPORTSBET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SPORTSBET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SPORTSBET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SPORTSBET_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SPORTSBET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SPORTSBET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SPORTSBET_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "SPORTSBET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SPORTSBET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SPORTSBET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SPORTSBET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SPORTSBET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SPORTSBET_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "SPORTSBET_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "SPORTSBET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SPORTSBET_S3_REGION")
	setStr(&cfg.S3.Bucket, "SPORTSBET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SPORTSBET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SPORTSBET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SPORTSBET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SPORTSBET_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "SPORTSBET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SPORTSBET_SERVER_PORT")
	setStr(&cfg.Server.ApiKey, "SPORTSBET_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "SPORTSBET_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "SPORTSBET_SERVER_RATE_LIMIT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "SPORTSBET_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "SPORTSBET_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "SPORTSBET_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "SPORTSBET_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "SPORTSBET_MODE")
	setStr(&cfg.LogLevel, "SPORTSBET_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
