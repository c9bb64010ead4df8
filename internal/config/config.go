// Package config defines the top-level configuration for the betting escrow
// service and provides validation helpers.
package config

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by SPORTSBET_* environment
// variables.
type Config struct {
	Betting  BettingConfig  `toml:"betting"`
	Oracle   OracleConfig   `toml:"oracle"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BettingConfig holds the escrow parameters.
type BettingConfig struct {
	// AdvanceWindow is how far ahead of kickoff betting may open.
	AdvanceWindow duration `toml:"advance_window"`
	// CutoffWindow is how close to kickoff betting must freeze.
	CutoffWindow duration `toml:"cutoff_window"`
	// EntranceFeeWei is the minimum stake, a decimal wei string.
	EntranceFeeWei string `toml:"entrance_fee_wei"`
	// CommissionRate is the house commission in whole percent.
	CommissionRate int64 `toml:"commission_rate"`
	// HouseAddress receives commission and default payouts.
	HouseAddress string `toml:"house_address"`
	// ReconcileInterval is how often the reconciler sweeps all fixtures.
	ReconcileInterval duration `toml:"reconcile_interval"`
}

// EntranceFee parses EntranceFeeWei; Validate guarantees it parses.
func (b BettingConfig) EntranceFee() *big.Int {
	fee, _ := new(big.Int).SetString(b.EntranceFeeWei, 10)
	return fee
}

// House parses HouseAddress into an Ethereum address.
func (b BettingConfig) House() common.Address {
	return common.HexToAddress(b.HouseAddress)
}

// OracleConfig holds the sports-data oracle collaborator parameters.
type OracleConfig struct {
	BaseURL string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	// CallbackURL is the public base URL of this service, used to build the
	// webhook URLs the oracle delivers to.
	CallbackURL string `toml:"callback_url"`
	// WebhookSecret authenticates inbound oracle deliveries.
	WebhookSecret string `toml:"webhook_secret"`
	// RequestFeeCredits is the credit cost of one outbound request.
	RequestFeeCredits string `toml:"request_fee_credits"`
}

// RequestFee parses RequestFeeCredits; Validate guarantees it parses.
func (o OracleConfig) RequestFee() *big.Int {
	fee, _ := new(big.Int).SetString(o.RequestFeeCredits, 10)
	return fee
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for settlement
// report archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	ApiKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit is the per-client request budget per minute on the staking
	// endpoints; 0 disables limiting.
	RateLimit int `toml:"rate_limit"`
}

// NotifyConfig holds notification channel parameters.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	// Events lists the event types forwarded to the channels.
	Events []string `toml:"events"`
}

// duration wraps time.Duration for TOML decoding.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "90m" or "168h".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration, suitable for local
// development against dockerized Postgres and Redis.
func Defaults() Config {
	return Config{
		Betting: BettingConfig{
			AdvanceWindow:     duration{7 * 24 * time.Hour},
			CutoffWindow:      duration{90 * time.Minute},
			EntranceFeeWei:    "100000000000000", // 0.0001 ether
			CommissionRate:    1,
			ReconcileInterval: duration{15 * time.Second},
		},
		Oracle: OracleConfig{
			RequestFeeCredits: "100000000000000000", // 0.1 credit token
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "sportsbet",
			User:          "sportsbet",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		S3: S3Config{
			Enabled: false,
			Region:  "us-east-1",
			UseSSL:  true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   120,
		},
		Notify: NotifyConfig{
			Events: []string{"payout_recorded", "commission_recorded", "result_resolution_failed"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":  true,
	"worker": true,
	"full":   true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, worker, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Betting
	if c.Betting.AdvanceWindow.Duration <= 0 {
		errs = append(errs, "betting: advance_window must be positive")
	}
	if c.Betting.CutoffWindow.Duration <= 0 {
		errs = append(errs, "betting: cutoff_window must be positive")
	}
	if c.Betting.CutoffWindow.Duration >= c.Betting.AdvanceWindow.Duration {
		errs = append(errs, "betting: cutoff_window must be shorter than advance_window")
	}
	if fee, ok := new(big.Int).SetString(c.Betting.EntranceFeeWei, 10); !ok || fee.Sign() < 0 {
		errs = append(errs, fmt.Sprintf("betting: entrance_fee_wei %q is not a non-negative integer", c.Betting.EntranceFeeWei))
	}
	if c.Betting.CommissionRate < 0 || c.Betting.CommissionRate > 100 {
		errs = append(errs, fmt.Sprintf("betting: commission_rate must be 0-100, got %d", c.Betting.CommissionRate))
	}
	if c.Betting.HouseAddress != "" && !common.IsHexAddress(c.Betting.HouseAddress) {
		errs = append(errs, fmt.Sprintf("betting: house_address %q is not a hex address", c.Betting.HouseAddress))
	}
	if c.Betting.ReconcileInterval.Duration <= 0 {
		errs = append(errs, "betting: reconcile_interval must be positive")
	}

	// Oracle
	if c.Oracle.BaseURL == "" {
		errs = append(errs, "oracle: base_url must not be empty")
	}
	if c.Oracle.CallbackURL == "" {
		errs = append(errs, "oracle: callback_url must not be empty")
	}
	if fee, ok := new(big.Int).SetString(c.Oracle.RequestFeeCredits, 10); !ok || fee.Sign() < 0 {
		errs = append(errs, fmt.Sprintf("oracle: request_fee_credits %q is not a non-negative integer", c.Oracle.RequestFeeCredits))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
