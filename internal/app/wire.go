package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/NJCinnamond/sports-betting-dapp/internal/blob/s3"
	"github.com/NJCinnamond/sports-betting-dapp/internal/cache/redis"
	"github.com/NJCinnamond/sports-betting-dapp/internal/config"
	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
	"github.com/NJCinnamond/sports-betting-dapp/internal/engine"
	"github.com/NJCinnamond/sports-betting-dapp/internal/notify"
	"github.com/NJCinnamond/sports-betting-dapp/internal/oracle"
	"github.com/NJCinnamond/sports-betting-dapp/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	PayoutStore     domain.PayoutStore
	CommissionStore domain.CommissionStore
	CreditStore     domain.CreditStore
	AuditStore      domain.AuditStore

	// Caches
	FixtureCache domain.FixtureCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager
	SignalBus    domain.SignalBus

	// Blob storage (nil unless S3 is enabled)
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   *s3blob.SettlementArchiver

	// Oracle collaborator
	Oracle domain.OracleClient

	// Core
	Engine *engine.Engine

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	// Run migrations if enabled.
	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.PayoutStore = postgres.NewPayoutStore(pool)
	deps.CommissionStore = postgres.NewCommissionStore(pool)
	deps.CreditStore = postgres.NewCreditStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis ---
	redisClient, err := redis.New(ctx, redis.ClientConfig{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		MaxRetries: cfg.Redis.MaxRetries,
		TLSEnabled: cfg.Redis.TLSEnabled,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.FixtureCache = redis.NewFixtureCache(redisClient)
	deps.RateLimiter = redis.NewRateLimiter(redisClient)
	deps.LockManager = redis.NewLockManager(redisClient)
	deps.SignalBus = redis.NewSignalBus(redisClient)

	// --- S3 blob storage (only when enabled) ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewSettlementArchiver(deps.BlobWriter, deps.AuditStore)
	}

	// --- Oracle collaborator ---
	deps.Oracle = oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.ApiKey, cfg.Oracle.CallbackURL)

	// --- Engine ---
	engineDeps := engine.Deps{
		Payouts:     deps.PayoutStore,
		Commissions: deps.CommissionStore,
		Credits:     deps.CreditStore,
		Audit:       deps.AuditStore,
		Bus:         deps.SignalBus,
		Cache:       deps.FixtureCache,
		Oracle:      deps.Oracle,
	}
	if deps.Archiver != nil {
		engineDeps.Reports = deps.Archiver
	}
	deps.Engine = engine.New(engine.Config{
		AdvanceWindow:    cfg.Betting.AdvanceWindow.Duration,
		CutoffWindow:     cfg.Betting.CutoffWindow.Duration,
		EntranceFee:      cfg.Betting.EntranceFee(),
		CommissionRate:   cfg.Betting.CommissionRate,
		HouseAddress:     cfg.Betting.House(),
		OracleRequestFee: cfg.Oracle.RequestFee(),
	}, engineDeps, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
