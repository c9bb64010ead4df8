package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/NJCinnamond/sports-betting-dapp/internal/engine"
	"github.com/NJCinnamond/sports-betting-dapp/internal/notify"
	"github.com/NJCinnamond/sports-betting-dapp/internal/server"
	"github.com/NJCinnamond/sports-betting-dapp/internal/server/handler"
	"github.com/NJCinnamond/sports-betting-dapp/internal/server/ws"
)

// ServeMode runs the HTTP + WebSocket API and the notification watcher
// without the background reconciler. Intended for deployments where a
// separate worker instance drives fixture lifecycles.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)
	a.startNotifyWatcher(ctx, g, deps)

	return g.Wait()
}

// WorkerMode runs only the background reconciler: fixture lifecycles advance
// and settle, but no API is served. With a shared Redis, multiple workers
// elect a leader per sweep.
func (a *App) WorkerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting worker mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startReconciler(ctx, g, deps)
	a.startNotifyWatcher(ctx, g, deps)

	return g.Wait()
}

// FullMode runs every subsystem in one process: the API server, the
// reconciler, and the notification watcher.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps)
	}
	a.startReconciler(ctx, g, deps)
	a.startNotifyWatcher(ctx, g, deps)

	return g.Wait()
}

// startReconciler adds the periodic lifecycle reconciler to the errgroup.
func (a *App) startReconciler(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	rec := engine.NewReconciler(
		deps.Engine,
		deps.LockManager,
		a.cfg.Betting.ReconcileInterval.Duration,
		a.logger,
	)
	g.Go(func() error {
		return rec.Run(ctx)
	})
}

// startNotifyWatcher adds the event-to-notification bridge to the errgroup.
// Skipped when no notification channel is configured.
func (a *App) startNotifyWatcher(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if a.cfg.Notify.TelegramToken == "" && a.cfg.Notify.DiscordWebhookURL == "" {
		return
	}
	watcher := notify.NewWatcher(deps.SignalBus, deps.Notifier, a.logger)
	g.Go(func() error {
		return watcher.Run(ctx)
	})
}

// startHTTPServer adds the HTTP + WebSocket server goroutines to the given
// errgroup. The server is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Fixtures: handler.NewFixtureHandler(deps.Engine, a.logger),
		Stakes:   handler.NewStakeHandler(deps.Engine, a.logger),
		Oracle:   handler.NewOracleHandler(deps.Engine, a.cfg.Oracle.WebhookSecret, a.logger),
		Credits:  handler.NewCreditHandler(deps.Engine, a.logger),
		Audit:    handler.NewAuditHandler(deps.AuditStore, a.logger),
	}
	if deps.BlobReader != nil {
		handlers.Reports = handler.NewReportHandler(deps.BlobReader, a.logger)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.ApiKey,
		RateLimit:   a.cfg.Server.RateLimit,
		Limiter:     deps.RateLimiter,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			a.logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})
}
