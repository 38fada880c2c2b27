package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/bubbletime/internal/bubbles"
	"github.com/MrSnakeDoc/bubbletime/internal/config"
	"github.com/MrSnakeDoc/bubbletime/internal/facade"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver"
	"github.com/MrSnakeDoc/bubbletime/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bubbletime/internal/links"
	"github.com/MrSnakeDoc/bubbletime/internal/logger"
	"github.com/MrSnakeDoc/bubbletime/internal/scheduler"
	"github.com/MrSnakeDoc/bubbletime/internal/sources/seed"
	"github.com/MrSnakeDoc/bubbletime/internal/store"
	"github.com/MrSnakeDoc/bubbletime/internal/timezone"
	"github.com/MrSnakeDoc/bubbletime/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	repo        store.Repository
	facade      *facade.Facade
	server      *httpserver.Server
	refresher   *scheduler.Refresher
	sweeper     *scheduler.Sweeper
	unsubscribe func()
}

// New loads the configuration, opens the store and wires the domain, the
// schedulers and the HTTP server. Nothing runs until Run.
func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Fail fast when the store is unavailable
	repo, err := openStore(context.Background(), cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	loggerClient.Info("store initialized", logger.String("backend", string(cfg.Store)))

	zones := timezone.NewIANA()
	times := timezone.NewService(zones)
	loggerClient.Debug("zone database loaded", logger.Int("zones", len(zones.Zones())))

	bubbleStore := bubbles.New(repo, times, loggerClient,
		bubbles.WithConcurrency(cfg.RefreshConcurrency))
	linkStore := links.New(repo, bubbleStore, times, loggerClient)
	f := facade.New(bubbleStore, linkStore, times, loggerClient)

	unsubscribe := f.Subscribe(func(e facade.Event) {
		loggerClient.Debug("domain event",
			logger.String("kind", string(e.Kind)),
			logger.String("bubble_id", e.BubbleID),
			logger.String("link_id", e.LinkID))
	})

	refresher := scheduler.NewRefresher(f, loggerClient, cfg.RefreshInterval)
	sweeper := scheduler.NewSweeper(f, loggerClient, cfg.SweepInterval)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Build:        version.Get(),
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		RateBurst:    cfg.RateBurst,
		RatePerMin:   cfg.RatePerMin,
		StoreKind:    cfg.Store,
		Store:        repo,
		Facade:       f,
		Refresher:    refresher,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		repo:        repo,
		facade:      f,
		server:      httpserver.New(cfg, loggerClient, d),
		refresher:   refresher,
		sweeper:     sweeper,
		unsubscribe: unsubscribe,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("🚀 Starting bubbletime", logger.String("addr", a.cfg.ListenPort))
	a.logger.Info(version.Get().String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.importSeed(ctx); err != nil {
		a.unsubscribe()
		a.closeStore()
		return err
	}

	// Refresh once, then keep bubble times current in the background
	a.refresher.Start(ctx)
	a.logger.Info("time refresher started",
		logger.Duration("interval", a.cfg.RefreshInterval))

	a.sweeper.Start(ctx)
	a.logger.Info("orphan link sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.refresher.Stop()
	a.sweeper.Stop()
	a.unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.closeStore()

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ bubbletime stopped cleanly")
	_ = a.logger.Sync()
	return nil
}

func (a *App) importSeed(ctx context.Context) error {
	if a.cfg.SeedFile == "" {
		return nil
	}
	res, err := seed.NewImporter(a.cfg.SeedFile, a.logger).Import(ctx, a.facade)
	if err != nil {
		return fmt.Errorf("failed to import seed file: %w", err)
	}
	if !res.Skipped {
		a.logger.Info("seed file imported",
			logger.String("file", a.cfg.SeedFile),
			logger.Int("bubbles", res.Bubbles),
			logger.Int("links", res.Links))
	}
	return nil
}

func (a *App) closeStore() {
	if err := a.repo.Close(); err != nil {
		a.logger.Warn("failed to close store", logger.Error(err))
		return
	}
	a.logger.Info("✅ Store closed cleanly")
}
