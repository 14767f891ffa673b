package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/Stari-kolomoni/kolomoni-backend/internal/data/repos"
	kolhttp "github.com/Stari-kolomoni/kolomoni-backend/internal/http"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/observability"
	"github.com/Stari-kolomoni/kolomoni-backend/internal/pkg/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      Config
	Repos    repos.Set
	Clients  Clients
	Services Services
	Server   *kolhttp.Server
	Metrics  *observability.Metrics

	closeDB func() error
}

// New connects and migrates the database and wires every component. Nothing runs until
// Run is called.
func New(log *logger.Logger, cfg Config) (*App, error) {
	metrics := observability.Init(log, cfg.MetricsEnabled)

	svc, err := openDatabase(log, cfg)
	if err != nil {
		return nil, err
	}
	if err := svc.AutoMigrateAll(); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := svc.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}

	log.Info("Wiring repos...")
	reposet := repos.NewSet(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, metrics)
	handlerset := wireHandlers(log, theDB, reposet, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := wireServer(log, cfg, metrics, handlerset, middleware)

	return &App{
		Log:      log,
		DB:       theDB,
		Cfg:      cfg,
		Repos:    reposet,
		Clients:  clients,
		Services: serviceset,
		Server:   server,
		Metrics:  metrics,
		closeDB:  svc.Close,
	}, nil
}

// Run serves HTTP and runs the search indexer until ctx is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	shutdownOtel := observability.InitOTel(ctx, a.Log, a.Cfg.Otel)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	a.Metrics.StartDBCollector(gctx, a.Log, a.DB)
	if a.Clients.FeedBus != nil {
		a.Metrics.StartRedisCollector(gctx, a.Log, a.Clients.FeedBus.Client())
	}
	a.Metrics.StartServer(gctx, a.Log, a.Cfg.MetricsAddr)

	g.Go(func() error {
		return a.Services.Indexer.Run(gctx)
	})
	g.Go(func() error {
		return a.Server.Run(gctx, a.Cfg.HTTPAddr)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.Log.Warn("close database failed", "error", err)
		}
		a.closeDB = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
