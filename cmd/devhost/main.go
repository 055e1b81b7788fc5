// Package main runs the simulated host: a chat console on Telnet whose job
// commands switch the player's gearset and phantom job.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/cory-johannsen/jobswitch/internal/config"
	"github.com/cory-johannsen/jobswitch/internal/frontend/handlers"
	"github.com/cory-johannsen/jobswitch/internal/frontend/telnet"
	"github.com/cory-johannsen/jobswitch/internal/game/command"
	"github.com/cory-johannsen/jobswitch/internal/game/gearset"
	"github.com/cory-johannsen/jobswitch/internal/game/state"
	"github.com/cory-johannsen/jobswitch/internal/observability"
	"github.com/cory-johannsen/jobswitch/internal/server"
	"github.com/cory-johannsen/jobswitch/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting jobswitch dev host",
		zap.String("telnet_addr", cfg.Telnet.Addr()),
		zap.String("gearset_source", cfg.Host.GearsetSource),
		zap.String("cleaner", cfg.Matching.Cleaner),
	)

	ctx := context.Background()
	lifecycle := server.NewLifecycle(logger)

	var repo GearsetLister
	var health observability.HealthFunc
	if cfg.Host.GearsetSource == config.GearsetSourcePostgres {
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Name),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		repo = postgres.NewGearsetRepository(pool.DB())
		health = func(ctx context.Context) error { return pool.Health(ctx, 2*time.Second) }

		healthCheck := &server.TickerService{
			Interval: 30 * time.Second,
			Fn: func() {
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
					return
				}
				acquired, idle := pool.Stats()
				logger.Debug("database pool", zap.Int32("acquired", acquired), zap.Int32("idle", idle))
			},
		}
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: healthCheck.Start,
			StopFn: func() {
				healthCheck.Stop()
				pool.Close()
			},
		})
	}

	jobs, phantoms := loadCatalogs(cfg.Host, logger)

	provider := state.NewProvider(logger)
	provider.SetTerritoryUseID(cfg.Host.TerritoryUseID)
	reloadGearsets := func() error {
		recs, err := loadGearsets(ctx, cfg.Host, repo)
		if err != nil {
			return err
		}
		if err := provider.Load(recs); err != nil {
			return err
		}
		logger.Info("gearsets loaded", zap.Int("count", len(recs)))
		return nil
	}
	if err := reloadGearsets(); err != nil {
		logger.Fatal("loading gearsets", zap.Error(err))
	}

	cleaner, closeCleaner := newCleaner(cfg.Matching, logger)
	defer closeCleaner()

	store, err := config.OpenStore(cfg.Host.SettingsPath, logger)
	if err != nil {
		logger.Fatal("opening settings", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	hub := handlers.NewHub(logger)
	registry := command.NewRegistry(logger)
	dispatcher := command.NewDispatcher(command.Deps{
		Registry:    registry,
		State:       provider,
		Matcher:     gearset.NewMatcher(provider, cleaner, logger),
		ClassJobs:   jobs,
		PhantomJobs: phantoms,
		Notifier:    hub,
		Logger:      logger,
		Metrics:     metrics,
	})

	if err := command.RegisterHelp(registry, hub); err != nil {
		logger.Fatal("registering help", zap.Error(err))
	}
	if err := command.NewSettingsHandler(store, dispatcher, hub, logger).Register(registry); err != nil {
		logger.Fatal("registering settings command", zap.Error(err))
	}
	if err := handlers.NewDevCommands(provider, jobs, phantoms, hub).Register(registry); err != nil {
		logger.Fatal("registering dev commands", zap.Error(err))
	}

	store.Subscribe(dispatcher.RegisterAll)
	dispatcher.RegisterAll(store.Settings())
	defer dispatcher.UnregisterAll()

	lifecycle.OnReload("settings", store.Reload)
	lifecycle.OnReload("gearsets", reloadGearsets)

	if cfg.Host.MetricsAddr != "" {
		lifecycle.Add("metrics", observability.NewMetricsServer(cfg.Host.MetricsAddr, reg, health, logger))
	}

	acceptor := telnet.NewAcceptor(cfg.Telnet, handlers.NewChatHandler(registry, hub, logger), logger)
	lifecycle.Add("telnet", &server.FuncService{
		StartFn: acceptor.ListenAndServe,
		StopFn:  acceptor.Stop,
	})

	logger.Info("dev host initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("registered_commands", len(dispatcher.RegisteredCommands())),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Error("host stopped with error", zap.Error(err))
	}
}
