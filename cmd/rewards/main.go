package main

import (
	"context"
	"flag"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/soundweave/indexer/internal/adapter"
	"github.com/soundweave/indexer/internal/config"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/logger"
	"github.com/soundweave/indexer/internal/rewards"
	"github.com/soundweave/indexer/internal/store"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to optional .env file")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadRewardsConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("starting rewards worker")

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime); err != nil {
		logger.Fatal("failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)
	logger.Info("connected to database")

	catalog := rewards.NewCatalog(adapter.NewFileSystem(), adapter.NewJSON(), cfg.Rewards.CatalogPath)
	if err := catalog.Reconcile(ctx, dataStore); err != nil {
		logger.Fatal("failed to reconcile challenge catalog",
			zap.Error(err), zap.String("path", cfg.Rewards.CatalogPath))
	}
	logger.Info("challenge catalog reconciled", zap.String("path", cfg.Rewards.CatalogPath))

	redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	clock := adapter.NewClock()
	managers := rewards.DefaultManagers(dataStore)

	var wg sync.WaitGroup
	for _, chainCfg := range cfg.Chains {
		consumer := rewards.NewConsumer(rewards.ConsumerParams{
			Redis:      redisClient,
			Chain:      chainCfg.Name,
			ConsumerID: cfg.Rewards.ConsumerID,
			BatchSize:  cfg.Rewards.BatchSize,
			Poll:       cfg.Rewards.PollInterval,
			PoolSize:   cfg.Rewards.PoolSize,
			Clock:      clock,
		})
		for _, manager := range managers {
			consumer.Register(manager, manager.EventTypes()...)
		}

		wg.Add(1)
		go func(name domain.Chain) {
			defer wg.Done()
			logger.Info("reward consumer started", zap.String("chain", string(name)))
			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error(err, zap.String("chain", string(name)))
			}
		}(chainCfg.Name)
	}

	<-ctx.Done()
	logger.Info("shutting down rewards worker")
	wg.Wait()
}
