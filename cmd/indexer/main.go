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
	"github.com/soundweave/indexer/internal/chain"
	"github.com/soundweave/indexer/internal/config"
	"github.com/soundweave/indexer/internal/domain"
	"github.com/soundweave/indexer/internal/ingest"
	"github.com/soundweave/indexer/internal/logger"
	"github.com/soundweave/indexer/internal/messaging"
	"github.com/soundweave/indexer/internal/ratelimit"
	"github.com/soundweave/indexer/internal/rewards"
	"github.com/soundweave/indexer/internal/store"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to optional .env file")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadIndexerConfig(*configPath, *envPath)
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
	logger.Info("starting ingestion worker")

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime); err != nil {
		logger.Fatal("failed to configure connection pool", zap.Error(err))
	}
	dataStore := store.NewPGStore(db)
	logger.Info("connected to database")

	redisClient := adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}

	var publisher messaging.Publisher
	if cfg.NATS.URL != "" {
		publisher, err = messaging.NewPublisher(ctx, messaging.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: "soundweave-indexer",
		}, adapter.NewNatsJetStream(), adapter.NewJSON())
		if err != nil {
			logger.Fatal("failed to connect to NATS", zap.Error(err))
		}
		defer publisher.Close()
	} else {
		logger.Warn("NATS not configured, committed-block notifications disabled")
	}

	bus := rewards.NewBus(redisClient)
	clock := adapter.NewClock()

	var wg sync.WaitGroup
	for _, chainCfg := range cfg.Chains {
		client, err := buildChainClient(ctx, chainCfg)
		if err != nil {
			logger.Fatal("failed to build chain client",
				zap.Error(err), zap.String("chain", string(chainCfg.Name)))
		}

		if chainCfg.RequestsPerSecond > 0 {
			throttle, err := ratelimit.NewThrottle(redisClient.NewRateLimiter(), chainCfg.Name, ratelimit.Limit{
				RequestsPerSecond: chainCfg.RequestsPerSecond,
				Burst:             chainCfg.Burst,
			}, clock)
			if err != nil {
				logger.Fatal("failed to build rate limiter",
					zap.Error(err), zap.String("chain", string(chainCfg.Name)))
			}
			client = ratelimit.Wrap(client, throttle)
		}

		worker := ingest.NewWorker(ingest.WorkerParams{
			Chain:       chainCfg.Name,
			Client:      client,
			Store:       dataStore,
			Lock:        ingest.NewLock(redisClient, chainCfg.Name, chainCfg.LockTTL),
			Dispatcher:  bus,
			Publisher:   publisher,
			Clock:       clock,
			Tick:        chainCfg.TickInterval,
			StartBlock:  chainCfg.StartBlock,
			ReorgMargin: chainCfg.ReorgSafetyMargin,
		})

		wg.Add(1)
		go func(name domain.Chain) {
			defer wg.Done()
			logger.Info("chain worker started", zap.String("chain", string(name)))
			if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error(err, zap.String("chain", string(name)))
			}
		}(chainCfg.Name)
	}

	<-ctx.Done()
	logger.Info("shutting down ingestion worker")
	wg.Wait()
}

// buildChainClient assembles the failover client of one chain from its
// configured endpoints
func buildChainClient(ctx context.Context, chainCfg config.ChainConfig) (chain.Client, error) {
	clients := make([]chain.Client, 0, len(chainCfg.Endpoints))
	switch chainCfg.Name {
	case domain.ChainRegistry:
		dialer := adapter.NewEthClientDialer()
		for _, endpoint := range chainCfg.Endpoints {
			ethClient, err := dialer.Dial(ctx, endpoint)
			if err != nil {
				return nil, fmt.Errorf("dial %s: %w", endpoint, err)
			}
			evmClient, err := chain.NewEVMClient(chainCfg.Name, ethClient, chainCfg.ContractAddress)
			if err != nil {
				return nil, err
			}
			clients = append(clients, evmClient)
		}
	case domain.ChainPayments:
		httpClient := adapter.NewHTTPClient(30 * time.Second)
		for _, endpoint := range chainCfg.Endpoints {
			clients = append(clients, chain.NewSolanaClient(endpoint, chainCfg.ProgramAddress, httpClient))
		}
	case domain.ChainCore:
		httpClient := adapter.NewHTTPClient(30 * time.Second)
		for _, endpoint := range chainCfg.Endpoints {
			clients = append(clients, chain.NewCoreClient(endpoint, httpClient))
		}
	default:
		return nil, fmt.Errorf("unknown chain %q", chainCfg.Name)
	}
	return chain.NewFailover(chainCfg.Name, clients, chainCfg.RetryAttempts, chainCfg.RetryDelay), nil
}
