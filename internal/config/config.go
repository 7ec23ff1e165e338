package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/soundweave/indexer/internal/domain"
)

// BaseConfig holds configuration shared by every binary
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the Postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds the coordination-store settings (locks + reward queues)
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// NATSConfig holds JetStream settings for committed-block notifications
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	StreamName    string        `mapstructure:"stream_name"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// ChainConfig holds per-chain ingestion settings. Endpoints are tried in
// order; each endpoint gets RetryAttempts fixed-delay attempts before the
// client moves to the next one.
type ChainConfig struct {
	Name              domain.Chain  `mapstructure:"name"`
	Endpoints         []string      `mapstructure:"endpoints"`
	RetryAttempts     uint64        `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	StartBlock        uint64        `mapstructure:"start_block"`
	ReorgSafetyMargin uint64        `mapstructure:"reorg_safety_margin"`
	TickInterval      time.Duration `mapstructure:"tick_interval"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	// ProgramAddress is the watched program for the payments chain
	ProgramAddress string `mapstructure:"program_address"`
	// ContractAddress is the registry contract on the EVM chain
	ContractAddress string `mapstructure:"contract_address"`
	// RequestsPerSecond caps RPC calls against this chain across all
	// workers. Zero disables the throttle.
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	Burst             int `mapstructure:"burst"`
}

// RewardsConfig holds reward bus consumer settings
type RewardsConfig struct {
	CatalogPath  string        `mapstructure:"catalog_path"`
	BatchSize    int           `mapstructure:"batch_size"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PoolSize     int           `mapstructure:"pool_size"`
	// ConsumerID distinguishes in-flight processing lists between consumers
	ConsumerID string `mapstructure:"consumer_id"`
}

// ServerConfig holds the operational HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// IndexerConfig holds configuration for the ingestion worker
type IndexerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Redis      RedisConfig    `mapstructure:"redis"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Chains     []ChainConfig  `mapstructure:"chains"`
}

// RewardsWorkerConfig holds configuration for the reward bus consumer
type RewardsWorkerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Rewards    RewardsConfig  `mapstructure:"rewards"`
	Chains     []ChainConfig  `mapstructure:"chains"`
}

// APIConfig holds configuration for the operational HTTP surface
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Server     ServerConfig   `mapstructure:"server"`
}

// LoadIndexerConfig loads configuration for cmd/indexer
func LoadIndexerConfig(configFile string, envPath string) (*IndexerConfig, error) {
	v := configureViper("indexer", configFile, envPath)

	setDatabaseDefaults(v)
	setRedisDefaults(v)
	v.SetDefault("nats.stream_name", "INDEXED_BLOCKS")
	v.SetDefault("nats.subject_prefix", "indexer.blocks")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")

	var config IndexerConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	applyChainDefaults(config.Chains)

	for _, chain := range config.Chains {
		if !domain.IsValidChain(chain.Name) {
			return nil, fmt.Errorf("unknown chain %q in config", chain.Name)
		}
		if len(chain.Endpoints) == 0 {
			return nil, fmt.Errorf("chain %q has no endpoints", chain.Name)
		}
	}
	return &config, nil
}

// LoadRewardsConfig loads configuration for cmd/rewards
func LoadRewardsConfig(configFile string, envPath string) (*RewardsWorkerConfig, error) {
	v := configureViper("rewards", configFile, envPath)

	setDatabaseDefaults(v)
	setRedisDefaults(v)
	v.SetDefault("rewards.batch_size", 500)
	v.SetDefault("rewards.poll_interval", "3s")
	v.SetDefault("rewards.pool_size", 8)
	v.SetDefault("rewards.catalog_path", "config/challenges.json")

	var config RewardsWorkerConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	applyChainDefaults(config.Chains)
	return &config, nil
}

// LoadAPIConfig loads configuration for cmd/api
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	setDatabaseDefaults(v)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")

	var config APIConfig
	if err := readInto(v, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
}

func setRedisDefaults(v *viper.Viper) {
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
}

// applyChainDefaults fills zero-valued per-chain settings. Viper defaults do
// not reach into slice elements, so the fill happens after unmarshal.
func applyChainDefaults(chains []ChainConfig) {
	for i := range chains {
		if chains[i].RetryAttempts == 0 {
			chains[i].RetryAttempts = 3
		}
		if chains[i].RetryDelay == 0 {
			chains[i].RetryDelay = 2 * time.Second
		}
		if chains[i].ReorgSafetyMargin == 0 {
			chains[i].ReorgSafetyMargin = 20
		}
		if chains[i].TickInterval == 0 {
			chains[i].TickInterval = 500 * time.Millisecond
		}
		if chains[i].LockTTL == 0 {
			chains[i].LockTTL = 30 * time.Second
		}
	}
}

func readInto(v *viper.Viper, target any) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// No config file; environment variables alone are acceptable
	}
	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("SW_INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}
	if envPath == "" {
		envPath = "config/"
	}
	for _, envFile := range envFiles {
		// Overload lets later files override earlier ones
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
