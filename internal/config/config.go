// Package config loads process configuration for every collector role
// (discovery, the three worker roles, the aggregation loop, and the
// backfill orchestrator) from environment variables, with optional
// YAML overlay for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration shared across the collector processes.
// Not every process reads every section; a worker role ignores Discovery,
// for instance.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Broker     BrokerConfig     `mapstructure:"broker"`
	Credential CredentialConfig `mapstructure:"credential"`
	Discovery  DiscoveryConfig  `mapstructure:"discovery"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Platform   string           `mapstructure:"platform"`
}

// DatabaseConfig describes the Postgres-family relational store (C3).
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// BrokerConfig describes the topic-exchange broker (C4).
type BrokerConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Exchange string `mapstructure:"exchange"`
}

// Credential is one API key paired with its per-minute request budget.
type Credential struct {
	Key             string
	BudgetPerMinute int
}

// CredentialConfig configures the credential pool & pacer (C1).
type CredentialConfig struct {
	Keys             []Credential
	RankedKey        *Credential
	RedisHost        string `mapstructure:"redis_host"`
	RedisPort        string `mapstructure:"redis_port"`
	RedisPassword    string `mapstructure:"redis_password"`
	RedisDB          int    `mapstructure:"redis_db"`
}

// DiscoveryConfig configures the discovery service (C5).
type DiscoveryConfig struct {
	IntervalSeconds int    `mapstructure:"interval_seconds"`
	ChunkSize       int    `mapstructure:"chunk_size"`
	SingleShot      bool   `mapstructure:"single_shot"`
	TournamentKey   string `mapstructure:"tournament_key"`
}

// TelemetryConfig configures where event traces land on disk (C7/C8).
type TelemetryConfig struct {
	Root         string `mapstructure:"root"`
	WorkerPool   int    `mapstructure:"worker_pool"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures the collector registry (serving is out of scope).
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads configuration from environment variables and, optionally,
// a ./config.yaml / ./configs/config.yaml file. Environment variables
// always win over file values, matching the precedence the teacher's
// loader used for its critical settings.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := overrideWithEnv(&cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "pewstats")
	viper.SetDefault("database.name", "pewstats")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.pool_size", 10)

	viper.SetDefault("broker.host", "localhost")
	viper.SetDefault("broker.port", "5672")
	viper.SetDefault("broker.user", "guest")
	viper.SetDefault("broker.password", "guest")
	viper.SetDefault("broker.exchange", "pewstats")

	viper.SetDefault("credential.redis_host", "localhost")
	viper.SetDefault("credential.redis_port", "6379")
	viper.SetDefault("credential.redis_db", 0)

	viper.SetDefault("discovery.interval_seconds", 600)
	viper.SetDefault("discovery.chunk_size", 10)
	viper.SetDefault("discovery.single_shot", false)

	viper.SetDefault("telemetry.root", "/var/lib/pewstats/telemetry")
	viper.SetDefault("telemetry.worker_pool", 0) // 0 = GOMAXPROCS
	viper.SetDefault("telemetry.fetch_timeout", "5m")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "pewstats_collectors")

	viper.SetDefault("platform", "steam")
}

// overrideWithEnv applies the environment variables named in spec §6
// directly, bypassing viper's automatic env binding for the
// comma-separated credential lists which need parallel-array parsing.
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	if v := os.Getenv("BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("BROKER_PORT"); v != "" {
		cfg.Broker.Port = v
	}
	if v := os.Getenv("BROKER_USER"); v != "" {
		cfg.Broker.User = v
	}
	if v := os.Getenv("BROKER_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}

	if v := os.Getenv("PLATFORM"); v != "" {
		cfg.Platform = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TELEMETRY_ROOT"); v != "" {
		cfg.Telemetry.Root = v
	}
	if v := os.Getenv("DISCOVERY_INTERVAL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DISCOVERY_INTERVAL_SECONDS: %w", err)
		}
		cfg.Discovery.IntervalSeconds = seconds
	}

	keys, err := parseAPIKeys(os.Getenv("API_KEYS"), os.Getenv("API_KEY_BUDGETS"))
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		cfg.Credential.Keys = keys
	}

	if rankedKey := os.Getenv("RANKED_API_KEY"); rankedKey != "" {
		budget := 60
		if v := os.Getenv("RANKED_API_KEY_BUDGET"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("RANKED_API_KEY_BUDGET: %w", err)
			}
			budget = parsed
		}
		cfg.Credential.RankedKey = &Credential{Key: rankedKey, BudgetPerMinute: budget}
	}

	return nil
}

// parseAPIKeys parses the parallel comma-separated API_KEYS / budget
// lists described in spec §6. A length mismatch is a configuration
// error, not a silently truncated list.
func parseAPIKeys(keysCSV, budgetsCSV string) ([]Credential, error) {
	if keysCSV == "" {
		return nil, nil
	}

	keys := splitNonEmpty(keysCSV)
	budgetStrs := splitNonEmpty(budgetsCSV)
	if len(budgetStrs) != len(keys) {
		return nil, fmt.Errorf("API_KEYS has %d entries but API_KEY_BUDGETS has %d", len(keys), len(budgetStrs))
	}

	creds := make([]Credential, len(keys))
	for i, key := range keys {
		budget, err := strconv.Atoi(strings.TrimSpace(budgetStrs[i]))
		if err != nil {
			return nil, fmt.Errorf("API_KEY_BUDGETS[%d]: %w", i, err)
		}
		creds[i] = Credential{Key: strings.TrimSpace(key), BudgetPerMinute: budget}
	}
	return creds, nil
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c *Config) validate() error {
	if len(c.Credential.Keys) == 0 {
		return fmt.Errorf("at least one API_KEYS credential is required")
	}
	for _, cred := range c.Credential.Keys {
		if cred.BudgetPerMinute <= 0 {
			return fmt.Errorf("credential %q has non-positive budget %d", cred.Key, cred.BudgetPerMinute)
		}
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	return nil
}

// DSN renders the libpq connection string pgx expects.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode, d.PoolSize,
	)
}

// AMQPURL renders the amqp091-go dial URL.
func (b BrokerConfig) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", b.User, b.Password, b.Host, b.Port)
}

// RedisAddr renders the go-redis address.
func (c CredentialConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
