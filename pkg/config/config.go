// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Postgres, Redis, Kafka, Snapshot, Search, Admin).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingCredentials is returned when the backing store credentials are
// absent. Search cannot run without them, so startup fails immediately
// instead of retrying.
var ErrMissingCredentials = errors.New("missing backing store credentials")

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Search   SearchConfig   `yaml:"search"`
	Admin    AdminConfig    `yaml:"admin"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// PostgresConfig holds connection parameters for the backing inventory store.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Validate checks that the credentials required to reach the store are set.
func (p PostgresConfig) Validate() error {
	if p.User == "" || p.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}

// RedisConfig holds Redis connection and response-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker settings for the search-event log pipeline.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents string `yaml:"searchEvents"`
}

// SnapshotConfig controls the daily inventory snapshot: the cutover hour
// after which the day's bulk load is authoritative, the pagination and retry
// discipline of the load, and how many dated snapshots stay resident.
type SnapshotConfig struct {
	CutoverHour int           `yaml:"cutoverHour"`
	BatchSize   int           `yaml:"batchSize"`
	LoadRetries int           `yaml:"loadRetries"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
	BatchPause  time.Duration `yaml:"batchPause"`
	Retention   int           `yaml:"retention"`
}

// SearchConfig controls query handling.
type SearchConfig struct {
	MinQueryLength int  `yaml:"minQueryLength"`
	MinFuzzyLength int  `yaml:"minFuzzyLength"`
	FuzzyLimit     int  `yaml:"fuzzyLimit"`
	Stemming       bool `yaml:"stemming"`
	MinStemRoot    int  `yaml:"minStemRoot"`
	ServerSide     bool `yaml:"serverSide"`
}

// AdminConfig holds the shared secret guarding the analytics endpoint.
type AdminConfig struct {
	Secret string `yaml:"secret"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "ara",
			User:            "ara",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "ara-group",
			Topics: KafkaTopics{
				SearchEvents: "search-events",
			},
		},
		Snapshot: SnapshotConfig{
			CutoverHour: 11,
			BatchSize:   20000,
			LoadRetries: 3,
			RetryDelay:  2 * time.Second,
			BatchPause:  200 * time.Millisecond,
			Retention:   2,
		},
		Search: SearchConfig{
			MinQueryLength: 2,
			MinFuzzyLength: 3,
			FuzzyLimit:     200,
			Stemming:       true,
			MinStemRoot:    3,
			ServerSide:     false,
		},
		Admin: AdminConfig{
			Secret: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads ARA_* environment variables and overrides the
// corresponding config fields. Credentials are expected to arrive this way
// in production; the YAML file never carries them.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ARA_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("ARA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("ARA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("ARA_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("ARA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("ARA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("ARA_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("ARA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("ARA_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ARA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("ARA_SNAPSHOT_CUTOVER_HOUR"); v != "" {
		if hour, err := strconv.Atoi(v); err == nil {
			cfg.Snapshot.CutoverHour = hour
		}
	}
	if v := os.Getenv("ARA_SNAPSHOT_BATCH_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.Snapshot.BatchSize = size
		}
	}
	if v := os.Getenv("ARA_SEARCH_SERVER_SIDE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.ServerSide = b
		}
	}
	if v := os.Getenv("ARA_ADMIN_SECRET"); v != "" {
		cfg.Admin.Secret = v
	}
	if v := os.Getenv("ARA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("ARA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
