package settings

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	ErrLoadFailed    = errors.New("failed to load configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoCredential  = errors.New("no resolvable store credential")
)

// Load reads configuration from an optional file, environment variables with
// the TABLESINK prefix, and hard defaults, in that order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(ErrLoadFailed, "%v", err)
		}
	}

	v.SetEnvPrefix("TABLESINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(ErrLoadFailed, "%v", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logger.log_level", "info")

	v.SetDefault("sink.backend", "scylla")
	v.SetDefault("sink.destination_pattern", "logs-${source}")
	v.SetDefault("sink.queue", "memory")
	v.SetDefault("sink.batch_size", 100)
	v.SetDefault("sink.flush_interval", 2000)

	v.SetDefault("scylla.keyspace", "logs")
	v.SetDefault("redis.queue_key", "tablesink:records")
	v.SetDefault("kafka.consumer_group", "tablesink")
}

// validate checks structural constraints and that the selected store backend
// has a resolvable credential. Startup must fail when it does not.
func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "%v", err)
	}

	switch cfg.Sink.Backend {
	case "scylla":
		if len(cfg.Scylla.Hosts) == 0 || cfg.Scylla.Keyspace == "" {
			return errors.Wrap(ErrNoCredential, "scylla hosts and keyspace are required")
		}
	case "elastic":
		if len(cfg.Elasticsearch.Addresses) == 0 {
			return errors.Wrap(ErrNoCredential, "elasticsearch addresses are required")
		}
	case "mongo":
		if cfg.MongoDB.Host == "" || cfg.MongoDB.Database == "" {
			return errors.Wrap(ErrNoCredential, "mongodb host and database are required")
		}
	}

	if cfg.Sink.Queue == "redis" && cfg.Redis.Addr == "" {
		return errors.Wrap(ErrInvalidConfig, "redis queue selected without redis addr")
	}
	if cfg.Kafka.Enabled && len(cfg.Kafka.Brokers) == 0 {
		return errors.Wrap(ErrInvalidConfig, "kafka enabled without brokers")
	}

	return nil
}
