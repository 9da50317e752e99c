package settings

type Config struct {
	Server        Server        `mapstructure:"server"`
	Logger        Logger        `mapstructure:"logger"`
	Sink          Sink          `mapstructure:"sink"`
	Scylla        Scylla        `mapstructure:"scylla"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	MongoDB       MongoDB       `mapstructure:"mongodb"`
	Redis         Redis         `mapstructure:"redis"`
	Kafka         Kafka         `mapstructure:"kafka"`
}

// Server is the configuration for the HTTP ingest server
type Server struct {
	Mode string `mapstructure:"mode"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Logger is the configuration for the logger
type Logger struct {
	LogLevel    string `mapstructure:"log_level"`
	FileLogName string `mapstructure:"file_log_name"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAge      int    `mapstructure:"max_age"`
	MaxSize     int    `mapstructure:"max_size"`
	Compress    bool   `mapstructure:"compress"`
}

// Sink configures the batching dispatch core
type Sink struct {
	// Backend selects the store: "scylla", "elastic" or "mongo"
	Backend string `mapstructure:"backend" validate:"required,oneof=scylla elastic mongo"`
	// DestinationPattern is rendered against each record to derive the
	// raw destination name, e.g. "logs-${source}".
	DestinationPattern string `mapstructure:"destination_pattern" validate:"required"`
	// MessagePattern is rendered against each record to derive the stored
	// message body. Empty means the record's message is stored as-is.
	MessagePattern string `mapstructure:"message_pattern"`
	// Queue selects the record buffer: "memory" or "redis"
	Queue string `mapstructure:"queue" validate:"oneof=memory redis"`
	// BatchSize is the maximum number of records a shipping worker drains
	// from the queue per dispatch.
	BatchSize int `mapstructure:"batch_size"`
	// FlushInterval is how long a worker waits before shipping a partial
	// batch. Milliseconds.
	FlushInterval int `mapstructure:"flush_interval"`
}

// Scylla is the configuration for the wide-column store backend
type Scylla struct {
	Hosts    []string `mapstructure:"hosts"`
	Keyspace string   `mapstructure:"keyspace"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Port     int      `mapstructure:"port"`
	Timeout  int      `mapstructure:"timeout"`
	Retries  int      `mapstructure:"retries"`
}

// Elasticsearch is the configuration for the index store backend
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// MongoDB is the configuration for the collection store backend
type MongoDB struct {
	Host            string `mapstructure:"host"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxPoolSize     uint64 `mapstructure:"max_pool_size"`
	MinPoolSize     uint64 `mapstructure:"min_pool_size"`
	MaxConnIdleTime uint64 `mapstructure:"max_conn_idle_time"`
	Port            int    `mapstructure:"port"`
	Timeout         int    `mapstructure:"timeout"`
}

// Redis is the configuration for the Redis-backed record queue
type Redis struct {
	Addr            string `mapstructure:"addr"`
	Password        string `mapstructure:"password"`
	Database        int    `mapstructure:"database"`
	PoolSize        int    `mapstructure:"pool_size"`
	MinIdleConns    int    `mapstructure:"min_idle_conns"`
	DialTimeout     int    `mapstructure:"dial_timeout"`     // Seconds
	ReadTimeout     int    `mapstructure:"read_timeout"`     // Seconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // Seconds
	MaxRetries      int    `mapstructure:"max_retries"`
	MinRetryBackoff int    `mapstructure:"min_retry_backoff"` // Milliseconds
	MaxRetryBackoff int    `mapstructure:"max_retry_backoff"` // Milliseconds
	QueueKey        string `mapstructure:"queue_key"`
}

// Kafka is the configuration for the Kafka ingest source
type Kafka struct {
	Enabled       bool     `mapstructure:"enabled"`
	Brokers       []string `mapstructure:"brokers"`
	Topics        []string `mapstructure:"topics"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	Timeout       int      `mapstructure:"timeout"` // Seconds
}
