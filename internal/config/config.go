package config

import "time"

// Config is the root configuration for an indexer instance.
type Config struct {
	Feed      FeedConfig      `yaml:"feed"`
	Database  DBConfig        `yaml:"database"`
	Broker    BrokerConfig    `yaml:"broker"`
	Publisher PublisherConfig `yaml:"publisher"`
	API       APIConfig       `yaml:"api"`
	Backfill  BackfillConfig  `yaml:"backfill"`
}

// FeedConfig holds the transaction stream source and the contract addresses
// whose events are indexed.
type FeedConfig struct {
	URL string `yaml:"url"`

	// ModuleAddress is the account publishing the emojicoin_dot_fun module.
	ModuleAddress string `yaml:"module_address"`
	// ArenaAddress is the account publishing the emojicoin_arena module.
	// Empty disables arena processing.
	ArenaAddress string `yaml:"arena_address"`

	// ChannelBuffer is the bounded batch channel between the stream client
	// and the processor.
	ChannelBuffer int `yaml:"channel_buffer"`

	ReconnectShortDelay time.Duration `yaml:"reconnect_short_delay"`
	ReconnectLongDelay  time.Duration `yaml:"reconnect_long_delay"`
	// RetryBudget is the number of consecutive failed reconnects tolerated
	// before the client gives up; a connection that stays healthy for
	// HealthyDuration resets the budget.
	RetryBudget     int           `yaml:"retry_budget"`
	HealthyDuration time.Duration `yaml:"healthy_duration"`
}

// DBConfig holds the PostgreSQL connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// BrokerConfig holds the WebSocket subscription server settings.
type BrokerConfig struct {
	Port int    `yaml:"port"`
	Path string `yaml:"path"`

	// SendBuffer is the per-connection outbound queue; a full queue drops
	// the message and counts the connection as lagging.
	SendBuffer   int           `yaml:"send_buffer"`
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PublisherConfig holds the optional NATS republisher.
type PublisherConfig struct {
	NATSURL       string `yaml:"nats_url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// APIConfig holds the HTTP health and metrics server.
type APIConfig struct {
	Port        int    `yaml:"port"`
	MetricsPath string `yaml:"metrics_path"`
}

// BackfillConfig holds historical backfill settings.
type BackfillConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}
