package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultChannelBuffer       = 1000
	DefaultReconnectShortDelay = 100 * time.Millisecond
	DefaultReconnectLongDelay  = 5 * time.Second
	DefaultRetryBudget         = 10
	DefaultHealthyDuration     = 30 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultBrokerPort   = 3009
	DefaultBrokerPath   = "/"
	DefaultSendBuffer   = 256
	DefaultPingInterval = 15 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	DefaultSubjectPrefix = "emojicoin"

	DefaultAPIPort     = 9090
	DefaultMetricsPath = "/metrics"

	DefaultBackfillWorkers   = 4
	DefaultBackfillBatchSize = 1000
)

func (c *Config) applyDefaults() {
	if c.Feed.ChannelBuffer == 0 {
		c.Feed.ChannelBuffer = DefaultChannelBuffer
	}
	if c.Feed.ReconnectShortDelay == 0 {
		c.Feed.ReconnectShortDelay = DefaultReconnectShortDelay
	}
	if c.Feed.ReconnectLongDelay == 0 {
		c.Feed.ReconnectLongDelay = DefaultReconnectLongDelay
	}
	if c.Feed.RetryBudget == 0 {
		c.Feed.RetryBudget = DefaultRetryBudget
	}
	if c.Feed.HealthyDuration == 0 {
		c.Feed.HealthyDuration = DefaultHealthyDuration
	}

	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	if c.Broker.Port == 0 {
		c.Broker.Port = DefaultBrokerPort
	}
	if c.Broker.Path == "" {
		c.Broker.Path = DefaultBrokerPath
	}
	if c.Broker.SendBuffer == 0 {
		c.Broker.SendBuffer = DefaultSendBuffer
	}
	if c.Broker.PingInterval == 0 {
		c.Broker.PingInterval = DefaultPingInterval
	}
	if c.Broker.WriteTimeout == 0 {
		c.Broker.WriteTimeout = DefaultWriteTimeout
	}

	if c.Publisher.SubjectPrefix == "" {
		c.Publisher.SubjectPrefix = DefaultSubjectPrefix
	}

	if c.API.Port == 0 {
		c.API.Port = DefaultAPIPort
	}
	if c.API.MetricsPath == "" {
		c.API.MetricsPath = DefaultMetricsPath
	}

	if c.Backfill.Workers == 0 {
		c.Backfill.Workers = DefaultBackfillWorkers
	}
	if c.Backfill.BatchSize == 0 {
		c.Backfill.BatchSize = DefaultBackfillBatchSize
	}
}
