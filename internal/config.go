package internal

import (
	"fmt"
	"time"
)

type Config struct {
	HTTPPort                int           `env:"HTTP_PORT,default=8080"`
	GRPCPort                int           `env:"GRPC_PORT,default=9090"`
	LogLevel                string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize              int           `env:"BUFFER_SIZE,required=true"`
	ConnectionBufferSize    int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	DeliveryTimeout         time.Duration `env:"DELIVERY_TIMEOUT,default=2s"`
	DefaultTimeLimitMinutes int           `env:"DEFAULT_TIME_LIMIT_MINUTES,default=30"`
	MirrorInterval          time.Duration `env:"MIRROR_INTERVAL,default=5s"`
	MetricInterval          time.Duration `env:"METRIC_INTERVAL,default=15s"`
	BadgerFilepath          string        `env:"BADGER_FILEPATH,required=true"`
	DebugPort               int           `env:"DEBUG_PORT,default=8081"`
	RateLimitPerIP          float64       `env:"RATE_LIMIT_PER_IP,default=5"`
	CollaboratorSecret      string        `env:"COLLABORATOR_SECRET,required=true"`
	MaxMessageSize          int64         `env:"MAX_MESSAGE_SIZE,default=4096"`
	RestartInterval         time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	ShardCount              int           `env:"SHARD_COUNT,default=64"`
	QueueWarnPercent        int           `env:"QUEUE_WARN_PERCENT,default=80"`
	FanoutLanes             int           `env:"FANOUT_LANES,default=16"`
}

// Validate rejects values go-env accepts but the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.BufferSize <= 0:
		return fmt.Errorf("BUFFER_SIZE must be positive, got %d", c.BufferSize)
	case c.ConnectionBufferSize <= 0:
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	case c.DefaultTimeLimitMinutes <= 0:
		return fmt.Errorf("DEFAULT_TIME_LIMIT_MINUTES must be positive, got %d", c.DefaultTimeLimitMinutes)
	case c.DeliveryTimeout <= 0 || c.MirrorInterval <= 0 || c.MetricInterval <= 0:
		return fmt.Errorf("DELIVERY_TIMEOUT, MIRROR_INTERVAL and METRIC_INTERVAL must be positive")
	case len(c.CollaboratorSecret) < 32:
		return fmt.Errorf("COLLABORATOR_SECRET must be at least 32 bytes")
	case c.FanoutLanes <= 0:
		return fmt.Errorf("FANOUT_LANES must be positive, got %d", c.FanoutLanes)
	case c.RateLimitPerIP <= 0:
		return fmt.Errorf("RATE_LIMIT_PER_IP must be positive, got %v", c.RateLimitPerIP)
	}
	return nil
}
