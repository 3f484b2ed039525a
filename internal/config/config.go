// Package config provides configuration structures and validation for the application.
// It handles environment-based configuration for the API gateway and the report processor,
// covering databases, message queues, external collaborators and background jobs.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete application configuration with settings for all components.
// Each field represents a major subsystem's configuration and is validated during startup.
type Config struct {
	Application  ApplicationConfig
	Logging      LoggingConfig
	Server       ServerConfig
	Kafka        KafkaConfig
	Postgres     PostgresConfig
	MongoDB      MongoDBConfig
	Redis        RedisConfig
	Outbox       OutboxConfig
	WorkerPool   WorkerPoolConfig
	Generation   GenerationConfig
	Notification NotificationConfig
	Watchdog     WatchdogConfig
	Credits      CreditsConfig
}

// ApplicationConfig contains general application configuration
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port            int           // Port to listen on
	ShutdownTimeout time.Duration // Grace period for server shutdown
	ReadTimeout     time.Duration // Maximum duration for reading entire request
	WriteTimeout    time.Duration // Maximum duration for writing response
	IdleTimeout     time.Duration // Maximum duration to wait for next request
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Brokers                   string
	GenerationTopic           string // Report generation requests
	NotificationTopic         string // Terminal report outcomes
	NumPartitions             int
	ReplicationFactor         int
	ConsumerGroup             string
	NotificationConsumerGroup string
	MinBytes                  int
	MaxBytes                  int
	MaxWait                   time.Duration
	DLQTopic                  string
}

// PostgresConfig contains PostgreSQL configuration
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig contains MongoDB configuration
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig contains the reservation lock store configuration.
// An empty Addr disables the distributed lock.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	LockTTL       time.Duration
	RetryInterval time.Duration
	MaxRetries    int
}

// OutboxConfig contains outbox pattern configuration
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig contains worker pool configuration
type WorkerPoolConfig struct {
	Size int
}

// GenerationConfig configures the report generation collaborator
type GenerationConfig struct {
	LLMBaseURL      string
	LLMAPIKey       string
	LLMModel        string
	RequestTimeout  time.Duration
	ArtifactDir     string
	ArtifactBaseURL string
}

// NotificationConfig configures the email notifier
type NotificationConfig struct {
	Enabled     bool
	EmailAPIURL string
	EmailAPIKey string
	FromAddress string
	AppBaseURL  string
	Timeout     time.Duration
}

// WatchdogConfig configures the stuck report watchdog
type WatchdogConfig struct {
	Interval          time.Duration
	ProcessingTimeout time.Duration
	BatchSize         int
}

// CreditsConfig holds promotional grant settings
type CreditsConfig struct {
	WelcomeBonus        int64
	FreeCreditGrant     int64
	FreeCreditMaxClaims int
}

// validate performs validation of all configuration values,
// ensuring they meet minimum requirements and logical constraints
func (c *Config) validate() error {
	var validationErrors []string

	// Validate Server config
	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Server.ReadTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_READ_TIMEOUT must be greater than 0")
	}
	if c.Server.WriteTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_WRITE_TIMEOUT must be greater than 0")
	}
	if c.Server.IdleTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_IDLE_TIMEOUT must be greater than 0")
	}

	// Validate Kafka config
	if len(c.Kafka.Brokers) == 0 {
		validationErrors = append(validationErrors, "KAFKA_BROKERS is required")
	}
	if c.Kafka.GenerationTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_GENERATION_TOPIC is required")
	}
	if c.Kafka.NotificationTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_NOTIFICATION_TOPIC is required")
	}
	if c.Kafka.ConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_GROUP is required")
	}
	if c.Kafka.NotificationConsumerGroup == "" {
		validationErrors = append(validationErrors, "KAFKA_NOTIFICATION_CONSUMER_GROUP is required")
	}
	if c.Kafka.MinBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	}
	if c.Kafka.MaxBytes <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_BYTES must be greater than 0")
	}
	if c.Kafka.MaxWait <= 0 {
		validationErrors = append(validationErrors, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	}
	if c.Kafka.DLQTopic == "" {
		validationErrors = append(validationErrors, "KAFKA_DLQ_TOPIC is required")
	}

	// Validate PostgreSQL config
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Postgres.MaxConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONNS must be greater than 0")
	}
	if c.Postgres.MinConns <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MIN_CONNS must be greater than 0")
	}
	if c.Postgres.ConnMaxLifetime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	}
	if c.Postgres.ConnMaxIdleTime <= 0 {
		validationErrors = append(validationErrors, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate MongoDB config
	if c.MongoDB.URI == "" {
		validationErrors = append(validationErrors, "MONGO_URI is required")
	}
	if c.MongoDB.Database == "" {
		validationErrors = append(validationErrors, "MONGO_DATABASE is required")
	}
	if c.MongoDB.Timeout <= 0 {
		validationErrors = append(validationErrors, "MONGO_TIMEOUT must be greater than 0")
	}
	if c.MongoDB.MaxPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MinPoolSize <= 0 {
		validationErrors = append(validationErrors, "MONGO_MIN_POOL_SIZE must be greater than 0")
	}
	if c.MongoDB.MaxConnIdleTime <= 0 {
		validationErrors = append(validationErrors, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")
	}

	// Validate Redis config, only when the lock is enabled
	if c.Redis.Addr != "" {
		if c.Redis.LockTTL <= 0 {
			validationErrors = append(validationErrors, "REDIS_LOCK_TTL must be greater than 0")
		}
		if c.Redis.RetryInterval <= 0 {
			validationErrors = append(validationErrors, "REDIS_LOCK_RETRY_INTERVAL must be greater than 0")
		}
		if c.Redis.MaxRetries <= 0 {
			validationErrors = append(validationErrors, "REDIS_LOCK_MAX_RETRIES must be greater than 0")
		}
	}

	// Validate Outbox config
	if c.Outbox.PollingInterval <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	}
	if c.Outbox.BatchSize <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_BATCH_SIZE must be greater than 0")
	}
	if c.Outbox.MaxRetryAttempts <= 0 {
		validationErrors = append(validationErrors, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")
	}

	// Validate WorkerPool config
	if c.WorkerPool.Size <= 0 {
		validationErrors = append(validationErrors, "WORKER_POOL_SIZE must be greater than 0")
	}

	// Validate Generation config
	if c.Generation.LLMBaseURL == "" {
		validationErrors = append(validationErrors, "LLM_BASE_URL is required")
	}
	if c.Generation.LLMModel == "" {
		validationErrors = append(validationErrors, "LLM_MODEL is required")
	}
	if c.Generation.RequestTimeout <= 0 {
		validationErrors = append(validationErrors, "LLM_REQUEST_TIMEOUT must be greater than 0")
	}
	if c.Generation.ArtifactDir == "" {
		validationErrors = append(validationErrors, "ARTIFACT_DIR is required")
	}

	// Validate Notification config
	if c.Notification.Enabled {
		if c.Notification.EmailAPIURL == "" {
			validationErrors = append(validationErrors, "EMAIL_API_URL is required when notifications are enabled")
		}
		if c.Notification.FromAddress == "" {
			validationErrors = append(validationErrors, "EMAIL_FROM_ADDRESS is required when notifications are enabled")
		}
	}
	if c.Notification.Timeout <= 0 {
		validationErrors = append(validationErrors, "EMAIL_TIMEOUT must be greater than 0")
	}

	// Validate Watchdog config
	if c.Watchdog.Interval <= 0 {
		validationErrors = append(validationErrors, "WATCHDOG_INTERVAL must be greater than 0")
	}
	if c.Watchdog.ProcessingTimeout <= 0 {
		validationErrors = append(validationErrors, "REPORT_PROCESSING_TIMEOUT must be greater than 0")
	}
	if c.Watchdog.BatchSize <= 0 {
		validationErrors = append(validationErrors, "WATCHDOG_BATCH_SIZE must be greater than 0")
	}

	// Validate Credits config
	if c.Credits.WelcomeBonus < 0 {
		validationErrors = append(validationErrors, "CREDITS_WELCOME_BONUS cannot be negative")
	}
	if c.Credits.FreeCreditGrant <= 0 {
		validationErrors = append(validationErrors, "CREDITS_FREE_GRANT must be greater than 0")
	}
	if c.Credits.FreeCreditMaxClaims < 0 {
		validationErrors = append(validationErrors, "CREDITS_FREE_MAX_CLAIMS cannot be negative")
	}

	if len(validationErrors) > 0 {
		return errors.New(strings.Join(validationErrors, ", "))
	}

	return nil
}
