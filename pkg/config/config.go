package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App             AppConfig
	Server          ServerConfig
	EventsDatabase  DatabaseConfig // Events module database
	TicketsDatabase DatabaseConfig // Tickets module database
	Redis           RedisConfig
	Kafka           KafkaConfig
	Reservation     ReservationConfig
	OTel            OTelConfig
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Debug       bool
	Version     string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL settings for one module database
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds Kafka settings
type KafkaConfig struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string
}

// ReservationConfig holds seat reservation settings
type ReservationConfig struct {
	TTL time.Duration
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled       bool
	ServiceName   string
	CollectorAddr string
	SampleRatio   float64
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")

	// .env is optional, env vars alone are fine
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue; environment variables may still be set
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	cfg := &Config{}
	bindConfig(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("APP_NAME", "ticketbuddy")
	v.SetDefault("APP_ENVIRONMENT", "development")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_VERSION", "1.0.0")

	// Server defaults
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "30s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "30s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	// Events module database
	v.SetDefault("EVENTS_DATABASE_HOST", "localhost")
	v.SetDefault("EVENTS_DATABASE_PORT", 5432)
	v.SetDefault("EVENTS_DATABASE_USER", "postgres")
	v.SetDefault("EVENTS_DATABASE_PASSWORD", "postgres")
	v.SetDefault("EVENTS_DATABASE_DBNAME", "events_db")
	v.SetDefault("EVENTS_DATABASE_SSLMODE", "disable")
	v.SetDefault("EVENTS_DATABASE_MAX_CONNS", 25)
	v.SetDefault("EVENTS_DATABASE_MIN_CONNS", 5)
	v.SetDefault("EVENTS_DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("EVENTS_DATABASE_CONN_MAX_IDLE_TIME", "30m")

	// Tickets module database
	v.SetDefault("TICKETS_DATABASE_HOST", "localhost")
	v.SetDefault("TICKETS_DATABASE_PORT", 5432)
	v.SetDefault("TICKETS_DATABASE_USER", "postgres")
	v.SetDefault("TICKETS_DATABASE_PASSWORD", "postgres")
	v.SetDefault("TICKETS_DATABASE_DBNAME", "tickets_db")
	v.SetDefault("TICKETS_DATABASE_SSLMODE", "disable")
	v.SetDefault("TICKETS_DATABASE_MAX_CONNS", 25)
	v.SetDefault("TICKETS_DATABASE_MIN_CONNS", 5)
	v.SetDefault("TICKETS_DATABASE_CONN_MAX_LIFETIME", "1h")
	v.SetDefault("TICKETS_DATABASE_CONN_MAX_IDLE_TIME", "30m")

	// Redis defaults
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")

	// Kafka defaults
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_CONSUMER_GROUP", "ticketbuddy")
	v.SetDefault("KAFKA_CLIENT_ID", "ticketbuddy")

	// Reservation defaults
	v.SetDefault("RESERVATION_TTL", "15m")

	// OTel defaults
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_SERVICE_NAME", "ticketbuddy")
	v.SetDefault("OTEL_COLLECTOR_ADDR", "localhost:4317")
	v.SetDefault("OTEL_SAMPLE_RATIO", 1.0)
}

func bindConfig(v *viper.Viper, cfg *Config) {
	// App
	cfg.App.Name = v.GetString("APP_NAME")
	cfg.App.Environment = v.GetString("APP_ENVIRONMENT")
	cfg.App.Debug = v.GetBool("APP_DEBUG")
	cfg.App.Version = v.GetString("APP_VERSION")

	// Server
	cfg.Server.Host = v.GetString("SERVER_HOST")
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("SERVER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("SERVER_WRITE_TIMEOUT")
	cfg.Server.IdleTimeout = v.GetDuration("SERVER_IDLE_TIMEOUT")

	// Events module database
	cfg.EventsDatabase.Host = v.GetString("EVENTS_DATABASE_HOST")
	cfg.EventsDatabase.Port = v.GetInt("EVENTS_DATABASE_PORT")
	cfg.EventsDatabase.User = v.GetString("EVENTS_DATABASE_USER")
	cfg.EventsDatabase.Password = v.GetString("EVENTS_DATABASE_PASSWORD")
	cfg.EventsDatabase.DBName = v.GetString("EVENTS_DATABASE_DBNAME")
	cfg.EventsDatabase.SSLMode = v.GetString("EVENTS_DATABASE_SSLMODE")
	cfg.EventsDatabase.MaxConns = v.GetInt("EVENTS_DATABASE_MAX_CONNS")
	cfg.EventsDatabase.MinConns = v.GetInt("EVENTS_DATABASE_MIN_CONNS")
	cfg.EventsDatabase.ConnMaxLifetime = v.GetDuration("EVENTS_DATABASE_CONN_MAX_LIFETIME")
	cfg.EventsDatabase.ConnMaxIdleTime = v.GetDuration("EVENTS_DATABASE_CONN_MAX_IDLE_TIME")

	// Tickets module database
	cfg.TicketsDatabase.Host = v.GetString("TICKETS_DATABASE_HOST")
	cfg.TicketsDatabase.Port = v.GetInt("TICKETS_DATABASE_PORT")
	cfg.TicketsDatabase.User = v.GetString("TICKETS_DATABASE_USER")
	cfg.TicketsDatabase.Password = v.GetString("TICKETS_DATABASE_PASSWORD")
	cfg.TicketsDatabase.DBName = v.GetString("TICKETS_DATABASE_DBNAME")
	cfg.TicketsDatabase.SSLMode = v.GetString("TICKETS_DATABASE_SSLMODE")
	cfg.TicketsDatabase.MaxConns = v.GetInt("TICKETS_DATABASE_MAX_CONNS")
	cfg.TicketsDatabase.MinConns = v.GetInt("TICKETS_DATABASE_MIN_CONNS")
	cfg.TicketsDatabase.ConnMaxLifetime = v.GetDuration("TICKETS_DATABASE_CONN_MAX_LIFETIME")
	cfg.TicketsDatabase.ConnMaxIdleTime = v.GetDuration("TICKETS_DATABASE_CONN_MAX_IDLE_TIME")

	// Redis
	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetInt("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")
	cfg.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	cfg.Redis.MinIdleConns = v.GetInt("REDIS_MIN_IDLE_CONNS")
	cfg.Redis.DialTimeout = v.GetDuration("REDIS_DIAL_TIMEOUT")
	cfg.Redis.ReadTimeout = v.GetDuration("REDIS_READ_TIMEOUT")
	cfg.Redis.WriteTimeout = v.GetDuration("REDIS_WRITE_TIMEOUT")

	// Kafka
	cfg.Kafka.Brokers = strings.Split(v.GetString("KAFKA_BROKERS"), ",")
	cfg.Kafka.ConsumerGroup = v.GetString("KAFKA_CONSUMER_GROUP")
	cfg.Kafka.ClientID = v.GetString("KAFKA_CLIENT_ID")

	// Reservation
	cfg.Reservation.TTL = v.GetDuration("RESERVATION_TTL")

	// OTel
	cfg.OTel.Enabled = v.GetBool("OTEL_ENABLED")
	cfg.OTel.ServiceName = v.GetString("OTEL_SERVICE_NAME")
	cfg.OTel.CollectorAddr = v.GetString("OTEL_COLLECTOR_ADDR")
	cfg.OTel.SampleRatio = v.GetFloat64("OTEL_SAMPLE_RATIO")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.EventsDatabase.DBName == "" {
		return fmt.Errorf("EVENTS_DATABASE_DBNAME is required")
	}

	if c.TicketsDatabase.DBName == "" {
		return fmt.Errorf("TICKETS_DATABASE_DBNAME is required")
	}

	if c.Reservation.TTL <= 0 {
		return fmt.Errorf("reservation TTL must be positive")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}
