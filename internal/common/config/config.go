package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Booking   BookingConfig
	Audit     AuditConfig
	Timetable TimetableConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Addr string
}

// StoreConfig selects where trains, passengers and tickets live
type StoreConfig struct {
	Backend string // "memory" or "postgres"
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig enables the distributed train lock and the booking rate limiter.
// An empty Addr keeps both in-process.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	LockTTL       time.Duration // how long a crashed holder can block a train
	LockWait      time.Duration // how long a booking waits for the train lock
	RetryInterval time.Duration // pause between lock attempts
}

// KafkaConfig enables TicketBooked events. No brokers disables publishing.
type KafkaConfig struct {
	Brokers     []string
	TicketTopic string
}

type BookingConfig struct {
	RateWindow     time.Duration
	RateMax        int
	RouteCacheSize int
}

type AuditConfig struct {
	Interval time.Duration
}

// TimetableConfig points at an optional CSV of trains imported at startup
type TimetableConfig struct {
	File string
}

type LoggingConfig struct {
	Level      string
	FilePath   string
	DiscordURL string
}

func Load() (*Config, error) {
	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	rateMax, err := getIntEnv("BOOKING_RATE_MAX", 30)
	if err != nil {
		return nil, err
	}
	cacheSize, err := getIntEnv("ROUTE_CACHE_SIZE", 1024)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":8080"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "railseat"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:          getEnv("REDIS_ADDR", ""),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            redisDB,
			LockTTL:       getDurationEnv("LOCK_TTL", 10*time.Second),
			LockWait:      getDurationEnv("LOCK_WAIT", 3*time.Second),
			RetryInterval: getDurationEnv("LOCK_RETRY_INTERVAL", 25*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:     getListEnv("KAFKA_BROKERS"),
			TicketTopic: getEnv("KAFKA_TICKET_TOPIC", "ticket-booked"),
		},
		Booking: BookingConfig{
			RateWindow:     getDurationEnv("BOOKING_RATE_WINDOW", time.Minute),
			RateMax:        rateMax,
			RouteCacheSize: cacheSize,
		},
		Audit: AuditConfig{
			Interval: getDurationEnv("AUDIT_INTERVAL", 5*time.Minute),
		},
		Timetable: TimetableConfig{
			File: getEnv("TIMETABLE_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			FilePath:   getEnv("LOG_FILE", "railseat.log"),
			DiscordURL: getEnv("LOG_DISCORD_WEBHOOK", ""),
		},
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StorePostgres:
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Redis.LockTTL <= 0 || c.Redis.LockWait <= 0 || c.Redis.RetryInterval <= 0 {
		return fmt.Errorf("lock durations must be positive")
	}
	if c.Audit.Interval <= 0 {
		return fmt.Errorf("audit interval must be positive")
	}
	if c.Booking.RateWindow < time.Second || c.Booking.RateMax <= 0 {
		return fmt.Errorf("booking rate limit needs a window of at least 1s and a positive maximum")
	}
	if c.Kafka.TicketTopic == "" && len(c.Kafka.Brokers) > 0 {
		return fmt.Errorf("kafka ticket topic cannot be empty")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
