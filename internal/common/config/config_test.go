package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "STORE_BACKEND", "REDIS_ADDR", "KAFKA_BROKERS", "LOCK_WAIT", "AUDIT_INTERVAL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.Backend != StoreMemory {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Redis.Addr != "" || len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("redis and kafka should be disabled by default")
	}
	if cfg.Redis.LockWait != 3*time.Second {
		t.Errorf("LockWait = %s", cfg.Redis.LockWait)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate defaults: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("DB_NAME", "trains")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("LOCK_WAIT", "750ms")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Store.Backend != StorePostgres {
		t.Errorf("Backend = %q", cfg.Store.Backend)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.LockWait != 750*time.Millisecond || cfg.Redis.DB != 2 {
		t.Errorf("redis config = %+v", cfg.Redis)
	}
	want := "host=localhost port=5432 user=postgres password= dbname=trains sslmode=disable"
	if got := cfg.Database.ConnectionString(); got != want {
		t.Errorf("ConnectionString = %q, want %q", got, want)
	}
}

func TestLoadRejectsBadInt(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	if _, err := Load(); err == nil {
		t.Error("expected an error for a non-numeric REDIS_DB")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("REDIS_DB", "")

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Store.Backend = "sqlite" }},
		{"postgres without db name", func(c *Config) { c.Store.Backend = StorePostgres; c.Database.DBName = "" }},
		{"zero lock wait", func(c *Config) { c.Redis.LockWait = 0 }},
		{"zero audit interval", func(c *Config) { c.Audit.Interval = 0 }},
		{"zero rate max", func(c *Config) { c.Booking.RateMax = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
