package main

import (
	"context"
	"strings"
	"testing"

	"github.com/railseat/internal/common/config"
	"github.com/railseat/internal/common/logger"
	"github.com/railseat/internal/railway/store"
)

func TestRunReturnsConfigError(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Store.Backend = "sqlite"

	err = run(cfg, logger.Nop())
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("run = %v, want a configuration error", err)
	}
}

func TestRunReturnsRedisError(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Store.Backend = config.StoreMemory
	// Nothing listens on port 1.
	cfg.Redis.Addr = "127.0.0.1:1"

	err = run(cfg, logger.Nop())
	if err == nil || !strings.Contains(err.Error(), "connecting to redis") {
		t.Errorf("run = %v, want a redis connection error", err)
	}
}

func TestOpenMemoryStore(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.StoreMemory}}

	st, err := openStore(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer st.Close()

	if _, ok := st.(*store.Memory); !ok {
		t.Errorf("store = %T, want *store.Memory", st)
	}
}
