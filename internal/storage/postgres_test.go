package storage

import (
	"testing"

	"github.com/abduss/taskhub/internal/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "taskhub",
		Password: "secret",
		Database: "taskhub",
		SSLMode:  "disable",
		MaxConns: 7,
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		t.Fatalf("poolConfig returned error: %v", err)
	}
	if poolCfg.MaxConns != 7 {
		t.Fatalf("expected MaxConns 7, got %d", poolCfg.MaxConns)
	}
	if got := poolCfg.ConnConfig.RuntimeParams["application_name"]; got != applicationName {
		t.Fatalf("expected application_name %q, got %q", applicationName, got)
	}
	if poolCfg.ConnConfig.Host != "db" || poolCfg.ConnConfig.Database != "taskhub" {
		t.Fatalf("unexpected connection target %s/%s", poolCfg.ConnConfig.Host, poolCfg.ConnConfig.Database)
	}
}

func TestPoolConfigKeepsDefaultMaxConns(t *testing.T) {
	poolCfg, err := poolConfig(config.PostgresConfig{Host: "db", Port: 5432, User: "u", Database: "d", SSLMode: "disable"})
	if err != nil {
		t.Fatalf("poolConfig returned error: %v", err)
	}
	if poolCfg.MaxConns <= 0 {
		t.Fatalf("expected pgx default MaxConns, got %d", poolCfg.MaxConns)
	}
}
