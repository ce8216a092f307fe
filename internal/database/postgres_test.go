package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/BusselW/DDH3/internal/config"
	"github.com/BusselW/DDH3/internal/logger"
)

// Integration tests need a reachable PostgreSQL; they run only when
// DDH_INTEGRATION_DB is set.
func requireIntegrationDB(t *testing.T) {
	t.Helper()
	if testing.Short() || os.Getenv("DDH_INTEGRATION_DB") == "" {
		t.Skip("Skipping integration test: DDH_INTEGRATION_DB not set")
	}
}

func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "ddh"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		SSLMode:  "disable",
		PoolMin:  1,
		PoolMax:  4,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func TestPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@h:5432/db?sslmode=disable", "pgx5://u:p@h:5432/db?sslmode=disable"},
		{"postgresql://u:p@h/db", "pgx5://u:p@h/db"},
		{"pgx5://u:p@h/db", "pgx5://u:p@h/db"},
		{"host=h user=u", "host=h user=u"},
	}

	for _, tt := range tests {
		if got := pgx5DSN(tt.in); got != tt.want {
			t.Errorf("pgx5DSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMigrationFiles_Embedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		t.Fatalf("Failed to read embedded migrations: %v", err)
	}
	if len(entries)%2 != 0 {
		t.Errorf("Expected matching up/down pairs, got %d files", len(entries))
	}
	if len(entries) < 2 {
		t.Errorf("Expected at least one migration pair, got %d files", len(entries))
	}
}

func TestNewPostgresPool_InvalidHost(t *testing.T) {
	requireIntegrationDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Host = "invalid-host-that-does-not-exist"

	if _, err := NewPostgresPool(ctx, cfg, logger.Nop()); err == nil {
		t.Error("Expected error when connecting to invalid host")
	}
}

func TestNewPostgresPool_PingAndClose(t *testing.T) {
	requireIntegrationDB(t)

	ctx := context.Background()
	cfg := getTestConfig()

	db, err := NewPostgresPool(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}

	if err := db.Ping(ctx); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if stats := db.Pool.Stat(); stats.MaxConns() != int32(cfg.PoolMax) {
		t.Errorf("Expected pool stats with MaxConns %d", cfg.PoolMax)
	}

	db.Close()
	db.Close()

	if err := db.Ping(ctx); err == nil {
		t.Error("Expected ping to fail after pool is closed")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	requireIntegrationDB(t)

	cfg := getTestConfig()
	log := logger.Nop()

	if err := Migrate(cfg.DSN(), log); err != nil {
		t.Fatalf("First migration run failed: %v", err)
	}
	if err := Migrate(cfg.DSN(), log); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}
