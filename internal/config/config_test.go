package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	os.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/test")
	os.Setenv("JWT_SECRET", "test-secret")
	defer func() {
		os.Unsetenv("MYSQL_DSN")
		os.Unsetenv("JWT_SECRET")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.MySQL.DSN == "" {
		t.Error("MySQL DSN should not be empty")
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr :8080, got %s", cfg.HTTPAddr)
	}

	if cfg.Probe.DNSTimeoutSec != 5 {
		t.Errorf("Expected default DNS timeout 5s, got %d", cfg.Probe.DNSTimeoutSec)
	}

	if cfg.Probe.OverallTimeoutSec != 20 {
		t.Errorf("Expected default overall timeout 20s, got %d", cfg.Probe.OverallTimeoutSec)
	}
}

func TestLoad_MissingMySQLDSN(t *testing.T) {
	os.Unsetenv("MYSQL_DSN")
	os.Setenv("JWT_SECRET", "test-secret")
	defer os.Unsetenv("JWT_SECRET")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when MYSQL_DSN is missing")
	}
}

func TestLoad_ACMERequiresEmail(t *testing.T) {
	os.Setenv("MYSQL_DSN", "user:pass@tcp(localhost:3306)/test")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("ACME_ENABLED", "1")
	defer func() {
		os.Unsetenv("MYSQL_DSN")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("ACME_ENABLED")
	}()

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ACME is enabled without ACME_EMAIL")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("MYSQL_DSN", "custom:dsn@tcp(localhost:3306)/custom")
	os.Setenv("JWT_SECRET", "test-secret")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("REDIS_DB", "5")
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("PLATFORM_INGRESS_IP", "203.0.113.10")
	os.Setenv("HEALTH_WORKER_INTERVAL_SEC", "60")

	defer func() {
		os.Unsetenv("MYSQL_DSN")
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("REDIS_ADDR")
		os.Unsetenv("REDIS_DB")
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("PLATFORM_INGRESS_IP")
		os.Unsetenv("HEALTH_WORKER_INTERVAL_SEC")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Redis.Addr != "redis.example.com:6379" {
		t.Errorf("Expected custom Redis addr, got %s", cfg.Redis.Addr)
	}

	if cfg.Redis.DB != 5 {
		t.Errorf("Expected Redis DB 5, got %d", cfg.Redis.DB)
	}

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("Expected HTTPAddr :9090, got %s", cfg.HTTPAddr)
	}

	if cfg.Platform.IngressIP != "203.0.113.10" {
		t.Errorf("Expected ingress IP 203.0.113.10, got %s", cfg.Platform.IngressIP)
	}

	if cfg.HealthWorker.IntervalSec != 60 {
		t.Errorf("Expected health worker interval 60, got %d", cfg.HealthWorker.IntervalSec)
	}
}
