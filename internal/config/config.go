package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL        MySQLConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Migrate      bool
	HTTPAddr     string
	Platform     PlatformConfig
	EdgeProvider EdgeProviderConfig
	Probe        ProbeConfig
	VerifyWorker VerifyWorkerConfig
	HealthWorker HealthWorkerConfig
	ACME         ACMEConfig
	Analytics    AnalyticsConfig
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// PlatformConfig holds the ingress targets tenants should point their DNS at
type PlatformConfig struct {
	IngressIP    string // expected A record value
	EdgeHostname string // expected CNAME target
}

// EdgeProviderConfig holds edge provider API configuration.
// All fields empty means the provider integration is disabled and
// verification runs DNS/TLS-only.
type EdgeProviderConfig struct {
	APIToken string
	ZoneID   string
}

// ProbeConfig holds per-probe timeout budgets
type ProbeConfig struct {
	DNSTimeoutSec      int
	TLSTimeoutSec      int
	HTTPTimeoutSec     int
	ProviderTimeoutSec int
	OverallTimeoutSec  int
	Nameserver         string // optional override, host:port
}

// VerifyWorkerConfig holds verification queue worker configuration
type VerifyWorkerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
	Concurrency int
}

// HealthWorkerConfig holds health monitor worker configuration
type HealthWorkerConfig struct {
	Enabled     bool
	IntervalSec int
	Concurrency int
}

// ACMEConfig holds auto-TLS issuance configuration
type ACMEConfig struct {
	Enabled         bool
	Email           string
	DirectoryURL    string
	HTTPPort        string // listener for HTTP-01 challenges
	IntervalSec     int
	MaxAttempts     int
	RenewBeforeDays int
}

// AnalyticsConfig holds analytics cache configuration
type AnalyticsConfig struct {
	CacheTTLSec int
}

// Load loads configuration from environment variables.
// If CONFIG_FILE is set, values are taken with priority ENV > INI > default.
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	if iniPath := os.Getenv("CONFIG_FILE"); iniPath != "" {
		return LoadFromINI(iniPath)
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "go_storefront"),
		},
		Migrate:  getEnv("MIGRATE", "0") == "1",
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Platform: PlatformConfig{
			IngressIP:    getEnv("PLATFORM_INGRESS_IP", ""),
			EdgeHostname: getEnv("PLATFORM_EDGE_HOSTNAME", ""),
		},
		EdgeProvider: EdgeProviderConfig{
			APIToken: getEnv("EDGE_PROVIDER_TOKEN", ""),
			ZoneID:   getEnv("EDGE_PROVIDER_ZONE_ID", ""),
		},
		Probe: ProbeConfig{
			DNSTimeoutSec:      getEnvInt("PROBE_DNS_TIMEOUT_SEC", 5),
			TLSTimeoutSec:      getEnvInt("PROBE_TLS_TIMEOUT_SEC", 5),
			HTTPTimeoutSec:     getEnvInt("PROBE_HTTP_TIMEOUT_SEC", 5),
			ProviderTimeoutSec: getEnvInt("PROBE_PROVIDER_TIMEOUT_SEC", 10),
			OverallTimeoutSec:  getEnvInt("PROBE_OVERALL_TIMEOUT_SEC", 20),
			Nameserver:         getEnv("PROBE_NAMESERVER", ""),
		},
		VerifyWorker: VerifyWorkerConfig{
			Enabled:     getEnv("VERIFY_WORKER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("VERIFY_WORKER_INTERVAL_SEC", 30),
			BatchSize:   getEnvInt("VERIFY_WORKER_BATCH_SIZE", 10),
			Concurrency: getEnvInt("VERIFY_WORKER_CONCURRENCY", 5),
		},
		HealthWorker: HealthWorkerConfig{
			Enabled:     getEnv("HEALTH_WORKER_ENABLED", "1") == "1",
			IntervalSec: getEnvInt("HEALTH_WORKER_INTERVAL_SEC", 300),
			Concurrency: getEnvInt("HEALTH_WORKER_CONCURRENCY", 10),
		},
		ACME: ACMEConfig{
			Enabled:         getEnv("ACME_ENABLED", "0") == "1",
			Email:           getEnv("ACME_EMAIL", ""),
			DirectoryURL:    getEnv("ACME_DIRECTORY_URL", "https://acme-v02.api.letsencrypt.org/directory"),
			HTTPPort:        getEnv("ACME_HTTP_PORT", "80"),
			IntervalSec:     getEnvInt("ACME_INTERVAL_SEC", 60),
			MaxAttempts:     getEnvInt("ACME_MAX_ATTEMPTS", 3),
			RenewBeforeDays: getEnvInt("ACME_RENEW_BEFORE_DAYS", 30),
		},
		Analytics: AnalyticsConfig{
			CacheTTLSec: getEnvInt("ANALYTICS_CACHE_TTL_SEC", 30),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.MySQL.DSN == "" {
		return fmt.Errorf("MYSQL_DSN is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.ACME.Enabled && c.ACME.Email == "" {
		return fmt.Errorf("ACME_EMAIL is required when ACME_ENABLED=1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from an INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "go_storefront"),
		},
		Migrate:  getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr: getValue("HTTP_ADDR", "http", "addr", ":8080"),
		Platform: PlatformConfig{
			IngressIP:    getValue("PLATFORM_INGRESS_IP", "platform", "ingress_ip", ""),
			EdgeHostname: getValue("PLATFORM_EDGE_HOSTNAME", "platform", "edge_hostname", ""),
		},
		EdgeProvider: EdgeProviderConfig{
			APIToken: getValue("EDGE_PROVIDER_TOKEN", "edge_provider", "token", ""),
			ZoneID:   getValue("EDGE_PROVIDER_ZONE_ID", "edge_provider", "zone_id", ""),
		},
		Probe: ProbeConfig{
			DNSTimeoutSec:      getValueInt("PROBE_DNS_TIMEOUT_SEC", "probe", "dns_timeout_sec", 5),
			TLSTimeoutSec:      getValueInt("PROBE_TLS_TIMEOUT_SEC", "probe", "tls_timeout_sec", 5),
			HTTPTimeoutSec:     getValueInt("PROBE_HTTP_TIMEOUT_SEC", "probe", "http_timeout_sec", 5),
			ProviderTimeoutSec: getValueInt("PROBE_PROVIDER_TIMEOUT_SEC", "probe", "provider_timeout_sec", 10),
			OverallTimeoutSec:  getValueInt("PROBE_OVERALL_TIMEOUT_SEC", "probe", "overall_timeout_sec", 20),
			Nameserver:         getValue("PROBE_NAMESERVER", "probe", "nameserver", ""),
		},
		VerifyWorker: VerifyWorkerConfig{
			Enabled:     getValueBool("VERIFY_WORKER_ENABLED", "verify_worker", "enabled", true),
			IntervalSec: getValueInt("VERIFY_WORKER_INTERVAL_SEC", "verify_worker", "interval_sec", 30),
			BatchSize:   getValueInt("VERIFY_WORKER_BATCH_SIZE", "verify_worker", "batch_size", 10),
			Concurrency: getValueInt("VERIFY_WORKER_CONCURRENCY", "verify_worker", "concurrency", 5),
		},
		HealthWorker: HealthWorkerConfig{
			Enabled:     getValueBool("HEALTH_WORKER_ENABLED", "health_worker", "enabled", true),
			IntervalSec: getValueInt("HEALTH_WORKER_INTERVAL_SEC", "health_worker", "interval_sec", 300),
			Concurrency: getValueInt("HEALTH_WORKER_CONCURRENCY", "health_worker", "concurrency", 10),
		},
		ACME: ACMEConfig{
			Enabled:         getValueBool("ACME_ENABLED", "acme", "enabled", false),
			Email:           getValue("ACME_EMAIL", "acme", "email", ""),
			DirectoryURL:    getValue("ACME_DIRECTORY_URL", "acme", "directory_url", "https://acme-v02.api.letsencrypt.org/directory"),
			HTTPPort:        getValue("ACME_HTTP_PORT", "acme", "http_port", "80"),
			IntervalSec:     getValueInt("ACME_INTERVAL_SEC", "acme", "interval_sec", 60),
			MaxAttempts:     getValueInt("ACME_MAX_ATTEMPTS", "acme", "max_attempts", 3),
			RenewBeforeDays: getValueInt("ACME_RENEW_BEFORE_DAYS", "acme", "renew_before_days", 30),
		},
		Analytics: AnalyticsConfig{
			CacheTTLSec: getValueInt("ANALYTICS_CACHE_TTL_SEC", "analytics", "cache_ttl_sec", 30),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
