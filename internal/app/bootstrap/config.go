package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the settlement service.
// It merges file defaults and environment overrides to support both local and deployed runs.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	JWTSecret      string
	WebhookSecret  string
	EncryptionSeed string

	PlatformFee   int64
	MinimumPayout int64

	OrderExpiry     time.Duration
	HoldingWindow   time.Duration
	InstructionTTL  time.Duration
	BalanceCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	MaturationBatch int

	MaxDBConns          int32
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	MaintenanceInterval time.Duration
}

// configFile mirrors the YAML schema used by configs/default.yaml.
// It is intentionally separate from Config so runtime-only fields stay internal.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		KafkaTopic   string   `yaml:"kafka_topic"`
	} `yaml:"dependencies"`
	Settlement struct {
		PlatformFee      int64 `yaml:"platform_fee"`
		MinimumPayout    int64 `yaml:"minimum_payout"`
		OrderExpiryHours int   `yaml:"order_expiry_hours"`
		HoldingDays      int   `yaml:"holding_days"`
	} `yaml:"settlement"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
// This order keeps local bootstrap simple while allowing environment-specific overrides.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:           "settlement-service",
		HTTPPort:            8080,
		GRPCPort:            9090,
		KafkaTopic:          "settlement.events",
		PlatformFee:         5000,
		MinimumPayout:       100000,
		OrderExpiry:         24 * time.Hour,
		HoldingWindow:       7 * 24 * time.Hour,
		InstructionTTL:      time.Hour,
		BalanceCacheTTL:     30 * time.Second,
		IdempotencyTTL:      24 * time.Hour,
		MaturationBatch:     100,
		MaxDBConns:          20,
		OutboxPollInterval:  2 * time.Second,
		OutboxBatchSize:     100,
		MaintenanceInterval: time.Minute,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
		}
		if f.Dependencies.KafkaTopic != "" {
			cfg.KafkaTopic = f.Dependencies.KafkaTopic
		}
		if f.Settlement.PlatformFee > 0 {
			cfg.PlatformFee = f.Settlement.PlatformFee
		}
		if f.Settlement.MinimumPayout > 0 {
			cfg.MinimumPayout = f.Settlement.MinimumPayout
		}
		if f.Settlement.OrderExpiryHours > 0 {
			cfg.OrderExpiry = time.Duration(f.Settlement.OrderExpiryHours) * time.Hour
		}
		if f.Settlement.HoldingDays > 0 {
			cfg.HoldingWindow = time.Duration(f.Settlement.HoldingDays) * 24 * time.Hour
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.WebhookSecret = envOrDefault("PAYMENT_WEBHOOK_SECRET", cfg.WebhookSecret)
	cfg.EncryptionSeed = envOrDefault("ENCRYPTION_SEED", cfg.EncryptionSeed)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))

	cfg.PlatformFee = int64(envInt("PLATFORM_FEE", int(cfg.PlatformFee)))
	cfg.MinimumPayout = int64(envInt("MINIMUM_PAYOUT", int(cfg.MinimumPayout)))
	cfg.OrderExpiry = time.Duration(envInt("ORDER_EXPIRY_HOURS", int(cfg.OrderExpiry.Hours()))) * time.Hour
	cfg.HoldingWindow = time.Duration(envInt("HOLDING_DAYS", int(cfg.HoldingWindow.Hours()/24))) * 24 * time.Hour
	cfg.InstructionTTL = time.Duration(envInt("INSTRUCTION_TTL_MINUTES", int(cfg.InstructionTTL.Minutes()))) * time.Minute
	cfg.BalanceCacheTTL = time.Duration(envInt("BALANCE_CACHE_TTL_SECONDS", int(cfg.BalanceCacheTTL.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.MaturationBatch = envInt("MATURATION_BATCH_SIZE", cfg.MaturationBatch)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.MaintenanceInterval = time.Duration(envInt("MAINTENANCE_INTERVAL_SECONDS", int(cfg.MaintenanceInterval.Seconds()))) * time.Second

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.WebhookSecret == "" {
		return Config{}, fmt.Errorf("missing PAYMENT_WEBHOOK_SECRET")
	}
	if cfg.EncryptionSeed == "" {
		return Config{}, fmt.Errorf("missing ENCRYPTION_SEED")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
