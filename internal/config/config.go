package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPAddr      string
	StorageDriver string
	PostgresDSN   string
	RedisAddr     string

	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaLedgerTopic  string
	KafkaActionsTopic string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	OTLPEndpoint string
	LogLevel     string

	StatsCacheTTL        time.Duration
	AlertLimit           int
	AlertAwardSpike      int64
	AlertSignupMilestone int64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using default values", "error", err)
	}

	cfg := &Config{
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
		PostgresDSN:   getEnv("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=coins sslmode=disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaEnabled:      getBool("KAFKA_ENABLED", false),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKER", "localhost:9092")),
		KafkaLedgerTopic:  getEnv("KAFKA_LEDGER_TOPIC", "coin-transactions"),
		KafkaActionsTopic: getEnv("KAFKA_ACTIONS_TOPIC", "user-actions"),

		JWTSecret:     getEnv("JWT_SECRET", "supersecret"),
		TokenTTL:      getDuration("TOKEN_TTL", time.Hour),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		StatsCacheTTL:        getDuration("STATS_CACHE_TTL", 30*time.Second),
		AlertLimit:           int(getInt("ALERT_LIMIT", 20)),
		AlertAwardSpike:      getInt("ALERT_AWARD_SPIKE", 10000),
		AlertSignupMilestone: getInt("ALERT_SIGNUP_MILESTONE", 10),
	}

	if cfg.StorageDriver != DriverPostgres && cfg.StorageDriver != DriverMemory {
		slog.Warn("unknown storage driver, falling back to postgres", "driver", cfg.StorageDriver)
		cfg.StorageDriver = DriverPostgres
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"storage_driver", cfg.StorageDriver,
		"redis_addr", cfg.RedisAddr,
		"kafka_enabled", cfg.KafkaEnabled,
		"kafka_brokers", cfg.KafkaBrokers,
	)
	return cfg
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(def)))
	if err != nil {
		slog.Warn("invalid boolean, using default", "key", key, "default", def)
		return def
	}
	return v
}

func getInt(key string, def int64) int64 {
	v, err := strconv.ParseInt(getEnv(key, strconv.FormatInt(def, 10)), 10, 64)
	if err != nil || v < 0 {
		slog.Warn("invalid integer, using default", "key", key, "default", def)
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, def.String()))
	if err != nil || v < 0 {
		slog.Warn("invalid duration, using default", "key", key, "default", def)
		return def
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
