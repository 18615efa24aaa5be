package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	AdminToken  string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBLogLevel        string
	DBSlowQueryMS     int

	WizardStore   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PublicRatePerMinute int
	PublicRateBurst     int

	SeedDemoData bool
}

const (
	WizardStoreMemory = "memory"
	WizardStoreRedis  = "redis"
)

var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewWizardConfigHolder,
	),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:             getenv("APP_SERVICE", "academy"),
		AppVersion:          getenv("APP_VERSION", "0.1.0"),
		Environment:         environment,
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		AdminToken:          strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
		OTLPEndpoint:        getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:              getenv("DATABASE_TYPE", "postgres"),
		DBHost:              getenv("DATABASE_HOST", "localhost"),
		DBPort:              getenv("DATABASE_PORT", "5432"),
		DBName:              getenv("DATABASE_NAME", "academy"),
		DBUser:              getenv("DATABASE_USER", "postgres"),
		DBPassword:          getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:           getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:       getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:       getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:   getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:   getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBLogLevel:          getenv("DATABASE_LOG_LEVEL", "warn"),
		DBSlowQueryMS:       getenvInt("DATABASE_SLOW_QUERY_MS", 200),
		WizardStore:         normalizeStore(getenv("WIZARD_STORE", WizardStoreMemory)),
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		PublicRatePerMinute: getenvInt("PUBLIC_RATE_PER_MINUTE", 120),
		PublicRateBurst:     getenvInt("PUBLIC_RATE_BURST", 20),
		SeedDemoData:        getenvBool("SEED_DEMO_DATA", environment != "production"),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func normalizeStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case WizardStoreRedis:
		return WizardStoreRedis
	default:
		return WizardStoreMemory
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
