package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/academy/internal/config"
)

// Config holds observability configuration. Values come from config.Config
// with OTEL_* and LOG_* environment variables taking precedence.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	MetricsPath string
}

func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, os.Getenv)
}

func loadConfig(cfg config.Config, lookup func(string) string) Config {
	env := envReader(lookup)

	protocol := env.str("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := env.str("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", ""); traces != "" {
		protocol = traces
	}

	metricsPath := env.str("METRICS_PATH", "/metrics")
	if !strings.HasPrefix(metricsPath, "/") {
		metricsPath = "/" + metricsPath
	}

	ratio := env.number("OTEL_SAMPLING_RATIO", 0.1)
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "academy"
	}

	return Config{
		ServiceName:          serviceName,
		Environment:          env.str("DEPLOYMENT_ENV", cfg.Environment),
		Version:              env.str("SERVICE_VERSION", cfg.AppVersion),
		LogLevel:             strings.ToLower(env.str("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(env.str("LOG_FORMAT", "json")),
		OtelEnabled:          env.flag("OTEL_ENABLED", cfg.IsProduction()),
		OtelExporterEndpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(protocol),
		OtelSamplingRatio:    ratio,
		MetricsPath:          metricsPath,
	}
}

// Debug is true for debug logging or any non-production environment name.
func (c Config) Debug() bool {
	if strings.EqualFold(c.LogLevel, "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

type envReader func(string) string

func (r envReader) str(key, def string) string {
	if value := strings.TrimSpace(r(key)); value != "" {
		return value
	}
	return strings.TrimSpace(def)
}

func (r envReader) flag(key string, def bool) bool {
	switch strings.ToLower(r.str(key, "")) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func (r envReader) number(key string, def float64) float64 {
	parsed, err := strconv.ParseFloat(r.str(key, ""), 64)
	if err != nil {
		return def
	}
	return parsed
}
