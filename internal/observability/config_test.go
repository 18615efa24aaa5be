package observability

import (
	"testing"

	"github.com/smallbiznis/academy/internal/config"
	"github.com/stretchr/testify/assert"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig(config.Config{Environment: "development", AppVersion: "1.2.3"}, envMap(nil))

	assert.Equal(t, "academy", cfg.ServiceName)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "/metrics", cfg.MetricsPath)
	assert.True(t, cfg.Debug())
}

func TestLoadConfigProductionEnablesOtel(t *testing.T) {
	cfg := loadConfig(config.Config{AppName: "academy", Environment: "production"}, envMap(nil))

	assert.True(t, cfg.OtelEnabled)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	cfg := loadConfig(config.Config{Environment: "production"}, envMap(map[string]string{
		"OTEL_ENABLED":                       "off",
		"OTEL_EXPORTER_OTLP_PROTOCOL":        "grpc",
		"OTEL_EXPORTER_OTLP_TRACES_PROTOCOL": "HTTP/protobuf",
		"OTEL_SAMPLING_RATIO":                "4",
		"METRICS_PATH":                       "internal/metrics",
		"LOG_LEVEL":                          "DEBUG",
	}))

	assert.False(t, cfg.OtelEnabled)
	assert.Equal(t, "http/protobuf", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.Equal(t, "/internal/metrics", cfg.MetricsPath)
	assert.True(t, cfg.Debug())
}

func TestSplitConfigCarriesServiceIdentity(t *testing.T) {
	cfg := loadConfig(config.Config{AppName: "academy", Environment: "staging", AppVersion: "2.0.0"}, envMap(nil))

	out := splitConfig(cfg)

	assert.Equal(t, "academy", out.Logger.ServiceName)
	assert.False(t, out.Logger.Debug)
	assert.Equal(t, "2.0.0", out.Tracing.ServiceVersion)
	assert.Equal(t, "/metrics", out.Metrics.Path)
}
