package observability

import (
	"time"

	"resumerank/internal/config"
)

// ObservabilityConfig holds configuration for observability
type ObservabilityConfig struct {
	ServiceName        string
	ServiceVersion     string
	ServiceInstance    string
	Enabled            bool
	TracingEnabled     bool
	MetricsEnabled     bool
	ConsoleOutput      bool
	PrettyPrint        bool
	SampleRate         float64
	CollectionInterval time.Duration
	Prometheus         PrometheusConfig
	OTLP               config.OTLPConfig
	CustomMetrics      config.CustomMetricsConfig
}

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:        "resumerank",
			ServiceVersion:     version,
			ServiceInstance:    "resumerank-1",
			Enabled:            true,
			TracingEnabled:     true,
			MetricsEnabled:     true,
			ConsoleOutput:      true,
			PrettyPrint:        true,
			SampleRate:         1.0,
			CollectionInterval: 15 * time.Second,
			Prometheus:         GetPrometheusConfig(nil),
			CustomMetrics:      allCustomMetrics(),
		}
	}

	obs := cfg.Observability

	serviceVersion := obs.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	sampleRate := obs.SampleRate
	if obs.Tracing.SampleRate > 0 && obs.Tracing.SampleRate < sampleRate {
		sampleRate = obs.Tracing.SampleRate
	}

	return ObservabilityConfig{
		ServiceName:        obs.ServiceName,
		ServiceVersion:     serviceVersion,
		ServiceInstance:    obs.ServiceInstance,
		Enabled:            obs.Enabled,
		TracingEnabled:     obs.Tracing.Enabled,
		MetricsEnabled:     obs.Metrics.Enabled,
		ConsoleOutput:      obs.ConsoleOutput || obs.Console.Enabled,
		PrettyPrint:        obs.Console.PrettyPrint,
		SampleRate:         sampleRate,
		CollectionInterval: obs.Metrics.CollectionInterval,
		Prometheus:         GetPrometheusConfig(cfg),
		OTLP:               obs.OTLP,
		CustomMetrics:      obs.CustomMetrics,
	}
}

func allCustomMetrics() config.CustomMetricsConfig {
	return config.CustomMetricsConfig{
		Extraction: config.ExtractionMetricsConfig{
			Enabled: true, TrackDuration: true, TrackScores: true, TrackDocumentSizes: true,
		},
		Ranking: config.RankingMetricsConfig{Enabled: true, TrackBatchSizes: true},
		Infrastructure: config.InfrastructureMetricsConfig{
			Enabled: true, TrackRateLimits: true, TrackVocabularyReloads: true,
		},
	}
}
