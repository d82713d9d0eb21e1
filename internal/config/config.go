package config

import (
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	apperrors "resumerank/internal/errors"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMERANK_SERVER_APIKEYS)
// 4. Default values - Lowest priority
type Config struct {
	Engine        EngineConfig        `mapstructure:"engine"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// EngineConfig controls the extraction vocabulary
type EngineConfig struct {
	VocabularyFile  string        `mapstructure:"vocabularyFile"`  // YAML file overriding the built-in term lists
	WatchVocabulary bool          `mapstructure:"watchVocabulary"` // Reload the vocabulary file when it changes (serve only)
	WatchDebounce   time.Duration `mapstructure:"watchDebounce"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// MaxBatchSize caps the number of resumes in one ranking request
	MaxBatchSize int `mapstructure:"maxBatchSize"`

	TLS TLSConfig `mapstructure:"tls"`

	// Valid API keys for authentication
	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`

	// ConverterBreaker guards the external converter used for .doc uploads
	ConverterBreaker CircuitBreakerConfig `mapstructure:"converterBreaker"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA certificate for client cert verification (PEM, mutual mode)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"`       // "1.2" or "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`     // Allowed cipher suites (optional)
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"` // Requests let through while half-open
	Interval         time.Duration `mapstructure:"interval"`    // Closed-state window after which counts reset
	Timeout          time.Duration `mapstructure:"timeout"`     // Time spent open before probing again
	MinRequests      uint32        `mapstructure:"minRequests"`
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio that opens the breaker
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
	Workers          int      `mapstructure:"workers"` // Resumes processed concurrently within a batch
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Tracing         TracingConfig       `mapstructure:"tracing"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig toggles groups of application metrics
type CustomMetricsConfig struct {
	Extraction     ExtractionMetricsConfig     `mapstructure:"extraction"`
	Ranking        RankingMetricsConfig        `mapstructure:"ranking"`
	Infrastructure InfrastructureMetricsConfig `mapstructure:"infrastructure"`
}

// ExtractionMetricsConfig covers per-resume metrics
type ExtractionMetricsConfig struct {
	Enabled            bool `mapstructure:"enabled"`
	TrackDuration      bool `mapstructure:"trackDuration"`
	TrackScores        bool `mapstructure:"trackScores"`
	TrackDocumentSizes bool `mapstructure:"trackDocumentSizes"`
}

// RankingMetricsConfig covers per-batch metrics
type RankingMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackBatchSizes bool `mapstructure:"trackBatchSizes"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	Enabled                bool `mapstructure:"enabled"`
	TrackRateLimits        bool `mapstructure:"trackRateLimits"`
	TrackVocabularyReloads bool `mapstructure:"trackVocabularyReloads"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

const envPrefix = "RESUMERANK"

// LoadConfig loads configuration from environment variables and a config file
// found on the default search paths.
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile loads configuration from path, or from the default search
// paths when path is empty.
func LoadConfigFile(path string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()

	setDefaults(v)
	log.Println("[CONFIG] Applied default configuration values")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	log.Printf("[CONFIG] Configured environment variable handling with prefix '%s'", envPrefix)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/resumerank/")
		v.AddConfigPath("$HOME/.resumerank")
		v.AddConfigPath(".")
		log.Println("[CONFIG] Configured config file search paths: /etc/resumerank/, $HOME/.resumerank, .")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
				"failed to read config file", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			"failed to unmarshal config", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := apperrors.ParseLevel(c.App.LogLevel); err != nil {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, err.Error(), nil)
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("invalid default format: %s", c.App.DefaultFormat), nil)
	}

	if c.App.Workers < 1 {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("app.workers must be at least 1, got %d", c.App.Workers), nil)
	}

	if c.App.MaxFileSize <= 0 {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			"app.maxFileSize must be positive", nil)
	}

	if c.Server.Port == "" {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "server port is required", nil)
	}

	if c.Server.MaxBatchSize < 1 {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			"server.maxBatchSize must be at least 1", nil)
	}

	if cb := c.Server.ConverterBreaker; cb.Enabled && (cb.FailureThreshold <= 0 || cb.FailureThreshold > 1) {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("server.converterBreaker.failureThreshold must be in (0, 1], got %g", cb.FailureThreshold), nil)
	}

	if c.Engine.WatchVocabulary && c.Engine.VocabularyFile == "" {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			"engine.watchVocabulary requires engine.vocabularyFile", nil)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig, "TLS configuration error", err)
	}

	return nil
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMERANK_APP_LOGLEVEL",
		"RESUMERANK_APP_WORKERS",
		"RESUMERANK_ENGINE_VOCABULARYFILE",
		"RESUMERANK_SERVER_PORT",
		"RESUMERANK_SERVER_HOST",
		"RESUMERANK_SERVER_APIKEYS",
		"RESUMERANK_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	if c.Engine.VocabularyFile != "" {
		log.Printf("[CONFIG] Vocabulary File: %s (watch: %t)", c.Engine.VocabularyFile, c.Engine.WatchVocabulary)
	} else {
		log.Println("[CONFIG] Vocabulary File: built-in")
	}
	log.Printf("[CONFIG] Workers: %d", c.App.Workers)
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] Server API Keys: %d configured", len(c.Server.APIKeys))
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)
	log.Println("[CONFIG] =====================================")
}
