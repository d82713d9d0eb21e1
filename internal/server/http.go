package server

import (
	"sync/atomic"
	"time"

	"resumerank/internal/config"
	"resumerank/internal/engine"
	apperrors "resumerank/internal/errors"
	"resumerank/internal/formatters"
	"resumerank/internal/loader"
	"resumerank/internal/types"
)

// RankRequest is the JSON body accepted by POST /rank
type RankRequest struct {
	Resumes  []types.ResumeDocument `json:"resumes"`
	Select   string                 `json:"select,omitempty"`
	Position int                    `json:"position,omitempty"`
}

// ExtractRequest is the JSON body accepted by POST /extract
type ExtractRequest = types.ExtractResumeInput

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request limits
	MaxRequestSize int64
	MaxBatchSize   int
	Workers        int

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	VocabularyWatcher *VocabularyWatcher

	Logger *apperrors.Logger

	registry  *formatters.FormatterRegistry
	documents *loader.Loader
	engine    atomic.Pointer[engine.Engine]
	stats     serverStats
}

type serverStats struct {
	resumesProcessed atomic.Int64
	batchesRanked    atomic.Int64
	reloads          atomic.Int64
	reloadFailures   atomic.Int64
	lastReload       atomic.Pointer[time.Time]
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	MaxBatchSize   int
	Workers        int
	RateLimit      *config.RateLimitConfig

	ConverterBreaker config.CircuitBreakerConfig
}

// NewServer creates a new Server that scores with eng until the vocabulary
// is reloaded
func NewServer(appCfg *config.Config, cfg ServerConfig, eng *engine.Engine, logger *apperrors.Logger) *Server {
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	s := &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		MaxBatchSize:   cfg.MaxBatchSize,
		Workers:        cfg.Workers,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Logger:         logger,
		registry:       formatters.GlobalRegistry,
		documents:      loader.New(loader.NewConverterBreaker(cfg.ConverterBreaker, logger)),
	}
	s.engine.Store(eng)
	return s
}

// Engine returns the engine currently serving requests
func (s *Server) Engine() *engine.Engine {
	return s.engine.Load()
}

// SwapEngine replaces the engine for subsequent requests. Requests already
// running finish with the engine they started with.
func (s *Server) SwapEngine(eng *engine.Engine) {
	s.engine.Store(eng)
	now := time.Now()
	s.stats.lastReload.Store(&now)
	s.stats.reloads.Add(1)
}
