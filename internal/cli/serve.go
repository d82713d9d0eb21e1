package cli

import (
	"fmt"

	"resumerank/internal/common"
	"resumerank/internal/config"
	"resumerank/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP ranking server",
	Long: `Start an HTTP server exposing the ranking engine.

Available endpoints:
- POST /rank: Rank a batch of resumes (JSON or multipart field "resumes")
- POST /extract: Extract and score one resume (JSON or multipart field "resume")
- GET /vocabulary: Terms the engine matches against
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

Responses are JSON; add ?format=text or ?format=markdown for a rendered view.

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
	serveCmd.Flags().String("ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	serveCmd.Flags().String("vocabulary", "", "Vocabulary file (overrides config)")
	serveCmd.Flags().Bool("watch-vocabulary", false, "Reload the vocabulary file when it changes")
	serveCmd.Flags().IntP("workers", "w", 0, "Resumes processed at once per request (default from config)")
}

// applyServeFlags copies explicitly set flags over the loaded configuration
func applyServeFlags(flags *pflag.FlagSet, cfg *config.Config) {
	strOverride := func(name string, dst *string) {
		if flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}

	strOverride("port", &cfg.Server.Port)
	strOverride("host", &cfg.Server.Host)
	strOverride("tls-mode", &cfg.Server.TLS.Mode)
	strOverride("cert-file", &cfg.Server.TLS.CertFile)
	strOverride("key-file", &cfg.Server.TLS.KeyFile)
	strOverride("ca-file", &cfg.Server.TLS.CAFile)
	strOverride("vocabulary", &cfg.Engine.VocabularyFile)

	if flags.Changed("watch-vocabulary") {
		cfg.Engine.WatchVocabulary, _ = flags.GetBool("watch-vocabulary")
	}
	if flags.Changed("workers") {
		cfg.App.Workers, _ = flags.GetInt("workers")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	applyServeFlags(cmd.Flags(), cfg)

	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	eng, err := common.LoadEngine(cfg.Engine, logger)
	if err != nil {
		return err
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize,
		MaxBatchSize:   cfg.Server.MaxBatchSize,
		Workers:        cfg.App.Workers,
		RateLimit:      &cfg.Server.RateLimit,

		ConverterBreaker: cfg.Server.ConverterBreaker,
	}
	return server.NewServer(cfg, serverCfg, eng, logger).Start(cmd.Context())
}
