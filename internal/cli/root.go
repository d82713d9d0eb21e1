package cli

import (
	"context"

	"resumerank/internal/common"
	"resumerank/internal/config"
	"resumerank/internal/errors"

	"github.com/spf13/cobra"
)

// Private context key types keep other packages from colliding with ours.
type configKeyType struct{}
type loggerKeyType struct{}

var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumerank",
	Short: "Extract, score and rank resumes",
	Long: `Resumerank pulls contact details, organizations, dates, job titles and
skills out of resumes (plain text, PDF or Word), scores each one on how
complete it is, and ranks a batch from highest to lowest score.`,
	SilenceUsage: true,
}

// Execute runs the command tree with cfg and logger available to every
// subcommand through the context
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.ExecuteContext(ctx)
}

func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// addOutputFlags registers the output flags shared by document commands
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// resolveOutput applies configured defaults and validates the output format
func resolveOutput(cmd *cobra.Command, cc *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if cc.OutputFormat == "" {
		cc.OutputFormat = cfg.App.DefaultFormat
	}
	cc.MaxFileSize = cfg.App.MaxFileSize
	return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(vocabularyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}
