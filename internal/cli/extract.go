package cli

import (
	"context"
	"fmt"

	"resumerank/internal/common"
	"resumerank/internal/ranking"
	"resumerank/internal/types"

	"github.com/spf13/cobra"
)

var extractConfig common.CommandConfig

var extractCmd = &cobra.Command{
	Use:   "extract [resume-file]",
	Short: "Show the fields extracted from one resume and its score",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &extractConfig)
	},
	RunE: runExtract,
}

func init() {
	addOutputFlags(extractCmd, &extractConfig)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	eng, err := common.LoadEngine(cfg.Engine, logger)
	if err != nil {
		return err
	}

	extractOperation := func(_ context.Context, docs []types.ResumeDocument) (types.ResumeDetail, error) {
		rec := eng.Process(docs[0])
		rec.Position = 1
		return ranking.Detail(rec), nil
	}

	logDetails := func(docs []types.ResumeDocument, cc common.CommandConfig) {
		logger.Info("Starting resume extraction",
			"filename", docs[0].Filename,
			"resume_chars", len(docs[0].Text),
			"output_format", cc.OutputFormat)
	}

	err = common.RunDocumentCommand(cmd.Context(), logger, cmd.OutOrStdout(),
		extractConfig, args, extractOperation, logDetails)
	if err != nil {
		return fmt.Errorf("failed to extract resume: %w", err)
	}
	return nil
}
