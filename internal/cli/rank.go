package cli

import (
	"context"
	"fmt"

	"resumerank/internal/common"
	"resumerank/internal/ranking"
	"resumerank/internal/types"

	"github.com/spf13/cobra"
)

type rankOptions struct {
	common.CommandConfig
	Select   string
	Position int
	Workers  int
}

var rankConfig rankOptions

var rankCmd = &cobra.Command{
	Use:   "rank [resume-file...]",
	Short: "Score a batch of resumes and list them from best to worst",
	Long: `Extract and score every resume given, then print them ranked by score.
Resumes with equal scores keep the order they were given in.

Use --select to show the full extraction for one file, or --position when
several files share a name. Files ending in .pdf, .docx or .doc are decoded
as such; anything else is read as UTF-8 text.`,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := resolveOutput(cmd, &rankConfig.CommandConfig); err != nil {
			return err
		}
		if rankConfig.Workers == 0 {
			rankConfig.Workers = getConfigFromContext(cmd.Context()).App.Workers
		}
		return common.ValidateSelection(rankConfig.Position)
	},
	RunE: runRank,
}

func init() {
	addOutputFlags(rankCmd, &rankConfig.CommandConfig)
	rankCmd.Flags().StringVar(&rankConfig.Select, "select", "", "Show details for the resume with this filename")
	rankCmd.Flags().IntVar(&rankConfig.Position, "position", 0, "Show details for the resume at this 1-based input position")
	rankCmd.Flags().IntVarP(&rankConfig.Workers, "workers", "w", 0, "Resumes processed at once (default from config)")
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	eng, err := common.LoadEngine(cfg.Engine, logger)
	if err != nil {
		return err
	}

	logDetails := func(docs []types.ResumeDocument, cc common.CommandConfig) {
		logger.Info("Starting resume ranking",
			"resumes", len(docs),
			"workers", rankConfig.Workers,
			"output_format", cc.OutputFormat)
	}

	rankOperation := func(ctx context.Context, docs []types.ResumeDocument) (types.RankResumesOutput, error) {
		batch, err := ranking.Rank(ctx, eng, docs, ranking.Options{Workers: rankConfig.Workers})
		if err != nil {
			return types.RankResumesOutput{}, err
		}
		return batch.Output(rankConfig.Select, rankConfig.Position)
	}

	err = common.RunDocumentCommand(cmd.Context(), logger, cmd.OutOrStdout(),
		rankConfig.CommandConfig, args, rankOperation, logDetails)
	if err != nil {
		return fmt.Errorf("failed to rank resumes: %w", err)
	}
	logger.Info("Resume ranking completed successfully")
	return nil
}
