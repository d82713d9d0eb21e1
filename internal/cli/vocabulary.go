package cli

import (
	"resumerank/internal/common"
	"resumerank/internal/config"
	"resumerank/internal/types"

	"github.com/spf13/cobra"
)

var vocabularyConfig common.CommandConfig

var vocabularyCmd = &cobra.Command{
	Use:   "vocabulary [vocabulary-file]",
	Short: "Print the job titles, skills and organization keywords in use",
	Long: `Print the vocabulary the engine matches against. With no argument this is
the configured vocabulary file, or the built-in lists when none is set.
Given a file, that file is loaded and validated instead, which makes the
command a quick check before pointing the server at a new vocabulary.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return resolveOutput(cmd, &vocabularyConfig)
	},
	RunE: runVocabulary,
}

func init() {
	addOutputFlags(vocabularyCmd, &vocabularyConfig)
}

func runVocabulary(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	engineCfg := cfg.Engine
	if len(args) == 1 {
		engineCfg = config.EngineConfig{VocabularyFile: args[0]}
	}

	eng, err := common.LoadEngine(engineCfg, logger)
	if err != nil {
		return err
	}

	vocab := eng.Vocabulary()
	return common.NewOutputHandlerTo(logger, cmd.OutOrStdout()).HandleOutput(types.VocabularyOutput{
		JobTitles:            vocab.JobTitles,
		Skills:               vocab.Skills,
		OrganizationKeywords: vocab.OrganizationKeywords,
	}, vocabularyConfig)
}
