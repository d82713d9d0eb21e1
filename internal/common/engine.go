package common

import (
	"resumerank/internal/config"
	"resumerank/internal/engine"
	"resumerank/internal/errors"
)

// LoadEngine builds an engine from the configured vocabulary file, or from
// the built-in vocabulary when none is set.
func LoadEngine(cfg config.EngineConfig, logger *errors.Logger) (*engine.Engine, error) {
	if cfg.VocabularyFile == "" {
		return engine.NewDefault(), nil
	}

	vocab, err := engine.LoadVocabularyFile(cfg.VocabularyFile)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(vocab)
	if err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("Loaded vocabulary", "file", cfg.VocabularyFile,
			"job_titles", len(vocab.JobTitles), "skills", len(vocab.Skills),
			"organization_keywords", len(vocab.OrganizationKeywords))
	}
	return eng, nil
}
