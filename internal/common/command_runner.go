package common

import (
	"context"
	"io"

	"resumerank/internal/errors"
	"resumerank/internal/types"
)

// DocumentOperationFunc turns the decoded input files into a printable result.
type DocumentOperationFunc[Output any] func(context.Context, []types.ResumeDocument) (Output, error)

// LogDetailsFunc logs the start of an operation.
type LogDetailsFunc func(docs []types.ResumeDocument, cfg CommandConfig)

// RunDocumentCommand encapsulates the common logic for file-based CLI
// commands: read and decode every file, run the operation, write the result.
func RunDocumentCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	out io.Writer,
	cmdConfig CommandConfig,
	args []string,
	operation DocumentOperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	fileProcessor := NewFileProcessor(logger, cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandlerTo(logger, out)

	docs, err := fileProcessor.ReadDocuments(args...)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(docs, cmdConfig)
	}

	result, err := operation(ctx, docs)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
