package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumerank/internal/errors"
	"resumerank/internal/loader"
	"resumerank/internal/types"
	"resumerank/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a new file processor. A maxFileSize of zero or
// less disables the size check.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFile reads raw bytes from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil && fp.logger != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// CheckSize rejects documents above the configured limit
func (fp *FileProcessor) CheckSize(filename string, size int64) error {
	if fp.maxFileSize > 0 && size > fp.maxFileSize {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File %s is %s, limit is %s", filename,
				utils.FormatFileSize(size), utils.FormatFileSize(fp.maxFileSize)), nil).
			WithContext("filename", filename)
	}
	return nil
}

// ReadDocument validates, reads and decodes a single resume. The document is
// named by its base filename.
func (fp *FileProcessor) ReadDocument(filename string) (types.ResumeDocument, error) {
	size, err := utils.ValidateInputFile(filename)
	if err != nil {
		return types.ResumeDocument{}, errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Invalid file %s", filename), err)
	}
	if err := fp.CheckSize(filename, size); err != nil {
		return types.ResumeDocument{}, err
	}

	if !utils.IsSupportedDocument(filename) {
		if fp.logger != nil {
			fp.logger.Warn("Unrecognized extension, reading as text", "filename", filename)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: %s will be read as plain text\n", filename)
		}
	}

	data, err := fp.ReadFile(filename)
	if err != nil {
		return types.ResumeDocument{}, err
	}

	return loader.LoadDocument(filepath.Base(filename), data)
}

// ReadDocuments reads every file in order. The first failure aborts.
func (fp *FileProcessor) ReadDocuments(filenames ...string) ([]types.ResumeDocument, error) {
	docs := make([]types.ResumeDocument, 0, len(filenames))
	for _, filename := range filenames {
		doc, err := fp.ReadDocument(filename)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
