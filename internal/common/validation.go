package common

import (
	"fmt"
	"slices"

	"resumerank/internal/errors"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}

	if slices.Contains(supportedFormats, format) {
		return nil
	}

	return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
		format, supportedFormats)
}

// ValidateBatchSize checks a ranking request holds at least one resume and no
// more than limit. A limit of zero means unlimited.
func ValidateBatchSize(n, limit int) error {
	if n == 0 {
		return errors.NewValidationError(errors.ErrCodeEmptyBatch,
			"at least one resume is required", nil)
	}
	if limit > 0 && n > limit {
		return errors.NewValidationError(errors.ErrCodeBatchTooLarge,
			fmt.Sprintf("batch of %d resumes exceeds the limit of %d", n, limit), nil).
			WithContext("limit", limit)
	}
	return nil
}

// ValidateSelection rejects negative positions. Zero means no selection.
func ValidateSelection(position int) error {
	if position < 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("position must be positive, got %d", position), nil)
	}
	return nil
}
