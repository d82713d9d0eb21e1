package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe"), 0600))

	size, err := ValidateInputFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(8), size)

	_, err = ValidateInputFile("")
	assert.EqualError(t, err, "filename cannot be empty")

	_, err = ValidateInputFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorContains(t, err, "file does not exist")

	_, err = ValidateInputFile(dir)
	assert.ErrorContains(t, err, "is a directory")
}

func TestValidateOutputFileCreatesDirectory(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "ranking.txt")

	require.NoError(t, ValidateOutputFile(out))

	info, err := os.Stat(filepath.Dir(out))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.NoError(t, ValidateOutputFile(""))
}

func TestIsSupportedDocument(t *testing.T) {
	tests := []struct {
		filename string
		expected bool
	}{
		{"resume.pdf", true},
		{"RESUME.DOCX", true},
		{"cv.doc", true},
		{"notes.md", true},
		{"plain.txt", true},
		{"photo.png", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupportedDocument(tt.filename))
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.0 KB", FormatFileSize(1024))
	assert.Equal(t, "5.0 MB", FormatFileSize(5*1024*1024))
	assert.Equal(t, "1.5 GB", FormatFileSize(3*512*1024*1024))
}
