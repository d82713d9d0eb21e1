package loader

import (
	"testing"

	apperrors "resumerank/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected Format
	}{
		{"cv.pdf", FormatPDF},
		{"CV.PDF", FormatPDF},
		{"cv.docx", FormatDOCX},
		{"cv.doc", FormatDOC},
		{"cv.txt", FormatText},
		{"cv.md", FormatText},
		{"cv", FormatText},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFromFilename(tt.filename))
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("txt")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("rtf")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))
}

func TestLoadText(t *testing.T) {
	text, err := Load([]byte("Jane Doe\nEngineer"), FormatText)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nEngineer", text)

	text, err = Load(nil, FormatText)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestLoadInvalidUTF8(t *testing.T) {
	_, err := Load([]byte{0xff, 0xfe, 0xfd}, FormatText)

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeDocumentDecodeFailed, appErr.Code)
	assert.Equal(t, apperrors.ErrorTypeDocument, appErr.Type)
	assert.Equal(t, "text", appErr.Context["format"])
}

func TestLoadCorruptDocuments(t *testing.T) {
	for _, format := range []Format{FormatPDF, FormatDOCX} {
		t.Run(string(format), func(t *testing.T) {
			_, err := Load([]byte("definitely not a document"), format)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDocumentDecodeFailed))
		})
	}
}

func TestLoadUnknownFormat(t *testing.T) {
	_, err := Load([]byte("x"), Format("odt"))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeUnsupportedFormat))
}

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument("jane.txt", []byte("Jane Doe"))
	require.NoError(t, err)
	assert.Equal(t, "jane.txt", doc.Filename)
	assert.Equal(t, "Jane Doe", doc.Text)

	_, err = LoadDocument("broken.pdf", []byte("nope"))
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "broken.pdf", appErr.Context["filename"])
}
